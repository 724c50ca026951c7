package grammar

// DecisionTree groups the productions of one nonterminal by the
// shared prefixes of their right-hand sides.  At every node, EndRule
// is the production that is complete here, RepeatRule the production
// whose next element is a Repeat; the two are mutually exclusive.
type DecisionTree struct {
	EndRule    *Rule
	RepeatRule *Rule
	Edges      []DecisionEdge
}

// DecisionEdge descends to the productions whose next rhs element is
// the given occurrence of Sym.
type DecisionEdge struct {
	Sym   Symbol
	Index int
	Child *DecisionTree
}

type ruleProd struct {
	rule *Rule
	prod []IndexedSym
}

// BuildDecisionTree folds the rules for one nonterminal into a
// prefix-sharing decision tree.
func BuildDecisionTree(nt *NT, rules []*Rule) (*DecisionTree, error) {
	items := make([]ruleProd, len(rules))
	for i, r := range rules {
		items[i] = ruleProd{rule: r, prod: r.indexedRHS}
	}
	return buildDecision(nt, 0, items)
}

func buildDecision(nt *NT, depth int, items []ruleProd) (*DecisionTree, error) {
	tree := &DecisionTree{}

	type group struct {
		sym   Symbol
		index int
		conts []ruleProd
	}
	var groups []*group
	byKey := map[envKey]*group{}

	for _, item := range items {
		if len(item.prod) == 0 {
			if tree.EndRule != nil {
				return nil, grammarErrorf("multiple seemingly equivalent rules of size %d for nonterminal %s", depth, nt.name)
			}
			tree.EndRule = item.rule
			continue
		}

		head := item.prod[0]
		cont := ruleProd{rule: item.rule, prod: item.prod[1:]}

		if _, isRepeat := head.Sym.(*Repeat); isRepeat {
			if tree.RepeatRule != nil {
				return nil, grammarErrorf("multiple seemingly equivalent repeat-handler rules at depth %d for nonterminal %s", depth, nt.name)
			}
			tree.RepeatRule = item.rule
			continue
		}

		key := envKey{head.Sym.SymKey(), head.Index}
		grp, found := byKey[key]
		if !found {
			grp = &group{sym: head.Sym, index: head.Index}
			byKey[key] = grp
			groups = append(groups, grp)
		}
		grp.conts = append(grp.conts, cont)
	}

	if tree.EndRule != nil && tree.RepeatRule != nil {
		return nil, grammarErrorf("conflicting end-of-rule and repeat-rule at rules of size %d for nonterminal %s", depth, nt.name)
	}

	for _, grp := range groups {
		child, err := buildDecision(nt, depth+1, grp.conts)
		if err != nil {
			return nil, err
		}
		tree.Edges = append(tree.Edges, DecisionEdge{Sym: grp.sym, Index: grp.index, Child: child})
	}
	return tree, nil
}
