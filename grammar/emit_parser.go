package grammar

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// EmitParser renders the parser source template: the value-token
// decoding switch and one recursive-descent parse function per
// nonterminal.
func (g *Grammar) EmitParser(tmpl *cgen.Template) (string, error) {
	if err := g.requirePreprocessed(); err != nil {
		return "", err
	}
	parsing, err := g.buildParseRules()
	if err != nil {
		return "", err
	}
	return tmpl.Render(map[string]string{
		"VALUE_TOKEN_DECODING": g.valueTokenDecoding(),
		"PARSING":              parsing,
	})
}

func (g *Grammar) requirePreprocessed() error {
	if g.err != nil {
		return g.err
	}
	if !g.preprocessed {
		return grammarErrorf("grammar has not been preprocessed")
	}
	return nil
}

// valueTokenDecoding builds the switch cases that turn value-bearing
// tokens into value nodes right after lexing.
func (g *Grammar) valueTokenDecoding() string {
	seen := map[string]bool{}
	var lines []string
	for _, r := range g.rules {
		for _, node := range SelfAndSub(r.astgen) {
			t, ok := node.(*Term)
			if !ok || !t.SymbolicTokenID() {
				continue
			}
			_, field, hasValue := t.ValueNode()
			if !hasValue || seen[t.TokenID()] {
				continue
			}
			seen[t.TokenID()] = true
			lines = append(lines, fmt.Sprintf(
				"\tcase %s:\n\t\t*node_ptr = SETLINE(value_node_alloc_generic(%s, (ast_value_union_t) { .%s = yylval.%s }));\n\t\tbreak;",
				t.TokenID(), t.ASTFullName(), field, field))
		}
	}
	return strings.Join(lines, "\n")
}

func (g *Grammar) emitRuleHeader(src *cgen.Source, lhs *NT, trail string) {
	if g.IsExported(lhs) {
		src.Line("int")
	} else {
		src.Line("static int")
	}
	src.Linef("%s(%s *result)%s", lhs.ParseFunctionName(), lhs.ResultStorage(), trail)
}

func (g *Grammar) buildParseRules() (string, error) {
	src := cgen.NewSource()

	for _, lhs := range g.ruleNTs {
		g.emitRuleHeader(src, lhs, ";")
	}
	src.Line("")

	for _, lhs := range g.ruleNTs {
		if err := g.emitParseFunction(src, lhs); err != nil {
			return "", err
		}
	}
	return src.String(), nil
}

type pathElem struct {
	sym   Symbol
	index int
}

type parserEmitter struct {
	g          *Grammar
	src        *cgen.Source
	lhs        *NT
	env        map[envKey]string
	errorLabel string
	loopLabel  string
	err        error
}

func (g *Grammar) emitParseFunction(src *cgen.Source, lhs *NT) error {
	tree, err := BuildDecisionTree(lhs, g.RulesFor(lhs))
	if err != nil {
		return err
	}

	pe := &parserEmitter{
		g:          g,
		src:        src,
		lhs:        lhs,
		env:        map[envKey]string{},
		errorLabel: lhs.ParseFunctionName() + "_fail",
		loopLabel:  lhs.ParseFunctionName() + "_loop",
	}

	g.emitRuleHeader(src, lhs, "")
	src.Line("{")
	src.Block(func() {
		// One zero-initialized slot per (rhs element, occurrence),
		// so branches reached out of order still have defined
		// storage.
		for _, rule := range g.RulesFor(lhs) {
			for _, is := range rule.indexedRHS {
				key := envKey{is.Sym.SymKey(), is.Index}
				if pe.env[key] != "" {
					continue
				}
				storage := is.Sym.ResultStorage()
				if storage == "" {
					continue
				}
				name := fmt.Sprintf("v_%s_%d", is.Sym, is.Index)
				src.Linef("%s %s = %s;", storage, name, is.Sym.ResultStorageInit())
				pe.env[key] = name
			}
		}

		pe.gen(tree, nil)
	})
	src.Label(pe.errorLabel)
	src.Block(func() {
		lhs.emitHandleFail(src)
	})
	src.Line("}")
	src.Line("")

	return pe.err
}

// lookup is the plain environment used while recognizing; it answers
// "" for elements without storage.
func (pe *parserEmitter) lookup(sym ASTGen, index int) string {
	return pe.env[symEnvKey(sym, index)]
}

func symEnvKey(sym ASTGen, index int) envKey {
	switch s := sym.(type) {
	case *Term:
		return envKey{s.SymKey(), index}
	case *NT:
		return envKey{s.SymKey(), index}
	case *NTSub:
		return envKey{s.owner.SymKey(), s.index}
	case *Repeat:
		return envKey{s.SymKey(), index}
	}
	return envKey{}
}

func (pe *parserEmitter) gen(node *DecisionTree, path []pathElem) {
	src := pe.src
	contElse := false

	for _, edge := range node.Edges {
		resultVar := pe.env[envKey{edge.Sym.SymKey(), edge.Index}]
		stmts, cond := edge.Sym.Recognize(resultVar)
		for _, s := range stmts {
			src.Line(s)
		}
		prefix := ""
		if contElse {
			prefix = "} else "
		}
		src.Linef("%sif (%s) {", prefix, cond)
		contElse = true

		// Left-recursion folding jumps back here, past the
		// recognizer, once a full loop body has been built.
		if nt, ok := edge.Sym.(*NT); ok && pe.lhs.primed != nil && nt == pe.lhs.primed {
			src.Label(pe.loopLabel)
		}

		child := edge.Child
		childPath := append(path, pathElem{edge.Sym, edge.Index})
		src.Block(func() {
			pe.gen(child, childPath)
		})
	}

	if len(node.Edges) > 0 {
		if node.EndRule == nil && node.RepeatRule == nil {
			pe.emitNoMatch(node, path)
		} else {
			src.Line("}")
		}
	}

	if node.RepeatRule != nil {
		pe.emitRepeat(node.RepeatRule, path)
	}

	if node.EndRule != nil {
		pe.buildAST(node.EndRule, path)
		if pe.lhs.primed != nil && len(path) > 1 {
			src.Linef("%s = *result;", pe.env[envKey{pe.lhs.primed.SymKey(), 0}])
			src.Line("goto " + pe.loopLabel + ";")
		} else {
			src.Line("return 1;")
		}
	}
}

// emitNoMatch emits the arm taken when a branch point has choices but
// none matched: push consumed terminals back and fail, or report a
// parse error when a nonterminal predecessor makes backtracking
// impossible.
func (pe *parserEmitter) emitNoMatch(node *DecisionTree, path []pathElem) {
	src := pe.src
	src.Line("} else {")
	src.Block(func() {
		backtrackImpossible := false
		for _, pel := range path {
			if _, isTerm := pel.sym.(*Term); !isTerm {
				backtrackImpossible = true
			}
		}

		if backtrackImpossible {
			descs := make([]string, len(node.Edges))
			for i, edge := range node.Edges {
				descs[i] = edge.Sym.ErrorDescription()
			}
			last := path[len(path)-1]
			src.Linef("parse_error(\"Syntax error in %s: expected %s after %s\");",
				pe.lhs.ErrorDescription(), strings.Join(descs, " or "), last.sym.ErrorDescription())
		} else {
			for _, pel := range path {
				term := pel.sym.(*Term)
				src.Line(term.PushBack(pe.env[envKey{term.SymKey(), pel.index}]) + ";")
			}
		}

		src.Line("goto " + pe.errorLabel + ";")
	})
	src.Line("}")
}

// emitRepeat emits the vector loop collecting zero or more inner
// matches, then folds the vector through the rule's Repetition.
func (pe *parserEmitter) emitRepeat(rrule *Rule, path []pathElem) {
	src := pe.src
	head := rrule.indexedRHS[len(path)]
	rep := head.Sym.(*Repeat)

	stmts, _ := rep.Recognize(pe.env[envKey{rep.SymKey(), head.Index}])
	for _, s := range stmts {
		src.Line(s)
	}
	src.Linef("*result = %s;", rrule.astgen.Emit(pe.lookup))
	src.Line("return 1;")
}

// buildAST assigns the endrule's AST construction to *result.  Every
// bound variable is moved into the construction on first use and
// cloned on later uses; variables the construction ignores are freed.
func (pe *parserEmitter) buildAST(rule *Rule, path []pathElem) {
	src := pe.src

	bound := map[string]pathElem{}
	for _, pel := range path {
		if name := pe.env[envKey{pel.sym.SymKey(), pel.index}]; name != "" {
			bound[name] = pel
		}
	}

	used := map[string]bool{}
	getVar := func(sym ASTGen, index int) string {
		name := pe.env[symEnvKey(sym, index)]
		if name == "" {
			if pe.err == nil {
				pe.err = grammarErrorf("rule %s: no parse result bound for %s", rule, sym)
			}
			return "NULL"
		}
		owner, onPath := bound[name]
		if !onPath || !used[name] {
			used[name] = true
			return name
		}
		return owner.sym.CloneVar(name)
	}

	src.Linef("*result = %s;", rule.astgen.Emit(getVar))

	for _, pel := range path {
		name := pe.env[envKey{pel.sym.SymKey(), pel.index}]
		if name == "" || used[name] {
			continue
		}
		used[name] = true
		pel.sym.EmitFreeVar(src, name)
	}
}
