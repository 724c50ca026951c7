package grammar

import (
	"sort"
	"strings"
)

// Preprocess rewrites the grammar into the form the parser emitter
// can handle: immediate left recursion is folded into primed
// nonterminals, epsilon productions are eliminated by rule
// duplication, and any remaining left recursion is rejected.
func (g *Grammar) Preprocess() error {
	if g.err != nil {
		return g.err
	}
	g.resolveLeftRecursion()
	g.removeEpsilonRules()
	if err := g.checkLeftRecursion(); err != nil {
		return err
	}
	for _, r := range g.rules {
		if err := r.validateASTRefs(); err != nil {
			return err
		}
	}
	g.preprocessed = true
	return g.err
}

// firstRHSNTs maps each nonterminal with rules to the set of
// nonterminal names that can start one of its productions.
func (g *Grammar) firstRHSNTs() map[string]map[string]bool {
	first := map[string]map[string]bool{}
	for _, r := range g.rules {
		if len(r.rhs) == 0 {
			continue
		}
		nt := r.rhs[0].OwnerNT()
		if nt == nil {
			continue
		}
		if first[r.nt.name] == nil {
			first[r.nt.name] = map[string]bool{}
		}
		first[r.nt.name][nt.name] = true
	}
	return first
}

// resolveLeftRecursion rewrites every nonterminal A with an
// immediately left-recursive production:
//
//	A ::= A x | y
//
// becomes
//
//	A  ::= A' x | A'
//	A' ::= y
//
// where the A-initial productions loop on A' and the others move to
// A'.  The AST actions of the looping productions have A (and A(0))
// substituted by A'.
func (g *Grammar) resolveLeftRecursion() {
	first := g.firstRHSNTs()

	for _, lhs := range append([]*NT{}, g.ruleNTs...) {
		if !first[lhs.name][lhs.name] {
			continue
		}

		prime := g.NT(lhs.name+"__prime", lhs.errorDesc)
		prime.failHandler = lhs.failHandler
		lhs.primed = prime

		for _, r := range append([]*Rule{}, g.RulesFor(lhs)...) {
			g.deleteRule(r)
			if len(r.rhs) > 0 {
				if nt, ok := r.rhs[0].(*NT); ok && nt.name == lhs.name {
					rhs := append([]Symbol{prime}, r.rhs[1:]...)
					astgen := r.astgen.Subst(lhs, prime).Subst(lhs.At(0), prime)
					g.addRule(lhs, rhs, astgen).selfRecursive = true
					continue
				}
			}
			g.addRule(prime, r.rhs, r.astgen)
		}

		// The `defer to child' rule ends the folding loop.
		g.addRule(lhs, []Symbol{prime}, prime)
	}
}

// removeEpsilonRules deletes every empty production and compensates
// by duplicating the remaining rules: for every subset of nullable
// nonterminal occurrences in a rule's rhs, one variant is added with
// those occurrences dropped and the epsilon production's AST action
// substituted at the corresponding position.  Occurrence indices of
// surviving references are shifted down to match the shortened rhs.
func (g *Grammar) removeEpsilonRules() {
	epsilon := map[string]ASTGen{}
	for _, r := range append([]*Rule{}, g.rules...) {
		if len(r.rhs) == 0 {
			g.deleteRule(r)
			epsilon[r.nt.name] = r.astgen
		}
	}
	if len(epsilon) == 0 {
		return
	}

	for _, r := range append([]*Rule{}, g.rules...) {
		g.expandEpsilon(r, epsilon)
	}
}

func (g *Grammar) expandEpsilon(r *Rule, epsilon map[string]ASTGen) {
	var nullable []int // positions in the rhs holding a nullable NT
	for pos, is := range r.indexedRHS {
		if nt, ok := is.Sym.(*NT); ok && epsilon[nt.name] != nil {
			nullable = append(nullable, pos)
		}
	}
	if len(nullable) == 0 {
		return
	}

	for mask := 1; mask < 1<<len(nullable); mask++ {
		dropped := map[int]bool{}
		for bit, pos := range nullable {
			if mask&(1<<bit) != 0 {
				dropped[pos] = true
			}
		}

		var rhs []Symbol
		for pos, sym := range r.rhs {
			if !dropped[pos] {
				rhs = append(rhs, sym)
			}
		}

		astgen := r.astgen
		droppedNames := map[string]*NT{}
		for pos := range r.rhs {
			if !dropped[pos] {
				continue
			}
			is := r.indexedRHS[pos]
			nt := is.Sym.(*NT)
			droppedNames[nt.name] = nt
			eps := epsilon[nt.name]
			if is.Index == 0 {
				astgen = astgen.Subst(nt, eps)
			}
			astgen = astgen.Subst(nt.At(is.Index), eps)
		}

		// Re-number the surviving occurrences of every name that
		// lost occurrences, in ascending order so substitutions
		// cannot collide.
		names := make([]string, 0, len(droppedNames))
		for name := range droppedNames {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			nt := droppedNames[name]
			next := 0
			for pos, is := range r.indexedRHS {
				other, ok := is.Sym.(*NT)
				if !ok || other.name != name {
					continue
				}
				if dropped[pos] {
					continue
				}
				if is.Index != next {
					astgen = astgen.Subst(nt.At(is.Index), nt.At(next))
				}
				next++
			}
		}

		g.addRule(r.nt, rhs, astgen)
	}
}

// checkLeftRecursion rejects any left recursion that survived the
// rewriting, via the transitive closure of the first-rhs-NT relation.
func (g *Grammar) checkLeftRecursion() error {
	first := g.firstRHSNTs()

	changed := true
	for changed {
		changed = false
		for _, set := range first {
			for name := range copySet(set) {
				for sub := range first[name] {
					if !set[sub] {
						set[sub] = true
						changed = true
					}
				}
			}
		}
	}

	var recursive []string
	for name, set := range first {
		if set[name] {
			recursive = append(recursive, name)
		}
	}
	if len(recursive) > 0 {
		sort.Strings(recursive)
		return grammarErrorf("unresolvable left recursion detected: %s", strings.Join(recursive, ", "))
	}
	return nil
}

func copySet(set map[string]bool) map[string]bool {
	out := make(map[string]bool, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}
