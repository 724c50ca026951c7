package grammar

import "fmt"

// GrammarError reports an inconsistency in the declared grammar.
type GrammarError struct {
	Message string
}

func (e GrammarError) Error() string { return e.Message }

func grammarErrorf(format string, args ...interface{}) error {
	return GrammarError{Message: fmt.Sprintf(format, args...)}
}

// Symbol is anything that may appear on a rule's right-hand side:
// terminals, nonterminals, and repetitions.
type Symbol interface {
	ASTGen

	// SymKey is the grouping key used by decision trees and
	// variable environments.  Terminals key by token id,
	// nonterminals by name; all Repeats share one key.
	SymKey() string

	// Recognize returns setup statements and a boolean C
	// expression that is true iff the symbol was matched, binding
	// the parse result to resultVar ("" when there is no storage).
	Recognize(resultVar string) (stmts []string, cond string)

	ErrorDescription() string
}

// IndexedSym is an rhs element annotated with its occurrence index
// among equal elements of the same rule.
type IndexedSym struct {
	Sym   Symbol
	Index int
}

// Rule is one production: lhs ::= rhs, with the AST construction
// evaluated when the production matches.
type Rule struct {
	nt            *NT
	rhs           []Symbol
	astgen        ASTGen
	indexedRHS    []IndexedSym
	selfRecursive bool
}

func (r *Rule) NT() *NT                  { return r.nt }
func (r *Rule) RHS() []Symbol            { return r.rhs }
func (r *Rule) IndexedRHS() []IndexedSym { return r.indexedRHS }
func (r *Rule) ASTGen() ASTGen           { return r.astgen }
func (r *Rule) SelfRecursive() bool      { return r.selfRecursive }

func (r *Rule) ResultStorage() string     { return r.astgen.ResultStorage() }
func (r *Rule) ResultStorageInit() string { return r.astgen.ResultStorageInit() }

func (r *Rule) String() string {
	s := r.nt.name + " ::="
	for _, sym := range r.rhs {
		s += " " + sym.String()
	}
	return s
}

// Grammar is the compilation context: it owns every terminal,
// nonterminal, rule, constructor name and attribute, in declaration
// order.  Declaration errors stick to the grammar and surface from
// Err, Preprocess and the emitters.
type Grammar struct {
	terms       []*Term
	stringTerms map[string]*Term
	usedNames   map[string]bool

	nts   []*NT
	rules []*Rule

	rulesByNT map[string][]*Rule
	ruleNTs   []*NT // lhs order of first appearance

	consNames map[string]bool
	consOrder []string

	attrs     map[string]*AttrNode
	attrOrder []string

	otherBuiltins  []string
	otherNodeTypes []string

	ruleNTSeen map[string]bool

	exported     map[string]bool
	preprocessed bool

	tmpCount int
	err      error
}

func New() *Grammar {
	return &Grammar{
		stringTerms: map[string]*Term{},
		usedNames:   map[string]bool{},
		rulesByNT:   map[string][]*Rule{},
		ruleNTSeen:  map[string]bool{},
		consNames:   map[string]bool{},
		attrs:       map[string]*AttrNode{},
		exported:    map[string]bool{},
	}
}

// Err returns the first declaration error, if any.
func (g *Grammar) Err() error { return g.err }

func (g *Grammar) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

func (g *Grammar) registerCons(name string) {
	if !g.consNames[name] {
		g.consNames[name] = true
		g.consOrder = append(g.consOrder, name)
	}
}

// ExtraBuiltins declares builtin operation names that appear in no
// rule but must still be numbered.
func (g *Grammar) ExtraBuiltins(names ...string) {
	g.otherBuiltins = append(g.otherBuiltins, names...)
}

// ExtraNodeTypes declares non-value AST node types reserved for later
// compiler passes.
func (g *Grammar) ExtraNodeTypes(names ...string) {
	g.otherNodeTypes = append(g.otherNodeTypes, names...)
}

// Export marks nonterminals whose parse functions are part of the
// public parser interface.
func (g *Grammar) Export(nts ...*NT) {
	for _, nt := range nts {
		g.exported[nt.name] = true
	}
}

func (g *Grammar) IsExported(nt *NT) bool { return g.exported[nt.name] }

func (g *Grammar) Terms() []*Term { return g.terms }

func (g *Grammar) Rules() []*Rule { return g.rules }

// RuleNTs lists the nonterminals that have rules, in order of first
// rule declaration.
func (g *Grammar) RuleNTs() []*NT { return g.ruleNTs }

func (g *Grammar) RulesFor(nt *NT) []*Rule { return g.rulesByNT[nt.name] }

// LookupNT finds a nonterminal with rules by name.
func (g *Grammar) LookupNT(name string) *NT {
	for _, nt := range g.ruleNTs {
		if nt.name == name {
			return nt
		}
	}
	return nil
}

func (g *Grammar) nextTmpVar() string {
	v := fmt.Sprintf("tmp_%d", g.tmpCount)
	g.tmpCount++
	return v
}

// typesMatch treats "" as a wildcard: symbols without storage do not
// constrain the rule's result type.
func typesMatch(a, b string) bool {
	return a == "" || b == "" || a == b
}

// Rule declares a production.  All rules of one nonterminal must
// agree on their result storage, and a Repetition action requires an
// rhs consisting of exactly one Repeat.
func (g *Grammar) Rule(nt *NT, rhs []Symbol, astgen ASTGen) *Rule {
	r := &Rule{nt: nt, rhs: rhs, astgen: astgen}

	if _, isRepetition := astgen.(*Repetition); isRepetition {
		if len(rhs) != 1 {
			g.fail(grammarErrorf("rule %s: Repetition only permitted with a single rhs element", r))
		} else if _, isRepeat := rhs[0].(*Repeat); !isRepeat {
			g.fail(grammarErrorf("rule %s: Repetition must be used with Repeat", r))
		}
	}

	if existing := g.rulesByNT[nt.name]; len(existing) > 0 {
		if !typesMatch(existing[0].ResultStorage(), r.ResultStorage()) {
			g.fail(grammarErrorf("rules for nonterminal %s disagree about result type", nt.name))
		}
	}
	if !g.ruleNTSeen[nt.name] {
		g.ruleNTSeen[nt.name] = true
		g.ruleNTs = append(g.ruleNTs, nt)
	}

	counters := map[string]int{}
	for _, sym := range rhs {
		key := sym.SymKey()
		r.indexedRHS = append(r.indexedRHS, IndexedSym{Sym: sym, Index: counters[key]})
		counters[key]++
	}

	g.rules = append(g.rules, r)
	g.rulesByNT[nt.name] = append(g.rulesByNT[nt.name], r)
	return r
}

// addRule is used by the preprocessor; it goes through the same
// bookkeeping as Rule.
func (g *Grammar) addRule(nt *NT, rhs []Symbol, astgen ASTGen) *Rule {
	return g.Rule(nt, rhs, astgen)
}

func (g *Grammar) deleteRule(r *Rule) {
	g.rules = removeRule(g.rules, r)
	g.rulesByNT[r.nt.name] = removeRule(g.rulesByNT[r.nt.name], r)
}

func removeRule(rules []*Rule, r *Rule) []*Rule {
	out := rules[:0]
	for _, c := range rules {
		if c != r {
			out = append(out, c)
		}
	}
	return out[:len(out):len(out)]
}

// validateASTRefs checks that every rhs reference in the rule's AST
// construction names an occurrence that actually exists in the rhs.
func (r *Rule) validateASTRefs() error {
	available := map[envKey]bool{}
	for _, is := range r.indexedRHS {
		available[envKey{is.Sym.SymKey(), is.Index}] = true
	}
	for _, node := range SelfAndSub(r.astgen) {
		var key envKey
		switch ref := node.(type) {
		case *Term:
			key = envKey{ref.SymKey(), 0}
		case *NT:
			key = envKey{ref.SymKey(), 0}
		case *NTSub:
			key = envKey{ref.owner.SymKey(), ref.index}
		case *Repeat:
			key = envKey{ref.SymKey(), 0}
		case *Repetition:
			key = envKey{anyRepeat.SymKey(), 0}
		default:
			continue
		}
		if !available[key] {
			return grammarErrorf("rule %s: AST construction references %s, which is not in the rhs", r, node)
		}
	}
	return nil
}

type envKey struct {
	sym   string
	index int
}
