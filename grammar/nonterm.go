package grammar

import (
	"fmt"

	"attoc/cgen"
)

// NT is a nonterminal symbol.
type NT struct {
	g           *Grammar
	name        string
	errorDesc   string
	failHandler string // recovery token id, "" when none
	primed      *NT    // set iff the rules for this NT were rewritten
}

// NT declares a nonterminal with a human-readable description used
// in parse error messages.
func (g *Grammar) NT(name, errorDesc string) *NT {
	nt := &NT{g: g, name: name, errorDesc: errorDesc}
	g.nts = append(g.nts, nt)
	return nt
}

func (nt *NT) Name() string { return nt.name }

// Primed returns the companion nonterminal introduced by
// left-recursion elimination, or nil.
func (nt *NT) Primed() *NT { return nt.primed }

// SetFailHandlerUntil lets the nonterminal recover from parse errors
// by skipping input up to the given literal token and retrying.
func (nt *NT) SetFailHandlerUntil(lit string) *NT {
	nt.failHandler = nt.g.Lit(lit).TokenID()
	return nt
}

// At references the index-th occurrence of this nonterminal within a
// production.
func (nt *NT) At(index int) *NTSub {
	return &NTSub{owner: nt, index: index}
}

func (nt *NT) ParseFunctionName() string { return "parse_" + nt.name }

func (nt *NT) ErrorDescription() string { return nt.errorDesc }

func (nt *NT) SymKey() string { return "n:" + nt.name }

func (nt *NT) Recognize(resultVar string) ([]string, string) {
	return nil, fmt.Sprintf("%s(%s)", nt.ParseFunctionName(), resultVarRef(resultVar))
}

func (nt *NT) firstRule() *Rule {
	rules := nt.g.RulesFor(nt)
	if len(rules) == 0 {
		return nil
	}
	return rules[0]
}

// emitHandleFail writes the code run when no rule for this
// nonterminal matched.
func (nt *NT) emitHandleFail(src *cgen.Source) {
	if nt.failHandler != "" {
		src.Linef("clear_parse_error(%s);", nt.failHandler)
		src.Linef("return %s(result);", nt.ParseFunctionName())
		return
	}
	src.Line("return 0;")
}

// ASTGen interface

func (nt *NT) Sub() []ASTGen                     { return nil }
func (nt *NT) ValueNode() (string, string, bool) { return "", "", false }
func (nt *NT) ASTName() string                   { return "" }
func (nt *NT) ASTFullName() string               { return "" }
func (nt *NT) BuiltinName() string               { return "" }
func (nt *NT) OwnerNT() *NT                      { return nt }
func (nt *NT) HasASTRepresentation() bool        { return false }

func (nt *NT) ResultStorage() string {
	r := nt.firstRule()
	if r == nil {
		return ""
	}
	return r.ResultStorage()
}

func (nt *NT) ResultStorageInit() string {
	r := nt.firstRule()
	if r == nil {
		return ""
	}
	return r.ResultStorageInit()
}

func (nt *NT) Subst(a, b ASTGen) ASTGen {
	if other, ok := a.(*NT); ok && other.name == nt.name {
		return b
	}
	return nt
}

func (nt *NT) Emit(env Env) string { return env(nt, 0) }

func (nt *NT) EmitFreeVar(src *cgen.Source, varName string) {
	if r := nt.firstRule(); r != nil {
		r.astgen.EmitFreeVar(src, varName)
	}
}

func (nt *NT) CloneVar(varName string) string {
	if r := nt.firstRule(); r != nil {
		return r.astgen.CloneVar(varName)
	}
	return varName
}

func (nt *NT) String() string { return nt.name }

// NTSub is a reference, within an AST construction, to the index-th
// occurrence of a nonterminal in the production's rhs (base 0).
type NTSub struct {
	owner *NT
	index int
}

func (s *NTSub) Owner() *NT { return s.owner }
func (s *NTSub) Index() int { return s.index }

func (s *NTSub) Sub() []ASTGen                     { return nil }
func (s *NTSub) ValueNode() (string, string, bool) { return "", "", false }
func (s *NTSub) ASTName() string                   { return "" }
func (s *NTSub) ASTFullName() string               { return "" }
func (s *NTSub) BuiltinName() string               { return "" }
func (s *NTSub) OwnerNT() *NT                      { return s.owner }
func (s *NTSub) HasASTRepresentation() bool        { return false }
func (s *NTSub) ResultStorage() string             { return s.owner.ResultStorage() }
func (s *NTSub) ResultStorageInit() string         { return s.owner.ResultStorageInit() }

func (s *NTSub) Subst(a, b ASTGen) ASTGen {
	if other, ok := a.(*NTSub); ok && other.owner.name == s.owner.name && other.index == s.index {
		return b
	}
	return s
}

func (s *NTSub) Emit(env Env) string { return env(s.owner, s.index) }

func (s *NTSub) EmitFreeVar(src *cgen.Source, varName string) {
	s.owner.EmitFreeVar(src, varName)
}

func (s *NTSub) CloneVar(varName string) string {
	return s.owner.CloneVar(varName)
}

func (s *NTSub) String() string { return fmt.Sprintf("%s(%d)", s.owner.name, s.index) }

// Repeat matches zero or more occurrences of a nonterminal,
// optionally separated by a literal token.  A rule may contain at
// most one Repeat, and its AST action must be a Repetition.
type Repeat struct {
	nt  *NT
	sep *Term
}

func (g *Grammar) Repeat(nt *NT) *Repeat { return &Repeat{nt: nt} }

func (g *Grammar) RepeatSep(nt *NT, sep string) *Repeat {
	return &Repeat{nt: nt, sep: g.Lit(sep)}
}

// anyRepeat is the canonical environment key for the (unique) Repeat
// of a rule; all Repeats group under the same key.
var anyRepeat = &Repeat{}

func (r *Repeat) Inner() *NT { return r.nt }

func (r *Repeat) SymKey() string { return "repeat" }

func (r *Repeat) ErrorDescription() string { return r.nt.ErrorDescription() }

func (r *Repeat) Recognize(resultVar string) ([]string, string) {
	tmp := r.nt.g.nextTmpVar()
	_, inner := r.nt.Recognize(tmp)
	stmts := []string{
		"ast_node_t *" + tmp + ";",
		fmt.Sprintf("while (%s) {", inner),
		fmt.Sprintf("\tadd_to_vector(%s, %s);", resultVarRef(resultVar), tmp),
	}
	if r.sep != nil {
		_, sepCond := r.sep.Recognize("")
		stmts = append(stmts,
			fmt.Sprintf("\tif (!%s) {", sepCond),
			"\t\tbreak;",
			"\t}")
	}
	stmts = append(stmts, "}")
	return stmts, ""
}

// ASTGen interface

func (r *Repeat) Sub() []ASTGen                     { return nil }
func (r *Repeat) ValueNode() (string, string, bool) { return "", "", false }
func (r *Repeat) ASTName() string                   { return "" }
func (r *Repeat) ASTFullName() string               { return "" }
func (r *Repeat) BuiltinName() string               { return "" }
func (r *Repeat) OwnerNT() *NT                      { return nil }
func (r *Repeat) HasASTRepresentation() bool        { return false }
func (r *Repeat) ResultStorage() string             { return "node_vector_t" }
func (r *Repeat) ResultStorageInit() string         { return "make_vector()" }

func (r *Repeat) Subst(a, b ASTGen) ASTGen {
	if _, ok := a.(*Repeat); ok {
		return b
	}
	return r
}

func (r *Repeat) Emit(env Env) string                        { return env(anyRepeat, 0) }
func (r *Repeat) EmitFreeVar(src *cgen.Source, varName string) {}
func (r *Repeat) CloneVar(varName string) string             { return varName }

func (r *Repeat) String() string { return "repeat_" + r.nt.name }
