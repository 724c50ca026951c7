package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syms(ss ...Symbol) []Symbol { return ss }

func ruleStrings(rules []*Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.String()
	}
	return out
}

func TestResolveLeftRecursion_RewritesImmediateRecursion(t *testing.T) {
	g := New()
	intT := g.Term("INT", "num", "signed long int")
	expr := g.NT("expr", "expression")
	val := g.NT("val", "value")

	g.Rule(expr, syms(expr, g.Lit("+"), val), g.Cons("ADD", expr, val))
	g.Rule(expr, syms(val), val)
	g.Rule(val, syms(intT), intT)

	require.NoError(t, g.Preprocess())

	prime := expr.Primed()
	require.NotNil(t, prime)
	assert.Equal(t, "expr__prime", prime.Name())

	exprRules := g.RulesFor(expr)
	require.Len(t, exprRules, 2)
	assert.Equal(t, "expr ::= expr__prime '+' val", exprRules[0].String())
	assert.True(t, exprRules[0].SelfRecursive())
	assert.Equal(t, "Cons(ADD, [expr__prime, val])", exprRules[0].ASTGen().String())
	assert.Equal(t, "expr ::= expr__prime", exprRules[1].String())

	primeRules := g.RulesFor(prime)
	require.Len(t, primeRules, 1)
	assert.Equal(t, "expr__prime ::= val", primeRules[0].String())
}

func TestPreprocess_RejectsIndirectLeftRecursion(t *testing.T) {
	g := New()
	a := g.NT("a", "a")
	b := g.NT("b", "b")

	g.Rule(a, syms(b, g.Lit("x")), Null)
	g.Rule(b, syms(a, g.Lit("y")), Null)

	err := g.Preprocess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolvable left recursion")
}

func TestRemoveEpsilon_ConstPrefix(t *testing.T) {
	g := New()
	id := g.Term("NAME", "str", "char *")
	maybeConst := g.NT("maybe_const", "optional const specifier")
	ty := g.NT("ty", "type specifier")
	stmt := g.NT("stmt", "statement")

	g.Rule(maybeConst, syms(), NoAttr)
	g.Rule(maybeConst, syms(g.Lit("const")), g.Attr("CONST"))
	g.Rule(ty, syms(g.Lit("int")), g.Attr("INT"))
	g.Rule(stmt, syms(maybeConst, ty, id, g.Lit(";")),
		NewAddAttribute(NewAddAttribute(g.Cons("VARDECL", id, Null), ty), maybeConst))

	require.NoError(t, g.Preprocess())

	// The epsilon production is gone.
	require.Len(t, g.RulesFor(maybeConst), 1)
	assert.Equal(t, "maybe_const ::= 'const'", g.RulesFor(maybeConst)[0].String())

	// The statement rule was duplicated, once with and once
	// without the prefix, the latter substituting the epsilon's
	// AST action.
	stmtRules := g.RulesFor(stmt)
	require.Len(t, stmtRules, 2)
	assert.Equal(t, "stmt ::= maybe_const ty NAME ';'", stmtRules[0].String())
	assert.Equal(t, "AddAttr(AddAttr(Cons(VARDECL, [NAME, NULL]), ty), maybe_const)",
		stmtRules[0].ASTGen().String())
	assert.Equal(t, "stmt ::= ty NAME ';'", stmtRules[1].String())
	assert.Equal(t, "AddAttr(AddAttr(Cons(VARDECL, [NAME, NULL]), ty), NoAttr)",
		stmtRules[1].ASTGen().String())
}

func TestRemoveEpsilon_RepeatedNullable(t *testing.T) {
	g := New()
	a := g.NT("a", "a")
	b := g.NT("b", "b")

	g.Rule(b, syms(), Null)
	g.Rule(b, syms(g.Lit("x")), g.Cons("X"))
	g.Rule(a, syms(b, b), g.Cons("P", b, b.At(1)))

	require.NoError(t, g.Preprocess())

	rules := g.RulesFor(a)
	require.Len(t, rules, 4)

	assert.Equal(t, []string{
		"a ::= b b",
		"a ::= b",
		"a ::= b",
		"a ::=",
	}, ruleStrings(rules))

	assert.Equal(t, "Cons(P, [b, b(1)])", rules[0].ASTGen().String())
	assert.Equal(t, "Cons(P, [NULL, b(0)])", rules[1].ASTGen().String())
	assert.Equal(t, "Cons(P, [b, NULL])", rules[2].ASTGen().String())
	assert.Equal(t, "Cons(P, [NULL, NULL])", rules[3].ASTGen().String())
}

func TestPreprocess_RejectsDanglingASTReference(t *testing.T) {
	g := New()
	a := g.NT("a", "a")
	b := g.NT("b", "b")

	g.Rule(b, syms(g.Lit("x")), g.Cons("X"))
	g.Rule(a, syms(b), g.Cons("P", b.At(1)))

	err := g.Preprocess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "references b(1)")
}

func TestRule_ResultStorageConflict(t *testing.T) {
	g := New()
	a := g.NT("a", "a")

	g.Rule(a, syms(g.Lit("x")), g.Cons("X"))
	g.Rule(a, syms(g.Lit("y")), g.Attr("Y"))

	require.Error(t, g.Err())
	assert.Contains(t, g.Err().Error(), "disagree about result type")
}

func TestRule_RepetitionRequiresRepeat(t *testing.T) {
	g := New()
	a := g.NT("a", "a")

	g.Rule(a, syms(g.Lit("x")), g.Repetition("ITEMS"))
	require.Error(t, g.Err())
	assert.Contains(t, g.Err().Error(), "Repetition must be used with Repeat")
}

func TestPreprocess_AttoL(t *testing.T) {
	g, err := AttoL()
	require.NoError(t, err)
	require.NoError(t, g.Preprocess())

	// The expression tower and reference expressions are
	// left-recursive and get primed companions.
	for _, name := range []string{"expr1", "expr2", "refexpr"} {
		nt := g.LookupNT(name)
		require.NotNil(t, nt, name)
		assert.NotNil(t, nt.Primed(), name)
		assert.NotNil(t, g.LookupNT(name+"__prime"), name)
	}

	// The nullable helpers lost their epsilon rules.
	for _, name := range []string{"maybe_const", "opt_else", "opt_init"} {
		for _, r := range g.RulesFor(g.LookupNT(name)) {
			assert.NotEmpty(t, r.RHS(), name)
		}
	}
}
