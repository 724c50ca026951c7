package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLit_SingleCharacter(t *testing.T) {
	g := New()
	brace := g.Lit("{")

	assert.Equal(t, "'{'", brace.TokenID())
	assert.False(t, brace.SymbolicTokenID())
	assert.True(t, brace.IsStringTerm())
	assert.Equal(t, "'{'", brace.ErrorDescription())
	assert.Equal(t, -1, brace.priority)
}

func TestLit_DerivedNames(t *testing.T) {
	tests := []struct {
		lit     string
		tokenID string
	}{
		{lit: "==", tokenID: "T_L_EQEQ"},
		{lit: ":=", tokenID: "T_L_COLONEQ"},
		{lit: "!=", tokenID: "T_L_BANGEQ"},
		{lit: "<=", tokenID: "T_L_LTEQ"},
		{lit: "while", tokenID: "T_L_WHILE"},
		{lit: "€€", tokenID: "T_L_X"},
	}
	g := New()
	for _, tt := range tests {
		t.Run(tt.lit, func(t *testing.T) {
			assert.Equal(t, tt.tokenID, g.Lit(tt.lit).TokenID())
		})
	}
}

func TestLit_NameCollisionsGetSuffixes(t *testing.T) {
	g := New()
	assert.Equal(t, "T_L_BANGEQ", g.Lit("!=").TokenID())
	assert.Equal(t, "T_L_BANGEQ0", g.Lit("! =").TokenID())
	assert.Equal(t, "T_L_BANGEQ1", g.Lit("!  =").TokenID())
}

func TestLit_Interning(t *testing.T) {
	g := New()
	assert.Same(t, g.Lit("=="), g.Lit("=="))
	assert.Same(t, g.Lit(";"), g.Lit(";"))
}

func TestLit_RegexpEscaping(t *testing.T) {
	g := New()
	assert.Equal(t, `"\*"`, g.Lit("*").Regexps()[0].Pattern)
	assert.Equal(t, `"\["`, g.Lit("[").Regexps()[0].Pattern)
	assert.Equal(t, `"while"`, g.Lit("while").Regexps()[0].Pattern)
	assert.Equal(t, `":="`, g.Lit(":=").Regexps()[0].Pattern)
}

func TestTerm_LexerRule(t *testing.T) {
	g := New()
	intT := g.Term("INT", "num", "signed long int")
	intT.AddRegexp(`{DIGIT}+`, "strtol(yytext, NULL, 10)")

	assert.Equal(t,
		"{DIGIT}+ {\n\tyylval.num = strtol(yytext, NULL, 10);\n\treturn T__INT;\n}\n",
		intT.Regexps()[0].LexerRule())
}

func TestTerm_ErrorDescription(t *testing.T) {
	g := New()
	intT := g.Term("INT", "num", "signed long int").SetErrorName("integer")
	name := g.Term("NAME", "str", "char *")

	assert.Equal(t, "integer", intT.ErrorDescription())
	assert.Equal(t, "NAME", name.ErrorDescription())
}
