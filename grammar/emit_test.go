package grammar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attoc/cgen"
)

func loadTestTemplate(t *testing.T, content string) *cgen.Template {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.template")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	tmpl, err := cgen.LoadTemplate(path)
	require.NoError(t, err)
	return tmpl
}

func parserTemplate(t *testing.T) *cgen.Template {
	return loadTestTemplate(t, "$$VALUE_TOKEN_DECODING$$\n$$PARSING$$\n")
}

func headerTemplate(t *testing.T) *cgen.Template {
	return loadTestTemplate(t, "$$TOKENS$$\n$$VALUES$$\n$$PARSER_DECLS$$\n")
}

func lexerTemplate(t *testing.T) *cgen.Template {
	return loadTestTemplate(t, "$$RULES$$\n")
}

func astTemplate(t *testing.T) *cgen.Template {
	return loadTestTemplate(t, "$$NODE_TYPES$$\n$$AV_VALUE_GETTERS$$\n$$AV_FLAGS$$\n$$VALUE_UNION$$\n$$BUILTIN_IDS$$\n")
}

func unparserTemplate(t *testing.T) *cgen.Template {
	return loadTestTemplate(t, "$$PRINT_TAGS$$\n$$PRINT_FLAGS$$\n$$PRINT_IDS$$\n$$PRINT_VNODES$$\n")
}

func preprocessedAttoL(t *testing.T) *Grammar {
	t.Helper()
	g, err := AttoL()
	require.NoError(t, err)
	require.NoError(t, g.Preprocess())
	return g
}

func TestEmit_RequiresPreprocessing(t *testing.T) {
	g, err := AttoL()
	require.NoError(t, err)

	_, err = g.EmitParser(parserTemplate(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not been preprocessed")
}

func TestEmitLexerParserHeader_TokenNumbering(t *testing.T) {
	out, err := preprocessedAttoL(t).EmitLexerParserHeader(headerTemplate(t))
	require.NoError(t, err)

	// Symbolic tokens are numbered from 0x102 in declaration
	// order; the first literal keyword follows the named terms.
	assert.Contains(t, out, "T__REAL = 0x102")
	assert.Contains(t, out, "T__INT = 0x103")
	assert.Contains(t, out, "T__STRING = 0x104")
	assert.Contains(t, out, "T__NAME = 0x105")
	assert.Contains(t, out, "T_L_VAR = 0x106")

	// Single-character tokens are not numbered.
	assert.NotContains(t, out, "'{' =")
}

func TestEmitLexerParserHeader_ValuesAndDecls(t *testing.T) {
	out, err := preprocessedAttoL(t).EmitLexerParserHeader(headerTemplate(t))
	require.NoError(t, err)

	assert.Contains(t, out, "\tast_node_t *node;")
	assert.Contains(t, out, "\tdouble real;")
	assert.Contains(t, out, "\tsigned long int num;")
	assert.Contains(t, out, "\tchar *str;")

	// Only exported nonterminals appear, without a static prefix.
	assert.Contains(t, out, "int\nparse_expr(ast_node_t * *result);")
	assert.Contains(t, out, "int\nparse_stmt(ast_node_t * *result);")
	assert.Contains(t, out, "int\nparse_program(ast_node_t * *result);")
	assert.NotContains(t, out, "parse_valexpr")
}

func TestEmitLexerParserHeader_InconsistentTypes(t *testing.T) {
	g := New()
	g.Term("A", "val", "int")
	g.Term("B", "val", "char *")
	a := g.NT("a", "a")
	g.Rule(a, syms(g.Lit("x")), Null)
	require.NoError(t, g.Preprocess())

	_, err := g.EmitLexerParserHeader(headerTemplate(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent types for var val")
}

func TestEmitLexer_KeywordsBeforeValueTerms(t *testing.T) {
	out, err := preprocessedAttoL(t).EmitLexer(lexerTemplate(t))
	require.NoError(t, err)

	whileRule := strings.Index(out, `"while" {`)
	digitRule := strings.Index(out, "{DIGIT}+ {")
	identRule := strings.Index(out, "{IDENTIFIER} {")
	require.NotEqual(t, -1, whileRule)
	require.NotEqual(t, -1, digitRule)
	require.NotEqual(t, -1, identRule)

	assert.Less(t, whileRule, digitRule, "string terminals go before number rules")
	assert.Less(t, digitRule, identRule, "identifier has the lowest priority")

	assert.Contains(t, out, "{DIGIT}+ {\n\tyylval.num = strtol(yytext, NULL, 10);\n\treturn T__INT;\n}")
	assert.Contains(t, out, `"while" {`+"\n\treturn T_L_WHILE;\n}")
}

func TestEmitASTHeader_Numbering(t *testing.T) {
	g := New()
	intT := g.Term("INT", "num", "signed long int")
	a := g.NT("a", "a")
	g.Rule(a, syms(intT), g.Cons("PAIR", intT))
	g.Attr("FLAG")
	require.NoError(t, g.Preprocess())

	out, err := g.EmitASTHeader(astTemplate(t))
	require.NoError(t, err)

	// One cons name + one terminal + 2 reserved = 4 node types,
	// so the tag needs 3 bits and the mask is 0x07.
	assert.Contains(t, out, "#define AST_NODE_MASK 0x07")
	assert.Contains(t, out, "#define AST_ILLEGAL")
	assert.Contains(t, out, "#define AST_VALUE_INT 0x01")
	assert.Contains(t, out, "#define AST_VALUE_MAX 0x01")
	assert.Contains(t, out, "#define AST_NODE_PAIR 0x02")

	// The first attribute lands just above the 3 tag bits.
	assert.Contains(t, out, "0x0008")
	assert.Contains(t, out, "AST_FLAG_FLAG")

	assert.Contains(t, out, "#define AV_INT(n) (((ast_value_node_t *)(n))->v.num)")
	assert.Contains(t, out, "#define AV_ID(n) (((ast_value_node_t *)(n))->v.ident)")
	assert.Contains(t, out, "\tsigned long int num;")
	assert.Contains(t, out, "#define BUILTIN_OPS_NR 0")
}

func TestEmitASTHeader_CapacityFailure(t *testing.T) {
	g := New()
	intT := g.Term("INT", "num", "signed long int")
	a := g.NT("a", "a")
	g.Rule(a, syms(intT), g.Cons("PAIR", intT))
	for i := 0; i < 14; i++ {
		g.Attr(strings.Repeat("X", i+1))
	}
	require.NoError(t, g.Preprocess())

	_, err := g.EmitASTHeader(astTemplate(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough bits")
}

func TestEmitASTHeader_AttoL(t *testing.T) {
	out, err := preprocessedAttoL(t).EmitASTHeader(astTemplate(t))
	require.NoError(t, err)

	// 20 cons names + 40 terminals + 2 reserved = 62 node types:
	// 6 tag bits, 10 flag bits.
	maskAt := strings.Index(out, "#define AST_NODE_MASK")
	require.NotEqual(t, -1, maskAt)
	maskLine := out[maskAt : strings.Index(out[maskAt:], "\n")+maskAt]
	assert.True(t, strings.HasSuffix(maskLine, " 0x3f"), "unexpected mask line %q", maskLine)

	// Value tags come before non-value tags.
	valueMax := strings.Index(out, "#define AST_VALUE_MAX")
	funapp := strings.Index(out, "#define AST_NODE_FUNAPP")
	require.NotEqual(t, -1, valueMax)
	require.NotEqual(t, -1, funapp)
	assert.Less(t, valueMax, funapp)

	// Reserved node types are numbered too.
	assert.Contains(t, out, "#define AST_NODE_METHODAPP")
	assert.Contains(t, out, "#define AST_NODE_NEWCLASS")

	// Builtin ids are negative, assigned in sorted order.
	assert.Contains(t, out, "BUILTIN_OP_ADD")
	assert.Contains(t, out, "BUILTIN_OP_ALLOCATE")
	assert.Contains(t, out, "#define BUILTIN_OPS_NR 11")
	addAt := strings.Index(out, "#define BUILTIN_OP_ADD")
	require.NotEqual(t, -1, addAt)
	line := out[addAt:strings.Index(out[addAt:], "\n")+addAt]
	assert.True(t, strings.HasSuffix(line, " -1"), "ADD sorts first: %q", line)

	// The first attribute sits above the 6 tag bits.
	assert.Contains(t, out, "AST_FLAG_VAR")
	assert.Contains(t, out, "0x0040")
}

func TestEmitParser_AttoL(t *testing.T) {
	out, err := preprocessedAttoL(t).EmitParser(parserTemplate(t))
	require.NoError(t, err)

	// Exported vs. internal parse functions.
	assert.Contains(t, out, "int\nparse_expr(ast_node_t * *result)")
	assert.Contains(t, out, "static int\nparse_valexpr(ast_node_t * *result)")
	assert.Contains(t, out, "static int\nparse_expr1__prime(ast_node_t * *result)")

	// Left-recursion folding: loop label and the re-assign + goto
	// at the end of a folded alternative.
	assert.Contains(t, out, "parse_expr1_loop:")
	assert.Contains(t, out, "v_expr1__prime_0 = *result;")
	assert.Contains(t, out, "goto parse_expr1_loop;")

	// The repeat loop of statement blocks, with its result vector.
	assert.Contains(t, out, "node_vector_t v_repeat_stmt_0 = make_vector();")
	assert.Contains(t, out, "while (parse_stmt(&tmp_")
	assert.Contains(t, out, "add_to_vector(&v_repeat_stmt_0, tmp_")
	assert.Contains(t, out, "*result = vector_to_node(AST_NODE_BLOCK, &v_repeat_stmt_0);")

	// The comma-separated repeat breaks when the separator is
	// missing.
	assert.Contains(t, out, "\tif (!accept(',', NULL)) {")

	// Terminal-only prefixes push their tokens back on failure.
	assert.Contains(t, out, "push_back(")

	// A nonterminal on the path makes backtracking impossible.
	assert.Contains(t, out,
		`parse_error("Syntax error in expression: expected identifier or type specifier after 'is'");`)

	// Value tokens are recognized through accept with their slot.
	assert.Contains(t, out, "accept(T__NAME, &v_NAME_0)")
	assert.Contains(t, out, "accept(T__INT, &v_INT_0)")

	// Attribute-producing nonterminals assign flag words.
	assert.Contains(t, out, "*result = AST_FLAG_CONST;")

	// The do-while rule references the statement twice: moved
	// once, cloned on the second use.
	assert.Contains(t, out, "ast_node_clone(v_stmt_0)")

	// Value-token decoding for the lexer interface.
	assert.Contains(t, out,
		"\tcase T__INT:\n\t\t*node_ptr = SETLINE(value_node_alloc_generic(AST_VALUE_INT, (ast_value_union_t) { .num = yylval.num }));\n\t\tbreak;")

	// Every parse function carries its failure label.
	assert.Contains(t, out, "parse_stmt_fail:")
	assert.Contains(t, out, "parse_valexpr_fail:")
}

func TestEmitParser_MovesAndFrees(t *testing.T) {
	g := New()
	a := g.NT("a", "a")
	b := g.NT("b", "b")
	c := g.NT("c", "c")
	g.Rule(b, syms(g.Lit("x")), g.Cons("X"))
	g.Rule(c, syms(g.Lit("y")), g.Cons("Y"))
	g.Rule(a, syms(b, c), c)
	g.Export(a, b, c)
	require.NoError(t, g.Preprocess())

	out, err := g.EmitParser(parserTemplate(t))
	require.NoError(t, err)

	// b is parsed but unused by the AST action, so it is freed.
	assert.Contains(t, out, "*result = v_c_0;")
	assert.Contains(t, out, "ast_node_free(v_b_0, 1);")
}

func TestEmitParser_FailHandler(t *testing.T) {
	g := New()
	a := g.NT("a", "a")
	a.SetFailHandlerUntil(";")
	g.Rule(a, syms(g.Lit("x")), g.Cons("X"))
	g.Export(a)
	require.NoError(t, g.Preprocess())

	out, err := g.EmitParser(parserTemplate(t))
	require.NoError(t, err)

	assert.Contains(t, out, "parse_a_fail:")
	assert.Contains(t, out, "clear_parse_error(';');")
	assert.Contains(t, out, "return parse_a(result);")
}

func TestEmitUnparser_AttoL(t *testing.T) {
	out, err := preprocessedAttoL(t).EmitUnparser(unparserTemplate(t))
	require.NoError(t, err)

	// Reserved node types print their names.
	assert.Contains(t, out, "\tcase AST_NODE_METHODAPP:\n\t\tfputs(\"METHODAPP\", file);\n\t\tbreak;")

	// Cons tags and value tags.
	assert.Contains(t, out, "\tcase AST_NODE_FUNAPP:\n\t\tfputs(\"FUNAPP\", file);\n\t\tbreak;")
	assert.Contains(t, out, "\tcase AST_VALUE_INT:\n\t\tfputs(\"INT\", file);\n\t\tbreak;")

	// Attribute flags.
	assert.Contains(t, out, "\tif (ty & AST_FLAG_VAR) fputs(\"#VAR\", file);")
	assert.Contains(t, out, "\tif (ty & AST_FLAG_CONST) fputs(\"#CONST\", file);")

	// Builtin identifiers.
	assert.Contains(t, out, "\tcase BUILTIN_OP_ADD:\n\t\tfputs(\"ADD\", file);\n\t\tbreak;")

	// Value nodes print through their format strings.
	assert.Contains(t, out, "\tcase AST_VALUE_INT:\n\t\tfprintf(file, \"%li\", node->v.num);\n\t\tbreak;")
	assert.Contains(t, out, "\tcase AST_VALUE_STRING:\n\t\tfprintf(file, \"\\\"%s\\\"\", node->v.str);\n\t\tbreak;")
	assert.Contains(t, out, "\tcase AST_VALUE_REAL:\n\t\tfprintf(file, \"%f\", node->v.real);\n\t\tbreak;")
}

func TestEmitParser_LeftRecursionFold(t *testing.T) {
	g := New()
	intT := g.Term("INT", "num", "signed long int")
	expr := g.NT("expr", "expression")
	val := g.NT("val", "value")
	g.Rule(expr, syms(expr, g.Lit("+"), val), g.Cons("ADD", expr, val))
	g.Rule(expr, syms(val), val)
	g.Rule(val, syms(intT), intT)
	g.Export(expr)
	require.NoError(t, g.Preprocess())

	out, err := g.EmitParser(parserTemplate(t))
	require.NoError(t, err)

	// The loop label sits right after the primed recognizer; the
	// folded alternative stores its node back into the primed
	// slot and jumps.
	assert.Contains(t, out, "if (parse_expr__prime(&v_expr__prime_0)) {\nparse_expr_loop:")
	assert.Contains(t, out,
		"*result = SETLINE(ast_node_alloc_generic(AST_NODE_ADD, 2, v_expr__prime_0, v_val_0));")
	assert.Contains(t, out, "v_expr__prime_0 = *result;")
	assert.Contains(t, out, "goto parse_expr_loop;")

	// The defer-to-child alternative simply returns.
	assert.Contains(t, out, "*result = v_expr__prime_0;\n\t\treturn 1;")
}
