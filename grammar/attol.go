package grammar

// AttoL declares the grammar of the AttoL language: terminals with
// their lexer rules, the nonterminal set, and every production with
// its AST construction.  The grammar is returned unpreprocessed.
//
// Known limitations of the parser this generates:
//   - no indirect left recursion
//   - no disambiguation across sub-rules: backtracking is limited to
//     terminal prefixes, so a nonterminal consumed during a failed
//     alternative is not re-parsed
func AttoL() (*Grammar, error) {
	g := New()

	real := g.Term("REAL", "real", "double").SetErrorName("real number").SetFormatString("%f")
	real.AddRegexp(`((({DIGIT}*"."{DIGIT}+)|({DIGIT}+"."))([eE][+-]?{DIGIT}+)?)|({DIGIT}+[eE][+-]?{DIGIT}+)`,
		"strtod(yytext, NULL)")
	real.AddFlaggedRegexp(`0x(({HEXDIGIT}*"."{HEXDIGIT}+)|({HEXDIGIT}+"."))([pP][+-]?{DIGIT}+)`,
		"strtod(yytext, NULL)", "HEX_REPR")

	integer := g.Term("INT", "num", "signed long int").SetErrorName("integer").SetFormatString("%li")
	integer.AddFlaggedRegexp(`0x{HEXDIGIT}+`, "strtol(yytext + 2, NULL, 16)", "HEX_REPR")
	integer.AddRegexp(`{DIGIT}+`, "strtol(yytext, NULL, 10)")

	str := g.Term("STRING", "str", "char *").SetErrorName("string").SetFormatString(`\"%s\"`)
	str.AddRegexp(`\"(\\.|[^\"\\])*\"`, "unescape_string(yytext)")

	id := g.Term("NAME", "str", "char *").SetPriority(10).SetErrorName("identifier").SetFormatString("%s")
	id.AddRegexp("{IDENTIFIER}", "mk_unique_string(yytext)")

	program := g.NT("program", "program")
	block := g.NT("block", "block")
	inblock := g.NT("iblock", "inner block")
	stmt := g.NT("stmt", "statement")
	maybeConst := g.NT("maybe_const", "optional const specifier")
	expr := g.NT("expr", "expression")
	expr0 := g.NT("expr0", "expression")
	expr1 := g.NT("expr1", "expression")
	expr2 := g.NT("expr2", "expression")
	refexpr := g.NT("refexpr", "reference expression")
	valexpr := g.NT("valexpr", "value")
	ty := g.NT("ty", "type specifier")
	formal := g.NT("formal", "formal argument")
	formalsListX := g.NT("formal_list_x", "formal argument list")
	formalsList := g.NT("formal_list", "formal argument list")
	actualsListX := g.NT("actual_list_x", "function parameters")
	actualsList := g.NT("actual_list", "function parameters")
	optElse := g.NT("opt_else", "optional 'else' branch")
	optInit := g.NT("opt_init", "optional variable initialisation")
	arrayval := g.NT("arrayval", "array value")
	arrayitems := g.NT("arrayitems", "array items")

	sym := func(ss ...Symbol) []Symbol { return ss }
	funapp := func(f ASTGen, args ...ASTGen) ASTGen {
		return g.Cons("FUNAPP", f, g.Cons("ACTUALS", args...))
	}
	not := func(s ASTGen) ASTGen { return funapp(NewBuiltin("NOT"), s) }

	g.Rule(program, sym(inblock), inblock)

	g.Rule(block, sym(g.Lit("{"), inblock, g.Lit("}")), inblock)
	g.Rule(inblock, sym(g.Repeat(stmt)), g.Repetition("BLOCK"))

	g.Rule(ty, sym(g.Lit("var")), g.Attr("VAR"))
	g.Rule(ty, sym(g.Lit("obj")), g.Attr("OBJ"))
	g.Rule(ty, sym(g.Lit("int")), g.Attr("INT"))
	g.Rule(ty, sym(g.Lit("real")), g.Attr("REAL"))

	g.Rule(maybeConst, sym(), NoAttr)
	g.Rule(maybeConst, sym(g.Lit("const")), g.Attr("CONST"))

	g.Rule(formal, sym(maybeConst, ty, id),
		NewAddAttribute(NewAddAttribute(g.Cons("VARDECL", id, Null), ty), maybeConst))
	g.Rule(formalsListX, sym(g.RepeatSep(formal, ",")), g.Repetition("FORMALS"))
	g.Rule(formalsList, sym(g.Lit("("), formalsListX, g.Lit(")")), formalsListX)

	g.Rule(actualsListX, sym(g.RepeatSep(expr, ",")), g.Repetition("ACTUALS"))
	g.Rule(actualsList, sym(g.Lit("("), actualsListX, g.Lit(")")), actualsListX)

	g.Rule(optElse, sym(), Null)
	g.Rule(optElse, sym(g.Lit("else"), stmt), stmt)

	g.Rule(optInit, sym(), Null)
	g.Rule(optInit, sym(g.Lit("="), expr), expr)

	g.Rule(stmt, sym(maybeConst, ty, id, optInit, g.Lit(";")),
		NewUpdate(NewAddAttribute(NewAddAttribute(g.Cons("VARDECL", id, Null), ty), maybeConst), 1, optInit))
	// Semantic analysis must disallow the constness here.
	g.Rule(stmt, sym(maybeConst, ty, id, formalsList, block),
		NewAddAttribute(NewAddAttribute(g.Cons("FUNDEF", id, formalsList, block), ty), maybeConst))
	g.Rule(stmt, sym(g.Lit("class"), id, formalsList, block),
		g.Cons("CLASSDEF", id, formalsList, block, Null))
	// Semantic analysis must ensure that only lvalues are assigned to.
	g.Rule(stmt, sym(expr, g.Lit(":="), expr, g.Lit(";")), g.Cons("ASSIGN", expr.At(0), expr.At(1)))
	g.Rule(stmt, sym(g.Lit(";")), g.Cons("SKIP"))
	g.Rule(stmt, sym(expr, g.Lit(";")), expr)
	g.Rule(stmt, sym(block), block)
	g.Rule(stmt, sym(g.Lit("if"), expr, stmt, optElse), g.Cons("IF", expr, stmt, optElse))
	g.Rule(stmt, sym(g.Lit("while"), g.Lit("("), expr, g.Lit(")"), stmt), g.Cons("WHILE", expr, stmt))
	g.Rule(stmt, sym(g.Lit("do"), stmt, g.Lit("while"), expr, g.Lit(";")),
		g.Cons("BLOCK", stmt, g.Cons("WHILE", expr, stmt)))
	g.Rule(stmt, sym(g.Lit("break"), g.Lit(";")), g.Cons("BREAK"))
	g.Rule(stmt, sym(g.Lit("continue"), g.Lit(";")), g.Cons("CONTINUE"))
	g.Rule(stmt, sym(g.Lit("return"), g.Lit(";")), g.Cons("RETURN", Null))
	g.Rule(stmt, sym(g.Lit("return"), expr, g.Lit(";")), g.Cons("RETURN", expr))

	g.Rule(expr, sym(expr0), expr0)
	g.Rule(expr, sym(g.Lit("not"), expr0), not(expr0))

	g.Rule(expr0, sym(expr1, g.Lit("=="), expr1), funapp(NewBuiltin("TEST_EQ"), expr1.At(0), expr1.At(1)))
	g.Rule(expr0, sym(expr1, g.Lit("!="), expr1), not(funapp(NewBuiltin("TEST_EQ"), expr1.At(0), expr1.At(1))))
	g.Rule(expr0, sym(expr1, g.Lit("<"), expr1), funapp(NewBuiltin("TEST_LT"), expr1.At(0), expr1.At(1)))
	g.Rule(expr0, sym(expr1, g.Lit("<="), expr1), funapp(NewBuiltin("TEST_LE"), expr1.At(0), expr1.At(1)))
	g.Rule(expr0, sym(expr1, g.Lit(">"), expr1), funapp(NewBuiltin("TEST_LT"), expr1.At(1), expr1.At(0)))
	g.Rule(expr0, sym(expr1, g.Lit(">="), expr1), funapp(NewBuiltin("TEST_LE"), expr1.At(1), expr1.At(0)))
	g.Rule(expr0, sym(expr1, g.Lit("is"), id), g.Cons("ISINSTANCE", expr1, id))
	g.Rule(expr0, sym(expr1, g.Lit("is"), ty), g.Cons("ISPRIMTY", expr1, ty))
	g.Rule(expr0, sym(expr1), expr1)

	g.Rule(expr1, sym(expr1, g.Lit("+"), expr2), g.Cons("FUNAPP", NewBuiltin("ADD"), g.Cons("ACTUALS", expr1, expr2)))
	g.Rule(expr1, sym(expr1, g.Lit("-"), expr2), g.Cons("FUNAPP", NewBuiltin("SUB"), g.Cons("ACTUALS", expr1, expr2)))
	g.Rule(expr1, sym(expr2), expr2)

	g.Rule(expr2, sym(expr2, g.Lit("*"), refexpr), g.Cons("FUNAPP", NewBuiltin("MUL"), g.Cons("ACTUALS", expr2, refexpr)))
	g.Rule(expr2, sym(expr2, g.Lit("/"), refexpr), g.Cons("FUNAPP", NewBuiltin("DIV"), g.Cons("ACTUALS", expr2, refexpr)))
	g.Rule(expr2, sym(refexpr), refexpr)

	g.Rule(refexpr, sym(valexpr), valexpr)
	g.Rule(refexpr, sym(refexpr, g.Lit("."), id), g.Cons("MEMBER", refexpr, id))
	g.Rule(refexpr, sym(refexpr, actualsList), g.Cons("FUNAPP", refexpr, actualsList))
	g.Rule(refexpr, sym(refexpr, g.Lit("["), expr, g.Lit("]")), g.Cons("ARRAYSUB", refexpr, expr))

	g.Rule(arrayitems, sym(g.RepeatSep(expr, ",")), g.Repetition("ARRAYLIST"))

	g.Rule(arrayval, sym(g.Lit("["), arrayitems, g.Lit("]")), g.Cons("ARRAYVAL", arrayitems, Null))
	// Semantic analysis must reject [,* 2] style fills.
	g.Rule(arrayval, sym(g.Lit("["), arrayitems, g.Lit("/"), expr, g.Lit("]")), g.Cons("ARRAYVAL", arrayitems, expr))

	g.Rule(valexpr, sym(arrayval), arrayval)
	g.Rule(valexpr, sym(integer), integer)
	g.Rule(valexpr, sym(str), str)
	g.Rule(valexpr, sym(real), real)
	g.Rule(valexpr, sym(id), id)
	g.Rule(valexpr, sym(g.Lit("("), expr, g.Lit(")")), expr)

	// Builtins and node types reserved for later compiler passes.
	g.ExtraBuiltins("CONVERT", "SELF", "ALLOCATE")
	g.ExtraNodeTypes("METHODAPP", "NEWCLASS")
	g.Attr("LVALUE")
	g.Attr("DECL")

	g.Export(expr, stmt, program)

	return g, g.Err()
}
