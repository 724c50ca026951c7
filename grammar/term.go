package grammar

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// Regexp is one lexer rule of a terminal: the pattern, an optional
// expression computing yylval, and an optional AST flag name kept for
// unparsing.
type Regexp struct {
	Pattern string
	Expr    string
	Flag    string
	term    *Term
}

// LexerRule renders the flex rule for this pattern.
func (r Regexp) LexerRule() string {
	var body []string
	if r.Expr != "" {
		body = append(body, "\tyylval."+r.term.varName+" = "+r.Expr+";")
	}
	body = append(body, "\treturn "+r.term.TokenID()+";")
	return r.Pattern + " {\n" + strings.Join(body, "\n") + "\n}\n"
}

// Term is a terminal symbol, recognized by one or more regexps.
// Terminals without a name are literal single-character tokens whose
// token id is the C character literal itself.
type Term struct {
	name         string
	varName      string
	cType        string
	tokenID      string
	regexps      []Regexp
	priority     int
	formatString string
	stringTerm   bool
	errorName    string
}

// Term declares a named terminal carrying a value of the given C
// type in the yylval field varName.
func (g *Grammar) Term(name, varName, cType string) *Term {
	t := &Term{
		name:         name,
		varName:      varName,
		cType:        cType,
		tokenID:      "T__" + name,
		formatString: "ERROR",
	}
	g.terms = append(g.terms, t)
	return t
}

func (t *Term) AddRegexp(pattern, expr string) *Term {
	t.regexps = append(t.regexps, Regexp{Pattern: pattern, Expr: expr, term: t})
	return t
}

func (t *Term) AddFlaggedRegexp(pattern, expr, flag string) *Term {
	t.regexps = append(t.regexps, Regexp{Pattern: pattern, Expr: expr, Flag: flag, term: t})
	return t
}

// SetPriority orders terminals in the emitted lexer (ascending).
func (t *Term) SetPriority(nr int) *Term {
	t.priority = nr
	return t
}

func (t *Term) SetErrorName(name string) *Term {
	t.errorName = name
	return t
}

// SetFormatString sets the printf format used when unparsing the
// terminal's value node.
func (t *Term) SetFormatString(fs string) *Term {
	t.formatString = fs
	return t
}

func (t *Term) FormatString() string { return t.formatString }
func (t *Term) VarName() string      { return t.varName }
func (t *Term) CType() string        { return t.cType }
func (t *Term) Regexps() []Regexp    { return t.regexps }
func (t *Term) IsStringTerm() bool   { return t.stringTerm }

// TokenID is the identifier (or C character literal) the lexer
// returns for this terminal.
func (t *Term) TokenID() string { return t.tokenID }

// SymbolicTokenID reports whether the token uses a symbolic
// identifier rather than a literal character.
func (t *Term) SymbolicTokenID() bool { return t.name != "" }

func (t *Term) ErrorDescription() string {
	if t.name == "" {
		return t.tokenID
	}
	if t.errorName != "" {
		return t.errorName
	}
	return t.name
}

func (t *Term) SymKey() string { return "t:" + t.tokenID }

func (t *Term) Recognize(resultVar string) ([]string, string) {
	return nil, fmt.Sprintf("accept(%s, %s)", t.TokenID(), resultVarRef(resultVar))
}

// PushBack returns the statement returning a consumed token to the
// lexer during backtracking.
func (t *Term) PushBack(resultVar string) string {
	return fmt.Sprintf("push_back(%s, %s)", t.TokenID(), resultVarValue(resultVar))
}

// ASTGen interface

func (t *Term) Sub() []ASTGen { return nil }

func (t *Term) ValueNode() (string, string, bool) {
	if t.cType == "" {
		return "", "", false
	}
	return t.cType, t.varName, true
}

func (t *Term) ASTName() string {
	if t.name == "" {
		return strings.ToUpper(t.varName)
	}
	return t.name
}

func (t *Term) ASTFullName() string        { return valuePrefix + t.ASTName() }
func (t *Term) BuiltinName() string        { return "" }
func (t *Term) OwnerNT() *NT               { return nil }
func (t *Term) HasASTRepresentation() bool { return true }

func (t *Term) ResultStorage() string {
	if t.stringTerm {
		return ""
	}
	return "ast_node_t *"
}

func (t *Term) ResultStorageInit() string { return "NULL" }

func (t *Term) Subst(a, b ASTGen) ASTGen {
	if other, ok := a.(*Term); ok && other == t {
		return b
	}
	return t
}

func (t *Term) Emit(env Env) string                        { return env(t, 0) }
func (t *Term) EmitFreeVar(src *cgen.Source, varName string) {}
func (t *Term) CloneVar(varName string) string             { return varName }

func (t *Term) String() string {
	if t.name == "" {
		return t.tokenID
	}
	if t.stringTerm {
		// Multi-character literals print quoted, like single
		// characters, not under their derived token name.
		return t.errorName
	}
	return t.name
}

func resultVarRef(v string) string {
	if v == "" {
		return "NULL"
	}
	return "&" + v
}

func resultVarValue(v string) string {
	if v == "" {
		return "NULL"
	}
	return v
}

// stringTermTrans maps punctuation to mnemonic words when deriving a
// symbolic name for a literal keyword.
var stringTermTrans = map[rune]string{
	'>': "GT",
	'<': "LT",
	'=': "EQ",
	'!': "BANG",
	'*': "STAR",
	'+': "PLUS",
	'-': "DASH",
	'/': "SLASH",
	'&': "AMP",
	'#': "HASH",
	'%': "PERCENT",
	'@': "AT",
	',': "COMMA",
	'~': "TILDE",
	':': "COLON",
	';': "SEMICOLON",
	'.': "PERIOD",
	'?': "QMARK",
}

const stringTermEscapes = `()*+.|[]?'\`

// Lit declares (or looks up) the terminal for a literal token.
// Multi-character literals get a symbolic name with punctuation
// mapped to mnemonic words; single characters are identified by their
// C character literal.  String terminals sort before all other
// terminals in the lexer.
func (g *Grammar) Lit(lit string) *Term {
	if t, found := g.stringTerms[lit]; found {
		return t
	}

	name := ""
	tokenID := "'" + lit + "'"
	if len(lit) > 1 {
		var b strings.Builder
		for _, r := range strings.ToUpper(lit) {
			if tr, found := stringTermTrans[r]; found {
				b.WriteString(tr)
			} else if r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		name = b.String()
		if name == "" {
			name = "X"
		}
		if g.usedNames[name] {
			i := 0
			for g.usedNames[fmt.Sprintf("%s%d", name, i)] {
				i++
			}
			name = fmt.Sprintf("%s%d", name, i)
		}
		g.usedNames[name] = true
		tokenID = "T_L_" + name
	}

	var escaped strings.Builder
	for _, r := range lit {
		if strings.ContainsRune(stringTermEscapes, r) {
			escaped.WriteRune('\\')
		}
		escaped.WriteRune(r)
	}

	t := &Term{
		name:         name,
		tokenID:      tokenID,
		formatString: "ERROR",
		stringTerm:   true,
		errorName:    "'" + lit + "'",
		priority:     -1,
	}
	t.regexps = append(t.regexps, Regexp{Pattern: `"` + escaped.String() + `"`, term: t})
	g.terms = append(g.terms, t)
	g.stringTerms[lit] = t
	return t
}
