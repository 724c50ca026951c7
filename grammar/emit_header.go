package grammar

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// firstSymbolicToken is the token id assigned to the first symbolic
// terminal; single-character tokens are identified by their C
// character literal instead.
const firstSymbolicToken = 0x102

// EmitLexerParserHeader renders the lexer/parser header template:
// the token enumeration, the yylval union members, and the exported
// parse function prototypes.
func (g *Grammar) EmitLexerParserHeader(tmpl *cgen.Template) (string, error) {
	if err := g.requirePreprocessed(); err != nil {
		return "", err
	}

	var tokens []string
	valueNames := []string{"node"}
	values := map[string]string{"node": "ast_node_t*"}

	next := firstSymbolicToken
	for _, t := range g.terms {
		if t.varName != "" {
			if existing, found := values[t.varName]; found {
				if existing != t.cType {
					return "", grammarErrorf("inconsistent types for var %s: %s vs %s", t.varName, t.cType, existing)
				}
			} else {
				values[t.varName] = t.cType
				valueNames = append(valueNames, t.varName)
			}
		}
		if t.SymbolicTokenID() {
			tokens = append(tokens, fmt.Sprintf("%s = 0x%x", t.TokenID(), next))
			next++
		}
	}

	var valueLines []string
	for _, name := range valueNames {
		ctype := values[name]
		for strings.HasSuffix(ctype, "*") {
			ctype = strings.TrimRight(ctype[:len(ctype)-1], " ")
			name = "*" + name
		}
		valueLines = append(valueLines, "\t"+ctype+" "+name+";")
	}

	decls := cgen.NewSource()
	for _, lhs := range g.ruleNTs {
		if g.IsExported(lhs) {
			g.emitRuleHeader(decls, lhs, ";")
		}
	}

	tokenLines := make([]string, len(tokens))
	for i, t := range tokens {
		tokenLines[i] = "\t" + t
	}

	return tmpl.Render(map[string]string{
		"TOKENS":       strings.Join(tokenLines, ",\n") + "\n",
		"VALUES":       strings.Join(valueLines, "\n") + "\n",
		"PARSER_DECLS": strings.TrimSuffix(decls.String(), "\n"),
	})
}
