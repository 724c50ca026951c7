package grammar

import (
	"sort"
	"strings"

	"attoc/cgen"
)

// EmitLexer renders the lexer template.  Terminals are ordered by
// ascending priority, so that literal keywords (priority -1) match
// before the identifier and number rules that would swallow them.
func (g *Grammar) EmitLexer(tmpl *cgen.Template) (string, error) {
	if err := g.requirePreprocessed(); err != nil {
		return "", err
	}

	terms := append([]*Term{}, g.terms...)
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].priority < terms[j].priority
	})

	var rules []string
	for _, t := range terms {
		for _, re := range t.regexps {
			rules = append(rules, re.LexerRule())
		}
	}

	return tmpl.Render(map[string]string{
		"RULES": strings.Join(rules, "\n") + "\n",
	})
}
