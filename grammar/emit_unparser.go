package grammar

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// EmitUnparser renders the unparser template, which prints AST nodes
// back as text: tag names, attribute flags, builtin identifiers and
// value-node contents.
func (g *Grammar) EmitUnparser(tmpl *cgen.Template) (string, error) {
	if err := g.requirePreprocessed(); err != nil {
		return "", err
	}

	var valueTerms []*Term
	seenTags := map[string]bool{}
	var taggedNodes []ASTGen
	seenBuiltins := map[string]bool{}
	var builtins []*Builtin

	for _, r := range g.rules {
		for _, node := range SelfAndSub(r.astgen) {
			if node.ASTName() != "" && node.HasASTRepresentation() && !seenTags[node.ASTFullName()] {
				seenTags[node.ASTFullName()] = true
				taggedNodes = append(taggedNodes, node)
				if t, isTerm := node.(*Term); isTerm {
					if _, _, hasValue := t.ValueNode(); hasValue {
						valueTerms = append(valueTerms, t)
					}
				}
			}
			if b, isBuiltin := node.(*Builtin); isBuiltin && !seenBuiltins[b.BuiltinName()] {
				seenBuiltins[b.BuiltinName()] = true
				builtins = append(builtins, b)
			}
		}
	}

	caseFputs := func(tag, text string) string {
		return fmt.Sprintf("\tcase %s:\n\t\tfputs(\"%s\", file);\n\t\tbreak;", tag, text)
	}

	var tagCases []string
	for _, n := range g.otherNodeTypes {
		tagCases = append(tagCases, caseFputs(consPrefix+n, n))
	}
	for _, node := range taggedNodes {
		tagCases = append(tagCases, caseFputs(node.ASTFullName(), node.ASTName()))
	}

	var flagChecks []string
	for _, name := range g.attrOrder {
		attr := g.attrs[name]
		flagChecks = append(flagChecks, fmt.Sprintf("\tif (ty & %s) fputs(\"#%s\", file);\n", attr.FullTagName(), attr.TagName()))
	}

	var idCases []string
	for _, b := range builtins {
		idCases = append(idCases, caseFputs(b.BuiltinFullName(), b.BuiltinName()))
	}

	var vnodeCases []string
	for _, t := range valueTerms {
		vnodeCases = append(vnodeCases, fmt.Sprintf("\tcase %s:\n\t\tfprintf(file, \"%s\", node->v.%s);\n\t\tbreak;",
			t.ASTFullName(), t.FormatString(), t.varName))
	}

	return tmpl.Render(map[string]string{
		"PRINT_TAGS":   strings.Join(tagCases, "\n"),
		"PRINT_FLAGS":  strings.Join(flagChecks, "\n"),
		"PRINT_IDS":    strings.Join(idCases, "\n"),
		"PRINT_VNODES": strings.Join(vnodeCases, "\n"),
	})
}
