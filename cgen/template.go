package cgen

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// GeneratedBanner is emitted before every rendered template so nobody
// edits the output by hand.
const GeneratedBanner = "/* ** AUTOMATICALLY GENERATED.  DO NOT MODIFY. ** */"

// TemplateError reports an inconsistency between a template file and
// the substitutions provided for it.
type TemplateError struct {
	Name    string
	Message string
}

func (e TemplateError) Error() string {
	return fmt.Sprintf("template %s: %s", e.Name, e.Message)
}

// Template is a plain-text file in which whole lines of the shape
// `$$NAME$$` (possibly surrounded by whitespace) are holes to be
// substituted at render time.
type Template struct {
	name  string
	lines []string
	holes map[string]int
}

// LoadTemplate reads and indexes the template at path.  Each hole must
// occur exactly once, and a template without holes is rejected.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTemplate(path, string(data))
}

func parseTemplate(name, content string) (*Template, error) {
	lines := strings.Split(content, "\n")
	holes := map[string]int{}
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "$$") && strings.HasSuffix(trimmed, "$$") && len(trimmed) > 4 {
			hole := trimmed[2 : len(trimmed)-2]
			if _, found := holes[hole]; found {
				return nil, TemplateError{name, fmt.Sprintf("contains hole %q more than once", hole)}
			}
			holes[hole] = i
		}
	}
	if len(holes) == 0 {
		return nil, TemplateError{name, "contains no holes"}
	}
	return &Template{name: name, lines: lines, holes: holes}, nil
}

// Holes returns the hole names found in the template.
func (t *Template) Holes() []string {
	names := make([]string, 0, len(t.holes))
	for name := range t.holes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render plugs every hole with its substitution and returns the
// resulting text.  Every hole must be filled, and every substitution
// must name a hole.
func (t *Template) Render(subs map[string]string) (string, error) {
	lines := make([]string, len(t.lines))
	copy(lines, t.lines)

	unfilled := map[string]bool{}
	for name := range t.holes {
		unfilled[name] = true
	}
	for name, value := range subs {
		at, found := t.holes[name]
		if !found {
			return "", TemplateError{t.name, fmt.Sprintf("hole %q is not defined", name)}
		}
		lines[at] = value
		delete(unfilled, name)
	}
	if len(unfilled) > 0 {
		missing := make([]string, 0, len(unfilled))
		for name := range unfilled {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return "", TemplateError{t.name, fmt.Sprintf("not all holes plugged: %s missing", strings.Join(missing, ", "))}
	}

	out := &strings.Builder{}
	out.WriteString(GeneratedBanner)
	out.WriteString("\n")
	for _, line := range lines {
		out.WriteString(line)
		out.WriteString("\n")
	}
	return out.String(), nil
}
