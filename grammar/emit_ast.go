package grammar

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"attoc/cgen"
)

// nodeTypeLayout packs an AST node-type tag and a set of attribute
// flags into one 16-bit word: the tag occupies the low TagBits, the
// flags the bits above it.
type nodeTypeLayout struct {
	TagBits  int
	FlagBits int
	Mask     int
}

func (g *Grammar) nodeTypeLayout() (nodeTypeLayout, error) {
	total := len(g.consOrder) + len(g.terms) + 2 // identifiers and `invalid'
	tagBits := bits.Len(uint(total))
	flagBits := 16 - tagBits
	if flagBits < len(g.attrOrder) {
		return nodeTypeLayout{}, grammarErrorf(
			"not enough bits left to store all attributes (need %d, have %d)", len(g.attrOrder), flagBits)
	}
	return nodeTypeLayout{
		TagBits:  tagBits,
		FlagBits: flagBits,
		Mask:     0xffff >> flagBits,
	}, nil
}

// attrBit is the bit position of the i-th declared attribute, just
// above the tag bits.
func (l nodeTypeLayout) attrBit(i int) int { return l.TagBits + i }

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet { return &orderedSet{seen: map[string]bool{}} }

func (s *orderedSet) add(item string) {
	if !s.seen[item] {
		s.seen[item] = true
		s.items = append(s.items, item)
	}
}

// astHeaderInfo is everything the AST header needs, collected in one
// walk over all AST constructions.
type astHeaderInfo struct {
	valueFields  []string          // union field names, in order
	valueTypes   map[string]string // field name -> C type
	getters      []string          // getter names, in order
	getterFields map[string]string // getter name -> field name
	valueTags    *orderedSet       // AST_VALUE_* full names
	nonvalueTags *orderedSet       // AST_NODE_* full names
	builtins     *orderedSet       // BUILTIN_OP_* full names
}

func (g *Grammar) collectASTInfo() (*astHeaderInfo, error) {
	info := &astHeaderInfo{
		valueTypes:   map[string]string{},
		getters:      []string{"ID"},
		getterFields: map[string]string{"ID": "ident"},
		valueTags:    newOrderedSet(),
		nonvalueTags: newOrderedSet(),
		builtins:     newOrderedSet(),
	}

	for _, r := range g.rules {
		for _, node := range SelfAndSub(r.astgen) {
			ctype, field, hasValue := node.ValueNode()
			addset := info.nonvalueTags
			if hasValue {
				if existing, found := info.valueTypes[field]; found {
					if existing != ctype {
						return nil, grammarErrorf("mismatching entries for key %s: %s vs %s", field, ctype, existing)
					}
				} else {
					info.valueTypes[field] = ctype
					info.valueFields = append(info.valueFields, field)
				}
				addset = info.valueTags

				if _, isBuiltin := node.(*Builtin); !isBuiltin {
					getter := node.ASTName()
					if getter == "" {
						getter = strings.ToUpper(field)
					}
					if existing, found := info.getterFields[getter]; found {
						if existing != field {
							return nil, grammarErrorf("mismatching entries for key %s: %s vs %s", getter, field, existing)
						}
					} else {
						info.getterFields[getter] = field
						info.getters = append(info.getters, getter)
					}
				}
			}

			if node.ASTName() != "" {
				addset.add(node.ASTFullName())
			}
			if node.BuiltinName() != "" {
				info.builtins.add(builtinPrefix + node.BuiltinName())
			}
		}
	}

	for _, n := range g.otherBuiltins {
		info.builtins.add(builtinPrefix + n)
	}
	for _, n := range g.otherNodeTypes {
		info.nonvalueTags.add(consPrefix + n)
	}
	return info, nil
}

// EmitASTHeader renders the AST header template: the node type tags,
// the attribute flag masks, the value union, the value getters and
// the builtin operation ids.
func (g *Grammar) EmitASTHeader(tmpl *cgen.Template) (string, error) {
	if err := g.requirePreprocessed(); err != nil {
		return "", err
	}
	layout, err := g.nodeTypeLayout()
	if err != nil {
		return "", err
	}
	info, err := g.collectASTInfo()
	if err != nil {
		return "", err
	}

	nameWidth := 0
	for _, n := range append(append([]string{}, info.valueTags.items...), info.nonvalueTags.items...) {
		if len(n) > nameWidth {
			nameWidth = len(n)
		}
	}

	var nodeDecls []string
	addDecl := func(name string, number int) {
		pad := nameWidth - len(name)
		if pad < 0 {
			pad = 0
		}
		nodeDecls = append(nodeDecls, fmt.Sprintf("#define %s%s 0x%02x", name, strings.Repeat(" ", pad), number))
	}

	// Value-node tags come first so that AST_VALUE_MAX bounds them.
	next := 0
	addDecl("AST_ILLEGAL", next)
	next++
	addDecl("AST_NODE_MASK", layout.Mask)
	for _, n := range info.valueTags.items {
		addDecl(n, next)
		next++
	}
	addDecl("AST_VALUE_MAX", next-1)
	for _, n := range info.nonvalueTags.items {
		addDecl(n, next)
		next++
	}

	builtins := append([]string{}, info.builtins.items...)
	sort.Strings(builtins)
	builtinWidth := 0
	for _, n := range builtins {
		if len(n) > builtinWidth {
			builtinWidth = len(n)
		}
	}
	var builtinDecls []string
	id := -1
	for _, n := range builtins {
		builtinDecls = append(builtinDecls, fmt.Sprintf("#define %s%s %d", n, strings.Repeat(" ", builtinWidth-len(n)), id))
		id--
	}

	var getterDecls []string
	for _, getter := range info.getters {
		getterDecls = append(getterDecls, fmt.Sprintf("#define AV_%s(n) (((ast_value_node_t *)(n))->v.%s)", getter, info.getterFields[getter]))
	}

	flagWidth := 0
	for _, name := range g.attrOrder {
		if n := len(g.attrs[name].FullTagName()); n > flagWidth {
			flagWidth = n
		}
	}
	var flagDecls []string
	for i, name := range g.attrOrder {
		full := g.attrs[name].FullTagName()
		flagDecls = append(flagDecls, fmt.Sprintf("#define %s %s 0x%04x", full, strings.Repeat(" ", flagWidth-len(full)), 1<<layout.attrBit(i)))
	}

	var unionDecls []string
	for _, field := range info.valueFields {
		unionDecls = append(unionDecls, "\t"+info.valueTypes[field]+" "+field+";")
	}

	return tmpl.Render(map[string]string{
		"NODE_TYPES":       strings.Join(nodeDecls, "\n"),
		"AV_VALUE_GETTERS": strings.Join(getterDecls, "\n"),
		"AV_FLAGS":         strings.Join(flagDecls, "\n"),
		"VALUE_UNION":      strings.Join(unionDecls, "\n"),
		"BUILTIN_IDS":      strings.Join(builtinDecls, "\n") + "\n\n#define BUILTIN_OPS_NR " + fmt.Sprint(len(builtins)) + "\n",
	})
}
