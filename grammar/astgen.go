package grammar

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// Env maps a parsed rhs element occurrence to the name of the C
// variable holding its parse result.  It returns "" when no variable
// is bound for the element.
type Env func(sym ASTGen, index int) string

// ASTGen is the common interface of everything that can appear in an
// AST-construction expression: the construction operators (Cons,
// Builtin, Attr, NoAttr, Null, AddAttribute, Update, Repetition) and
// direct references to rhs elements (Term, NT, NTSub, Repeat).
type ASTGen interface {
	fmt.Stringer

	// Sub yields the construction's direct and indirect children.
	Sub() []ASTGen

	// ValueNode reports the (C type, union field) pair for
	// constructions that represent values.
	ValueNode() (ctype, field string, ok bool)

	// ASTName and ASTFullName identify the AST tag reserved for
	// this construction, when it has one.
	ASTName() string
	ASTFullName() string

	// BuiltinName is the builtin operation name, when this node
	// represents one.
	BuiltinName() string

	// OwnerNT is the associated nonterminal, if any.
	OwnerNT() *NT

	// HasASTRepresentation reports whether a unique AST node type
	// is reserved for this particular entity.
	HasASTRepresentation() bool

	// ResultStorage is the C type a parse function stores results
	// of this construction in ("" when there is none), and
	// ResultStorageInit its zero value.
	ResultStorage() string
	ResultStorageInit() string

	// Subst returns an equivalent tree with every occurrence of a
	// replaced by b.
	Subst(a, b ASTGen) ASTGen

	// Emit returns the C expression that builds this AST fragment.
	Emit(env Env) string

	// EmitFreeVar writes statements reclaiming a parse
	// intermediate that the construction did not consume.
	EmitFreeVar(src *cgen.Source, varName string)

	// CloneVar is the C expression cloning a variable of this
	// construction's type, for rhs variables referenced more than
	// once.
	CloneVar(varName string) string
}

// SelfAndSub returns g followed by all ASTGens contained within it.
func SelfAndSub(g ASTGen) []ASTGen {
	result := []ASTGen{g}
	for _, s := range g.Sub() {
		result = append(result, SelfAndSub(s)...)
	}
	return result
}

const (
	consPrefix    = "AST_NODE_"
	valuePrefix   = "AST_VALUE_"
	builtinPrefix = "BUILTIN_OP_"
	flagPrefix    = "AST_FLAG_"
)

// Cons builds an AST node of the named type with the given channels
// as children.
type Cons struct {
	name     string
	channels []ASTGen
}

func (g *Grammar) Cons(name string, channels ...ASTGen) *Cons {
	g.registerCons(name)
	return &Cons{name: name, channels: channels}
}

func (c *Cons) Sub() []ASTGen {
	var r []ASTGen
	for _, ch := range c.channels {
		r = append(r, ch)
		r = append(r, ch.Sub()...)
	}
	return r
}

func (c *Cons) ValueNode() (string, string, bool) { return "", "", false }
func (c *Cons) ASTName() string                   { return c.name }
func (c *Cons) ASTFullName() string               { return consPrefix + c.name }
func (c *Cons) BuiltinName() string               { return "" }
func (c *Cons) OwnerNT() *NT                      { return nil }
func (c *Cons) HasASTRepresentation() bool        { return true }
func (c *Cons) ResultStorage() string             { return "ast_node_t *" }
func (c *Cons) ResultStorageInit() string         { return "NULL" }

func (c *Cons) Subst(a, b ASTGen) ASTGen {
	if other, ok := a.(*Cons); ok && other.name == c.name {
		return b
	}
	channels := make([]ASTGen, len(c.channels))
	for i, ch := range c.channels {
		channels[i] = ch.Subst(a, b)
	}
	return &Cons{name: c.name, channels: channels}
}

func (c *Cons) Emit(env Env) string {
	args := ""
	for _, ch := range c.channels {
		args += ", " + ch.Emit(env)
	}
	return fmt.Sprintf("SETLINE(ast_node_alloc_generic(%s, %d%s))", c.ASTFullName(), len(c.channels), args)
}

func (c *Cons) EmitFreeVar(src *cgen.Source, varName string) {
	src.Linef("ast_node_free(%s, 1);", varName)
}

func (c *Cons) CloneVar(varName string) string {
	return fmt.Sprintf("ast_node_clone(%s)", varName)
}

func (c *Cons) String() string {
	names := make([]string, len(c.channels))
	for i, ch := range c.channels {
		names[i] = ch.String()
	}
	return fmt.Sprintf("Cons(%s, [%s])", c.name, strings.Join(names, ", "))
}

// Repetition consumes the rule's sole Repeat and folds the collected
// vector into a node of the named type.
type Repetition struct {
	name string
}

func (g *Grammar) Repetition(name string) *Repetition {
	g.registerCons(name)
	return &Repetition{name: name}
}

func (r *Repetition) Sub() []ASTGen                     { return nil }
func (r *Repetition) ValueNode() (string, string, bool) { return "", "", false }
func (r *Repetition) ASTName() string                   { return r.name }
func (r *Repetition) ASTFullName() string               { return consPrefix + r.name }
func (r *Repetition) BuiltinName() string               { return "" }
func (r *Repetition) OwnerNT() *NT                      { return nil }
func (r *Repetition) HasASTRepresentation() bool        { return true }
func (r *Repetition) ResultStorage() string             { return "ast_node_t *" }
func (r *Repetition) ResultStorageInit() string         { return "NULL" }

func (r *Repetition) Subst(a, b ASTGen) ASTGen {
	if other, ok := a.(*Repetition); ok && other.name == r.name {
		return b
	}
	return r
}

func (r *Repetition) Emit(env Env) string {
	return fmt.Sprintf("vector_to_node(%s, &%s)", r.ASTFullName(), env(anyRepeat, 0))
}

func (r *Repetition) EmitFreeVar(src *cgen.Source, varName string) {
	src.Linef("ast_node_free(%s, 1);", varName)
}

func (r *Repetition) CloneVar(varName string) string {
	return fmt.Sprintf("ast_node_clone(%s)", varName)
}

func (r *Repetition) String() string { return fmt.Sprintf("Repetition(%s)", r.name) }

// Builtin represents a builtin operation identifier value node.
type Builtin struct {
	name string
}

func NewBuiltin(name string) *Builtin { return &Builtin{name: name} }

func (b *Builtin) Sub() []ASTGen                     { return nil }
func (b *Builtin) ValueNode() (string, string, bool) { return "int", "ident", true }
func (b *Builtin) ASTName() string                   { return "ID" }
func (b *Builtin) ASTFullName() string               { return valuePrefix + "ID" }
func (b *Builtin) BuiltinName() string               { return b.name }
func (b *Builtin) BuiltinFullName() string           { return builtinPrefix + b.name }
func (b *Builtin) OwnerNT() *NT                      { return nil }
func (b *Builtin) HasASTRepresentation() bool        { return false }
func (b *Builtin) ResultStorage() string             { return "ast_node_t *" }
func (b *Builtin) ResultStorageInit() string         { return "NULL" }

func (b *Builtin) Subst(a, other ASTGen) ASTGen {
	if a == ASTGen(b) {
		return other
	}
	return b
}

func (b *Builtin) Emit(env Env) string {
	return fmt.Sprintf("SETLINE(value_node_alloc_generic(AST_VALUE_ID, (ast_value_union_t) { .ident = %s }))", b.BuiltinFullName())
}

func (b *Builtin) EmitFreeVar(src *cgen.Source, varName string) {}

func (b *Builtin) CloneVar(varName string) string {
	return fmt.Sprintf("ast_node_clone(%s)", varName)
}

func (b *Builtin) String() string { return fmt.Sprintf("Builtin(%s)", b.name) }

// AttrNode encodes an attribute as a bit in the node-type word.
// Attributes are interned per grammar, so two Attr calls with the
// same name yield the same node.
type AttrNode struct {
	name string
}

func (g *Grammar) Attr(name string) *AttrNode {
	if a, found := g.attrs[name]; found {
		return a
	}
	a := &AttrNode{name: name}
	g.attrs[name] = a
	g.attrOrder = append(g.attrOrder, name)
	return a
}

func (a *AttrNode) TagName() string     { return a.name }
func (a *AttrNode) FullTagName() string { return flagPrefix + a.name }

func (a *AttrNode) Sub() []ASTGen                     { return nil }
func (a *AttrNode) ValueNode() (string, string, bool) { return "", "", false }
func (a *AttrNode) ASTName() string                   { return "" }
func (a *AttrNode) ASTFullName() string               { return "" }
func (a *AttrNode) BuiltinName() string               { return "" }
func (a *AttrNode) OwnerNT() *NT                      { return nil }
func (a *AttrNode) HasASTRepresentation() bool        { return false }
func (a *AttrNode) ResultStorage() string             { return "unsigned int" }
func (a *AttrNode) ResultStorageInit() string         { return "0" }

func (a *AttrNode) Subst(x, y ASTGen) ASTGen {
	if x == ASTGen(a) {
		return y
	}
	return a
}

func (a *AttrNode) Emit(env Env) string                       { return a.FullTagName() }
func (a *AttrNode) EmitFreeVar(src *cgen.Source, varName string) {}
func (a *AttrNode) CloneVar(varName string) string             { return varName }
func (a *AttrNode) String() string                             { return fmt.Sprintf("Attr(%s)", a.name) }

// NoAttr is the empty attribute set.
var NoAttr ASTGen = &noAttrCons{}

type noAttrCons struct{}

func (n *noAttrCons) Sub() []ASTGen                     { return nil }
func (n *noAttrCons) ValueNode() (string, string, bool) { return "", "", false }
func (n *noAttrCons) ASTName() string                   { return "" }
func (n *noAttrCons) ASTFullName() string               { return "" }
func (n *noAttrCons) BuiltinName() string               { return "" }
func (n *noAttrCons) OwnerNT() *NT                      { return nil }
func (n *noAttrCons) HasASTRepresentation() bool        { return false }
func (n *noAttrCons) ResultStorage() string             { return "unsigned int" }
func (n *noAttrCons) ResultStorageInit() string         { return "0" }

func (n *noAttrCons) Subst(a, b ASTGen) ASTGen {
	if a == ASTGen(n) {
		return b
	}
	return n
}

func (n *noAttrCons) Emit(env Env) string                       { return "0" }
func (n *noAttrCons) EmitFreeVar(src *cgen.Source, varName string) {}
func (n *noAttrCons) CloneVar(varName string) string             { return varName }
func (n *noAttrCons) String() string                             { return "NoAttr" }

// Null is the absent AST node.
var Null ASTGen = &nullCons{}

type nullCons struct{}

func (n *nullCons) Sub() []ASTGen                     { return nil }
func (n *nullCons) ValueNode() (string, string, bool) { return "", "", false }
func (n *nullCons) ASTName() string                   { return "" }
func (n *nullCons) ASTFullName() string               { return "" }
func (n *nullCons) BuiltinName() string               { return "" }
func (n *nullCons) OwnerNT() *NT                      { return nil }
func (n *nullCons) HasASTRepresentation() bool        { return false }
func (n *nullCons) ResultStorage() string             { return "ast_node_t *" }
func (n *nullCons) ResultStorageInit() string         { return "NULL" }

func (n *nullCons) Subst(a, b ASTGen) ASTGen {
	if a == ASTGen(n) {
		return b
	}
	return n
}

func (n *nullCons) Emit(env Env) string { return "NULL" }

func (n *nullCons) EmitFreeVar(src *cgen.Source, varName string) {
	src.Linef("ast_node_free(%s, 1);", varName)
}

func (n *nullCons) CloneVar(varName string) string {
	return fmt.Sprintf("ast_node_clone(%s)", varName)
}

func (n *nullCons) String() string { return "NULL" }

// Update replaces the index-th child of the base node.
type Update struct {
	base    ASTGen
	index   int
	channel ASTGen
}

func NewUpdate(base ASTGen, index int, channel ASTGen) *Update {
	return &Update{base: base, index: index, channel: channel}
}

func (u *Update) Sub() []ASTGen {
	r := append([]ASTGen{u.base}, u.base.Sub()...)
	r = append(r, u.channel)
	return append(r, u.channel.Sub()...)
}


func (u *Update) ValueNode() (string, string, bool) { return "", "", false }
func (u *Update) ASTName() string                   { return "" }
func (u *Update) ASTFullName() string               { return "" }
func (u *Update) BuiltinName() string               { return "" }
func (u *Update) OwnerNT() *NT                      { return nil }
func (u *Update) HasASTRepresentation() bool        { return false }
func (u *Update) ResultStorage() string             { return "ast_node_t *" }
func (u *Update) ResultStorageInit() string         { return "NULL" }

func (u *Update) Subst(a, b ASTGen) ASTGen {
	if a == ASTGen(u) {
		return b
	}
	return &Update{base: u.base.Subst(a, b), index: u.index, channel: u.channel.Subst(a, b)}
}

func (u *Update) Emit(env Env) string {
	return fmt.Sprintf("node_update(%s, %d, %s)", u.base.Emit(env), u.index, u.channel.Emit(env))
}

func (u *Update) EmitFreeVar(src *cgen.Source, varName string) {
	src.Linef("ast_node_free(%s, 1);", varName)
}

func (u *Update) CloneVar(varName string) string {
	return fmt.Sprintf("ast_node_clone(%s)", varName)
}

func (u *Update) String() string {
	return fmt.Sprintf("Update(%s, %d, %s)", u.base, u.index, u.channel)
}

// AddAttribute adds an attribute bit to the base node.
type AddAttribute struct {
	base ASTGen
	attr ASTGen
}

func NewAddAttribute(base, attr ASTGen) *AddAttribute {
	return &AddAttribute{base: base, attr: attr}
}

func (aa *AddAttribute) Sub() []ASTGen {
	r := append([]ASTGen{aa.base}, aa.base.Sub()...)
	r = append(r, aa.attr)
	return append(r, aa.attr.Sub()...)
}

func (aa *AddAttribute) ValueNode() (string, string, bool) { return "", "", false }
func (aa *AddAttribute) ASTName() string                   { return "" }
func (aa *AddAttribute) ASTFullName() string               { return "" }
func (aa *AddAttribute) BuiltinName() string               { return "" }
func (aa *AddAttribute) OwnerNT() *NT                      { return nil }
func (aa *AddAttribute) HasASTRepresentation() bool        { return false }
func (aa *AddAttribute) ResultStorage() string             { return "ast_node_t *" }
func (aa *AddAttribute) ResultStorageInit() string         { return "NULL" }

func (aa *AddAttribute) Subst(a, b ASTGen) ASTGen {
	if a == ASTGen(aa) {
		return b
	}
	return &AddAttribute{base: aa.base.Subst(a, b), attr: aa.attr.Subst(a, b)}
}

func (aa *AddAttribute) Emit(env Env) string {
	return fmt.Sprintf("node_add_attribute(%s, %s)", aa.base.Emit(env), aa.attr.Emit(env))
}

func (aa *AddAttribute) EmitFreeVar(src *cgen.Source, varName string) {
	src.Linef("ast_node_free(%s, 1);", varName)
}

func (aa *AddAttribute) CloneVar(varName string) string {
	return fmt.Sprintf("ast_node_clone(%s)", varName)
}

func (aa *AddAttribute) String() string {
	return fmt.Sprintf("AddAttr(%s, %s)", aa.base, aa.attr)
}
