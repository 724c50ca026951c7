package isa

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// Alternative is one guarded encoding of an InsnAlternatives.  The
// guard is a C conditional in which `{arg0}`..`{argN}` stand for the
// dispatcher's argument names.  Its argument list parallels the
// default encoding's, with DisabledArg marking positions the
// alternative fixes to a literal.
type Alternative struct {
	Guard string
	Code  []byte
	Args  []Arg
}

// InsnAlternatives exposes one public encoder symbol backed by
// several hidden encodings, selected at encode time by guards over
// the arguments.  Guards are tried in declaration order; the default
// encoding is used when none matches.
type InsnAlternatives struct {
	insn          *Insn
	defaultOption *Insn
	options       []guardedInsn
}

type guardedInsn struct {
	guard string
	insn  *Insn
}

func NewInsnAlternatives(name string, machineCode []byte, args []Arg, alternatives []Alternative) *InsnAlternatives {
	a := &InsnAlternatives{
		insn: NewInsn(name, machineCode, args),
	}
	for nr, alt := range alternatives {
		hidden := NewInsn(name, alt.Code, alt.Args)
		hidden.static = true
		hidden.functionName = fmt.Sprintf("%s__%d", name, nr)
		a.options = append(a.options, guardedInsn{guard: alt.Guard, insn: hidden})
	}
	a.defaultOption = NewInsn(name, machineCode, args)
	a.defaultOption.static = true
	a.defaultOption.functionName = fmt.Sprintf("%s__%d", name, len(alternatives))
	return a
}

func (a *InsnAlternatives) InsnName() string { return a.insn.name }

func (a *InsnAlternatives) AllEncodings() []*Insn {
	all := make([]*Insn, 0, len(a.options)+1)
	for _, opt := range a.options {
		all = append(all, opt.insn)
	}
	return append(all, a.insn)
}

func (a *InsnAlternatives) EmitPrototype(src *cgen.Source) {
	a.insn.EmitPrototype(src)
}

func (a *InsnAlternatives) EmitEncoder(src *cgen.Source) {
	a.defaultOption.EmitEncoder(src)
	src.Line("")
	for _, opt := range a.options {
		opt.insn.EmitEncoder(src)
		src.Line("")
	}

	argNames := make([]string, len(a.insn.args))
	for nr, arg := range a.insn.args {
		argNames[nr] = arg.Name()
	}

	// The dispatcher tests each guard and tail-calls the matching
	// hidden encoder.
	a.insn.emitHeader(src, "")
	src.Line("{")
	src.Block(func() {
		for _, opt := range a.options {
			src.Linef("if (%s) {", substituteGuard(opt.guard, argNames))
			src.Block(func() {
				src.Line(a.invocation(opt.insn, argNames))
				src.Line("return;")
			})
			src.Line("}")
		}
		src.Line(a.invocation(a.defaultOption, argNames))
	})
	src.Line("}")
}

func (a *InsnAlternatives) invocation(insn *Insn, argNames []string) string {
	params := []string{"buf"}
	for nr, arg := range insn.args {
		if !arg.Disabled() {
			params = append(params, argNames[nr])
		}
	}
	return EmitPrefix + insn.functionName + "(" + strings.Join(params, ", ") + ");"
}

func substituteGuard(guard string, argNames []string) string {
	for nr, name := range argNames {
		guard = strings.ReplaceAll(guard, fmt.Sprintf("{arg%d}", nr), name)
	}
	return guard
}
