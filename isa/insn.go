package isa

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// EmitPrefix is prepended to every encoder function name.
const EmitPrefix = "emit_"

// Instruction is one mnemonic of the target ISA, with one or more
// machine-code encodings behind it.
type Instruction interface {
	InsnName() string

	// AllEncodings lists every concrete encoding a disassembler
	// must be able to recognize.
	AllEncodings() []*Insn

	// EmitPrototype emits the encoder's C prototype.
	EmitPrototype(src *cgen.Source)

	// EmitEncoder emits the encoder's C definition.
	EmitEncoder(src *cgen.Source)
}

// Insn is a single encoding: a machine-code template plus the
// arguments whose bits are folded into it.  An instruction with an
// optional prefix byte keeps that byte at the front of MachineCode
// and addresses it as byte offset -1.
type Insn struct {
	name         string
	functionName string
	machineCode  []byte
	args         []Arg
	static       bool
	optPrefix    bool
}

func NewInsn(name string, machineCode []byte, args []Arg) *Insn {
	i := &Insn{
		name:         name,
		functionName: name,
		machineCode:  machineCode,
		args:         args,
	}
	i.nameArgs()
	return i
}

// NewOptPrefixInsn builds an instruction whose first template byte is
// an optional prefix, emitted only when an argument contributes a
// nonzero bit to byte -1.
func NewOptPrefixInsn(name string, optPrefix byte, machineCode []byte, args []Arg) *Insn {
	code := append([]byte{optPrefix}, machineCode...)
	i := &Insn{
		name:         name,
		functionName: name,
		machineCode:  code,
		args:         args,
		optPrefix:    true,
	}
	i.nameArgs()
	return i
}

// nameArgs assigns C parameter names from the arguments' generic
// names.  When a generic name occurs k>1 times, the i-th occurrence
// (left to right) is suffixed with i.
func (i *Insn) nameArgs() {
	counts := map[string]int{}
	for _, arg := range i.args {
		if n := arg.GenericName(); n != "" {
			counts[n]++
		}
	}
	seen := map[string]int{}
	for _, arg := range i.args {
		n := arg.GenericName()
		if n == "" {
			continue
		}
		if counts[n] > 1 {
			seen[n]++
			arg.SetName(fmt.Sprintf("%s%d", n, seen[n]))
		} else {
			arg.SetName(n)
		}
	}
}

func (i *Insn) InsnName() string      { return i.name }
func (i *Insn) Args() []Arg           { return i.args }
func (i *Insn) MachineCode() []byte   { return i.machineCode }
func (i *Insn) AllEncodings() []*Insn { return []*Insn{i} }

func (i *Insn) signature() string {
	params := []string{"buffer_t *buf"}
	for _, arg := range i.args {
		if !arg.Disabled() {
			params = append(params, arg.CType()+" "+arg.Name())
		}
	}
	return EmitPrefix + i.functionName + "(" + strings.Join(params, ", ") + ")"
}

func (i *Insn) emitHeader(src *cgen.Source, trail string) {
	if i.static {
		src.Line("static void")
	} else {
		src.Line("void")
	}
	src.Line(i.signature() + trail)
}

func (i *Insn) EmitPrototype(src *cgen.Source) {
	i.emitHeader(src, ";")
}

// initialOffset is the byte offset of the first template byte: -1
// when the template starts with an optional prefix.
func (i *Insn) initialOffset() int {
	if i.optPrefix {
		return -1
	}
	return 0
}

// builders collects the bit contributions of every argument at the
// given offset.  ok is false when the byte lies inside an exclusive
// region and must not be written here.
func (i *Insn) builders(offset int) (parts []string, ok bool) {
	for _, arg := range i.args {
		if inRegion(offset, arg) {
			return nil, false
		}
		if b := arg.BuilderAt(offset); b != "" {
			parts = append(parts, "("+b+")")
		}
	}
	return parts, true
}

func (i *Insn) EmitEncoder(src *cgen.Source) {
	i.emitHeader(src, "")
	src.Line("{")
	src.Block(func() {
		if i.optPrefix {
			prefixBits, _ := i.builders(-1)
			src.Line("int data_prefix_len = 0;")
			src.Linef("if (%s) { data_prefix_len = 1; }", strings.Join(prefixBits, " || "))
			src.Linef("const int machine_code_len = %d - 1 + data_prefix_len;", len(i.machineCode))
		} else {
			src.Linef("const int machine_code_len = %d;", len(i.machineCode))
		}
		src.Line("unsigned char *data = buffer_alloc(buf, machine_code_len);")
		if i.optPrefix {
			src.Line("data += data_prefix_len;")
		}

		offset := i.initialOffset()
		for _, templateByte := range i.machineCode {
			parts, ok := i.builders(offset)
			if ok {
				spec := ""
				if len(parts) > 0 {
					spec = " | " + strings.Join(parts, " | ")
				}
				update := fmt.Sprintf("data[%d] = 0x%02x%s;", offset, templateByte, spec)
				if offset < 0 {
					src.Line("if (data_prefix_len) {")
					src.Block(func() {
						src.Line(update)
					})
					src.Line("}")
				} else {
					src.Line(update)
				}
			}
			offset++
		}

		for _, arg := range i.args {
			if _, _, ok := arg.ExclusiveRegion(); ok {
				arg.EmitCopyToRegion(src, "data")
			}
		}
	})
	src.Line("}")
}

// EmitRecognizers emits the disassembler blocks for this encoding.
// An optional-prefix encoding is recognized twice, with and without
// the prefix byte.
func (i *Insn) EmitRecognizers(src *cgen.Source, dataName, maxLenName string) {
	if i.optPrefix {
		i.emitRecognizer(src, dataName, maxLenName, i.machineCode, -1)
		i.emitRecognizer(src, dataName, maxLenName, i.machineCode[1:], 0)
		return
	}
	i.emitRecognizer(src, dataName, maxLenName, i.machineCode, 0)
}

func (i *Insn) emitRecognizer(src *cgen.Source, dataName, maxLenName string, machineCode []byte, offsetShift int) {
	var checks []string
	offset := offsetShift
	for _, templateByte := range machineCode {
		bitmask := byte(0xff)
		for _, arg := range i.args {
			bitmask &= arg.MaskOutAt(offset)
		}
		if bitmask != 0 {
			at := offset - offsetShift
			if bitmask == 0xff {
				checks = append(checks, fmt.Sprintf("%s[%d] == 0x%02x", dataName, at, templateByte))
			} else {
				checks = append(checks, fmt.Sprintf("(%s[%d] & 0x%02x) == 0x%02x", dataName, at, bitmask, templateByte))
			}
		}
		offset++
	}
	if len(checks) == 0 {
		panic(fmt.Sprintf("instruction %s has no discriminating bytes", i.name))
	}

	src.Linef("if (%s >= %d && %s) {", maxLenName, len(machineCode), strings.Join(checks, " && "))
	src.Block(func() {
		src.Linef("const int machine_code_len = %d;", len(machineCode))

		var formats, formatArgs []string
		for _, arg := range i.args {
			fs, as := arg.EmitDisassembly(src, dataName, -offsetShift)
			formats = append(formats, fs...)
			formatArgs = append(formatArgs, as...)
		}
		src.Line("if (file)")
		if len(formats) == 0 {
			src.Linef("\tfprintf(file, \"%s\");", i.name)
		} else {
			src.Linef("\tfprintf(file, \"%s\\t%s\", %s);",
				i.name, strings.Join(formats, ", "), strings.Join(formatArgs, ", "))
		}
		src.Line("return machine_code_len;")
	})
	src.Line("}")
}
