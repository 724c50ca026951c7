package isa

import (
	"fmt"
	"strings"

	"attoc/cgen"
)

// Arg describes how one typed argument of an instruction relates to
// the bits and bytes of its machine-code template.  Every Arg answers
// the same per-byte-offset questions: whether it owns a byte range
// outright (exclusive region), which bits it contributes to a given
// byte (builder), and which bits of a given byte it does not dictate
// (mask-out).
type Arg interface {
	// SetName assigns the variable name used for this argument in
	// emitted C.  Names are chosen by the owning instruction.
	SetName(name string)
	Name() string

	// GenericName hints at the kind of parameter ("r", "imm",
	// "label").  Empty for arguments that are not encoded.
	GenericName() string

	// CType is the C type of the argument in the encoder signature.
	CType() string

	// ExclusiveRegion reports the closed byte range fully dictated
	// by this argument, if any.
	ExclusiveRegion() (lo, hi int, ok bool)

	// BuilderAt returns C text producing the bits this argument
	// contributes at the given byte offset, or "" if none.
	BuilderAt(offset int) string

	// MaskOutAt returns the mask of bits at the given byte offset
	// that are not dictated by this argument.
	MaskOutAt(offset int) byte

	// EmitCopyToRegion emits the statements that fill the
	// argument's exclusive region wholesale.
	EmitCopyToRegion(src *cgen.Source, dataPtr string)

	// EmitDisassembly emits the statements that decode the
	// argument from dataPtr (shifted by offsetShift) and returns
	// the printf fragments and argument expressions used to print
	// it.
	EmitDisassembly(src *cgen.Source, dataPtr string, offsetShift int) (formats, args []string)

	// Disabled arguments are printed by the disassembler but are
	// neither encoded nor part of the encoder signature.
	Disabled() bool
}

type argName struct {
	name string
}

func (a *argName) SetName(name string) { a.name = name }
func (a *argName) Name() string        { return a.name }

func inRegion(offset int, a Arg) bool {
	lo, hi, ok := a.ExclusiveRegion()
	return ok && offset >= lo && offset <= hi
}

// Reg is a register argument whose number is scattered over one or
// more bit patterns.  Patterns are given msb-to-lsb and stored
// lsb-first, so that bit offsets accumulate from the low end of the
// register number.
type Reg struct {
	argName
	patterns []BitPattern
	atByte   map[int][]patternAt
}

type patternAt struct {
	pat       BitPattern
	bitOffset int
}

func NewReg(patterns ...BitPattern) *Reg {
	reversed := make([]BitPattern, len(patterns))
	for i, p := range patterns {
		reversed[len(patterns)-1-i] = p
	}
	r := &Reg{patterns: reversed, atByte: map[int][]patternAt{}}
	bitOffset := 0
	for _, p := range reversed {
		r.atByte[p.ByteID] = append(r.atByte[p.ByteID], patternAt{p, bitOffset})
		bitOffset += p.Width
	}
	return r
}

func (r *Reg) GenericName() string { return "r" }
func (r *Reg) CType() string       { return "int" }
func (r *Reg) Disabled() bool      { return false }

func (r *Reg) ExclusiveRegion() (int, int, bool) { return 0, 0, false }

func (r *Reg) BuilderAt(offset int) string {
	pats, found := r.atByte[offset]
	if !found {
		return ""
	}
	parts := make([]string, len(pats))
	for i, pa := range pats {
		parts[i] = pa.pat.Extract(r.Name(), pa.bitOffset)
	}
	return strings.Join(parts, " | ")
}

func (r *Reg) MaskOutAt(offset int) byte {
	mask := byte(0xff)
	for _, pa := range r.atByte[offset] {
		mask &= pa.pat.MaskOut()
	}
	return mask
}

func (r *Reg) EmitCopyToRegion(src *cgen.Source, dataPtr string) {}

func (r *Reg) EmitDisassembly(src *cgen.Source, dataPtr string, offsetShift int) ([]string, []string) {
	var decoding []string
	bitOffset := 0
	for _, pat := range r.patterns {
		offset := pat.ByteID + offsetShift
		if offset >= 0 {
			expr := pat.Decode(fmt.Sprintf("%s[%d]", dataPtr, offset))
			decoding = append(decoding, fmt.Sprintf("(%s << %d)", expr, bitOffset))
		}
		bitOffset += pat.Width
	}
	src.Linef("int %s = %s;", r.Name(), strings.Join(decoding, " | "))
	return []string{"%s"}, []string{fmt.Sprintf("register_names[%s].mips", r.Name())}
}

// JointReg writes a single register number into several disjoint
// encodings at once.
type JointReg struct {
	argName
	subs []*Reg
}

func NewJointReg(subs ...*Reg) *JointReg {
	return &JointReg{subs: subs}
}

func (j *JointReg) SetName(name string) {
	j.argName.SetName(name)
	for _, s := range j.subs {
		s.SetName(name)
	}
}

func (j *JointReg) GenericName() string { return "r" }
func (j *JointReg) CType() string       { return "int" }
func (j *JointReg) Disabled() bool      { return false }

func (j *JointReg) ExclusiveRegion() (int, int, bool) { return 0, 0, false }

func (j *JointReg) BuilderAt(offset int) string {
	var builders []string
	for _, s := range j.subs {
		if b := s.BuilderAt(offset); b != "" {
			builders = append(builders, "("+b+")")
		}
	}
	return strings.Join(builders, " | ")
}

func (j *JointReg) MaskOutAt(offset int) byte {
	mask := byte(0xff)
	for _, s := range j.subs {
		mask &= s.MaskOutAt(offset)
	}
	return mask
}

func (j *JointReg) EmitCopyToRegion(src *cgen.Source, dataPtr string) {}

func (j *JointReg) EmitDisassembly(src *cgen.Source, dataPtr string, offsetShift int) ([]string, []string) {
	return j.subs[0].EmitDisassembly(src, dataPtr, offsetShift)
}

// Imm is an immediate operand occupying an exclusive byte range; it
// is encoded by a raw copy into that range.
type Imm struct {
	argName
	ctype   string
	format  string
	byteNum int
	byteLen int
}

func NewImm(ctype, format string, byteNum, byteLen int) *Imm {
	return &Imm{ctype: ctype, format: format, byteNum: byteNum, byteLen: byteLen}
}

func ImmInt(offset int) *Imm      { return NewImm("int", "%x", offset, 4) }
func ImmUInt(offset int) *Imm     { return NewImm("unsigned int", "%x", offset, 4) }
func ImmLongLong(offset int) *Imm { return NewImm("long long", "%llx", offset, 8) }
func ImmReal(offset int) *Imm     { return NewImm("double", "%f", offset, 8) }

func (m *Imm) GenericName() string { return "imm" }
func (m *Imm) CType() string       { return m.ctype }
func (m *Imm) Disabled() bool      { return false }

func (m *Imm) ExclusiveRegion() (int, int, bool) {
	return m.byteNum, m.byteNum + m.byteLen - 1, true
}

func (m *Imm) BuilderAt(offset int) string { return "" }

func (m *Imm) MaskOutAt(offset int) byte {
	if inRegion(offset, m) {
		return 0x00
	}
	return 0xff
}

func (m *Imm) EmitCopyToRegion(src *cgen.Source, dataPtr string) {
	src.Linef("memcpy(%s + %d, &%s, %d);", dataPtr, m.byteNum, m.Name(), m.byteLen)
}

func (m *Imm) EmitDisassembly(src *cgen.Source, dataPtr string, offsetShift int) ([]string, []string) {
	if m.byteNum+offsetShift < 0 {
		return nil, nil
	}
	src.Linef("%s %s;", m.ctype, m.Name())
	src.Linef("memcpy(&%s, %s + %d, %d);", m.Name(), dataPtr, m.byteNum+offsetShift, m.byteLen)
	return []string{m.format}, []string{m.Name()}
}

// PCRelative is a jump-target operand.  The encoder does not write
// the offset itself; it records a label fixup site that the runtime
// buffer resolves once the target is known.
type PCRelative struct {
	argName
	byteNum int
	width   int
	delta   int
}

func NewPCRelative(byteNum, width, delta int) *PCRelative {
	return &PCRelative{byteNum: byteNum, width: width, delta: delta}
}

func (pc *PCRelative) GenericName() string { return "label" }
func (pc *PCRelative) CType() string       { return "relative_jump_label_t *" }
func (pc *PCRelative) Disabled() bool      { return false }

func (pc *PCRelative) ExclusiveRegion() (int, int, bool) {
	return pc.byteNum, pc.byteNum + pc.width - 1, true
}

func (pc *PCRelative) BuilderAt(offset int) string { return "" }

func (pc *PCRelative) MaskOutAt(offset int) byte {
	if inRegion(offset, pc) {
		return 0x00
	}
	return 0xff
}

func (pc *PCRelative) EmitCopyToRegion(src *cgen.Source, dataPtr string) {
	src.Linef("%s->label_position = %s + %d;", pc.Name(), dataPtr, pc.byteNum)
	src.Linef("%s->base_position = %s + machine_code_len;", pc.Name(), dataPtr)
}

func (pc *PCRelative) EmitDisassembly(src *cgen.Source, dataPtr string, offsetShift int) ([]string, []string) {
	if pc.byteNum+offsetShift < 0 {
		return nil, nil
	}
	src.Linef("int relative_%s;", pc.Name())
	src.Linef("memcpy(&relative_%s, %s + %d, %d);", pc.Name(), dataPtr, pc.byteNum+offsetShift, pc.width)
	src.Linef("unsigned char *%s = %s + relative_%s + machine_code_len;", pc.Name(), dataPtr, pc.Name())
	return []string{"%p"}, []string{pc.Name()}
}

// DisabledArg wraps another argument with a fixed literal default.
// The wrapper is neither encoded nor decoded, but the disassembler
// still prints it.
type DisabledArg struct {
	arg Arg
}

func NewDisabledArg(arg Arg, defaultValue string) *DisabledArg {
	arg.SetName(defaultValue)
	return &DisabledArg{arg: arg}
}

func (d *DisabledArg) SetName(name string) {}
func (d *DisabledArg) Name() string        { return d.arg.Name() }
func (d *DisabledArg) GenericName() string { return "" }
func (d *DisabledArg) CType() string       { return d.arg.CType() }
func (d *DisabledArg) Disabled() bool      { return true }

func (d *DisabledArg) ExclusiveRegion() (int, int, bool) { return 0, 0, false }
func (d *DisabledArg) BuilderAt(offset int) string       { return "" }
func (d *DisabledArg) MaskOutAt(offset int) byte         { return 0xff }

func (d *DisabledArg) EmitCopyToRegion(src *cgen.Source, dataPtr string) {}

func (d *DisabledArg) EmitDisassembly(src *cgen.Source, dataPtr string, offsetShift int) ([]string, []string) {
	// Decode statements are discarded; only the printed form is kept.
	return d.arg.EmitDisassembly(cgen.NewSource(), dataPtr, offsetShift)
}
