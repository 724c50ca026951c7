package isa

// Register-encoding helpers for the x86-64 target.  The AttoVM
// register model assumes 16 registers; the fourth register-number bit
// lands in the REX prefix byte at baseOffset (or in the optional
// prefix byte -1).

func ArithmeticDestReg(offset int) *Reg {
	return ArithmeticDestRegAt(offset, 0)
}

func ArithmeticDestRegAt(offset, baseOffset int) *Reg {
	return NewReg(Pat(baseOffset, 0, 1), Pat(offset, 0, 3))
}

func ArithmeticSrcReg(offset int) *Reg {
	return ArithmeticSrcRegAt(offset, 0)
}

func ArithmeticSrcRegAt(offset, baseOffset int) *Reg {
	return NewReg(Pat(baseOffset, 2, 1), Pat(offset, 3, 3))
}

func OptionalArithmeticDestReg(offset int) *Reg {
	return NewReg(Pat(-1, 0, 1), Pat(offset, 0, 3))
}

// StandardTable is the AttoVM instruction set, MIPS-flavored
// mnemonics over x86-64 encodings.
func StandardTable() []Instruction {
	return []Instruction{
		NewInsn("add", []byte{0x48, 0x01, 0xc0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2)}),
		NewInsn("sub", []byte{0x48, 0x29, 0xc0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2)}),
		NewInsn("move", []byte{0x48, 0x89, 0xc0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2)}),
		NewInsn("mul", []byte{0x48, 0x0f, 0xaf, 0xc0}, []Arg{ArithmeticSrcReg(3), ArithmeticDestReg(3)}),
		NewInsn("div_a2v0", []byte{0x48, 0xf7, 0xf8}, []Arg{ArithmeticDestReg(2)}),
		NewInsn("li", []byte{0x48, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(1), ImmLongLong(2)}),
		NewInsn("jreturn", []byte{0xc3}, nil),
		NewInsn("jal", []byte{0xe8, 0xe3, 0x00, 0x00, 0x00, 0x00}, []Arg{NewPCRelative(2, 4, -6)}),
		NewOptPrefixInsn("jalr", 0x40, []byte{0xff, 0xd0}, []Arg{OptionalArithmeticDestReg(1)}),

		NewInsn("bgt", []byte{0x48, 0x39, 0xc0, 0x0f, 0x8f, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2), NewPCRelative(5, 4, -9)}),
		NewInsn("bge", []byte{0x48, 0x39, 0xc0, 0x0f, 0x8d, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2), NewPCRelative(5, 4, -9)}),
		NewInsn("blt", []byte{0x48, 0x39, 0xc0, 0x0f, 0x8c, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2), NewPCRelative(5, 4, -9)}),
		NewInsn("ble", []byte{0x48, 0x39, 0xc0, 0x0f, 0x8e, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2), NewPCRelative(5, 4, -9)}),
		NewInsn("beq", []byte{0x48, 0x39, 0xc0, 0x0f, 0x84, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2), NewPCRelative(5, 4, -9)}),
		NewInsn("bne", []byte{0x48, 0x39, 0xc0, 0x0f, 0x85, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ArithmeticSrcReg(2), NewPCRelative(5, 4, -9)}),

		NewInsn("bgtz", []byte{0x48, 0x83, 0xc0, 0x00, 0x0f, 0x8f, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), NewPCRelative(6, 4, -10)}),
		NewInsn("bgez", []byte{0x48, 0x83, 0xc0, 0x00, 0x0f, 0x8d, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), NewPCRelative(6, 4, -10)}),
		NewInsn("bltz", []byte{0x48, 0x83, 0xc0, 0x00, 0x0f, 0x8c, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), NewPCRelative(6, 4, -10)}),
		NewInsn("blez", []byte{0x48, 0x83, 0xc0, 0x00, 0x0f, 0x8e, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), NewPCRelative(6, 4, -10)}),
		NewInsn("bnez", []byte{0x48, 0x83, 0xc0, 0x00, 0x0f, 0x85, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), NewPCRelative(6, 4, -10)}),
		NewInsn("beqz", []byte{0x48, 0x83, 0xc0, 0x00, 0x0f, 0x84, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), NewPCRelative(6, 4, -10)}),

		// xor/cmp/setCC sequences; the result register is written in
		// two places, hence the joint encodings.
		NewInsn("not", []byte{0x48, 0x85, 0xc0, 0x40, 0xb8, 0, 0, 0, 0, 0x40, 0x0f, 0x94, 0xc0}, []Arg{
			NewJointReg(ArithmeticDestRegAt(12, 9), ArithmeticDestRegAt(4, 3)),
			NewJointReg(ArithmeticSrcReg(2), ArithmeticDestReg(2)),
		}),
		NewInsn("slt", []byte{0x48, 0x31, 0xc0, 0x48, 0x39, 0xc0, 0x40, 0x0f, 0x9c, 0xc0}, []Arg{
			NewJointReg(ArithmeticSrcReg(2), ArithmeticDestReg(2), ArithmeticDestRegAt(9, 6)),
			ArithmeticDestRegAt(5, 3), ArithmeticSrcRegAt(5, 3),
		}),
		NewInsn("sle", []byte{0x48, 0x31, 0xc0, 0x48, 0x39, 0xc0, 0x40, 0x0f, 0x9e, 0xc0}, []Arg{
			NewJointReg(ArithmeticSrcReg(2), ArithmeticDestReg(2), ArithmeticDestRegAt(9, 6)),
			ArithmeticDestRegAt(5, 3), ArithmeticSrcRegAt(5, 3),
		}),
		NewInsn("seq", []byte{0x48, 0x31, 0xc0, 0x48, 0x39, 0xc0, 0x40, 0x0f, 0x94, 0xc0}, []Arg{
			NewJointReg(ArithmeticSrcReg(2), ArithmeticDestReg(2), ArithmeticDestRegAt(9, 6)),
			ArithmeticDestRegAt(5, 3), ArithmeticSrcRegAt(5, 3),
		}),
		NewInsn("sne", []byte{0x48, 0x31, 0xc0, 0x48, 0x39, 0xc0, 0x40, 0x0f, 0x95, 0xc0}, []Arg{
			NewJointReg(ArithmeticSrcReg(2), ArithmeticDestReg(2), ArithmeticDestRegAt(9, 6)),
			ArithmeticDestRegAt(5, 3), ArithmeticSrcRegAt(5, 3),
		}),

		NewInsn("push", []byte{0x48, 0x50}, []Arg{ArithmeticDestReg(1)}),
		NewInsn("pop", []byte{0x48, 0x58}, []Arg{ArithmeticDestReg(1)}),
		NewInsn("addiu", []byte{0x48, 0x81, 0xc0, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ImmUInt(3)}),
		NewInsn("subiu", []byte{0x48, 0x81, 0xe8, 0, 0, 0, 0}, []Arg{ArithmeticDestReg(2), ImmUInt(3)}),

		// Stores relative to the stack pointer need a SIB byte.
		NewInsnAlternatives("sd",
			[]byte{0x48, 0x89, 0x80, 0, 0, 0, 0},
			[]Arg{ArithmeticSrcReg(2), ArithmeticDestReg(2), ImmInt(3)},
			[]Alternative{
				{
					Guard: "{arg1} == 4",
					Code:  []byte{0x48, 0x89, 0x84, 0x24, 0, 0, 0, 0},
					Args:  []Arg{ArithmeticSrcReg(2), NewDisabledArg(ArithmeticDestReg(2), "4"), ImmInt(4)},
				},
			}),
		NewInsn("ld", []byte{0x48, 0x8b, 0x80, 0, 0, 0, 0}, []Arg{ArithmeticSrcReg(2), ArithmeticDestReg(2), ImmInt(3)}),
		NewInsn("j", []byte{0xe9, 0, 0, 0, 0}, []Arg{NewPCRelative(1, 4, -5)}),
	}
}
