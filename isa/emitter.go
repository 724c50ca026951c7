package isa

import "attoc/cgen"

const generatedWarning = "// This is GENERATED CODE.  Do not modify by hand, or your modifications will be lost on the next re-build!"

// EmitHeaders emits the encoder prototypes and the disassembler
// prototype for the given instruction list.
func EmitHeaders(src *cgen.Source, instructions []Instruction) {
	src.Line(generatedWarning)
	src.Line("#include \"assembler-buffer.h\"")
	for _, insn := range instructions {
		insn.EmitPrototype(src)
	}
	emitDisassemblerDoc(src)
	emitDisassemblerHeader(src, ";")
}

// EmitCode emits the encoder definitions and the disassembler body.
func EmitCode(src *cgen.Source, instructions []Instruction) {
	src.Line(generatedWarning)
	src.Line("#include <string.h>")
	src.Line("#include <stdio.h>")
	src.Line("")
	src.Line("#include \"assembler-buffer.h\"")
	src.Line("#include \"registers.h\"")
	for _, insn := range instructions {
		insn.EmitEncoder(src)
		src.Line("")
	}
	emitDisassembler(src, instructions)
}

func emitDisassemblerDoc(src *cgen.Source) {
	src.Line("/**")
	src.Line(" * Disassembles a single assembly instruction and prints it to file (if non-NULL)")
	src.Line(" *")
	src.Line(" * @param data: pointer to the instruction to disassemble")
	src.Line(" * @param max_len: max. number of viable bytes in the instruction")
	src.Line(" * @return Number of bytes in the disassembled instruction, or 0 on error")
	src.Line(" */")
}

func emitDisassemblerHeader(src *cgen.Source, trail string) {
	src.Line("int")
	src.Line("disassemble_one(FILE *file, unsigned char *data, int max_len)" + trail)
}

func emitDisassembler(src *cgen.Source, instructions []Instruction) {
	emitDisassemblerHeader(src, "")
	src.Line("{")
	src.Block(func() {
		for _, preinsn := range instructions {
			for _, insn := range preinsn.AllEncodings() {
				insn.EmitRecognizers(src, "data", "max_len")
			}
		}
		src.Line("return 0; // failure")
	})
	src.Line("}")
}
