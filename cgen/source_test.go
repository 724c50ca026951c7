package cgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_BlocksIndentWithTabs(t *testing.T) {
	src := NewSource()
	src.Line("void f()")
	src.Line("{")
	src.Block(func() {
		src.Line("int x = 0;")
		src.Block(func() {
			src.Line("x++;")
		})
		src.Line("return;")
	})
	src.Line("}")

	assert.Equal(t, "void f()\n{\n\tint x = 0;\n\t\tx++;\n\treturn;\n}\n", src.String())
}

func TestSource_BlankLinesCarryNoIndentation(t *testing.T) {
	src := NewSource()
	src.Block(func() {
		src.Line("a;")
		src.Line("")
		src.Line("b;")
	})

	assert.Equal(t, "\ta;\n\n\tb;\n", src.String())
}

func TestSource_LabelsStayAtColumnZero(t *testing.T) {
	src := NewSource()
	src.Block(func() {
		src.Block(func() {
			src.Label("fail")
			src.Line("return 0;")
		})
	})

	assert.Equal(t, "fail:\n\t\treturn 0;\n", src.String())
}

func TestSource_Linef(t *testing.T) {
	src := NewSource()
	src.Block(func() {
		src.Linef("data[%d] = 0x%02x;", 2, 0xc0)
	})

	assert.Equal(t, "\tdata[2] = 0xc0;\n", src.String())
}
