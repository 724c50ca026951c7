package cgen

import (
	"fmt"
	"strings"
)

// Source accumulates generated C text line by line.  Lines are
// indented with tabs, one per open block, matching the hand-written
// toolchain sources the output is compiled alongside.  Labels stay at
// column zero no matter how deeply the emitter is nested, which is
// where C wants them.
type Source struct {
	buf   strings.Builder
	depth int
}

func NewSource() *Source {
	return &Source{}
}

// Line emits one line at the current block depth.  An empty string
// yields a blank line, with no trailing indentation.
func (src *Source) Line(text string) {
	if text != "" {
		for i := 0; i < src.depth; i++ {
			src.buf.WriteByte('\t')
		}
		src.buf.WriteString(text)
	}
	src.buf.WriteByte('\n')
}

// Linef emits a formatted line at the current block depth.
func (src *Source) Linef(format string, args ...interface{}) {
	src.Line(fmt.Sprintf(format, args...))
}

// Label emits a C label at column zero.
func (src *Source) Label(name string) {
	src.buf.WriteString(name)
	src.buf.WriteString(":\n")
}

// Block emits body one indentation level deeper.  Opening and closing
// braces stay with the caller, which knows what they belong to.
func (src *Source) Block(body func()) {
	src.depth++
	body()
	src.depth--
}

func (src *Source) String() string {
	return src.buf.String()
}
