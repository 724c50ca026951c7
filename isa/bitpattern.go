package isa

import "fmt"

// BitPattern identifies a run of bits within one byte of an
// instruction's machine-code template.  A register argument is
// described by a list of BitPatterns, given msb-to-lsb.
//
// ByteID is the offset into the machine code (-1 addresses the
// optional prefix byte), BitID the offset into the byte (lsb = 0),
// and Width the number of bits starting at BitID.
type BitPattern struct {
	ByteID int
	BitID  int
	Width  int
}

// Pat builds a BitPattern and validates that it fits inside a byte.
func Pat(byteID, bitID, width int) BitPattern {
	if bitID < 0 || bitID > 7 || width < 1 || width > 8 || bitID+width > 8 {
		panic(fmt.Sprintf("bit pattern out of range: byte %d, bit %d, width %d", byteID, bitID, width))
	}
	return BitPattern{ByteID: byteID, BitID: bitID, Width: width}
}

// MaskIn is the byte mask selecting the bits this pattern owns.
func (b BitPattern) MaskIn() byte {
	return byte((1<<b.Width - 1) << b.BitID)
}

// MaskOut is the byte mask excluding the bits this pattern owns.
func (b BitPattern) MaskOut() byte {
	return 0xff ^ b.MaskIn()
}

// Extract returns C text that moves the pattern's bits out of the
// argument variable into their in-byte position.  bitOffset is the
// position of this pattern's bits within the full argument value.
func (b BitPattern) Extract(varName string, bitOffset int) string {
	shift := bitOffset - b.BitID
	body := varName
	if shift > 0 {
		body = fmt.Sprintf("(%s >> %d)", body, shift)
	} else if shift < 0 {
		body = fmt.Sprintf("(%s << %d)", body, -shift)
	}
	return fmt.Sprintf("%s & 0x%02x", body, b.MaskIn())
}

// Decode returns C text that reads the pattern's bits out of the
// given byte expression, right-aligned.
func (b BitPattern) Decode(byteExpr string) string {
	return fmt.Sprintf("(%s & 0x%02x) >> %d", byteExpr, b.MaskIn(), b.BitID)
}
