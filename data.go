// Package jupiter provides the data model and architectural state shared
// by the assembler, linker and simulator: bit-level data utilities,
// register files, memory, the cache simulator and the session-scoped
// configuration that ties them together.
package jupiter

import (
	"fmt"
	"strconv"
	"strings"
)

// Word lengths, in bits and bytes, mirroring the RV32 data model.
const (
	ByteLengthBits = 8
	HalfLengthBits = 16
	WordLengthBits = 32

	ByteLength = 1
	HalfLength = 2
	WordLength = 4
)

const (
	ByteMask = 0xff
	HalfMask = 0xffff
)

// SignExtendByte sign-extends the low 8 bits of value to 32 bits.
func SignExtendByte(value int32) int32 {
	return (value << (WordLengthBits - ByteLengthBits)) >> (WordLengthBits - ByteLengthBits)
}

// SignExtendHalf sign-extends the low 16 bits of value to 32 bits.
func SignExtendHalf(value int32) int32 {
	return (value << (WordLengthBits - HalfLengthBits)) >> (WordLengthBits - HalfLengthBits)
}

// SignExtend sign-extends the low `bits` bits of value to 32 bits.
func SignExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns the base-2 logarithm of x, which must be a positive
// power of two. Used by the cache simulator to derive shift amounts
// from block size and set count.
func Log2(x int) int {
	n := 0
	for x > 1 {
		x >>= 1
		n++
	}
	return n
}

// AlignToWordBoundary rounds address up to the next multiple of WordLength.
func AlignToWordBoundary(address uint32) uint32 {
	if rem := address % WordLength; rem != 0 {
		return address + (WordLength - rem)
	}
	return address
}

// OffsetToWordAlign returns how many bytes must be added to address to
// reach the next word boundary (0 if already aligned).
func OffsetToWordAlign(address uint32) uint32 {
	if rem := address % WordLength; rem != 0 {
		return WordLength - rem
	}
	return 0
}

// AlignTo rounds the cursor up to a 2^n boundary, as used by the `.align`
// directive.
func AlignTo(cursor uint32, n uint) uint32 {
	boundary := uint32(1) << n
	if rem := cursor % boundary; rem != 0 {
		return cursor + (boundary - rem)
	}
	return cursor
}

// InRange reports whether address falls within [low, high] inclusive.
func InRange(address, low, high uint32) bool {
	return address >= low && address <= high
}

// ParseNumericLiteral parses a bin/oct/dec/hex numeric literal as used
// by immediates and directive operands: "0b101", "0o17", "42", "0xBEEF".
// A leading '-' is accepted before any base prefix, e.g. "-0x10".
func ParseNumericLiteral(in string) (int64, error) {
	neg := false
	s := in
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var (
		val uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		val, err = strconv.ParseUint(s[2:], 2, 64)
	case strings.HasPrefix(s, "0o"), strings.HasPrefix(s, "0O"):
		val, err = strconv.ParseUint(s[2:], 8, 64)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		val, err = strconv.ParseUint(s[2:], 16, 64)
	default:
		val, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid numeric literal %q: %w", in, err)
	}
	out := int64(val)
	if neg {
		out = -out
	}
	return out, nil
}

// FitsSigned reports whether value fits in a signed field of the given
// bit width (used for immediate-range checks).
func FitsSigned(value int64, bits uint) bool {
	min := -(int64(1) << (bits - 1))
	max := (int64(1) << (bits - 1)) - 1
	return value >= min && value <= max
}

// SplitHiLo splits a 32-bit value into an auipc-style (hi20, lo12) pair
// such that hi20<<12 + lo12 == v exactly, accounting for the sign
// extension addi/jalr apply to their 12-bit immediate: lo12 is the
// sign-extended low 12 bits of v, and hi20 absorbs the resulting carry
// when those low 12 bits are negative. Used both by li's lui+addi
// expansion and by the linker's PCREL_HI20/PCREL_LO12 relocation pair.
func SplitHiLo(v int32) (hi20, lo12 int32) {
	lo12 = (v << 20) >> 20
	hi20 = (v - lo12) >> 12
	return
}
