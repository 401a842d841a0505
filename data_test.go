package jupiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHiLoReconstructs(t *testing.T) {
	assert := assert.New(t)

	values := []int32{0, 1, -1, 4096, -4096, 0x7ffff800, -0x7ffff800, 12345678, -12345678}
	for _, v := range values {
		hi20, lo12 := SplitHiLo(v)
		got := (hi20 << 12) + lo12
		assert.Equal(v, got, "SplitHiLo(%d)", v)
		assert.True(FitsSigned(int64(lo12), 12))
	}
}

func TestParseNumericLiteral(t *testing.T) {
	assert := assert.New(t)

	cases := map[string]int64{
		"42":        42,
		"-42":       -42,
		"0x2A":      42,
		"0b101010":  42,
		"0o52":      42,
		"0xDEADBEEF": 0xDEADBEEF,
	}
	for in, want := range cases {
		got, err := ParseNumericLiteral(in)
		assert.NoError(err, in)
		assert.Equal(want, got, in)
	}

	_, err := ParseNumericLiteral("not-a-number")
	assert.Error(err)
}

func TestSignExtend(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(int32(-1), SignExtendByte(0xff))
	assert.Equal(int32(127), SignExtendByte(0x7f))
	assert.Equal(int32(-1), SignExtendHalf(0xffff))
	assert.Equal(int32(-2048), SignExtend(0x800, 12))
}

func TestAlignHelpers(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint32(4), AlignToWordBoundary(1))
	assert.Equal(uint32(0), AlignToWordBoundary(0))
	assert.Equal(uint32(8), AlignToWordBoundary(8))
	assert.Equal(uint32(3), OffsetToWordAlign(1))
	assert.Equal(uint32(0), OffsetToWordAlign(4))
}

func TestIsPowerOfTwoAndLog2(t *testing.T) {
	assert := assert.New(t)
	assert.True(IsPowerOfTwo(1))
	assert.True(IsPowerOfTwo(64))
	assert.False(IsPowerOfTwo(0))
	assert.False(IsPowerOfTwo(6))
	assert.Equal(0, Log2(1))
	assert.Equal(6, Log2(64))
}
