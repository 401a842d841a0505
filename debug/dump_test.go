package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/assembler"
)

func TestWriteDumpSingleUnitHasNoSeparator(t *testing.T) {
	assert := assert.New(t)
	session := jupiter.NewSession()
	a := assembler.NewAssembler(session)
	tu, errs := a.Assemble("t.s", "add a0, a1, a2\nnop\n")
	assert.False(errs.HasErrors())

	var buf bytes.Buffer
	assert.NoError(WriteDump(&buf, []*assembler.TranslationUnit{tu}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(2, len(lines))
	assert.False(strings.HasSuffix(lines[0], ":"))
	assert.Equal(8, len(lines[0]))
}

func TestWriteDumpMultiUnitAddsPathSeparators(t *testing.T) {
	assert := assert.New(t)
	session := jupiter.NewSession()
	a1 := assembler.NewAssembler(session)
	tu1, errs1 := a1.Assemble("a.s", "nop\n")
	assert.False(errs1.HasErrors())
	a2 := assembler.NewAssembler(session)
	tu2, errs2 := a2.Assemble("b.s", "nop\n")
	assert.False(errs2.HasErrors())

	var buf bytes.Buffer
	assert.NoError(WriteDump(&buf, []*assembler.TranslationUnit{tu1, tu2}))

	out := buf.String()
	assert.Contains(out, "a.s:\n")
	assert.Contains(out, "b.s:\n")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal([]string{"a.s:", "00000013", "b.s:", "00000013"}, lines)
}

func TestWriteDumpWordMatchesLittleEndianTextBytes(t *testing.T) {
	assert := assert.New(t)
	session := jupiter.NewSession()
	a := assembler.NewAssembler(session)
	tu, errs := a.Assemble("t.s", "add a0, a1, a2\n")
	assert.False(errs.HasErrors())

	var buf bytes.Buffer
	assert.NoError(WriteDump(&buf, []*assembler.TranslationUnit{tu}))

	want := uint32(tu.Text[0]) | uint32(tu.Text[1])<<8 | uint32(tu.Text[2])<<16 | uint32(tu.Text[3])<<24
	line := strings.TrimSpace(buf.String())
	assert.Equal(hex8(want), line)
}

func hex8(v uint32) string {
	const digits = "0123456789abcdef"
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = digits[v&0xf]
		v >>= 4
	}
	return string(b)
}
