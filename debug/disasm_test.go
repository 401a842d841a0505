package debug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/assembler"
	"github.com/inesrs/Jupiter/isa"
)

func TestDisassembleRType(t *testing.T) {
	assert := assert.New(t)
	word, ok := isa.Encode("add", isa.Fields{Rd: 10, Rs1: 11, Rs2: 12})
	assert.True(ok)
	assert.Equal("add a0, a1, a2", Disassemble(0, word))
}

func TestDisassembleLoadUsesOffsetBaseSyntax(t *testing.T) {
	assert := assert.New(t)
	word, ok := isa.Encode("lw", isa.Fields{Rd: 10, Rs1: 2, Imm: 16})
	assert.True(ok)
	assert.Equal("lw a0, 16(sp)", Disassemble(0, word))
}

func TestDisassembleStoreUsesOffsetBaseSyntax(t *testing.T) {
	assert := assert.New(t)
	word, ok := isa.Encode("sw", isa.Fields{Rs1: 2, Rs2: 10, Imm: 16})
	assert.True(ok)
	assert.Equal("sw a0, 16(sp)", Disassemble(0, word))
}

func TestDisassembleUnknownWordFallsBackToRawWord(t *testing.T) {
	assert := assert.New(t)
	got := Disassemble(0, 0xffffffff)
	assert.Equal(".word 0xffffffff", got)
}

func TestDisassembleUnitPrefixesAddresses(t *testing.T) {
	assert := assert.New(t)
	addWord, _ := isa.Encode("add", isa.Fields{Rd: 10, Rs1: 11, Rs2: 12})
	text := []byte{byte(addWord), byte(addWord >> 8), byte(addWord >> 16), byte(addWord >> 24)}
	lines := DisassembleUnit(0x1000, text)
	assert.Equal(1, len(lines))
	assert.True(strings.HasPrefix(lines[0], "00001000: "))
	assert.Contains(lines[0], "add a0, a1, a2")
}

// TestAssembleDisassembleReassembleRoundTrip exercises the round-trip
// property: assembling a program, disassembling every word and
// reassembling the text reproduces the identical machine code.
func TestAssembleDisassembleReassembleRoundTrip(t *testing.T) {
	assert := assert.New(t)
	src := "loop:\n  addi a0, a0, -1\n  bnez a0, loop\n  add a1, a0, a0\n  sw a1, 0(sp)\n  lw a2, 0(sp)\n  jal ra, loop\n  jalr ra, a1, 4\n  ret\n"

	session := jupiter.NewSession()
	a := assembler.NewAssembler(session)
	tu, errs := a.Assemble("t.s", src)
	assert.False(errs.HasErrors(), "%v", errs)

	var lines []string
	for i := 0; i+4 <= len(tu.Text); i += 4 {
		addr := uint32(i)
		word := uint32(tu.Text[i]) | uint32(tu.Text[i+1])<<8 | uint32(tu.Text[i+2])<<16 | uint32(tu.Text[i+3])<<24
		lines = append(lines, Disassemble(addr, word))
	}

	reassembleSrc := strings.Join(lines, "\n") + "\n"
	a2 := assembler.NewAssembler(session)
	tu2, errs2 := a2.Assemble("roundtrip.s", reassembleSrc)
	assert.False(errs2.HasErrors(), "%v\nreassembled source:\n%s", errs2, reassembleSrc)

	assert.Equal(tu.Text, tu2.Text)
}
