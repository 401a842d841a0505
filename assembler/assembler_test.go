package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/isa"
)

func newSession() *jupiter.Session { return jupiter.NewSession() }

func TestAssembleSimpleAddInstruction(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())

	tu, errs := a.Assemble("t.s", "add a0, a1, a2\n")
	assert.False(errs.HasErrors())
	assert.Equal(4, len(tu.Text))

	word := uint32(tu.Text[0]) | uint32(tu.Text[1])<<8 | uint32(tu.Text[2])<<16 | uint32(tu.Text[3])<<24
	def, fields, ok := isa.Decode(word)
	assert.True(ok)
	assert.Equal("add", def.Mnemonic)
	assert.Equal(10, fields.Rd)
	assert.Equal(11, fields.Rs1)
	assert.Equal(12, fields.Rs2)
}

func TestAssembleIsCaseInsensitiveForMnemonics(t *testing.T) {
	assert := assert.New(t)

	lower := NewAssembler(newSession())
	tuLower, errsLower := lower.Assemble("t.s", "add a0, a1, a2\n")
	assert.False(errsLower.HasErrors())

	upper := NewAssembler(newSession())
	tuUpper, errsUpper := upper.Assemble("t.s", "ADD a0, a1, a2\n")
	assert.False(errsUpper.HasErrors())

	assert.Equal(tuLower.Text, tuUpper.Text)
}

func TestAssembleDirectiveCaseInsensitive(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	tu, errs := a.Assemble("t.s", ".DATA\n.WORD 42\n")
	assert.False(errs.HasErrors())
	assert.Equal([]byte{42, 0, 0, 0}, tu.Data)
}

func TestUnknownInstructionIsAnError(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	_, errs := a.Assemble("t.s", "frobnicate a0, a1\n")
	assert.True(errs.HasErrors())
}

func TestUndefinedGlobalIsAnError(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	_, errs := a.Assemble("t.s", ".globl nowhere\n")
	assert.True(errs.HasErrors())
}

func TestLabelsAndBranchRelocation(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	src := "loop:\n  addi a0, a0, -1\n  bnez a0, loop\n"
	tu, errs := a.Assemble("t.s", src)
	assert.False(errs.HasErrors())
	assert.Equal(8, len(tu.Text))
	assert.Equal(1, len(tu.Relocations))
	assert.Equal(RelBranch, tu.Relocations[0].Kind)
	assert.Equal("loop", tu.Relocations[0].Symbol)
	assert.Equal(uint32(4), tu.Relocations[0].Offset)
}

func TestLiSmallImmediateIsOneInstruction(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	tu, errs := a.Assemble("t.s", "li a0, 5\n")
	assert.False(errs.HasErrors())
	assert.Equal(4, len(tu.Text))
}

func TestLiLargeImmediateIsTwoInstructions(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	tu, errs := a.Assemble("t.s", "li a0, 0x12345678\n")
	assert.False(errs.HasErrors())
	assert.Equal(8, len(tu.Text))
}

func TestLaProducesAuipcRelocationPair(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	src := ".rodata\nmsg: .asciiz \"hi\"\n.text\nla a0, msg\n"
	tu, errs := a.Assemble("t.s", src)
	assert.False(errs.HasErrors())
	assert.Equal(8, len(tu.Text))
	assert.Equal(2, len(tu.Relocations))
	assert.Equal(RelHi20, tu.Relocations[0].Kind)
	assert.Equal(RelLo12I, tu.Relocations[1].Kind)
	assert.Equal(tu.Relocations[0].Offset, tu.Relocations[1].HiOffset)
}

func TestBareModeDisablesPseudoExpansion(t *testing.T) {
	assert := assert.New(t)
	session := newSession()
	session.Flags.Bare = true
	a := NewAssembler(session)
	_, errs := a.Assemble("t.s", "li a0, 5\n")
	assert.True(errs.HasErrors(), "li is a pseudo-op and must be rejected in bare mode")
}

func TestDataDirectivesAppendBytes(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	tu, errs := a.Assemble("t.s", ".data\n.byte 1, 2, 3\n.half 0x0a0b\n")
	assert.False(errs.HasErrors())
	assert.Equal([]byte{1, 2, 3, 0x0b, 0x0a}, tu.Data)
}

func TestBssReservesSizeWithoutBytes(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	tu, errs := a.Assemble("t.s", ".bss\nbuf: .space 16\n")
	assert.False(errs.HasErrors())
	assert.Equal(uint32(16), tu.BSS)
	sym := tu.Symbols["buf"]
	assert.Equal(SegBSS, sym.Segment)
	assert.Equal(uint32(0), sym.Offset)
}

func TestAlignPadsToTwoToTheN(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	tu, errs := a.Assemble("t.s", ".data\n.byte 1\n.align 2\n.byte 2\n")
	assert.False(errs.HasErrors())
	// .align 2 pads the cursor to a 4-byte (2^2) boundary, not 16.
	assert.Equal([]byte{1, 0, 0, 0, 2}, tu.Data)
}

func TestEquSubstitution(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	tu, errs := a.Assemble("t.s", ".equ SIZE, 4\n.data\n.word SIZE\n")
	assert.False(errs.HasErrors())
	assert.Equal([]byte{4, 0, 0, 0}, tu.Data)
}

func TestMalformedPseudoOpIsAnErrorNotAPanic(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	_, errs := a.Assemble("t.s", "li x1\n")
	assert.True(errs.HasErrors())
}

func TestDuplicateLabelIsAnError(t *testing.T) {
	assert := assert.New(t)
	a := NewAssembler(newSession())
	_, errs := a.Assemble("t.s", "foo:\n  nop\nfoo:\n  nop\n")
	assert.True(errs.HasErrors())
}
