package isa

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	jupiter "github.com/inesrs/Jupiter"
)

func newTestState() *jupiter.State {
	return jupiter.NewState(jupiter.DefaultFlags(), nil)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		mnemonic string
		fields   Fields
	}{
		{"add", Fields{Rd: 5, Rs1: 6, Rs2: 7}},
		{"sub", Fields{Rd: 1, Rs1: 2, Rs2: 3}},
		{"and", Fields{Rd: 10, Rs1: 11, Rs2: 12}},
		{"addi", Fields{Rd: 5, Rs1: 6, Imm: -100}},
		{"slli", Fields{Rd: 5, Rs1: 6, Imm: 7}},
		{"sw", Fields{Rs1: 2, Rs2: 5, Imm: -8}},
		{"lw", Fields{Rd: 5, Rs1: 2, Imm: 16}},
		{"beq", Fields{Rs1: 5, Rs2: 6, Imm: -16}},
		{"bge", Fields{Rs1: 5, Rs2: 6, Imm: 4092}},
		{"lui", Fields{Rd: 5, Imm: 0x12345000}},
		{"auipc", Fields{Rd: 5, Imm: -0x1000}},
		{"jal", Fields{Rd: 1, Imm: 2048}},
		{"mul", Fields{Rd: 5, Rs1: 6, Rs2: 7}},
		{"div", Fields{Rd: 5, Rs1: 6, Rs2: 7}},
		{"fadd.s", Fields{Rd: 1, Rs1: 2, Rs2: 3}},
		{"fmadd.s", Fields{Rd: 1, Rs1: 2, Rs2: 3, Rs3: 4}},
	}

	for _, c := range cases {
		word, ok := Encode(c.mnemonic, c.fields)
		assert.True(ok, c.mnemonic)
		def, decoded, ok := Decode(word)
		assert.True(ok, c.mnemonic)
		assert.Equal(c.mnemonic, def.Mnemonic)
		assert.Equal(c.fields.Rd, decoded.Rd, c.mnemonic)
		assert.Equal(c.fields.Rs1, decoded.Rs1, c.mnemonic)
		assert.Equal(c.fields.Imm, decoded.Imm, c.mnemonic)
	}
}

func TestExecuteAddSub(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	st.X.Set(6, 10)
	st.X.Set(7, 32)

	word, _ := Encode("add", Fields{Rd: 5, Rs1: 6, Rs2: 7})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(42), st.X.Get(5))
	assert.Equal(uint32(4), st.PC)

	word, _ = Encode("sub", Fields{Rd: 5, Rs1: 7, Rs2: 6})
	st.PC = 0
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(22), st.X.Get(5))
}

func TestX0AlwaysZero(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	st.X.Set(6, 99)
	word, _ := Encode("add", Fields{Rd: 0, Rs1: 6, Rs2: 6})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(0), st.X.Get(0))
}

func TestDivByZero(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	st.X.Set(6, 42)
	st.X.Set(7, 0)

	word, _ := Encode("div", Fields{Rd: 5, Rs1: 6, Rs2: 7})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(0xffffffff), st.X.Get(5))

	word, _ = Encode("rem", Fields{Rd: 5, Rs1: 6, Rs2: 7})
	st.PC = 0
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(42), st.X.Get(5))

	word, _ = Encode("divu", Fields{Rd: 5, Rs1: 6, Rs2: 7})
	st.PC = 0
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(0xffffffff), st.X.Get(5))
}

func TestDivOverflow(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	minInt32 := int32(math.MinInt32)
	negOne := int32(-1)
	st.X.Set(6, uint32(minInt32))
	st.X.Set(7, uint32(negOne))

	word, _ := Encode("div", Fields{Rd: 5, Rs1: 6, Rs2: 7})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(minInt32), st.X.Get(5))

	word, _ = Encode("rem", Fields{Rd: 5, Rs1: 6, Rs2: 7})
	st.PC = 0
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(0), st.X.Get(5))
}

func TestBranchTaken(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	st.X.Set(5, 3)
	st.X.Set(6, 3)
	st.PC = 100

	word, _ := Encode("beq", Fields{Rs1: 5, Rs2: 6, Imm: -20})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(80), st.PC)
}

func TestBranchNotTaken(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	st.X.Set(5, 3)
	st.X.Set(6, 4)
	st.PC = 100

	word, _ := Encode("beq", Fields{Rs1: 5, Rs2: 6, Imm: -20})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(104), st.PC)
}

func TestJalrLinkAndClearsLowBit(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	st.X.Set(6, 0x1001) // odd target, should be cleared
	st.PC = 200

	word, _ := Encode("jalr", Fields{Rd: 1, Rs1: 6, Imm: 4})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(204), st.X.Get(1))
	assert.Equal(uint32(0x1004), st.PC)
}

func TestLoadStoreWord(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	// sp lives in the static data segment so the write-protection check passes.
	base := uint32(jupiter.StaticSegment)
	st.X.Set(2, base)
	st.X.Set(5, 0xdeadbeef)

	word, _ := Encode("sw", Fields{Rs1: 2, Rs2: 5, Imm: 0})
	assert.NoError(Execute(word, st))

	st.PC = 0
	word, _ = Encode("lw", Fields{Rd: 6, Rs1: 2, Imm: 0})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(0xdeadbeef), st.X.Get(6))
}

func TestFcvtSaturation(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()

	st.F.SetFloat(1, float32(math.NaN()))
	word, _ := Encode("fcvt.w.s", Fields{Rd: 5, Rs1: 1})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(math.MaxInt32), st.X.Get(5))

	st.PC = 0
	st.F.SetFloat(1, float32(math.NaN()))
	word, _ = Encode("fcvt.wu.s", Fields{Rd: 5, Rs1: 1})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(math.MaxUint32), st.X.Get(5))

	st.PC = 0
	st.F.SetFloat(1, 1e30)
	word, _ = Encode("fcvt.w.s", Fields{Rd: 5, Rs1: 1})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(math.MaxInt32), st.X.Get(5))

	st.PC = 0
	st.F.SetFloat(1, -1e30)
	word, _ = Encode("fcvt.w.s", Fields{Rd: 5, Rs1: 1})
	assert.NoError(Execute(word, st))
	minInt32Fcvt := int32(math.MinInt32)
	assert.Equal(uint32(minInt32Fcvt), st.X.Get(5))
}

func TestFsgnjFamily(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	st.F.SetFloat(1, 3.0)
	st.F.SetFloat(2, -5.0)

	word, _ := Encode("fsgnj.s", Fields{Rd: 3, Rs1: 1, Rs2: 2})
	assert.NoError(Execute(word, st))
	assert.Equal(float32(-3.0), st.F.GetFloat(3))

	st.PC = 0
	word, _ = Encode("fsgnjn.s", Fields{Rd: 3, Rs1: 1, Rs2: 2})
	assert.NoError(Execute(word, st))
	assert.Equal(float32(3.0), st.F.GetFloat(3))

	st.PC = 0
	word, _ = Encode("fsgnjx.s", Fields{Rd: 3, Rs1: 1, Rs2: 2})
	assert.NoError(Execute(word, st))
	assert.Equal(float32(-3.0), st.F.GetFloat(3))
}

func TestFclassBits(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()

	check := func(v float32, wantBit uint32) {
		st.PC = 0
		st.F.SetFloat(1, v)
		word, _ := Encode("fclass.s", Fields{Rd: 5, Rs1: 1})
		assert.NoError(Execute(word, st))
		assert.Equal(wantBit, st.X.Get(5), "class of %v", v)
	}

	check(float32(math.Inf(-1)), 1<<0)
	check(-1.0, 1<<1)
	check(float32(0.0), 1<<4)
	check(float32(math.Copysign(0, -1)), 1<<3)
	check(1.0, 1<<6)
	check(float32(math.Inf(1)), 1<<7)

	st.PC = 0
	bits := math.Float32bits(float32(math.NaN())) | (1 << 22) // force quiet
	st.F.SetBits(1, bits)
	word, _ := Encode("fclass.s", Fields{Rd: 5, Rs1: 1})
	assert.NoError(Execute(word, st))
	assert.Equal(uint32(1<<9), st.X.Get(5))
}

func TestIllegalInstruction(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	_, _, ok := Decode(0xffffffff)
	assert.False(ok)

	err := Execute(0xffffffff, st)
	assert.Error(err)
	fault, ok := err.(*jupiter.SimulationFault)
	assert.True(ok)
	assert.Equal(jupiter.FaultIllegalInstruction, fault.Kind)
}

func TestEcallDelegatesToSyscall(t *testing.T) {
	assert := assert.New(t)
	st := newTestState()
	called := false
	st.Syscall = func(s *jupiter.State) error {
		called = true
		return nil
	}
	word, _ := Encode("ecall", Fields{})
	assert.NoError(Execute(word, st))
	assert.True(called)
}
