package jupiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXRegisterZeroIsHardwired(t *testing.T) {
	assert := assert.New(t)
	x := NewXRegisterFile(nil)
	x.Set(0, 12345)
	assert.Equal(uint32(0), x.Get(0))
}

func TestXRegisterSetGet(t *testing.T) {
	assert := assert.New(t)
	x := NewXRegisterFile(nil)
	x.Set(5, 42)
	assert.Equal(uint32(42), x.Get(5))
}

func TestResolveXRegisterAliases(t *testing.T) {
	assert := assert.New(t)

	cases := map[string]int{
		"zero": 0, "ra": 1, "sp": 2, "a0": 10, "a7": 17,
		"s0": 8, "fp": 8, "t6": 31, "x5": 5, "x0": 0,
	}
	for name, want := range cases {
		got, ok := ResolveXRegister(name)
		assert.True(ok, name)
		assert.Equal(want, got, name)
	}

	_, ok := ResolveXRegister("not-a-register")
	assert.False(ok)

	_, ok = ResolveXRegister("x32")
	assert.False(ok)
}

func TestXRegisterSnapshotRestore(t *testing.T) {
	assert := assert.New(t)
	x := NewXRegisterFile(nil)
	x.Set(5, 100)
	snap := x.Snapshot()

	x.Set(5, 200)
	assert.Equal(uint32(200), x.Get(5))

	x.Restore(snap)
	assert.Equal(uint32(100), x.Get(5))
}

func TestFRegisterFloatBitsRoundTrip(t *testing.T) {
	assert := assert.New(t)
	f := NewFRegisterFile(nil)
	f.SetFloat(1, 3.5)
	assert.Equal(float32(3.5), f.GetFloat(1))

	f.SetBits(2, 0xdeadbeef)
	assert.Equal(uint32(0xdeadbeef), f.GetBits(2))
}

func TestResolveFRegister(t *testing.T) {
	assert := assert.New(t)
	i, ok := ResolveFRegister("f10")
	assert.True(ok)
	assert.Equal(10, i)

	_, ok = ResolveFRegister("a0")
	assert.False(ok)
}

func TestResolveFRegisterABIAliases(t *testing.T) {
	assert := assert.New(t)

	cases := map[string]int{
		"fa0": 10, "fa7": 17, "ft0": 0, "ft11": 31, "fs0": 8, "fs11": 27,
	}
	for name, want := range cases {
		got, ok := ResolveFRegister(name)
		assert.True(ok, name)
		assert.Equal(want, got, name)
	}
}
