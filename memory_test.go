package jupiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLoadStoreWord(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	addr := uint32(StaticSegment)

	assert.NoError(mem.StoreWord(addr, 0xcafebabe))
	got, err := mem.LoadWord(addr)
	assert.NoError(err)
	assert.Equal(uint32(0xcafebabe), got)
}

func TestMemoryDefaultsToZero(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	v, err := mem.LoadWord(StaticSegment)
	assert.NoError(err)
	assert.Equal(uint32(0), v)
}

func TestMemoryRejectsReservedAddresses(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	err := mem.StoreByte(ReservedLowStart, 1)
	assert.Error(err)
	fault, ok := err.(*SimulationFault)
	assert.True(ok)
	assert.Equal(FaultInvalidAddress, fault.Kind)
}

func TestMemoryTextWriteProtection(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	mem.SetLayout(TextBegin+16, 0, 0, StaticSegment, false, true)

	err := mem.StoreByte(TextBegin, 1)
	assert.Error(err)

	mem.SetSelfModifying(true)
	err = mem.StoreByte(TextBegin, 1)
	assert.NoError(err)
}

func TestMemoryRodataReadOnly(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	mem.SetLayout(TextBegin, TextBegin, TextBegin+16, StaticSegment, true, false)

	err := mem.StoreByte(TextBegin, 1)
	assert.Error(err)

	_, err = mem.LoadByte(TextBegin)
	assert.NoError(err)
}

func TestMemorySignExtendedLoads(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	addr := uint32(StaticSegment)

	assert.NoError(mem.StoreByte(addr, 0xff))
	v, err := mem.LoadByte(addr)
	assert.NoError(err)
	assert.Equal(int32(-1), v)

	vu, err := mem.LoadByteUnsigned(addr)
	assert.NoError(err)
	assert.Equal(uint32(0xff), vu)
}

func TestMemoryDiffAndRestore(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	addr := uint32(StaticSegment)

	assert.NoError(mem.StoreByte(addr, 1))
	mem.GetDiff() // clear the initial diff from the first store

	assert.NoError(mem.StoreByte(addr, 2))
	diff := mem.GetDiff()
	assert.Equal(byte(1), diff[addr])

	v, _ := mem.LoadByteUnsigned(addr)
	assert.Equal(uint32(2), v)

	mem.Restore(diff)
	v, _ = mem.LoadByteUnsigned(addr)
	assert.Equal(uint32(1), v)
}

func TestMemorySnapshotRestoreAll(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	addr := uint32(StaticSegment)
	assert.NoError(mem.StoreWord(addr, 0x11223344))

	snap := mem.Snapshot()
	assert.NoError(mem.StoreWord(addr, 0))

	mem.RestoreAll(snap)
	v, _ := mem.LoadWord(addr)
	assert.Equal(uint32(0x11223344), v)
}

func TestAllocateFromHeap(t *testing.T) {
	assert := assert.New(t)
	mem := NewMemory(DefaultFlags(), nil)
	mem.SetLayout(TextBegin, 0, 0, StaticSegment, false, true)

	first := mem.AllocateFromHeap(3)
	assert.Equal(uint32(StaticSegment), first)
	assert.Equal(uint32(StaticSegment+4), mem.HeapPointer())

	second := mem.AllocateFromHeap(4)
	assert.Equal(uint32(StaticSegment+4), second)
}
