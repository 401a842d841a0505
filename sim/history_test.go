package sim

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"

	jupiter "github.com/inesrs/Jupiter"
)

func TestHistoryPushPop(t *testing.T) {
	assert := assert.New(t)
	h := NewHistory(10)
	assert.Equal(0, h.Len())

	e1 := &HistoryEntry{PC: 4}
	e2 := &HistoryEntry{PC: 8}
	h.Push(e1)
	h.Push(e2)
	assert.Equal(2, h.Len())

	got, ok := h.Pop()
	assert.True(ok)
	assert.Same(e2, got)
	assert.Equal(1, h.Len())

	got, ok = h.Pop()
	assert.True(ok)
	assert.Same(e1, got)

	_, ok = h.Pop()
	assert.False(ok)
}

func TestHistoryClear(t *testing.T) {
	assert := assert.New(t)
	h := NewHistory(10)
	h.Push(&HistoryEntry{PC: 4})
	h.Clear()
	assert.Equal(0, h.Len())
	_, ok := h.Pop()
	assert.False(ok)
}

func TestHistoryEvictsOldestBeyondMax(t *testing.T) {
	assert := assert.New(t)
	h := NewHistory(2)
	h.Push(&HistoryEntry{PC: 1})
	h.Push(&HistoryEntry{PC: 2})
	h.Push(&HistoryEntry{PC: 3})
	assert.Equal(2, h.Len())

	got, ok := h.Pop()
	assert.True(ok)
	assert.Equal(uint32(3), got.PC)

	got, ok = h.Pop()
	assert.True(ok)
	assert.Equal(uint32(2), got.PC, "PC 1's entry should have been evicted once the history exceeded max")
}

func TestNewHistoryClampsNonPositiveMax(t *testing.T) {
	assert := assert.New(t)
	h := NewHistory(0)
	h.Push(&HistoryEntry{PC: 1})
	h.Push(&HistoryEntry{PC: 2})
	assert.Equal(1, h.Len())
}

// TestDriverStepBackstepRoundTrip is a step/backstep round trip through the
// full driver: after Backstep, every register and the PC must match the
// pre-step snapshot bit for bit. spew.Sdump renders both sides on failure
// since a plain %v on register arrays is unreadable.
func TestDriverStepBackstepRoundTrip(t *testing.T) {
	assert := assert.New(t)
	d, st := buildDriver(t, ".globl __start\n__start:\n  addi a0, zero, 5\n  addi a1, a0, 3\n  fadd.s fa0, fa0, fa0\n")

	before := snapshotState(st)
	assert.NoError(d.Step())
	assert.NoError(d.Step())
	assert.NoError(d.Step())

	assert.True(d.Backstep())
	assert.True(d.Backstep())
	assert.True(d.Backstep())

	after := snapshotState(st)
	assert.Equal(before, after, "state after full backstep should match the pre-step snapshot\nbefore:\n%s\nafter:\n%s",
		spew.Sdump(before), spew.Sdump(after))
}

type stateSnapshot struct {
	PC   uint32
	RegX [32]uint32
	RegF [32]uint32
}

func snapshotState(st *jupiter.State) stateSnapshot {
	return stateSnapshot{PC: st.PC, RegX: st.X.Snapshot(), RegF: st.F.Snapshot()}
}
