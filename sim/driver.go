package sim

import (
	"sync/atomic"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/isa"
)

// Driver is the simulation loop of spec.md §4.6: Step/Run/Backstep/Reset
// plus breakpoints, wired to a single State and its History. Grounded on
// the driver contract implicit in spec.md §4.6 and the cooperative
// cancellation model of §5 — Run polls an atomic flag between
// instructions rather than being killed out from under it.
type Driver struct {
	State   *jupiter.State
	History *History

	entry uint32

	initialX    [32]uint32
	initialF    [32]uint32
	initialMem  map[uint32]byte
	initialHeap uint32

	breakpoints map[uint32]bool
	bpArmed     bool

	halted   bool
	haltCode int32

	cancelled atomic.Bool
}

// NewDriver creates a driver over state, taking a snapshot of the
// just-loaded program image so Reset can restore it exactly without
// re-invoking the linker.
func NewDriver(state *jupiter.State, entry uint32) *Driver {
	d := &Driver{
		State:       state,
		History:     NewHistory(state.Flags.HistorySize),
		entry:       entry,
		breakpoints: make(map[uint32]bool),
		bpArmed:     true,
	}
	d.snapshot()
	// Drop the diffs left by the loader's stores so the first step's
	// history entry holds only that step's own changes.
	d.State.Mem.GetDiff()
	d.State.Mem.Cache().GetDiff()
	d.State.PC = entry
	return d
}

func (d *Driver) snapshot() {
	d.initialX = d.State.X.Snapshot()
	d.initialF = d.State.F.Snapshot()
	d.initialHeap = d.State.Mem.HeapPointer()
	d.initialMem = d.State.Mem.Snapshot()
}

// SetBreakpoint arms a breakpoint at addr.
func (d *Driver) SetBreakpoint(addr uint32) { d.breakpoints[addr] = true }

// ClearBreakpoint disarms the breakpoint at addr, if any.
func (d *Driver) ClearBreakpoint(addr uint32) { delete(d.breakpoints, addr) }

// ClearBreakpoints disarms every breakpoint.
func (d *Driver) ClearBreakpoints() { d.breakpoints = make(map[uint32]bool) }

// Halted reports whether the program has exited via ecall/ebreak-halt.
func (d *Driver) Halted() bool { return d.halted }

// ExitCode returns the code the program exited with, valid once Halted.
func (d *Driver) ExitCode() int32 { return d.haltCode }

// Step fetches, decodes and executes one instruction. A breakpoint at
// the current PC is consulted and disarmed before the fetch, so a
// subsequent Step from the same PC runs through (spec.md §4.6): the
// breakpoint fires exactly once per arrival, not on every retry.
func (d *Driver) Step() error {
	if d.halted {
		return &jupiter.SimulationFault{Kind: jupiter.FaultHalt, Code: d.haltCode}
	}
	pc := d.State.PC
	if d.bpArmed && d.breakpoints[pc] {
		d.bpArmed = false
		return &jupiter.SimulationFault{Kind: jupiter.FaultBreakpoint, Address: pc}
	}
	d.bpArmed = true

	word := d.State.Mem.PrivLoadWord(pc)

	entry := &HistoryEntry{PC: pc, Heap: d.State.Mem.HeapPointer(), RegX: d.State.X.Snapshot(), RegF: d.State.F.Snapshot()}

	err := isa.Execute(word, d.State)
	entry.MemDiff = d.State.Mem.GetDiff()
	entry.CacheBak = d.State.Mem.Cache().GetDiff()

	if err != nil {
		if fault, ok := err.(*jupiter.SimulationFault); ok && fault.Kind == jupiter.FaultHalt {
			d.History.Push(entry)
			d.halted = true
			d.haltCode = fault.Code
		}
		return err
	}
	d.History.Push(entry)
	return nil
}

// Run steps until a fault (breakpoint, halt, invalid address, illegal
// instruction) or until Cancel is observed, whichever comes first. A
// nil return means the run was cancelled; any non-nil error is the
// fault that stopped it.
func (d *Driver) Run() error {
	d.cancelled.Store(false)
	for {
		if d.cancelled.Load() {
			return nil
		}
		if err := d.Step(); err != nil {
			return err
		}
	}
}

// Cancel requests that an in-progress Run stop at the next instruction
// boundary. Safe to call from another goroutine.
func (d *Driver) Cancel() { d.cancelled.Store(true) }

// Backstep undoes the most recently committed step, restoring PC, heap
// pointer, memory, both register files and the cache to their state
// immediately before that instruction executed. Returns false if the
// history is empty.
func (d *Driver) Backstep() bool {
	e, ok := d.History.Pop()
	if !ok {
		return false
	}
	d.State.PC = e.PC
	d.State.Mem.SetHeapPointer(e.Heap)
	d.State.Mem.Restore(e.MemDiff)
	d.State.Mem.Cache().Restore(e.CacheBak)
	d.State.X.Restore(e.RegX)
	d.State.F.Restore(e.RegF)
	d.halted = false
	return true
}

// Reset drops all history and reloads the program's initial image:
// registers and memory return to the state captured right after
// linking, the cache is emptied, and PC returns to the entry point.
func (d *Driver) Reset() {
	d.History.Clear()
	d.State.X.Restore(d.initialX)
	d.State.F.Restore(d.initialF)
	d.State.Mem.RestoreAll(d.initialMem)
	d.State.Mem.SetHeapPointer(d.initialHeap)
	d.State.Mem.Cache().Reset()
	d.State.PC = d.entry
	d.bpArmed = true
	d.halted = false
	d.haltCode = 0
}
