package jupiter

// State is the complete architectural state the instruction registry
// executes against (spec.md §3): the integer and floating-point register
// files, memory (with its attached cache), and the program counter.
type State struct {
	X   *XRegisterFile
	F   *FRegisterFile
	Mem *Memory
	PC  uint32

	// Flags is the configuration the state was created with
	// (self-modifying mode, history size, cache geometry, ...).
	Flags Flags

	// Syscall is invoked by the ecall instruction; the sim package wires
	// this to its syscall dispatch table (spec.md §6) so the isa package
	// stays free of I/O and process-exit concerns.
	Syscall func(st *State) error
}

// NewState creates architectural state wired to sink for change
// notification.
func NewState(f Flags, sink ChangeSink) *State {
	return &State{
		X:     NewXRegisterFile(sink),
		F:     NewFRegisterFile(sink),
		Mem:   NewMemory(f, sink),
		Flags: f,
	}
}
