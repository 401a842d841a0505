package jupiter

import "math"

// abiNames maps the RISC-V calling-convention aliases to x0-x31, matching
// the register names used throughout spec.md's example programs
// (a0, a7, sp, ra, ...).
var abiNames = map[string]int{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13, "a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23, "s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// XRegisterFile is the 32-slot integer register file. x0 is hardwired to
// zero (spec.md §3): writes are silently discarded, reads always return 0.
type XRegisterFile struct {
	regs [32]uint32
	sink ChangeSink
}

// NewXRegisterFile creates an integer register file reporting changes to
// sink (use NopSink{} if no observer is needed).
func NewXRegisterFile(sink ChangeSink) *XRegisterFile {
	if sink == nil {
		sink = NopSink{}
	}
	return &XRegisterFile{sink: sink}
}

// Get returns the value of register i (0-31).
func (f *XRegisterFile) Get(i int) uint32 {
	return f.regs[i]
}

// Set writes value to register i. Writes to x0 are silently discarded.
func (f *XRegisterFile) Set(i int, value uint32) {
	if i == 0 {
		return
	}
	f.regs[i] = value
	f.sink.RegisterChanged(IntegerRegisterFile, i, value)
}

// GetByName resolves a register by mnemonic ("x5") or ABI alias ("a0").
func (f *XRegisterFile) GetByName(name string) (uint32, bool) {
	i, ok := ResolveXRegister(name)
	if !ok {
		return 0, false
	}
	return f.regs[i], true
}

// SetByName writes value to the register named by name; returns false if
// name does not resolve to a register.
func (f *XRegisterFile) SetByName(name string, value uint32) bool {
	i, ok := ResolveXRegister(name)
	if !ok {
		return false
	}
	f.Set(i, value)
	return true
}

// Snapshot copies every integer register, for history diffs and tests.
func (f *XRegisterFile) Snapshot() [32]uint32 {
	return f.regs
}

// Restore overwrites the whole file, used by back-step/reset.
func (f *XRegisterFile) Restore(regs [32]uint32) {
	f.regs = regs
}

// ResolveXRegister resolves "x5", "X5" or an ABI alias ("a0", "sp", ...)
// to a register index in [0,31].
func ResolveXRegister(name string) (int, bool) {
	if len(name) > 1 && (name[0] == 'x' || name[0] == 'X') {
		if n, ok := parseRegIndex(name[1:]); ok {
			return n, true
		}
	}
	if idx, ok := abiNames[name]; ok {
		return idx, true
	}
	return 0, false
}

func parseRegIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n < 0 || n > 31 {
		return 0, false
	}
	return n, true
}

// fabiNames maps the RV32F calling-convention aliases to f0-f31, mirroring
// abiNames for the integer file.
var fabiNames = map[string]int{
	"ft0": 0, "ft1": 1, "ft2": 2, "ft3": 3, "ft4": 4, "ft5": 5, "ft6": 6, "ft7": 7,
	"fs0": 8, "fs1": 9,
	"fa0": 10, "fa1": 11, "fa2": 12, "fa3": 13, "fa4": 14, "fa5": 15, "fa6": 16, "fa7": 17,
	"fs2": 18, "fs3": 19, "fs4": 20, "fs5": 21, "fs6": 22, "fs7": 23, "fs8": 24, "fs9": 25, "fs10": 26, "fs11": 27,
	"ft8": 28, "ft9": 29, "ft10": 30, "ft11": 31,
}

// FRegisterFile is the 32-slot IEEE-754 single-precision float register
// file (spec.md §3).
type FRegisterFile struct {
	regs [32]uint32 // bit patterns, so NaN payloads survive exactly
	sink ChangeSink
}

// NewFRegisterFile creates a float register file reporting changes to sink.
func NewFRegisterFile(sink ChangeSink) *FRegisterFile {
	if sink == nil {
		sink = NopSink{}
	}
	return &FRegisterFile{sink: sink}
}

// GetFloat returns register i as a float32.
func (f *FRegisterFile) GetFloat(i int) float32 {
	return math.Float32frombits(f.regs[i])
}

// GetBits returns register i's raw IEEE-754 bit pattern.
func (f *FRegisterFile) GetBits(i int) uint32 {
	return f.regs[i]
}

// SetFloat writes value to register i.
func (f *FRegisterFile) SetFloat(i int, value float32) {
	f.SetBits(i, math.Float32bits(value))
}

// SetBits writes a raw bit pattern to register i.
func (f *FRegisterFile) SetBits(i int, bits uint32) {
	f.regs[i] = bits
	f.sink.RegisterChanged(FloatRegisterFile, i, bits)
}

// ResolveFRegister resolves "f5" or an RV32F ABI alias ("fa0", "ft0",
// "fs0", ...) to a register index in [0,31].
func ResolveFRegister(name string) (int, bool) {
	if len(name) > 1 && (name[0] == 'f' || name[0] == 'F') {
		if n, ok := parseRegIndex(name[1:]); ok {
			return n, true
		}
	}
	if idx, ok := fabiNames[name]; ok {
		return idx, true
	}
	return 0, false
}

// Snapshot copies every float register's bit pattern.
func (f *FRegisterFile) Snapshot() [32]uint32 {
	return f.regs
}

// Restore overwrites the whole file, used by back-step/reset.
func (f *FRegisterFile) Restore(regs [32]uint32) {
	f.regs = regs
}
