package debug

import (
	"fmt"

	"github.com/inesrs/Jupiter/isa"
)

// xRegNames are the ABI names emitted by Disassemble, with one spelling
// chosen per register where ABI names are many-to-one (s0 rather than fp
// for x8).
var xRegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func xReg(i int) string {
	if i < 0 || i > 31 {
		return fmt.Sprintf("x%d", i)
	}
	return xRegNames[i]
}

func fReg(i int) string { return fmt.Sprintf("f%d", i) }

// Disassemble renders one 32-bit word as an assembly-syntax mnemonic line,
// sufficient to satisfy the assemble/disassemble/reassemble round trip of
// spec.md §8: reassembling the returned text through the same isa.Def
// reproduces word exactly, since it prints in the operand order
// buildInstruction expects and never resolves PC-relative immediates back
// to symbol names. addr is the instruction's own address, used only to
// annotate branch/jump targets in a trailing comment.
func Disassemble(addr, word uint32) string {
	def, f, ok := isa.Decode(word)
	if !ok {
		return fmt.Sprintf(".word 0x%08x", word)
	}
	switch def.Format {
	case isa.FormatR:
		if def.NumArgs == 2 {
			return fmt.Sprintf("%s %s, %s", def.Mnemonic, regName(def.RdClass, f.Rd), regName(def.Rs1Class, f.Rs1))
		}
		return fmt.Sprintf("%s %s, %s, %s", def.Mnemonic, regName(def.RdClass, f.Rd), regName(def.Rs1Class, f.Rs1), regName(def.Rs2Class, f.Rs2))
	case isa.FormatR4:
		return fmt.Sprintf("%s %s, %s, %s, %s", def.Mnemonic, fReg(f.Rd), fReg(f.Rs1), fReg(f.Rs2), fReg(f.Rs3))
	case isa.FormatI:
		if isLoadMnemonic(def.Mnemonic) {
			return fmt.Sprintf("%s %s, %d(%s)", def.Mnemonic, regName(def.RdClass, f.Rd), f.Imm, xReg(f.Rs1))
		}
		if def.NumArgs == 0 {
			return def.Mnemonic
		}
		return fmt.Sprintf("%s %s, %s, %d", def.Mnemonic, xReg(f.Rd), xReg(f.Rs1), f.Imm)
	case isa.FormatS:
		return fmt.Sprintf("%s %s, %d(%s)", def.Mnemonic, regName(def.Rs2Class, f.Rs2), f.Imm, xReg(f.Rs1))
	case isa.FormatB:
		target := int64(addr) + int64(f.Imm)
		return fmt.Sprintf("%s %s, %s, %d # -> 0x%08x", def.Mnemonic, xReg(f.Rs1), xReg(f.Rs2), f.Imm, uint32(target))
	case isa.FormatU:
		return fmt.Sprintf("%s %s, %d", def.Mnemonic, xReg(f.Rd), f.Imm>>12)
	case isa.FormatJ:
		target := int64(addr) + int64(f.Imm)
		return fmt.Sprintf("%s %s, %d # -> 0x%08x", def.Mnemonic, xReg(f.Rd), f.Imm, uint32(target))
	}
	return fmt.Sprintf(".word 0x%08x", word)
}

func regName(class isa.RegClass, i int) string {
	if class == isa.ClassFloat {
		return fReg(i)
	}
	return xReg(i)
}

func isLoadMnemonic(m string) bool {
	switch m {
	case "lb", "lh", "lw", "lbu", "lhu", "flw":
		return true
	}
	return false
}

// DisassembleUnit renders every word of a text segment, one instruction
// per line prefixed with its address, for the human-readable dump format
// (as opposed to WriteDump's raw hex, which round-trips through the
// linker exactly).
func DisassembleUnit(base uint32, text []byte) []string {
	lines := make([]string, 0, len(text)/4)
	for i := 0; i+4 <= len(text); i += 4 {
		addr := base + uint32(i)
		word := uint32(text[i]) | uint32(text[i+1])<<8 | uint32(text[i+2])<<16 | uint32(text[i+3])<<24
		lines = append(lines, fmt.Sprintf("%08x: %08x  %s", addr, word, Disassemble(addr, word)))
	}
	return lines
}
