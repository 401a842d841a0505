// Package assembler turns one RV32IMF source file into a TranslationUnit:
// three segments (text, rodata, data — bss is tracked as a reserved byte
// count rather than stored bytes) plus a symbol table and an unresolved
// relocation list, grounded on dubcc/shared/assembler's two-pass
// FirstPass/SecondPass driver and its DULF object-file shape
// (DulfHeader/SectionHeader/Symbol/Relocation), generalized from that
// custom 16-bit ISA's assembler to RV32IMF.
package assembler

import jupiter "github.com/inesrs/Jupiter"

// RelocKind identifies how a relocation's 32-bit target word is patched
// once the symbol's final address is known, grounded on spec.md §4.1's
// PCREL_HI20/PCREL_LO12 pair used by auipc-based addressing.
type RelocKind int

const (
	// RelAbsWord patches an entire 32-bit data word (.word referencing a symbol).
	RelAbsWord RelocKind = iota
	// RelHi20 patches a U-type immediate with the upper 20 bits of
	// (symbolAddr - instrAddr), rounding for the paired lo12's sign.
	RelHi20
	// RelLo12I patches an I-type immediate with the low 12 bits of
	// (symbolAddr - hiInstrAddr), where hiInstrAddr is the address of the
	// RelHi20 relocation at HiOffset.
	RelLo12I
	// RelLo12S is RelLo12I's S-type-encoded counterpart (unused by this
	// assembler's pseudo-ops today but kept for completeness — sb/sh/sw
	// never take a symbol operand directly).
	RelLo12S
	// RelBranch patches a B-type's 13-bit PC-relative immediate.
	RelBranch
	// RelJal patches a J-type's 21-bit PC-relative immediate.
	RelJal
)

// Relocation is one pending symbol fixup left for the linker once every
// translation unit's final load address is known.
type Relocation struct {
	Kind    RelocKind
	Segment Segment
	Offset  uint32 // byte offset within Segment where the target word lives
	Symbol  string
	Addend  int32
	// HiOffset is the byte offset (within the same segment) of this
	// relocation's paired RelHi20 auipc, valid only for
	// RelLo12I/RelLo12S: the low half relocates relative to the auipc
	// that computed the high half, not to its own PC, so the linker
	// needs the auipc's final address to split (symbolAddr-auipcAddr)
	// into matching hi/lo halves.
	HiOffset uint32
}

// Segment identifies one of the three segments a translation unit
// contributes bytes to (spec.md §3); bss contributes only a size.
type Segment int

const (
	SegText Segment = iota
	SegRodata
	SegData
	SegBSS
)

// Symbol is one entry of a translation unit's local symbol table;
// Global marks it visible to .globl and thus resolvable across units by
// the linker.
type Symbol struct {
	Name    string
	Segment Segment
	Offset  uint32
	Global  bool
	IsBss   bool // lives in bss; Offset is then relative to the bss region
}

// TranslationUnit is everything the linker needs from one assembled
// source file, grounded on dubcc's ObjectFile/DulfHeader shape.
type TranslationUnit struct {
	Path string

	Text   []byte
	Rodata []byte
	Data   []byte
	BSS    uint32 // reserved, zero-initialized byte count

	Symbols     map[string]Symbol
	Relocations []Relocation

	// Entry is not set by the assembler and not read by the linker,
	// which looks the entry symbol up in the merged global table.
	Entry string
}

func newTranslationUnit(path string) *TranslationUnit {
	return &TranslationUnit{
		Path:    path,
		Symbols: make(map[string]Symbol),
	}
}

// SizeOf reports a segment's current byte length (bss reports its
// reserved size instead of stored bytes).
func (tu *TranslationUnit) SizeOf(seg Segment) uint32 {
	switch seg {
	case SegText:
		return uint32(len(tu.Text))
	case SegRodata:
		return uint32(len(tu.Rodata))
	case SegData:
		return uint32(len(tu.Data))
	case SegBSS:
		return tu.BSS
	}
	return 0
}

// reserve grows bss by n zero bytes and returns the offset it started at.
func (tu *TranslationUnit) reserve(n uint32) uint32 {
	offset := tu.BSS
	tu.BSS += n
	return offset
}

func (tu *TranslationUnit) appendWord(seg Segment, word uint32) uint32 {
	b := []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}
	return tu.appendBytes(seg, b)
}

func (tu *TranslationUnit) appendBytes(seg Segment, data []byte) uint32 {
	var offset uint32
	switch seg {
	case SegText:
		offset = uint32(len(tu.Text))
		tu.Text = append(tu.Text, data...)
	case SegRodata:
		offset = uint32(len(tu.Rodata))
		tu.Rodata = append(tu.Rodata, data...)
	case SegData:
		offset = uint32(len(tu.Data))
		tu.Data = append(tu.Data, data...)
	}
	return offset
}

func (tu *TranslationUnit) align(seg Segment, n uint) {
	size := tu.SizeOf(seg)
	padded := jupiter.AlignTo(size, n)
	if padded == size {
		return
	}
	if seg == SegBSS {
		tu.reserve(padded - size)
		return
	}
	tu.appendBytes(seg, make([]byte, padded-size))
}
