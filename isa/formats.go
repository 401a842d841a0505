// Package isa is the RV32IMF instruction set registry: for every
// mnemonic, its format, opcode/funct3/funct7 fields, an encoder and an
// executor (spec.md §4.3, §9 — a tabular registry rather than one
// subclass per instruction), grounded on dubcc/shared/instruction.go's
// mnemonic -> {Instruction, handler} shape and on
// other_examples/wyf-ACCEPT-eth2030__riscv_encode.go's field layouts.
package isa

// Format identifies one of RV32's instruction encodings (plus R4 for the
// fused multiply-add family), per spec.md §4.3.
type Format int

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatR4
)

// Fields is the decoded/pre-encode operand set for one instruction. Not
// every field is meaningful for every format; Encode/Execute read only
// the fields their format defines.
type Fields struct {
	Rd, Rs1, Rs2, Rs3 int
	Funct3, Funct7    uint32
	Imm               int32
	// Rm is the rounding-mode field occupying funct3 in the F extension's
	// R-type/R4-type encodings; this simulator always rounds to nearest
	// even and ignores it on execute, but still encodes/decodes it so
	// round-tripping (spec.md §8) reproduces the same word.
	Rm uint32
}

// --- decode helpers, one per format ---

func decodeOpcode(word uint32) uint32 { return word & 0x7f }

func decodeR(word uint32) Fields {
	return Fields{
		Rd:     int((word >> 7) & 0x1f),
		Funct3: (word >> 12) & 0x7,
		Rs1:    int((word >> 15) & 0x1f),
		Rs2:    int((word >> 20) & 0x1f),
		Funct7: (word >> 25) & 0x7f,
	}
}

func decodeR4(word uint32) Fields {
	return Fields{
		Rd:  int((word >> 7) & 0x1f),
		Rm:  (word >> 12) & 0x7,
		Rs1: int((word >> 15) & 0x1f),
		Rs2: int((word >> 20) & 0x1f),
		Rs3: int((word >> 27) & 0x1f),
		// bits 26:25 select the fused-multiply operand format (always
		// 00 = single-precision here, since RV32F only supports "S").
	}
}

func decodeI(word uint32) Fields {
	rawImm := int32(word) >> 20
	return Fields{
		Rd:     int((word >> 7) & 0x1f),
		Funct3: (word >> 12) & 0x7,
		Rs1:    int((word >> 15) & 0x1f),
		Imm:    rawImm,
	}
}

func decodeS(word uint32) Fields {
	lo := (word >> 7) & 0x1f
	hi := (word >> 25) & 0x7f
	raw := (hi << 5) | lo
	return Fields{
		Funct3: (word >> 12) & 0x7,
		Rs1:    int((word >> 15) & 0x1f),
		Rs2:    int((word >> 20) & 0x1f),
		Imm:    signExtend(raw, 12),
	}
}

func decodeB(word uint32) Fields {
	bit12 := (word >> 31) & 0x1
	bit11 := (word >> 7) & 0x1
	bits10to5 := (word >> 25) & 0x3f
	bits4to1 := (word >> 8) & 0xf
	raw := (bit12 << 12) | (bit11 << 11) | (bits10to5 << 5) | (bits4to1 << 1)
	return Fields{
		Funct3: (word >> 12) & 0x7,
		Rs1:    int((word >> 15) & 0x1f),
		Rs2:    int((word >> 20) & 0x1f),
		Imm:    signExtend(raw, 13),
	}
}

func decodeU(word uint32) Fields {
	return Fields{
		Rd:  int((word >> 7) & 0x1f),
		Imm: int32(word & 0xfffff000),
	}
}

func decodeJ(word uint32) Fields {
	bit20 := (word >> 31) & 0x1
	bits19to12 := (word >> 12) & 0xff
	bit11 := (word >> 20) & 0x1
	bits10to1 := (word >> 21) & 0x3ff
	raw := (bit20 << 20) | (bits19to12 << 12) | (bit11 << 11) | (bits10to1 << 1)
	return Fields{
		Rd:  int((word >> 7) & 0x1f),
		Imm: signExtend(raw, 21),
	}
}

func signExtend(raw uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(raw<<shift) >> shift
}

// --- encode helpers, one per format ---

func encodeR(opcode uint32, f Fields) uint32 {
	return (f.Funct7 << 25) | (uint32(f.Rs2) << 20) | (uint32(f.Rs1) << 15) |
		(f.Funct3 << 12) | (uint32(f.Rd) << 7) | opcode
}

func encodeR4(opcode uint32, f Fields) uint32 {
	return (uint32(f.Rs3) << 27) | (f.Rm << 12) | (uint32(f.Rs2) << 20) |
		(uint32(f.Rs1) << 15) | (uint32(f.Rd) << 7) | opcode
}

func encodeI(opcode uint32, f Fields) uint32 {
	imm := uint32(f.Imm) & 0xfff
	return (imm << 20) | (uint32(f.Rs1) << 15) | (f.Funct3 << 12) | (uint32(f.Rd) << 7) | opcode
}

func encodeS(opcode uint32, f Fields) uint32 {
	imm := uint32(f.Imm) & 0xfff
	return ((imm >> 5) << 25) | (uint32(f.Rs2) << 20) | (uint32(f.Rs1) << 15) |
		(f.Funct3 << 12) | ((imm & 0x1f) << 7) | opcode
}

func encodeB(opcode uint32, f Fields) uint32 {
	imm := uint32(f.Imm)
	return (((imm >> 12) & 0x1) << 31) | (((imm >> 5) & 0x3f) << 25) |
		(uint32(f.Rs2) << 20) | (uint32(f.Rs1) << 15) | (f.Funct3 << 12) |
		(((imm >> 1) & 0xf) << 8) | (((imm >> 11) & 0x1) << 7) | opcode
}

func encodeU(opcode uint32, f Fields) uint32 {
	return (uint32(f.Imm) & 0xfffff000) | (uint32(f.Rd) << 7) | opcode
}

func encodeJ(opcode uint32, f Fields) uint32 {
	imm := uint32(f.Imm)
	return (((imm >> 20) & 0x1) << 31) | (((imm >> 1) & 0x3ff) << 21) |
		(((imm >> 11) & 0x1) << 20) | (((imm >> 12) & 0xff) << 12) |
		(uint32(f.Rd) << 7) | opcode
}
