package isa

import jupiter "github.com/inesrs/Jupiter"

const opcodeBranch uint32 = 0x63

func registerBranch(mnemonic string, funct3 uint32, taken func(a, b uint32) bool) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatB,
		Opcode:   opcodeBranch,
		NumArgs:  3,
		Rs1Class: ClassInt,
		Rs2Class: ClassInt,
		Match:    func(word uint32) bool { return decodeB(word).Funct3 == funct3 },
		Encode: func(f Fields) uint32 {
			f.Funct3 = funct3
			return encodeB(opcodeBranch, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeB(word)
			if taken(st.X.Get(f.Rs1), st.X.Get(f.Rs2)) {
				st.PC = uint32(int32(st.PC) + f.Imm)
			} else {
				st.PC += jupiter.WordLength
			}
			return nil
		},
	})
}

func init() {
	registerBranch("beq", 0x0, func(a, b uint32) bool { return a == b })
	registerBranch("bne", 0x1, func(a, b uint32) bool { return a != b })
	registerBranch("blt", 0x4, func(a, b uint32) bool { return int32(a) < int32(b) })
	registerBranch("bge", 0x5, func(a, b uint32) bool { return int32(a) >= int32(b) })
	registerBranch("bltu", 0x6, func(a, b uint32) bool { return a < b })
	registerBranch("bgeu", 0x7, func(a, b uint32) bool { return a >= b })
}
