package isa

import jupiter "github.com/inesrs/Jupiter"

const opcodeJal uint32 = 0x6f

func init() {
	register(&Def{
		Mnemonic: "jal",
		Format:   FormatJ,
		Opcode:   opcodeJal,
		NumArgs:  2,
		RdClass:  ClassInt,
		Match:    func(word uint32) bool { return true },
		Encode:   func(f Fields) uint32 { return encodeJ(opcodeJal, f) },
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeJ(word)
			link := st.PC + jupiter.WordLength
			st.PC = uint32(int32(st.PC) + f.Imm)
			st.X.Set(f.Rd, link)
			return nil
		},
	})
}
