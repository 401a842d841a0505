package isa

import jupiter "github.com/inesrs/Jupiter"

const opcodeLui uint32 = 0x37
const opcodeAuipc uint32 = 0x17

func init() {
	register(&Def{
		Mnemonic: "lui",
		Format:   FormatU,
		Opcode:   opcodeLui,
		NumArgs:  2,
		RdClass:  ClassInt,
		Match:    func(word uint32) bool { return true },
		Encode:   func(f Fields) uint32 { return encodeU(opcodeLui, f) },
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeU(word)
			st.X.Set(f.Rd, uint32(f.Imm))
			st.PC += jupiter.WordLength
			return nil
		},
	})

	register(&Def{
		Mnemonic: "auipc",
		Format:   FormatU,
		Opcode:   opcodeAuipc,
		NumArgs:  2,
		RdClass:  ClassInt,
		Match:    func(word uint32) bool { return true },
		Encode:   func(f Fields) uint32 { return encodeU(opcodeAuipc, f) },
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeU(word)
			st.X.Set(f.Rd, uint32(int32(st.PC)+f.Imm))
			st.PC += jupiter.WordLength
			return nil
		},
	})
}
