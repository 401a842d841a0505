package isa

import jupiter "github.com/inesrs/Jupiter"

const opcodeStore uint32 = 0x23

func registerStore(mnemonic string, funct3 uint32, store func(m *jupiter.Memory, addr uint32, value uint32) error) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatS,
		Opcode:   opcodeStore,
		NumArgs:  2,
		Rs1Class: ClassInt,
		Rs2Class: ClassInt,
		Match:    func(word uint32) bool { return decodeS(word).Funct3 == funct3 },
		Encode: func(f Fields) uint32 {
			f.Funct3 = funct3
			return encodeS(opcodeStore, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeS(word)
			addr := uint32(int32(st.X.Get(f.Rs1)) + f.Imm)
			if err := store(st.Mem, addr, st.X.Get(f.Rs2)); err != nil {
				return err
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

func init() {
	registerStore("sb", 0x0, func(m *jupiter.Memory, addr uint32, value uint32) error {
		return m.StoreByte(addr, byte(value))
	})
	registerStore("sh", 0x1, func(m *jupiter.Memory, addr uint32, value uint32) error {
		return m.StoreHalf(addr, uint16(value))
	})
	registerStore("sw", 0x2, func(m *jupiter.Memory, addr uint32, value uint32) error {
		return m.StoreWord(addr, value)
	})
}
