package isa

import jupiter "github.com/inesrs/Jupiter"

const opcodeRType uint32 = 0x33

func matchR(funct3, funct7 uint32) func(uint32) bool {
	return func(word uint32) bool {
		f := decodeR(word)
		return f.Funct3 == funct3 && f.Funct7 == funct7
	}
}

func registerRType(mnemonic string, funct3, funct7 uint32, exec func(rd, rs1, rs2 int, st *jupiter.State) error) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeRType,
		NumArgs:  3,
		RdClass:  ClassInt,
		Rs1Class: ClassInt,
		Rs2Class: ClassInt,
		Match:    matchR(funct3, funct7),
		Encode: func(f Fields) uint32 {
			f.Funct3, f.Funct7 = funct3, funct7
			return encodeR(opcodeRType, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			if err := exec(f.Rd, f.Rs1, f.Rs2, st); err != nil {
				return err
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

func init() {
	registerRType("add", 0x0, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)+st.X.Get(rs2))
		return nil
	})
	registerRType("sub", 0x0, 0x20, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)-st.X.Get(rs2))
		return nil
	})
	registerRType("sll", 0x1, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)<<(st.X.Get(rs2)&0x1f))
		return nil
	})
	registerRType("slt", 0x2, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		if int32(st.X.Get(rs1)) < int32(st.X.Get(rs2)) {
			st.X.Set(rd, 1)
		} else {
			st.X.Set(rd, 0)
		}
		return nil
	})
	registerRType("sltu", 0x3, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		if st.X.Get(rs1) < st.X.Get(rs2) {
			st.X.Set(rd, 1)
		} else {
			st.X.Set(rd, 0)
		}
		return nil
	})
	registerRType("xor", 0x4, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)^st.X.Get(rs2))
		return nil
	})
	registerRType("srl", 0x5, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)>>(st.X.Get(rs2)&0x1f))
		return nil
	})
	registerRType("sra", 0x5, 0x20, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, uint32(int32(st.X.Get(rs1))>>(st.X.Get(rs2)&0x1f)))
		return nil
	})
	registerRType("or", 0x6, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)|st.X.Get(rs2))
		return nil
	})
	registerRType("and", 0x7, 0x00, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)&st.X.Get(rs2))
		return nil
	})

	// M extension
	registerRType("mul", 0x0, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)*st.X.Get(rs2))
		return nil
	})
	registerRType("mulh", 0x1, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		a, b := int64(int32(st.X.Get(rs1))), int64(int32(st.X.Get(rs2)))
		st.X.Set(rd, uint32((a*b)>>32))
		return nil
	})
	registerRType("mulhsu", 0x2, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		a := int64(int32(st.X.Get(rs1)))
		b := int64(st.X.Get(rs2))
		st.X.Set(rd, uint32((a*b)>>32))
		return nil
	})
	registerRType("mulhu", 0x3, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		a, b := uint64(st.X.Get(rs1)), uint64(st.X.Get(rs2))
		st.X.Set(rd, uint32((a*b)>>32))
		return nil
	})
	registerRType("div", 0x4, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		a, b := int32(st.X.Get(rs1)), int32(st.X.Get(rs2))
		switch {
		case b == 0:
			st.X.Set(rd, 0xffffffff)
		case a == math32Min && b == -1:
			st.X.Set(rd, uint32(a))
		default:
			st.X.Set(rd, uint32(a/b))
		}
		return nil
	})
	registerRType("divu", 0x5, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		a, b := st.X.Get(rs1), st.X.Get(rs2)
		if b == 0 {
			st.X.Set(rd, 0xffffffff)
			return nil
		}
		st.X.Set(rd, a/b)
		return nil
	})
	registerRType("rem", 0x6, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		a, b := int32(st.X.Get(rs1)), int32(st.X.Get(rs2))
		switch {
		case b == 0:
			st.X.Set(rd, uint32(a))
		case a == math32Min && b == -1:
			st.X.Set(rd, 0)
		default:
			st.X.Set(rd, uint32(a%b))
		}
		return nil
	})
	registerRType("remu", 0x7, 0x01, func(rd, rs1, rs2 int, st *jupiter.State) error {
		a, b := st.X.Get(rs1), st.X.Get(rs2)
		if b == 0 {
			st.X.Set(rd, a)
			return nil
		}
		st.X.Set(rd, a%b)
		return nil
	})
}

const math32Min = int32(-2147483648)
