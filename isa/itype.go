package isa

import jupiter "github.com/inesrs/Jupiter"

const opcodeIType uint32 = 0x13  // register-immediate arithmetic
const opcodeLoad uint32 = 0x03   // loads
const opcodeJalr uint32 = 0x67   // jalr
const opcodeSystem uint32 = 0x73 // ecall/ebreak

func matchIFunct3(funct3 uint32) func(uint32) bool {
	return func(word uint32) bool { return decodeI(word).Funct3 == funct3 }
}

// matchShiftImm additionally pins the funct7-in-imm[11:5] field that
// distinguishes slli/srli from srai.
func matchShiftImm(funct3, funct7 uint32) func(uint32) bool {
	return func(word uint32) bool {
		f := decodeI(word)
		return f.Funct3 == funct3 && (uint32(f.Imm)>>5)&0x7f == funct7
	}
}

func registerIType(mnemonic string, funct3 uint32, exec func(rd, rs1 int, imm int32, st *jupiter.State) error) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatI,
		Opcode:   opcodeIType,
		NumArgs:  3,
		RdClass:  ClassInt,
		Rs1Class: ClassInt,
		Match:    matchIFunct3(funct3),
		Encode: func(f Fields) uint32 {
			f.Funct3 = funct3
			return encodeI(opcodeIType, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeI(word)
			if err := exec(f.Rd, f.Rs1, f.Imm, st); err != nil {
				return err
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

// registerShiftImm handles slli/srli/srai, whose shift amount occupies
// imm[4:0] and whose funct7 occupies imm[11:5].
func registerShiftImm(mnemonic string, funct3, funct7 uint32, exec func(rd, rs1 int, shamt uint32, st *jupiter.State) error) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatI,
		Opcode:   opcodeIType,
		NumArgs:  3,
		RdClass:  ClassInt,
		Rs1Class: ClassInt,
		Match:    matchShiftImm(funct3, funct7),
		Encode: func(f Fields) uint32 {
			f.Funct3 = funct3
			f.Imm = int32((funct7 << 5) | (uint32(f.Imm) & 0x1f))
			return encodeI(opcodeIType, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeI(word)
			if err := exec(f.Rd, f.Rs1, uint32(f.Imm)&0x1f, st); err != nil {
				return err
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

func registerLoad(mnemonic string, funct3 uint32, load func(m *jupiter.Memory, addr uint32) (int64, error)) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatI,
		Opcode:   opcodeLoad,
		NumArgs:  2,
		RdClass:  ClassInt,
		Rs1Class: ClassInt,
		Match:    func(word uint32) bool { return decodeOpcode(word) == opcodeLoad && decodeI(word).Funct3 == funct3 },
		Encode: func(f Fields) uint32 {
			f.Funct3 = funct3
			return encodeI(opcodeLoad, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeI(word)
			addr := uint32(int32(st.X.Get(f.Rs1)) + f.Imm)
			v, err := load(st.Mem, addr)
			if err != nil {
				return err
			}
			st.X.Set(f.Rd, uint32(v))
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

func init() {
	registerIType("addi", 0x0, func(rd, rs1 int, imm int32, st *jupiter.State) error {
		st.X.Set(rd, uint32(int32(st.X.Get(rs1))+imm))
		return nil
	})
	registerIType("slti", 0x2, func(rd, rs1 int, imm int32, st *jupiter.State) error {
		if int32(st.X.Get(rs1)) < imm {
			st.X.Set(rd, 1)
		} else {
			st.X.Set(rd, 0)
		}
		return nil
	})
	registerIType("sltiu", 0x3, func(rd, rs1 int, imm int32, st *jupiter.State) error {
		if st.X.Get(rs1) < uint32(imm) {
			st.X.Set(rd, 1)
		} else {
			st.X.Set(rd, 0)
		}
		return nil
	})
	registerIType("xori", 0x4, func(rd, rs1 int, imm int32, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)^uint32(imm))
		return nil
	})
	registerIType("ori", 0x6, func(rd, rs1 int, imm int32, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)|uint32(imm))
		return nil
	})
	registerIType("andi", 0x7, func(rd, rs1 int, imm int32, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)&uint32(imm))
		return nil
	})

	registerShiftImm("slli", 0x1, 0x00, func(rd, rs1 int, shamt uint32, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)<<shamt)
		return nil
	})
	registerShiftImm("srli", 0x5, 0x00, func(rd, rs1 int, shamt uint32, st *jupiter.State) error {
		st.X.Set(rd, st.X.Get(rs1)>>shamt)
		return nil
	})
	registerShiftImm("srai", 0x5, 0x20, func(rd, rs1 int, shamt uint32, st *jupiter.State) error {
		st.X.Set(rd, uint32(int32(st.X.Get(rs1))>>shamt))
		return nil
	})

	registerLoad("lb", 0x0, func(m *jupiter.Memory, addr uint32) (int64, error) {
		v, err := m.LoadByte(addr)
		return int64(v), err
	})
	registerLoad("lh", 0x1, func(m *jupiter.Memory, addr uint32) (int64, error) {
		v, err := m.LoadHalf(addr)
		return int64(v), err
	})
	registerLoad("lw", 0x2, func(m *jupiter.Memory, addr uint32) (int64, error) {
		v, err := m.LoadWord(addr)
		return int64(v), err
	})
	registerLoad("lbu", 0x4, func(m *jupiter.Memory, addr uint32) (int64, error) {
		v, err := m.LoadByteUnsigned(addr)
		return int64(v), err
	})
	registerLoad("lhu", 0x5, func(m *jupiter.Memory, addr uint32) (int64, error) {
		v, err := m.LoadHalfUnsigned(addr)
		return int64(v), err
	})

	register(&Def{
		Mnemonic: "jalr",
		Format:   FormatI,
		Opcode:   opcodeJalr,
		NumArgs:  3,
		RdClass:  ClassInt,
		Rs1Class: ClassInt,
		Match:    func(word uint32) bool { return decodeOpcode(word) == opcodeJalr },
		Encode: func(f Fields) uint32 {
			f.Funct3 = 0
			return encodeI(opcodeJalr, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeI(word)
			target := uint32(int32(st.X.Get(f.Rs1))+f.Imm) &^ 1
			link := st.PC + jupiter.WordLength
			st.X.Set(f.Rd, link)
			st.PC = target
			return nil
		},
	})

	register(&Def{
		Mnemonic: "ecall",
		Format:   FormatI,
		Opcode:   opcodeSystem,
		NumArgs:  0,
		Match:    func(word uint32) bool { return decodeI(word).Funct3 == 0 && decodeI(word).Imm == 0 },
		Encode:   func(f Fields) uint32 { return encodeI(opcodeSystem, Fields{}) },
		Execute: func(word uint32, st *jupiter.State) error {
			if st.Syscall == nil {
				return &jupiter.SimulationFault{Kind: jupiter.FaultHalt, Code: 0, Message: "ecall with no syscall handler installed"}
			}
			if err := st.Syscall(st); err != nil {
				return err
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})

	register(&Def{
		Mnemonic: "ebreak",
		Format:   FormatI,
		Opcode:   opcodeSystem,
		NumArgs:  0,
		Match:    func(word uint32) bool { return decodeI(word).Funct3 == 0 && decodeI(word).Imm == 1 },
		Encode:   func(f Fields) uint32 { return encodeI(opcodeSystem, Fields{Imm: 1}) },
		Execute: func(word uint32, st *jupiter.State) error {
			return &jupiter.SimulationFault{Kind: jupiter.FaultBreakpoint}
		},
	})
}
