package isa

import (
	"math"

	jupiter "github.com/inesrs/Jupiter"
)

const opcodeFLoad uint32 = 0x07
const opcodeFStore uint32 = 0x27
const opcodeFPOp uint32 = 0x53
const opcodeFmadd uint32 = 0x43
const opcodeFmsub uint32 = 0x47
const opcodeFnmsub uint32 = 0x4b
const opcodeFnmadd uint32 = 0x4f

func bitsToFloat(bits uint32) float32 { return math.Float32frombits(bits) }
func floatToBits(f float32) uint32    { return math.Float32bits(f) }

func init() {
	register(&Def{
		Mnemonic: "flw",
		Format:   FormatI,
		Opcode:   opcodeFLoad,
		NumArgs:  2,
		RdClass:  ClassFloat,
		Rs1Class: ClassInt,
		Match:    func(word uint32) bool { return decodeI(word).Funct3 == 0x2 },
		Encode: func(f Fields) uint32 {
			f.Funct3 = 0x2
			return encodeI(opcodeFLoad, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeI(word)
			addr := uint32(int32(st.X.Get(f.Rs1)) + f.Imm)
			v, err := st.Mem.LoadWord(addr)
			if err != nil {
				return err
			}
			st.F.SetBits(f.Rd, v)
			st.PC += jupiter.WordLength
			return nil
		},
	})

	register(&Def{
		Mnemonic: "fsw",
		Format:   FormatS,
		Opcode:   opcodeFStore,
		NumArgs:  2,
		Rs1Class: ClassInt,
		Rs2Class: ClassFloat,
		Match:    func(word uint32) bool { return decodeS(word).Funct3 == 0x2 },
		Encode: func(f Fields) uint32 {
			f.Funct3 = 0x2
			return encodeS(opcodeFStore, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeS(word)
			addr := uint32(int32(st.X.Get(f.Rs1)) + f.Imm)
			if err := st.Mem.StoreWord(addr, st.F.GetBits(f.Rs2)); err != nil {
				return err
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})

	registerFBinOp("fadd.s", 0x00, func(a, b float32) float32 { return a + b })
	registerFBinOp("fsub.s", 0x04, func(a, b float32) float32 { return a - b })
	registerFBinOp("fmul.s", 0x08, func(a, b float32) float32 { return a * b })
	registerFBinOp("fdiv.s", 0x0c, func(a, b float32) float32 { return a / b })

	register(fUnaryDef("fsqrt.s", 0x2c, func(a float32) float32 { return float32(math.Sqrt(float64(a))) }))

	registerSignInject("fsgnj.s", 0x0, func(a, b uint32) uint32 { return (a &^ signBit) | (b & signBit) })
	registerSignInject("fsgnjn.s", 0x1, func(a, b uint32) uint32 { return (a &^ signBit) | (^b & signBit) })
	registerSignInject("fsgnjx.s", 0x2, func(a, b uint32) uint32 { return (a &^ signBit) | ((a ^ b) & signBit) })

	registerFMinMax("fmin.s", 0x0, func(a, b float32) float32 {
		if a < b {
			return a
		}
		return b
	})
	registerFMinMax("fmax.s", 0x1, func(a, b float32) float32 {
		if a > b {
			return a
		}
		return b
	})

	register(fcvtWS("fcvt.w.s", 0x00))
	register(fcvtWS("fcvt.wu.s", 0x01))
	register(fcvtSW("fcvt.s.w", 0x00))
	register(fcvtSW("fcvt.s.wu", 0x01))

	register(&Def{
		Mnemonic: "fmv.x.w",
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  2,
		RdClass:  ClassInt,
		Rs1Class: ClassFloat,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x70 && f.Funct3 == 0x0 },
		Encode: func(f Fields) uint32 {
			f.Funct7, f.Funct3 = 0x70, 0x0
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			st.X.Set(f.Rd, st.F.GetBits(f.Rs1))
			st.PC += jupiter.WordLength
			return nil
		},
	})

	register(&Def{
		Mnemonic: "fclass.s",
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  2,
		RdClass:  ClassInt,
		Rs1Class: ClassFloat,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x70 && f.Funct3 == 0x1 },
		Encode: func(f Fields) uint32 {
			f.Funct7, f.Funct3 = 0x70, 0x1
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			st.X.Set(f.Rd, classify(st.F.GetBits(f.Rs1)))
			st.PC += jupiter.WordLength
			return nil
		},
	})

	register(&Def{
		Mnemonic: "fmv.w.x",
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  2,
		RdClass:  ClassFloat,
		Rs1Class: ClassInt,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x78 },
		Encode: func(f Fields) uint32 {
			f.Funct7 = 0x78
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			st.F.SetBits(f.Rd, st.X.Get(f.Rs1))
			st.PC += jupiter.WordLength
			return nil
		},
	})

	registerFCompare("feq.s", 0x2, func(a, b float32) bool { return a == b })
	registerFCompare("flt.s", 0x1, func(a, b float32) bool { return a < b })
	registerFCompare("fle.s", 0x0, func(a, b float32) bool { return a <= b })

	registerFmaDef("fmadd.s", opcodeFmadd, func(a, b, c float32) float32 { return a*b + c })
	registerFmaDef("fmsub.s", opcodeFmsub, func(a, b, c float32) float32 { return a*b - c })
	registerFmaDef("fnmsub.s", opcodeFnmsub, func(a, b, c float32) float32 { return -(a*b - c) })
	registerFmaDef("fnmadd.s", opcodeFnmadd, func(a, b, c float32) float32 { return -(a*b + c) })
}

const signBit uint32 = 0x80000000

func registerFBinOp(mnemonic string, funct7 uint32, op func(a, b float32) float32) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  3,
		RdClass:  ClassFloat,
		Rs1Class: ClassFloat,
		Rs2Class: ClassFloat,
		Match:    func(word uint32) bool { return decodeR(word).Funct7 == funct7 },
		Encode: func(f Fields) uint32 {
			f.Funct7 = funct7
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			a, b := bitsToFloat(st.F.GetBits(f.Rs1)), bitsToFloat(st.F.GetBits(f.Rs2))
			st.F.SetBits(f.Rd, floatToBits(op(a, b)))
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

func fUnaryDef(mnemonic string, funct7 uint32, op func(a float32) float32) *Def {
	return &Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  2,
		RdClass:  ClassFloat,
		Rs1Class: ClassFloat,
		Match:    func(word uint32) bool { return decodeR(word).Funct7 == funct7 },
		Encode: func(f Fields) uint32 {
			f.Funct7 = funct7
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			a := bitsToFloat(st.F.GetBits(f.Rs1))
			st.F.SetBits(f.Rd, floatToBits(op(a)))
			st.PC += jupiter.WordLength
			return nil
		},
	}
}

func registerSignInject(mnemonic string, funct3 uint32, combine func(a, b uint32) uint32) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  3,
		RdClass:  ClassFloat,
		Rs1Class: ClassFloat,
		Rs2Class: ClassFloat,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x10 && f.Funct3 == funct3 },
		Encode: func(f Fields) uint32 {
			f.Funct7, f.Funct3 = 0x10, funct3
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			st.F.SetBits(f.Rd, combine(st.F.GetBits(f.Rs1), st.F.GetBits(f.Rs2)))
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

func registerFMinMax(mnemonic string, funct3 uint32, op func(a, b float32) float32) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  3,
		RdClass:  ClassFloat,
		Rs1Class: ClassFloat,
		Rs2Class: ClassFloat,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x14 && f.Funct3 == funct3 },
		Encode: func(f Fields) uint32 {
			f.Funct7, f.Funct3 = 0x14, funct3
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			a, b := bitsToFloat(st.F.GetBits(f.Rs1)), bitsToFloat(st.F.GetBits(f.Rs2))
			switch {
			case math.IsNaN(float64(a)) && math.IsNaN(float64(b)):
				st.F.SetBits(f.Rd, 0x7fc00000)
			case math.IsNaN(float64(a)):
				st.F.SetBits(f.Rd, floatToBits(b))
			case math.IsNaN(float64(b)):
				st.F.SetBits(f.Rd, floatToBits(a))
			default:
				st.F.SetBits(f.Rd, floatToBits(op(a, b)))
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

func registerFCompare(mnemonic string, funct3 uint32, op func(a, b float32) bool) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  3,
		RdClass:  ClassInt,
		Rs1Class: ClassFloat,
		Rs2Class: ClassFloat,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x50 && f.Funct3 == funct3 },
		Encode: func(f Fields) uint32 {
			f.Funct7, f.Funct3 = 0x50, funct3
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			a, b := bitsToFloat(st.F.GetBits(f.Rs1)), bitsToFloat(st.F.GetBits(f.Rs2))
			if op(a, b) {
				st.X.Set(f.Rd, 1)
			} else {
				st.X.Set(f.Rd, 0)
			}
			st.PC += jupiter.WordLength
			return nil
		},
	})
}

// fcvtWS converts a float to a signed (rs2=0) or unsigned (rs2=1) 32-bit
// integer with RISC-V's saturating-on-NaN/overflow rule, grounded on
// original_source's Fcvtws.java/Fcvtswu.java: an out-of-range or NaN
// source saturates to the representable extreme rather than trapping.
func fcvtWS(mnemonic string, rs2 int) *Def {
	return &Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  2,
		RdClass:  ClassInt,
		Rs1Class: ClassFloat,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x60 && f.Rs2 == rs2 },
		Encode: func(f Fields) uint32 {
			f.Funct7, f.Rs2 = 0x60, rs2
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			a := bitsToFloat(st.F.GetBits(f.Rs1))
			if rs2 == 1 {
				st.X.Set(f.Rd, floatToUnsigned(a))
			} else {
				st.X.Set(f.Rd, uint32(floatToSigned(a)))
			}
			st.PC += jupiter.WordLength
			return nil
		},
	}
}

func floatToSigned(a float32) int32 {
	switch {
	case math.IsNaN(float64(a)):
		return math.MaxInt32
	case a >= math.MaxInt32:
		return math.MaxInt32
	case a <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(math.RoundToEven(float64(a)))
	}
}

func floatToUnsigned(a float32) uint32 {
	switch {
	case math.IsNaN(float64(a)):
		return math.MaxUint32
	case a >= math.MaxUint32:
		return math.MaxUint32
	case a <= 0:
		return 0
	default:
		return uint32(math.RoundToEven(float64(a)))
	}
}

// fcvtSW converts a signed (rs2=0) or unsigned (rs2=1) 32-bit integer to
// float, grounded on the same Fcvtws.java family's inverse path.
func fcvtSW(mnemonic string, rs2 int) *Def {
	return &Def{
		Mnemonic: mnemonic,
		Format:   FormatR,
		Opcode:   opcodeFPOp,
		NumArgs:  2,
		RdClass:  ClassFloat,
		Rs1Class: ClassInt,
		Match:    func(word uint32) bool { f := decodeR(word); return f.Funct7 == 0x68 && f.Rs2 == rs2 },
		Encode: func(f Fields) uint32 {
			f.Funct7, f.Rs2 = 0x68, rs2
			return encodeR(opcodeFPOp, f)
		},
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR(word)
			raw := st.X.Get(f.Rs1)
			var v float32
			if rs2 == 1 {
				v = float32(raw)
			} else {
				v = float32(int32(raw))
			}
			st.F.SetBits(f.Rd, floatToBits(v))
			st.PC += jupiter.WordLength
			return nil
		},
	}
}

// classify implements fclass.s's ten-bit classification mask.
func classify(bits uint32) uint32 {
	sign := bits&signBit != 0
	exp := (bits >> 23) & 0xff
	mant := bits & 0x7fffff

	switch {
	case exp == 0xff && mant == 0:
		if sign {
			return 1 << 0 // -inf
		}
		return 1 << 7 // +inf
	case exp == 0xff:
		if mant&0x400000 == 0 {
			return 1 << 8 // signaling NaN
		}
		return 1 << 9 // quiet NaN
	case exp == 0 && mant == 0:
		if sign {
			return 1 << 3 // -0
		}
		return 1 << 4 // +0
	case exp == 0:
		if sign {
			return 1 << 2 // -subnormal
		}
		return 1 << 5 // +subnormal
	default:
		if sign {
			return 1 << 1 // -normal
		}
		return 1 << 6 // +normal
	}
}

func registerFmaDef(mnemonic string, opcode uint32, op func(a, b, c float32) float32) {
	register(&Def{
		Mnemonic: mnemonic,
		Format:   FormatR4,
		Opcode:   opcode,
		NumArgs:  4,
		RdClass:  ClassFloat,
		Rs1Class: ClassFloat,
		Rs2Class: ClassFloat,
		Rs3Class: ClassFloat,
		Match:    func(word uint32) bool { return true },
		Encode:   func(f Fields) uint32 { return encodeR4(opcode, f) },
		Execute: func(word uint32, st *jupiter.State) error {
			f := decodeR4(word)
			a := bitsToFloat(st.F.GetBits(f.Rs1))
			b := bitsToFloat(st.F.GetBits(f.Rs2))
			c := bitsToFloat(st.F.GetBits(f.Rs3))
			st.F.SetBits(f.Rd, floatToBits(op(a, b, c)))
			st.PC += jupiter.WordLength
			return nil
		},
	})
}
