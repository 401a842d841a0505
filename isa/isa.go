package isa

import (
	"fmt"

	jupiter "github.com/inesrs/Jupiter"
)

// RegClass distinguishes which register file an operand slot of a Def
// addresses.
type RegClass int

const (
	ClassNone RegClass = iota
	ClassInt
	ClassFloat
)

// Def is one entry of the instruction registry: format, fixed-field
// values, an encoder, a decode-time matcher and an executor. This is the
// "tabular registry of (mnemonic -> {format, opcode, funct3, funct7,
// encode_fn, execute_fn})" spec.md §9 asks for, in place of one Go type
// per instruction.
type Def struct {
	Mnemonic string
	Format   Format
	Opcode   uint32
	NumArgs  int

	RdClass, Rs1Class, Rs2Class, Rs3Class RegClass

	// Match reports whether a decoded machine word is this instruction;
	// registered in opcode order and consulted on the first opcode
	// match, since several mnemonics share one opcode and are only told
	// apart by funct3/funct7/rs2 (e.g. the whole F extension shares
	// opcode 0x53).
	Match func(word uint32) bool

	// Encode builds the 32-bit word from fully-resolved fields (register
	// numbers and a ready-to-encode immediate — relocation has already
	// happened by this point).
	Encode func(Fields) uint32

	// Execute runs the instruction against architectural state and
	// advances the PC by 4 unless it is a taken branch/jump/trap.
	Execute func(word uint32, st *jupiter.State) error
}

var registry = map[string]*Def{}
var order []*Def // registration order, scanned by Decode

func register(d *Def) {
	registry[d.Mnemonic] = d
	order = append(order, d)
}

// Lookup returns the Def for mnemonic, if any.
func Lookup(mnemonic string) (*Def, bool) {
	d, ok := registry[mnemonic]
	return d, ok
}

// Mnemonics returns every registered mnemonic, for diagnostics and tests.
func Mnemonics() []string {
	out := make([]string, 0, len(registry))
	for m := range registry {
		out = append(out, m)
	}
	return out
}

// Decode finds the mnemonic and Def matching a machine word, along with
// its decoded fields. Used by the disassembler and by the simulation
// driver's illegal-instruction check.
func Decode(word uint32) (*Def, Fields, bool) {
	opcode := decodeOpcode(word)
	for _, d := range order {
		if d.Opcode != opcode {
			continue
		}
		if d.Match(word) {
			return d, decodeByFormat(d.Format, word), true
		}
	}
	return nil, Fields{}, false
}

func decodeByFormat(f Format, word uint32) Fields {
	switch f {
	case FormatR:
		return decodeR(word)
	case FormatR4:
		return decodeR4(word)
	case FormatI:
		return decodeI(word)
	case FormatS:
		return decodeS(word)
	case FormatB:
		return decodeB(word)
	case FormatU:
		return decodeU(word)
	case FormatJ:
		return decodeJ(word)
	}
	panic(fmt.Sprintf("isa: unknown format %d", f))
}

// Encode builds the machine word for mnemonic from fields, failing if the
// mnemonic is unregistered.
func Encode(mnemonic string, f Fields) (uint32, bool) {
	d, ok := registry[mnemonic]
	if !ok {
		return 0, false
	}
	return d.Encode(f), true
}

// Execute decodes word and runs its executor against st. Returns an
// IllegalInstruction-shaped error if no registered mnemonic matches.
func Execute(word uint32, st *jupiter.State) error {
	d, _, ok := Decode(word)
	if !ok {
		return &jupiter.SimulationFault{Kind: jupiter.FaultIllegalInstruction,
			Message: fmt.Sprintf("no instruction matches word 0x%08x", word)}
	}
	return d.Execute(word, st)
}
