package assembler

import "strings"

// loadStoreMnemonics is every real load/store mnemonic that can take a
// bare symbol operand instead of offset(base) syntax; expandPseudo turns
// that bare-symbol form into an auipc-based far reference (spec.md §4.1's
// "loads/stores of labels" pseudo-op).
var loadStoreMnemonics = map[string]bool{
	"lb": true, "lh": true, "lw": true, "lbu": true, "lhu": true, "flw": true,
	"sb": true, "sh": true, "sw": true, "fsw": true,
}

// pseudoArity gives the exact operand count expandPseudo requires of each
// pseudo-op it rewrites, checked up front so a malformed line like "li x1"
// accumulates a diagnostic instead of panicking on an out-of-range index.
var pseudoArity = map[string]int{
	"nop": 0, "ret": 0,
	"li": 2, "la": 2, "mv": 2, "not": 2, "neg": 2,
	"seqz": 2, "snez": 2, "sltz": 2, "sgtz": 2,
	"beqz": 2, "bnez": 2, "blez": 2, "bgez": 2, "bltz": 2, "bgtz": 2,
	"bgt": 3, "ble": 3, "bgtu": 3, "bleu": 3,
	"j": 1, "jr": 1, "call": 1, "tail": 1,
	"fmv.s": 2, "fabs.s": 2, "fneg.s": 2,
}

func isStoreMnemonic(m string) bool {
	switch m {
	case "sb", "sh", "sw", "fsw":
		return true
	}
	return false
}

// expandPseudo rewrites one pseudo-instruction statement into the real
// instruction(s) it stands for (spec.md §4.1's pseudo-op table), each
// carrying the original statement's debug info so diagnostics still point
// at the line the user wrote. Real instructions pass through unchanged.
func (a *Assembler) expandPseudo(st statement) []statement {
	if want, ok := pseudoArity[st.Op]; ok && len(st.Args) != want {
		a.errorf(st.Debug, "%s expects %d operand(s), got %d", st.Op, want, len(st.Args))
		return nil
	}
	expand := func(op string, args ...string) statement {
		return statement{Op: op, Args: args, Debug: st.Debug}
	}
	args := st.Args
	if loadStoreMnemonics[st.Op] && len(args) == 2 && !strings.Contains(args[1], "(") {
		kind := "loadsym.real."
		if isStoreMnemonic(st.Op) {
			kind = "storesym.real."
		}
		return []statement{expand(kind+st.Op, args[0], args[1])}
	}
	switch st.Op {
	case "nop":
		return []statement{expand("addi", "zero", "zero", "0")}
	case "li":
		return []statement{expand("li.real", args[0], args[1])}
	case "la":
		return []statement{expand("la.real", args[0], args[1])}
	case "mv":
		return []statement{expand("addi", args[0], args[1], "0")}
	case "not":
		return []statement{expand("xori", args[0], args[1], "-1")}
	case "neg":
		return []statement{expand("sub", args[0], "zero", args[1])}
	case "seqz":
		return []statement{expand("sltiu", args[0], args[1], "1")}
	case "snez":
		return []statement{expand("sltu", args[0], "zero", args[1])}
	case "sltz":
		return []statement{expand("slt", args[0], args[1], "zero")}
	case "sgtz":
		return []statement{expand("slt", args[0], "zero", args[1])}
	case "beqz":
		return []statement{expand("beq", args[0], "zero", args[1])}
	case "bnez":
		return []statement{expand("bne", args[0], "zero", args[1])}
	case "blez":
		return []statement{expand("bge", "zero", args[0], args[1])}
	case "bgez":
		return []statement{expand("bge", args[0], "zero", args[1])}
	case "bltz":
		return []statement{expand("blt", args[0], "zero", args[1])}
	case "bgtz":
		return []statement{expand("blt", "zero", args[0], args[1])}
	case "bgt":
		return []statement{expand("blt", args[1], args[0], args[2])}
	case "ble":
		return []statement{expand("bge", args[1], args[0], args[2])}
	case "bgtu":
		return []statement{expand("bltu", args[1], args[0], args[2])}
	case "bleu":
		return []statement{expand("bgeu", args[1], args[0], args[2])}
	case "j":
		return []statement{expand("jal", "zero", args[0])}
	case "jr":
		return []statement{expand("jalr", "zero", args[0], "0")}
	case "ret":
		return []statement{expand("jalr", "zero", "ra", "0")}
	case "call":
		return []statement{expand("call.real", "ra", args[0])}
	case "tail":
		return []statement{expand("call.real", "zero", args[0])}
	case "fmv.s":
		return []statement{expand("fsgnj.s", args[0], args[1], args[1])}
	case "fabs.s":
		return []statement{expand("fsgnjx.s", args[0], args[1], args[1])}
	case "fneg.s":
		return []statement{expand("fsgnjn.s", args[0], args[1], args[1])}
	default:
		return []statement{st}
	}
}
