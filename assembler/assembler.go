package assembler

import (
	"fmt"
	"strings"

	jupiter "github.com/inesrs/Jupiter"
	"github.com/inesrs/Jupiter/isa"
)

// farCallScratch is the register the auipc half of a call/tail/loadsym/
// storesym far reference uses to hold the PC-relative high bits (la's
// auipc writes its own rd instead), matching
// the bootstrap far call's own use of x6 in the linker (spec.md §4.2).
const farCallScratch = 6

// Assembler drives one source file through the pipeline of spec.md §4.1:
// lex, macro-expand, then a single walk that collects local symbols,
// expands pseudo-instructions and directives, and builds machine words
// into a TranslationUnit, leaving every symbolic operand as a pending
// Relocation for the linker to resolve. Grounded on
// dubcc/shared/assembler/assembler.go's FirstPass/SecondPass driver.
type Assembler struct {
	session *jupiter.Session
	tu      *TranslationUnit
	segment Segment
	errs    *jupiter.ErrorList

	equates        map[string]string
	pendingGlobals map[string]bool
}

// NewAssembler creates an Assembler bound to session's flags (bare mode,
// extrict mode).
func NewAssembler(session *jupiter.Session) *Assembler {
	return &Assembler{
		session:        session,
		equates:        make(map[string]string),
		pendingGlobals: make(map[string]bool),
	}
}

// Assemble lexes and builds one source file into a TranslationUnit. Every
// diagnostic encountered is accumulated into the returned ErrorList
// rather than aborting early (spec.md §7's accumulate-then-report
// policy); the caller should check HasErrors before handing the unit to
// the linker.
func (a *Assembler) Assemble(path, source string) (*TranslationUnit, *jupiter.ErrorList) {
	a.tu = newTranslationUnit(path)
	a.segment = SegText
	a.errs = jupiter.NewErrorList(a.session.Flags.Extrict)

	stmts := splitLines(path, source)
	stmts = expandMacros(stmts, a.errs)

	for _, st := range stmts {
		if st.Label != "" {
			a.defineLabel(st.Label, st.Debug)
		}
		if st.Op == "" {
			continue
		}
		if isDirective(st.Op) {
			a.applyDirective(st)
			continue
		}
		var real []statement
		if a.session.Flags.Bare {
			real = []statement{st}
		} else {
			real = a.expandPseudo(st)
		}
		for _, r := range real {
			a.buildStatement(r)
		}
	}

	for name := range a.pendingGlobals {
		sym, ok := a.tu.Symbols[name]
		if !ok {
			a.errorf(jupiter.DebugInfo{File: path}, "undefined global symbol %q", name)
			continue
		}
		sym.Global = true
		a.tu.Symbols[name] = sym
	}

	return a.tu, a.errs
}

func (a *Assembler) errorf(debug jupiter.DebugInfo, format string, args ...any) {
	a.errs.Add(jupiter.NewDiagnostic(jupiter.KindSemantic, debug, format, args...))
}

// defineLabel records name at the assembler's current segment cursor,
// reporting a duplicate-definition error if name was already defined in
// this unit (cross-unit duplicates are the linker's concern).
func (a *Assembler) defineLabel(name string, debug jupiter.DebugInfo) {
	if _, dup := a.tu.Symbols[name]; dup {
		a.errorf(debug, "duplicate label %q", name)
		return
	}
	a.tu.Symbols[name] = Symbol{
		Name:    name,
		Segment: a.segment,
		Offset:  a.tu.SizeOf(a.segment),
		IsBss:   a.segment == SegBSS,
	}
}

// buildStatement dispatches one already pseudo-expanded statement: the
// synthetic li.real/la.real/call.real/loadsym.real.*/storesym.real.* ops
// need relocation-pair bookkeeping beyond what a single isa.Def can
// express, so they're handled directly rather than through the registry.
func (a *Assembler) buildStatement(st statement) {
	switch {
	case st.Op == "li.real":
		a.buildLi(st)
	case st.Op == "la.real":
		a.buildFarAddr(st.Args[0], st.Args[1], st.Debug)
	case st.Op == "call.real":
		a.buildFarCall(st.Args[0], st.Args[1], st.Debug)
	case strings.HasPrefix(st.Op, "loadsym.real."):
		a.buildLoadStoreSym(strings.TrimPrefix(st.Op, "loadsym.real."), st.Args[0], st.Args[1], st.Debug, true)
	case strings.HasPrefix(st.Op, "storesym.real."):
		a.buildLoadStoreSym(strings.TrimPrefix(st.Op, "storesym.real."), st.Args[0], st.Args[1], st.Debug, false)
	default:
		a.buildInstruction(st)
	}
}

// buildLi expands a `li rd, imm` into a single addi when imm fits a
// signed 12-bit immediate, or a lui+addi pair otherwise, using
// jupiter.SplitHiLo's hi20/lo12 adjustment so the pair reconstructs imm
// exactly regardless of its low 12 bits' sign (spec.md §9 Open Question).
func (a *Assembler) buildLi(st statement) {
	rd, ok := jupiter.ResolveXRegister(st.Args[0])
	if !ok {
		a.errorf(st.Debug, "invalid register %q", st.Args[0])
		return
	}
	n, err := jupiter.ParseNumericLiteral(a.resolveEqu(st.Args[1]))
	if err != nil {
		a.errorf(st.Debug, "li requires a constant: %v", err)
		return
	}
	v := int32(n)
	if jupiter.FitsSigned(int64(v), 12) {
		a.emit("addi", isa.Fields{Rd: rd, Rs1: 0, Imm: v})
		return
	}
	hi20, lo12 := jupiter.SplitHiLo(v)
	a.emit("lui", isa.Fields{Rd: rd, Imm: hi20 << 12})
	a.emit("addi", isa.Fields{Rd: rd, Rs1: rd, Imm: lo12})
}

// buildFarAddr expands `la rd, symbol` into an auipc+addi pair sharing a
// PCREL_HI20/PCREL_LO12 relocation pair, per spec.md §4.1.
func (a *Assembler) buildFarAddr(rd, symbol string, debug jupiter.DebugInfo) {
	rdIdx, ok := jupiter.ResolveXRegister(rd)
	if !ok {
		a.errorf(debug, "invalid register %q", rd)
		return
	}
	hiOffset := a.emit("auipc", isa.Fields{Rd: rdIdx})
	a.tu.Relocations = append(a.tu.Relocations, Relocation{Kind: RelHi20, Segment: SegText, Offset: hiOffset, Symbol: symbol})
	loOffset := a.emit("addi", isa.Fields{Rd: rdIdx, Rs1: rdIdx})
	a.tu.Relocations = append(a.tu.Relocations, Relocation{Kind: RelLo12I, Segment: SegText, Offset: loOffset, Symbol: symbol, HiOffset: hiOffset})
}

// buildFarCall expands `call.real linkReg, symbol` (call: ra, tail: zero)
// into an auipc+jalr pair through the shared far-call scratch register.
func (a *Assembler) buildFarCall(linkReg, symbol string, debug jupiter.DebugInfo) {
	link, ok := jupiter.ResolveXRegister(linkReg)
	if !ok {
		a.errorf(debug, "invalid register %q", linkReg)
		return
	}
	hiOffset := a.emit("auipc", isa.Fields{Rd: farCallScratch})
	a.tu.Relocations = append(a.tu.Relocations, Relocation{Kind: RelHi20, Segment: SegText, Offset: hiOffset, Symbol: symbol})
	loOffset := a.emit("jalr", isa.Fields{Rd: link, Rs1: farCallScratch})
	a.tu.Relocations = append(a.tu.Relocations, Relocation{Kind: RelLo12I, Segment: SegText, Offset: loOffset, Symbol: symbol, HiOffset: hiOffset})
}

// buildLoadStoreSym expands a load/store whose memory operand is a bare
// symbol into an auipc+load-or-store pair. Stores always route through
// the shared far-call scratch register since there is no destination
// register to reuse as scratch; loads do the same for simplicity (a real
// assembler would reuse rd, but this keeps the expansion uniform and
// avoids the rd==x0 edge case).
func (a *Assembler) buildLoadStoreSym(mnemonic, regArg, symbol string, debug jupiter.DebugInfo, isLoad bool) {
	def, ok := isa.Lookup(mnemonic)
	if !ok {
		a.errorf(debug, "unknown instruction %q", mnemonic)
		return
	}
	class := def.RdClass
	if !isLoad {
		class = def.Rs2Class
	}
	reg, ok := a.regOf(regArg, class)
	if !ok {
		a.errorf(debug, "invalid register %q", regArg)
		return
	}
	hiOffset := a.emit("auipc", isa.Fields{Rd: farCallScratch})
	a.tu.Relocations = append(a.tu.Relocations, Relocation{Kind: RelHi20, Segment: SegText, Offset: hiOffset, Symbol: symbol})
	var fields isa.Fields
	if isLoad {
		fields = isa.Fields{Rd: reg, Rs1: farCallScratch}
	} else {
		fields = isa.Fields{Rs1: farCallScratch, Rs2: reg}
	}
	loOffset := a.emit(mnemonic, fields)
	a.tu.Relocations = append(a.tu.Relocations, Relocation{Kind: RelLo12I, Segment: SegText, Offset: loOffset, Symbol: symbol, HiOffset: hiOffset})
}

// emit encodes mnemonic with fields and appends it to the text segment,
// returning the byte offset it was placed at.
func (a *Assembler) emit(mnemonic string, fields isa.Fields) uint32 {
	word, ok := isa.Encode(mnemonic, fields)
	if !ok {
		panic(fmt.Sprintf("assembler: %q is not a registered instruction", mnemonic))
	}
	return a.tu.appendWord(SegText, word)
}

// buildInstruction parses st's operands per its Def's format and either
// encodes a fully-resolved word immediately, or encodes it with a zero
// placeholder immediate and records a Relocation when an operand names a
// label instead of a numeric literal.
func (a *Assembler) buildInstruction(st statement) {
	def, ok := isa.Lookup(st.Op)
	if !ok {
		a.errorf(st.Debug, "unknown instruction %q", st.Op)
		return
	}
	if len(st.Args) != def.NumArgs {
		a.errorf(st.Debug, "%s expects %d operand(s), got %d", st.Op, def.NumArgs, len(st.Args))
		return
	}
	fields, relocKind, symbol, err := a.parseOperands(def, st.Args)
	if err != nil {
		a.errorf(st.Debug, "%v", err)
		return
	}
	offset := a.emit(st.Op, fields)
	if symbol != "" {
		a.tu.Relocations = append(a.tu.Relocations, Relocation{Kind: relocKind, Segment: SegText, Offset: offset, Symbol: symbol})
	}
}

func (a *Assembler) regOf(tok string, class isa.RegClass) (int, bool) {
	switch class {
	case isa.ClassFloat:
		return jupiter.ResolveFRegister(tok)
	default:
		return jupiter.ResolveXRegister(tok)
	}
}

// parseImmOrSymbol resolves tok as a numeric literal (after one equ
// substitution); if that fails, tok is treated as a symbol reference.
func (a *Assembler) parseImmOrSymbol(tok string) (int32, string, error) {
	n, err := jupiter.ParseNumericLiteral(a.resolveEqu(tok))
	if err != nil {
		return 0, tok, nil
	}
	return int32(n), "", nil
}

// parseMem splits an "offset(base)" memory operand; offset may be empty
// (defaults to 0) or a numeric literal, never a symbol (bare-symbol mem
// operands are rewritten by expandPseudo before reaching here).
func (a *Assembler) parseMem(tok string) (int32, string, error) {
	open := strings.IndexByte(tok, '(')
	if open < 0 || !strings.HasSuffix(tok, ")") {
		return 0, "", fmt.Errorf("expected offset(base) operand, got %q", tok)
	}
	immPart := strings.TrimSpace(tok[:open])
	reg := strings.TrimSpace(tok[open+1 : len(tok)-1])
	if immPart == "" {
		return 0, reg, nil
	}
	n, err := jupiter.ParseNumericLiteral(a.resolveEqu(immPart))
	if err != nil {
		return 0, "", fmt.Errorf("invalid memory offset %q: %w", immPart, err)
	}
	return int32(n), reg, nil
}

// parseOperands resolves args into isa.Fields for def's format, returning
// a relocation kind and symbol name if one operand referenced a label.
func (a *Assembler) parseOperands(def *isa.Def, args []string) (isa.Fields, RelocKind, string, error) {
	switch def.Format {
	case isa.FormatR:
		return a.parseRFormat(def, args)
	case isa.FormatI:
		return a.parseIFormat(def, args)
	case isa.FormatS:
		rs2, ok := a.regOf(args[0], def.Rs2Class)
		if !ok {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register %q", args[0])
		}
		imm, reg, err := a.parseMem(args[1])
		if err != nil {
			return isa.Fields{}, 0, "", err
		}
		rs1, ok := jupiter.ResolveXRegister(reg)
		if !ok {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid base register %q", reg)
		}
		return isa.Fields{Rs1: rs1, Rs2: rs2, Imm: imm}, 0, "", nil
	case isa.FormatB:
		rs1, ok1 := jupiter.ResolveXRegister(args[0])
		rs2, ok2 := jupiter.ResolveXRegister(args[1])
		if !ok1 || !ok2 {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register operand in %v", args[:2])
		}
		imm, sym, err := a.parseImmOrSymbol(args[2])
		if err != nil {
			return isa.Fields{}, 0, "", err
		}
		if sym != "" {
			return isa.Fields{Rs1: rs1, Rs2: rs2}, RelBranch, sym, nil
		}
		return isa.Fields{Rs1: rs1, Rs2: rs2, Imm: imm}, 0, "", nil
	case isa.FormatU:
		rd, ok := jupiter.ResolveXRegister(args[0])
		if !ok {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register %q", args[0])
		}
		imm, sym, err := a.parseImmOrSymbol(args[1])
		if err != nil {
			return isa.Fields{}, 0, "", err
		}
		if sym != "" {
			return isa.Fields{Rd: rd}, RelHi20, sym, nil
		}
		return isa.Fields{Rd: rd, Imm: imm << 12}, 0, "", nil
	case isa.FormatJ:
		rd, ok := jupiter.ResolveXRegister(args[0])
		if !ok {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register %q", args[0])
		}
		imm, sym, err := a.parseImmOrSymbol(args[1])
		if err != nil {
			return isa.Fields{}, 0, "", err
		}
		if sym != "" {
			return isa.Fields{Rd: rd}, RelJal, sym, nil
		}
		return isa.Fields{Rd: rd, Imm: imm}, 0, "", nil
	}
	return isa.Fields{}, 0, "", fmt.Errorf("unsupported instruction format")
}

func (a *Assembler) parseRFormat(def *isa.Def, args []string) (isa.Fields, RelocKind, string, error) {
	switch def.NumArgs {
	case 4:
		rd, ok1 := a.regOf(args[0], def.RdClass)
		rs1, ok2 := a.regOf(args[1], def.Rs1Class)
		rs2, ok3 := a.regOf(args[2], def.Rs2Class)
		rs3, ok4 := a.regOf(args[3], def.Rs3Class)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register operand in %v", args)
		}
		return isa.Fields{Rd: rd, Rs1: rs1, Rs2: rs2, Rs3: rs3}, 0, "", nil
	case 2:
		rd, ok1 := a.regOf(args[0], def.RdClass)
		rs1, ok2 := a.regOf(args[1], def.Rs1Class)
		if !ok1 || !ok2 {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register operand in %v", args)
		}
		return isa.Fields{Rd: rd, Rs1: rs1}, 0, "", nil
	default:
		rd, ok1 := a.regOf(args[0], def.RdClass)
		rs1, ok2 := a.regOf(args[1], def.Rs1Class)
		rs2, ok3 := a.regOf(args[2], def.Rs2Class)
		if !ok1 || !ok2 || !ok3 {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register operand in %v", args)
		}
		return isa.Fields{Rd: rd, Rs1: rs1, Rs2: rs2}, 0, "", nil
	}
}

func (a *Assembler) parseIFormat(def *isa.Def, args []string) (isa.Fields, RelocKind, string, error) {
	if def.NumArgs == 0 {
		return isa.Fields{}, 0, "", nil
	}
	if loadStoreMnemonics[def.Mnemonic] && !isStoreMnemonic(def.Mnemonic) {
		rd, ok := a.regOf(args[0], def.RdClass)
		if !ok {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid register %q", args[0])
		}
		imm, reg, err := a.parseMem(args[1])
		if err != nil {
			return isa.Fields{}, 0, "", err
		}
		rs1, ok := jupiter.ResolveXRegister(reg)
		if !ok {
			return isa.Fields{}, 0, "", fmt.Errorf("invalid base register %q", reg)
		}
		return isa.Fields{Rd: rd, Rs1: rs1, Imm: imm}, 0, "", nil
	}
	rd, ok1 := a.regOf(args[0], def.RdClass)
	rs1, ok2 := a.regOf(args[1], def.Rs1Class)
	if !ok1 || !ok2 {
		return isa.Fields{}, 0, "", fmt.Errorf("invalid register operand in %v", args[:2])
	}
	imm, sym, err := a.parseImmOrSymbol(args[2])
	if err != nil {
		return isa.Fields{}, 0, "", err
	}
	if sym != "" {
		return isa.Fields{Rd: rd, Rs1: rs1}, RelLo12I, sym, nil
	}
	return isa.Fields{Rd: rd, Rs1: rs1, Imm: imm}, 0, "", nil
}
