package assembler

import (
	"strings"

	jupiter "github.com/inesrs/Jupiter"
)

// isDirective reports whether op names one of the assembler directives
// this package understands, as opposed to a mnemonic or macro invocation.
func isDirective(op string) bool {
	switch op {
	case ".text", ".data", ".rodata", ".bss", ".section",
		".globl", ".global", ".align", ".byte", ".half", ".word",
		".float", ".ascii", ".asciiz", ".string", ".space", ".equ":
		return true
	}
	return false
}

// applyDirective executes one directive against the assembler's current
// segment cursor and symbol/equate tables.
func (a *Assembler) applyDirective(st statement) {
	switch st.Op {
	case ".text":
		a.segment = SegText
	case ".data":
		a.segment = SegData
	case ".rodata":
		a.segment = SegRodata
	case ".bss":
		a.segment = SegBSS
	case ".section":
		a.applySection(st)
	case ".globl", ".global":
		if len(st.Args) == 1 {
			a.pendingGlobals[st.Args[0]] = true
		}
	case ".align":
		a.applyAlign(st)
	case ".byte":
		a.applyInts(st, 1)
	case ".half":
		a.applyInts(st, 2)
	case ".word":
		a.applyWords(st)
	case ".float":
		a.applyFloats(st)
	case ".ascii":
		a.applyAscii(st, false)
	case ".asciiz", ".string":
		a.applyAscii(st, true)
	case ".space":
		a.applySpace(st)
	case ".equ":
		a.applyEqu(st)
	}
}

func (a *Assembler) applySection(st statement) {
	if len(st.Args) == 0 {
		return
	}
	switch strings.TrimPrefix(st.Args[0], ".") {
	case "text":
		a.segment = SegText
	case "data":
		a.segment = SegData
	case "rodata":
		a.segment = SegRodata
	case "bss":
		a.segment = SegBSS
	}
}

func (a *Assembler) applyAlign(st statement) {
	if len(st.Args) != 1 {
		a.errorf(st.Debug, ".align requires exactly one operand")
		return
	}
	n, err := jupiter.ParseNumericLiteral(st.Args[0])
	if err != nil {
		a.errorf(st.Debug, "invalid .align operand: %v", err)
		return
	}
	a.tu.align(a.segment, uint(n))
}

func (a *Assembler) applyInts(st statement, width int) {
	for _, arg := range st.Args {
		n, err := jupiter.ParseNumericLiteral(a.resolveEqu(arg))
		if err != nil {
			a.errorf(st.Debug, "invalid integer literal %q: %v", arg, err)
			continue
		}
		buf := make([]byte, width)
		for i := 0; i < width; i++ {
			buf[i] = byte(n >> (8 * i))
		}
		if a.segment == SegBSS {
			a.tu.reserve(uint32(width))
			continue
		}
		a.tu.appendBytes(a.segment, buf)
	}
}

func (a *Assembler) applyWords(st statement) {
	for _, arg := range st.Args {
		if a.segment == SegBSS {
			a.tu.reserve(4)
			continue
		}
		if sym, ok := a.localSymbol(arg); ok {
			_ = sym
			offset := a.tu.appendWord(a.segment, 0)
			a.tu.Relocations = append(a.tu.Relocations, Relocation{
				Kind: RelAbsWord, Segment: a.segment, Offset: offset, Symbol: arg,
			})
			continue
		}
		n, err := jupiter.ParseNumericLiteral(a.resolveEqu(arg))
		if err != nil {
			offset := a.tu.appendWord(a.segment, 0)
			a.tu.Relocations = append(a.tu.Relocations, Relocation{
				Kind: RelAbsWord, Segment: a.segment, Offset: offset, Symbol: arg,
			})
			continue
		}
		a.tu.appendWord(a.segment, uint32(n))
	}
}

func (a *Assembler) applyFloats(st statement) {
	for _, arg := range st.Args {
		bits, err := parseFloatLiteral(arg)
		if err != nil {
			a.errorf(st.Debug, "invalid float literal %q: %v", arg, err)
			continue
		}
		if a.segment == SegBSS {
			a.tu.reserve(4)
			continue
		}
		a.tu.appendWord(a.segment, bits)
	}
}

func (a *Assembler) applyAscii(st statement, nulTerminate bool) {
	for _, arg := range st.Args {
		s, err := unquote(arg)
		if err != nil {
			a.errorf(st.Debug, "invalid string literal %q: %v", arg, err)
			continue
		}
		data := []byte(s)
		if nulTerminate {
			data = append(data, 0)
		}
		if a.segment == SegBSS {
			a.tu.reserve(uint32(len(data)))
			continue
		}
		a.tu.appendBytes(a.segment, data)
	}
}

func (a *Assembler) applySpace(st statement) {
	if len(st.Args) != 1 {
		a.errorf(st.Debug, ".space requires exactly one operand")
		return
	}
	n, err := jupiter.ParseNumericLiteral(st.Args[0])
	if err != nil {
		a.errorf(st.Debug, "invalid .space operand: %v", err)
		return
	}
	if a.segment == SegBSS {
		a.tu.reserve(uint32(n))
		return
	}
	a.tu.appendBytes(a.segment, make([]byte, n))
}

func (a *Assembler) applyEqu(st statement) {
	if len(st.Args) != 2 {
		a.errorf(st.Debug, ".equ requires a name and a value")
		return
	}
	a.equates[st.Args[0]] = st.Args[1]
}

func (a *Assembler) resolveEqu(tok string) string {
	if v, ok := a.equates[tok]; ok {
		return v
	}
	return tok
}

func (a *Assembler) localSymbol(name string) (Symbol, bool) {
	s, ok := a.tu.Symbols[name]
	return s, ok
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", jupiter.NewDiagnostic(jupiter.KindLex, jupiter.DebugInfo{}, "expected quoted string, got %q", s)
	}
	inner := s[1 : len(s)-1]
	var out strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case '0':
				out.WriteByte(0)
			case '\\':
				out.WriteByte('\\')
			case '"':
				out.WriteByte('"')
			default:
				out.WriteByte(inner[i])
			}
			continue
		}
		out.WriteByte(c)
	}
	return out.String(), nil
}
