package assembler

import (
	"strings"

	"golang.org/x/text/cases"

	jupiter "github.com/inesrs/Jupiter"
)

// foldCaser normalizes mnemonics and directive names so `ADD`/`add` and
// `.WORD`/`.word` lex identically; labels and string/operand text are left
// untouched since RISC-V symbol names are case-sensitive.
var foldCaser = cases.Fold()

// statement is one parsed source line: an optional label, an optional
// mnemonic/directive with its raw argument text, and the debug info used
// to annotate diagnostics. Grounded on dubcc/shared/assembler's InLine,
// generalized from its fixed-field machine-line format to RISC-V's
// free-form operand lists.
type statement struct {
	Label string
	Op    string
	Args  []string
	Debug jupiter.DebugInfo
}

// splitLines runs the line-oriented lexical pass: strip comments, split
// each line on an optional leading "label:", and tokenize the remaining
// mnemonic/directive and its comma-separated operands.
func splitLines(path, source string) []statement {
	var out []statement
	for i, raw := range strings.Split(source, "\n") {
		lineNo := i + 1
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		debug := jupiter.DebugInfo{File: path, Line: lineNo, Source: strings.TrimSpace(raw)}

		label := ""
		for {
			idx := strings.IndexByte(line, ':')
			if idx < 0 {
				break
			}
			candidate := strings.TrimSpace(line[:idx])
			if candidate == "" || strings.ContainsAny(candidate, " \t") {
				break
			}
			label = candidate
			line = strings.TrimSpace(line[idx+1:])
			if line == "" {
				break
			}
			continue
		}

		if line == "" {
			out = append(out, statement{Label: label, Debug: debug})
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		op := foldCaser.String(strings.TrimSpace(fields[0]))
		var args []string
		if len(fields) == 2 {
			args = splitOperands(fields[1])
		}
		out = append(out, statement{Label: label, Op: op, Args: args, Debug: debug})
	}
	return out
}

// stripComment removes a trailing "#" or ";" comment, respecting quoted
// strings so a '#' inside a .string/.ascii literal is not mistaken for one.
func stripComment(line string) string {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case '#', ';':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

// splitOperands splits a comma-separated operand list while keeping
// quoted strings and parenthesized base-register syntax ("4(sp)") intact.
func splitOperands(text string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	inQuotes := false
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case inQuotes:
			cur.WriteByte(c)
		case c == '(':
			depth++
			cur.WriteByte(c)
		case c == ')':
			depth--
			cur.WriteByte(c)
		case c == ',' && depth == 0:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}
