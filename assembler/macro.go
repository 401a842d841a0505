package assembler

import (
	"fmt"
	"strings"

	jupiter "github.com/inesrs/Jupiter"
)

// macroDef is one .macro/.endm block, grounded on
// dubcc/shared/macroprocessor's GND/META/BODY state machine: a name, its
// formal parameters and the raw statements between .macro and .endm.
type macroDef struct {
	name   string
	params []string
	body   []statement
}

const maxMacroExpansionDepth = 32

// expandMacros strips every .macro/.endm block out of stmts and inlines
// each call to a defined macro, substituting its formal parameters
// textually into the operand list of every statement in its body —
// the same textual-substitution model dubcc's macroprocessor uses,
// carried over unit change since RV32IMF's directive set gained no new
// macro semantics.
func expandMacros(stmts []statement, errs *jupiter.ErrorList) []statement {
	defs := map[string]*macroDef{}
	var rest []statement

	state := "gnd"
	var cur *macroDef
	for _, st := range stmts {
		switch state {
		case "gnd":
			if st.Op == ".macro" {
				if len(st.Args) == 0 {
					errs.Add(jupiter.NewDiagnostic(jupiter.KindParse, st.Debug, ".macro requires a name"))
					state = "skip"
					continue
				}
				cur = &macroDef{name: st.Args[0], params: st.Args[1:]}
				state = "body"
				continue
			}
			rest = append(rest, st)
		case "body":
			if st.Op == ".endm" {
				defs[cur.name] = cur
				cur = nil
				state = "gnd"
				continue
			}
			cur.body = append(cur.body, st)
		case "skip":
			if st.Op == ".endm" {
				state = "gnd"
			}
		}
	}

	return expandMacroCalls(rest, defs, errs, 0)
}

func expandMacroCalls(stmts []statement, defs map[string]*macroDef, errs *jupiter.ErrorList, depth int) []statement {
	if depth > maxMacroExpansionDepth {
		errs.Add(jupiter.NewDiagnostic(jupiter.KindParse, jupiter.DebugInfo{}, "macro expansion exceeded maximum depth (possible recursion)"))
		return nil
	}
	var out []statement
	for _, st := range stmts {
		def, ok := defs[st.Op]
		if !ok {
			out = append(out, st)
			continue
		}
		if len(st.Args) != len(def.params) {
			errs.Add(jupiter.NewDiagnostic(jupiter.KindParse, st.Debug,
				"macro %s expects %d argument(s), got %d", def.name, len(def.params), len(st.Args)))
			continue
		}
		subst := make(map[string]string, len(def.params))
		for i, p := range def.params {
			subst[p] = st.Args[i]
		}
		expanded := make([]statement, len(def.body))
		for i, bodyStmt := range def.body {
			expanded[i] = substituteArgs(bodyStmt, subst)
		}
		out = append(out, expandMacroCalls(expanded, defs, errs, depth+1)...)
	}
	return out
}

func substituteArgs(st statement, subst map[string]string) statement {
	args := make([]string, len(st.Args))
	for i, a := range st.Args {
		args[i] = substituteToken(a, subst)
	}
	label := st.Label
	if v, ok := subst[label]; ok {
		label = v
	}
	return statement{Label: label, Op: st.Op, Args: args, Debug: st.Debug}
}

func substituteToken(tok string, subst map[string]string) string {
	for param, value := range subst {
		if tok == param {
			return value
		}
		// allow a parameter to appear inside base-register syntax, e.g. "off(%reg)"
		tok = strings.ReplaceAll(tok, fmt.Sprintf("%%%s", param), value)
	}
	return tok
}
