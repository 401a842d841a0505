package jupiter

import "fmt"

// DebugInfo carries the source location of a diagnostic or statement:
// file name, 1-based line number and the original source text, mirroring
// original_source's DebugInfo(line, source, filename) used throughout the
// assembler and linker.
type DebugInfo struct {
	File   string
	Line   int
	Source string
}

func (d DebugInfo) String() string {
	if d.File == "" {
		return fmt.Sprintf("line %d: %s", d.Line, d.Source)
	}
	return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Source)
}

// Kind distinguishes the diagnostic taxonomy of spec.md §7.
type Kind int

const (
	KindLex Kind = iota
	KindParse
	KindSemantic
	KindLink
	KindWarning
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindParse:
		return "parse error"
	case KindSemantic:
		return "semantic error"
	case KindLink:
		return "link error"
	case KindWarning:
		return "warning"
	default:
		return "error"
	}
}

// Diagnostic is one collected assembler/linker error or warning, carrying
// message, kind and location, per spec.md §7.
type Diagnostic struct {
	Kind    Kind
	Message string
	Debug   DebugInfo
}

func (d *Diagnostic) Error() string {
	if d.Debug.File == "" && d.Debug.Line == 0 {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Debug, d.Message)
}

// NewDiagnostic constructs a Diagnostic of the given kind.
func NewDiagnostic(kind Kind, debug DebugInfo, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Debug: debug}
}

// ErrorList accumulates diagnostics across an assembler or linker phase,
// generalizing dubcc/shared's one-field ErrorList stub into the real
// accumulate-then-report policy of spec.md §7: a phase collects every
// diagnostic it finds and the pipeline only aborts between phases.
type ErrorList struct {
	Diagnostics []*Diagnostic
	extrict     bool
}

// NewErrorList creates an accumulator. When extrict is true, warnings are
// promoted to errors (spec.md §7, §9 "Extrict mode").
func NewErrorList(extrict bool) *ErrorList {
	return &ErrorList{extrict: extrict}
}

// Add records a diagnostic. A KindWarning diagnostic is promoted to
// KindSemantic when the list is running in extrict mode.
func (l *ErrorList) Add(d *Diagnostic) {
	if d.Kind == KindWarning && l.extrict {
		d.Kind = KindSemantic
	}
	l.Diagnostics = append(l.Diagnostics, d)
}

// HasErrors reports whether any accumulated diagnostic is not a warning.
func (l *ErrorList) HasErrors() bool {
	for _, d := range l.Diagnostics {
		if d.Kind != KindWarning {
			return true
		}
	}
	return false
}

func (l *ErrorList) Error() string {
	out := ""
	for i, d := range l.Diagnostics {
		if i > 0 {
			out += "\n"
		}
		out += d.Error()
	}
	return out
}

// SimulationFault is the runtime fault taxonomy of spec.md §7: raised by
// instruction executors, caught by the simulation driver, and reported to
// the host, which decides whether to continue.
type SimulationFault struct {
	Kind    FaultKind
	Address uint32
	Read    bool
	Code    int32
	Message string
}

// FaultKind enumerates the SimulationFault variants of spec.md §7.
type FaultKind int

const (
	FaultBreakpoint FaultKind = iota
	FaultHalt
	FaultInvalidAddress
	FaultIllegalInstruction
)

func (f *SimulationFault) Error() string {
	switch f.Kind {
	case FaultBreakpoint:
		return "breakpoint"
	case FaultHalt:
		return fmt.Sprintf("halt(%d)", f.Code)
	case FaultInvalidAddress:
		verb := "write"
		if f.Read {
			verb = "read"
		}
		return fmt.Sprintf("invalid address 0x%08x (%s)", f.Address, verb)
	case FaultIllegalInstruction:
		return fmt.Sprintf("illegal instruction: %s", f.Message)
	default:
		return "simulation fault"
	}
}
