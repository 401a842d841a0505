package jupiter

// ReplacePolicy selects the cache simulator's block replacement strategy.
type ReplacePolicy int

const (
	LRU ReplacePolicy = iota
	FIFO
	RAND
)

func (p ReplacePolicy) String() string {
	switch p {
	case LRU:
		return "LRU"
	case FIFO:
		return "FIFO"
	case RAND:
		return "RAND"
	default:
		return "UNKNOWN"
	}
}

// Flags holds every cross-cutting configuration knob named in spec.md §6,
// grounded on original_source's vsim.Flags. Unlike the Java original this
// is never a package-level global: a Session owns one and passes it
// explicitly to the assembler, linker and simulator.
type Flags struct {
	// Bare disables pseudo-instruction expansion ("bare machine mode").
	Bare bool
	// Extrict promotes assembler/linker warnings to errors.
	Extrict bool
	// SelfModifying inverts the text-segment write-protection rule.
	SelfModifying bool
	// Debug enables verbose step-by-step tracing in the simulator.
	Debug bool
	// Entry names the program's entry symbol (default "__start").
	Entry string
	// HistorySize bounds the number of back-step entries retained.
	HistorySize int

	// CacheBlockSize, CacheNumBlocks and CacheAssociativity configure the
	// cache simulator; all three must be powers of two and
	// CacheAssociativity <= CacheNumBlocks.
	CacheBlockSize     int
	CacheNumBlocks     int
	CacheAssociativity int
	CacheReplace       ReplacePolicy
}

// DefaultFlags returns the configuration defaults listed in spec.md §6.
func DefaultFlags() Flags {
	return Flags{
		Bare:               false,
		Extrict:            true,
		SelfModifying:      false,
		Debug:              false,
		Entry:              "__start",
		HistorySize:        2000,
		CacheBlockSize:     4,
		CacheNumBlocks:     4,
		CacheAssociativity: 1,
		CacheReplace:       LRU,
	}
}

// Session is the process-wide mutable state lifted into a value owned by
// the caller (spec.md §9): it carries configuration plus whatever global
// symbol/flag registries the assembler and linker need, and is passed
// explicitly rather than referenced through package globals.
type Session struct {
	Flags Flags
}

// NewSession creates a session with default flags.
func NewSession() *Session {
	s := &Session{Flags: DefaultFlags()}
	return s
}
