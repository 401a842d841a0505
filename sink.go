package jupiter

// ChangeSink is the abstract observer interface named in spec.md §9: the
// core never notifies a GUI directly (no Swing PropertyChangeListener
// equivalent baked into Memory/Cache/register files), it only feeds typed
// events to whatever sink the host registers. A host (GUI or CLI) is the
// only producer of sinks; events are emitted by the register files,
// memory and cache themselves as their contents change.
type ChangeSink interface {
	RegisterChanged(file RegisterFileKind, index int, value uint32)
	MemoryChanged(address uint32, value byte)
	CacheBlockStateChanged(index int, state BlockState)
}

// RegisterFileKind distinguishes the integer and floating-point register
// files in a RegisterChanged event.
type RegisterFileKind int

const (
	IntegerRegisterFile RegisterFileKind = iota
	FloatRegisterFile
)

// BlockState is the three-valued cache block state reported to a sink:
// "hit", "miss", or "empty" (pre-access / post-reset), mirroring the
// string states original_source's Cache.java fires as property changes.
type BlockState int

const (
	BlockEmpty BlockState = iota
	BlockHit
	BlockMiss
)

func (s BlockState) String() string {
	switch s {
	case BlockHit:
		return "hit"
	case BlockMiss:
		return "miss"
	default:
		return "empty"
	}
}

// NopSink discards every event; it is the default sink when a caller
// doesn't need observation (e.g. batch `jas`/`jld` runs or tests).
type NopSink struct{}

func (NopSink) RegisterChanged(RegisterFileKind, int, uint32) {}
func (NopSink) MemoryChanged(uint32, byte)                    {}
func (NopSink) CacheBlockStateChanged(int, BlockState)        {}

// MultiSink fans a single event stream out to multiple sinks, e.g. a GUI
// sink and a recording sink for tests.
type MultiSink []ChangeSink

func (m MultiSink) RegisterChanged(file RegisterFileKind, index int, value uint32) {
	for _, s := range m {
		s.RegisterChanged(file, index, value)
	}
}

func (m MultiSink) MemoryChanged(address uint32, value byte) {
	for _, s := range m {
		s.MemoryChanged(address, value)
	}
}

func (m MultiSink) CacheBlockStateChanged(index int, state BlockState) {
	for _, s := range m {
		s.CacheBlockStateChanged(index, state)
	}
}
