package jupiter

// Memory is the sparse byte-addressable main store (spec.md §3, §4.4),
// grounded on original_source's Memory.java: a map from address to byte
// (default zero on unread locations), a cache simulator layered in
// front of every public access, and a diff captured for the history
// subsystem.
type Memory struct {
	bytes map[uint32]byte
	diff  map[uint32]byte

	textEnd     uint32
	rodataBegin uint32
	rodataEnd   uint32
	hasText     bool
	hasRodata   bool

	heap      uint32
	heapStart uint32

	selfModifying bool

	cache *Cache
	sink  ChangeSink
}

// NewMemory creates an empty memory with its own cache simulator.
func NewMemory(f Flags, sink ChangeSink) *Memory {
	if sink == nil {
		sink = NopSink{}
	}
	return &Memory{
		bytes:         make(map[uint32]byte),
		diff:          make(map[uint32]byte),
		selfModifying: f.SelfModifying,
		cache:         NewCache(f, sink),
		sink:          sink,
	}
}

// Cache returns the memory's cache simulator.
func (m *Memory) Cache() *Cache { return m.cache }

// SetSelfModifying toggles self-modifying mode, which inverts the
// text-segment write-protection rule (spec.md §4.4).
func (m *Memory) SetSelfModifying(v bool) { m.selfModifying = v }

// SetLayout records the segment boundaries computed by the linker.
func (m *Memory) SetLayout(textEnd, rodataBegin, rodataEnd, heapStart uint32, hasRodata, hasText bool) {
	m.textEnd = textEnd
	m.rodataBegin = rodataBegin
	m.rodataEnd = rodataEnd
	m.heapStart = heapStart
	m.hasRodata = hasRodata
	m.hasText = hasText
	m.heap = heapStart
}

// HeapPointer returns the current heap pointer (grows up from end of data).
func (m *Memory) HeapPointer() uint32 { return m.heap }

// SetHeapPointer overwrites the current heap pointer; used by sbrk and by
// back-step/reset restoration.
func (m *Memory) SetHeapPointer(addr uint32) { m.heap = addr }

// AllocateFromHeap bumps the heap pointer by n bytes (word-aligned),
// zeroing the freshly allocated region, and returns the base address.
// Mirrors Memory.java's allocateBytesFromHeap.
func (m *Memory) AllocateFromHeap(n uint32) uint32 {
	address := m.heap
	total := n + OffsetToWordAlign(m.heap+n)
	for i := uint32(0); i < total; i++ {
		m.privStoreByte(address+i, 0)
	}
	m.heap = AlignToWordBoundary(m.heap + n)
	return address
}

// Check reports whether address is a valid access of the given kind
// (spec.md §4.4): reserved bands always fail; the text segment is
// writable only via the privileged path unless self-modifying mode is
// on; rodata is never writable but always readable.
func (m *Memory) Check(address uint32, read bool) bool {
	if InRange(address, ReservedLowStart, ReservedLowEnd) {
		return false
	}
	if InRange(address, ReservedHighStart, ReservedHighEnd) {
		return false
	}
	if !read && m.hasText && InRange(address, TextBegin, m.textEnd) {
		if m.selfModifying {
			return true
		}
		return false
	}
	if !read && m.hasRodata && InRange(address, m.rodataBegin, m.rodataEnd) {
		return false
	}
	return true
}

// store writes a raw byte without any check, optionally recording the
// prior value into the pending diff (save=false is used by Restore, so
// that replaying a back-step diff records no new diff entries).
func (m *Memory) store(address uint32, value byte, save bool) {
	if save {
		if prior, ok := m.bytes[address]; ok {
			m.diff[address] = prior
		} else {
			m.diff[address] = 0
		}
	}
	m.bytes[address] = value
	m.sink.MemoryChanged(address, value)
}

// Load reads a raw unsigned byte without any check or cache interaction,
// defaulting to 0 on an unread address.
func (m *Memory) Load(address uint32) byte {
	return m.bytes[address]
}

// privStoreByte stores a byte through the cache without a protection
// check, used by the loader and by sbrk/heap zeroing.
func (m *Memory) privStoreByte(address uint32, value byte) {
	m.cache.StoreByte(address)
	m.store(address, value, true)
}

// StoreByte stores a byte after a write-protection check.
func (m *Memory) StoreByte(address uint32, value byte) error {
	if !m.Check(address, false) {
		return &SimulationFault{Kind: FaultInvalidAddress, Address: address, Read: false}
	}
	m.privStoreByte(address, value)
	return nil
}

// privStoreHalf stores a little-endian half-word through the cache
// without a protection check.
func (m *Memory) privStoreHalf(address uint32, value uint16) {
	m.cache.StoreHalf(address)
	m.store(address, byte(value), true)
	m.store(address+ByteLength, byte(value>>ByteLengthBits), true)
}

// StoreHalf stores a half-word after checking both constituent bytes.
func (m *Memory) StoreHalf(address uint32, value uint16) error {
	if !m.Check(address, false) || !m.Check(address+ByteLength, false) {
		return &SimulationFault{Kind: FaultInvalidAddress, Address: address, Read: false}
	}
	m.privStoreHalf(address, value)
	return nil
}

// privStoreWord stores a little-endian word through the cache without a
// protection check.
func (m *Memory) privStoreWord(address uint32, value uint32) {
	m.cache.StoreWord(address)
	m.store(address, byte(value), true)
	m.store(address+ByteLength, byte(value>>ByteLengthBits), true)
	m.store(address+2*ByteLength, byte(value>>(2*ByteLengthBits)), true)
	m.store(address+3*ByteLength, byte(value>>(3*ByteLengthBits)), true)
}

// StoreWord stores a word after checking all four constituent bytes.
func (m *Memory) StoreWord(address uint32, value uint32) error {
	for i := uint32(0); i < WordLength; i++ {
		if !m.Check(address+i, false) {
			return &SimulationFault{Kind: FaultInvalidAddress, Address: address, Read: false}
		}
	}
	m.privStoreWord(address, value)
	return nil
}

// PrivStoreWord is the privileged word store used by the loader to write
// the linked program's text/data image, bypassing the write-protection
// check (spec.md §3 invariant).
func (m *Memory) PrivStoreWord(address uint32, value uint32) { m.privStoreWord(address, value) }

// PrivStoreByte is the privileged byte store used by the loader.
func (m *Memory) PrivStoreByte(address uint32, value byte) { m.privStoreByte(address, value) }

// privLoadByteUnsigned loads a zero-extended byte through the cache
// without a protection check.
func (m *Memory) privLoadByteUnsigned(address uint32) uint32 {
	m.cache.LoadByte(address)
	return uint32(m.Load(address))
}

// LoadByteUnsigned loads a zero-extended byte after a read check.
func (m *Memory) LoadByteUnsigned(address uint32) (uint32, error) {
	if !m.Check(address, true) {
		return 0, &SimulationFault{Kind: FaultInvalidAddress, Address: address, Read: true}
	}
	return m.privLoadByteUnsigned(address), nil
}

// LoadByte loads a sign-extended byte after a read check.
func (m *Memory) LoadByte(address uint32) (int32, error) {
	v, err := m.LoadByteUnsigned(address)
	if err != nil {
		return 0, err
	}
	return SignExtendByte(int32(v)), nil
}

// privLoadHalfUnsigned loads a zero-extended half-word through the cache
// without a protection check.
func (m *Memory) privLoadHalfUnsigned(address uint32) uint32 {
	m.cache.LoadHalf(address)
	lo := uint32(m.Load(address))
	hi := uint32(m.Load(address + ByteLength))
	return (hi << ByteLengthBits) | lo
}

// LoadHalfUnsigned loads a zero-extended half-word after a read check.
func (m *Memory) LoadHalfUnsigned(address uint32) (uint32, error) {
	if !m.Check(address, true) || !m.Check(address+ByteLength, true) {
		return 0, &SimulationFault{Kind: FaultInvalidAddress, Address: address, Read: true}
	}
	return m.privLoadHalfUnsigned(address), nil
}

// LoadHalf loads a sign-extended half-word after a read check.
func (m *Memory) LoadHalf(address uint32) (int32, error) {
	v, err := m.LoadHalfUnsigned(address)
	if err != nil {
		return 0, err
	}
	return SignExtendHalf(int32(v)), nil
}

// privLoadWord loads a word through the cache without a protection check.
func (m *Memory) privLoadWord(address uint32) uint32 {
	m.cache.LoadWord(address)
	b0 := uint32(m.Load(address))
	b1 := uint32(m.Load(address + ByteLength))
	b2 := uint32(m.Load(address + 2*ByteLength))
	b3 := uint32(m.Load(address + 3*ByteLength))
	return b0 | (b1 << ByteLengthBits) | (b2 << (2 * ByteLengthBits)) | (b3 << (3 * ByteLengthBits))
}

// PrivLoadWord is the privileged word load used by the fetch stage.
func (m *Memory) PrivLoadWord(address uint32) uint32 { return m.privLoadWord(address) }

// LoadWord loads a word after checking all four constituent bytes.
func (m *Memory) LoadWord(address uint32) (uint32, error) {
	for i := uint32(0); i < WordLength; i++ {
		if !m.Check(address+i, true) {
			return 0, &SimulationFault{Kind: FaultInvalidAddress, Address: address, Read: true}
		}
	}
	return m.privLoadWord(address), nil
}

// GetDiff returns and clears the pending byte-level diff, for the
// history subsystem.
func (m *Memory) GetDiff() map[uint32]byte {
	old := m.diff
	m.diff = make(map[uint32]byte)
	return old
}

// Restore replays a diff map, writing each saved value back without
// recording a new diff entry (back-step).
func (m *Memory) Restore(diff map[uint32]byte) {
	for addr, value := range diff {
		m.store(addr, value, false)
	}
}

// Reset clears all allocated bytes, the layout flags and the cache.
func (m *Memory) Reset() {
	m.bytes = make(map[uint32]byte)
	m.diff = make(map[uint32]byte)
	m.hasRodata = false
	m.hasText = false
	m.cache.Reset()
}

// Snapshot copies every stored byte, for the simulation driver's
// full-image reset (as opposed to Restore's incremental back-step diff).
func (m *Memory) Snapshot() map[uint32]byte {
	out := make(map[uint32]byte, len(m.bytes))
	for addr, v := range m.bytes {
		out[addr] = v
	}
	return out
}

// RestoreAll replaces the whole byte map with snapshot, notifying the
// sink for every restored address. Used by Driver.Reset to reload the
// program image without re-running the linker.
func (m *Memory) RestoreAll(snapshot map[uint32]byte) {
	m.bytes = make(map[uint32]byte, len(snapshot))
	for addr, v := range snapshot {
		m.bytes[addr] = v
		m.sink.MemoryChanged(addr, v)
	}
}
