package jupiter

import "math/rand"

// block is one cache line: a valid bit, a tag and an LRU age counter,
// grounded on original_source's Cache.java private Block class.
type block struct {
	valid bool
	tag   int
	age   int64
}

func (b block) clone() block { return b }

func (b *block) reset() {
	b.valid = false
	b.tag = -1
	b.age = 0
}

// cacheSet is one associative set: an ordered list of blocks plus the
// FIFO queue used by the FIFO and RAND replacement policies. Grounded on
// Cache.java's private Set class, including the quirk spec.md §9 calls
// out explicitly: the FIFO queue only rotates on reads, never on writes.
type cacheSet struct {
	index   int
	size    int
	replace ReplacePolicy
	blocks  []block
	fifo    []int
}

func newCacheSet(index, size int, replace ReplacePolicy) *cacheSet {
	return &cacheSet{
		index:   index,
		size:    size,
		replace: replace,
		blocks:  make([]block, size),
	}
}

func (s *cacheSet) clone() *cacheSet {
	c := newCacheSet(s.index, s.size, s.replace)
	copy(c.blocks, s.blocks)
	c.fifo = append([]int(nil), s.fifo...)
	return c
}

func (s *cacheSet) reset() {
	s.fifo = s.fifo[:0]
	for i := range s.blocks {
		s.blocks[i].reset()
	}
}

// load simulates a read access for the given tag, returning true on hit.
func (s *cacheSet) load(tag int) bool {
	for i := range s.blocks {
		b := &s.blocks[i]
		if b.valid && b.tag == tag {
			if s.replace == LRU {
				b.age++
			}
			return true
		}
	}
	idx := s.evict(true)
	s.update(idx, tag)
	return false
}

// write simulates a write access for the given tag, returning true on hit.
// Unlike load, a write miss does not install the tag: the original
// simulator only ever fills a block from a read, matching
// original_source's Cache.java write() (no call to update on miss).
func (s *cacheSet) write(tag int) bool {
	for i := range s.blocks {
		b := &s.blocks[i]
		if b.valid && b.tag == tag {
			if s.replace == LRU {
				b.age++
			}
			return true
		}
	}
	s.evict(false)
	return false
}

func (s *cacheSet) update(index, tag int) {
	b := &s.blocks[index]
	b.tag = tag
	b.valid = true
	b.age = 1
}

// evict picks a victim block to replace on a miss. read distinguishes a
// load-miss from a store-miss: FIFO and RAND only rotate their queue on
// reads.
func (s *cacheSet) evict(read bool) int {
	for i := range s.blocks {
		if !s.blocks[i].valid {
			if s.replace == FIFO {
				s.fifo = append(s.fifo, i)
			}
			return i
		}
	}
	switch s.replace {
	case LRU:
		idx := 0
		min := s.blocks[0].age
		for i := 1; i < s.size; i++ {
			if s.blocks[i].age < min {
				min = s.blocks[i].age
				idx = i
			}
		}
		return idx
	case FIFO:
		idx := s.fifo[0]
		if read {
			s.fifo = append(s.fifo[1:], idx)
		}
		return idx
	default: // RAND
		if len(s.fifo) == 0 {
			s.fifo = append(s.fifo, rand.Intn(s.size))
		}
		idx := s.fifo[0]
		if read {
			s.fifo = s.fifo[1:]
		}
		return idx
	}
}

// CacheBackup is an opaque snapshot of cache state captured lazily on the
// first access inside a history step, grounded on Cache.java's
// CacheBackup inner class.
type CacheBackup struct {
	hits      int
	accesses  int
	address   uint32
	sets      map[int]*cacheSet
	state     []BlockState
}

// Cache is the configurable block/set/associativity model layered in
// front of Memory (spec.md §4.4), grounded on original_source's
// Cache.java.
type Cache struct {
	blockSize     int
	numBlocks     int
	associativity int
	replace       ReplacePolicy

	tagShamt   int
	indexShamt int

	accesses int
	hits     int

	sets  map[int]*cacheSet
	state []BlockState

	// hit/miss indexes accumulated within the current multi-byte access,
	// fired as a batch once the access completes (Cache.java's HIT/MISS
	// sets plus fireNotification).
	hitIdx  map[int]bool
	missIdx map[int]bool

	diff *CacheBackup
	sink ChangeSink
}

// NewCache creates a cache simulator from the given flags.
func NewCache(f Flags, sink ChangeSink) *Cache {
	if sink == nil {
		sink = NopSink{}
	}
	c := &Cache{
		blockSize:     f.CacheBlockSize,
		numBlocks:     f.CacheNumBlocks,
		associativity: f.CacheAssociativity,
		replace:       f.CacheReplace,
		sets:          make(map[int]*cacheSet),
		hitIdx:        make(map[int]bool),
		missIdx:       make(map[int]bool),
		sink:          sink,
	}
	c.rebuild()
	return c
}

// Reconfigure changes the cache geometry. Per spec.md §4.4 this is only
// valid while history is empty; callers (the simulation driver) are
// responsible for enforcing that precondition before calling.
func (c *Cache) Reconfigure(blockSize, numBlocks, associativity int, replace ReplacePolicy) bool {
	if !IsPowerOfTwo(blockSize) || !IsPowerOfTwo(numBlocks) || !IsPowerOfTwo(associativity) {
		return false
	}
	if associativity > numBlocks {
		return false
	}
	c.blockSize = blockSize
	c.numBlocks = numBlocks
	c.associativity = associativity
	c.replace = replace
	c.rebuild()
	return true
}

func (c *Cache) rebuild() {
	c.sets = make(map[int]*cacheSet)
	c.state = make([]BlockState, c.numBlocks)
	blocksPerSet := c.numBlocks / c.associativity
	indexBits := Log2(blocksPerSet)
	c.indexShamt = Log2(c.blockSize)
	c.tagShamt = indexBits + c.indexShamt
	for i := 0; i < blocksPerSet; i++ {
		c.sets[i] = newCacheSet(i, c.associativity, c.replace)
	}
}

func (c *Cache) tag(address uint32) int {
	return int(address >> uint(c.tagShamt))
}

func (c *Cache) index(address uint32) int {
	blocksPerSet := c.numBlocks / c.associativity
	return int(address>>uint(c.indexShamt)) & (blocksPerSet - 1)
}

func (c *Cache) backupIfNeeded(address uint32) {
	if c.diff != nil {
		return
	}
	sets := make(map[int]*cacheSet, len(c.sets))
	for k, s := range c.sets {
		sets[k] = s.clone()
	}
	c.diff = &CacheBackup{
		hits:     c.hits,
		accesses: c.accesses,
		address:  address,
		sets:     sets,
		state:    append([]BlockState(nil), c.state...),
	}
}

func (c *Cache) read(address uint32) bool {
	c.backupIfNeeded(address)
	t, i := c.tag(address), c.index(address)
	hit := c.sets[i].load(t)
	c.recordAccess(i, t, hit)
	return hit
}

func (c *Cache) write(address uint32) bool {
	c.backupIfNeeded(address)
	t, i := c.tag(address), c.index(address)
	hit := c.sets[i].write(t)
	c.recordAccess(i, t, hit)
	return hit
}

// recordAccess locates which global block index within the set matched
// (for hit) or was installed (for miss), for the purposes of the
// CacheBlockStateChanged notification. This mirrors the intent of
// Cache.java's HIT/MISS index bookkeeping, generalized since Go has no
// convenient block identity to reuse after the fact.
func (c *Cache) recordAccess(setIdx, tag int, hit bool) {
	s := c.sets[setIdx]
	for i, b := range s.blocks {
		if b.valid && b.tag == tag {
			global := setIdx*c.associativity + i
			if hit {
				c.hitIdx[global] = true
			} else {
				c.missIdx[global] = true
			}
			return
		}
	}
}

func (c *Cache) fireNotifications(address uint32) {
	for idx := range c.hitIdx {
		if !c.missIdx[idx] {
			c.state[idx] = BlockHit
			c.sink.CacheBlockStateChanged(idx, BlockHit)
		}
	}
	for idx := range c.missIdx {
		c.state[idx] = BlockMiss
		c.sink.CacheBlockStateChanged(idx, BlockMiss)
	}
	c.hitIdx = make(map[int]bool)
	c.missIdx = make(map[int]bool)
}

// LoadByte simulates a single-byte cache read.
func (c *Cache) LoadByte(address uint32) {
	if c.read(address) {
		c.hits++
	}
	c.accesses++
	c.fireNotifications(address)
}

// LoadHalf simulates a two-byte cache read; it counts as one access and
// hits only if both constituent bytes hit (spec.md §4.4).
func (c *Cache) LoadHalf(address uint32) {
	b0 := c.read(address)
	b1 := c.read(address + ByteLength)
	if b0 && b1 {
		c.hits++
	}
	c.accesses++
	c.fireNotifications(address)
}

// LoadWord simulates a four-byte cache read.
func (c *Cache) LoadWord(address uint32) {
	b0 := c.read(address)
	b1 := c.read(address + ByteLength)
	b2 := c.read(address + 2*ByteLength)
	b3 := c.read(address + 3*ByteLength)
	if b0 && b1 && b2 && b3 {
		c.hits++
	}
	c.accesses++
	c.fireNotifications(address)
}

// StoreByte simulates a single-byte cache write.
func (c *Cache) StoreByte(address uint32) {
	if c.write(address) {
		c.hits++
	}
	c.accesses++
	c.fireNotifications(address)
}

// StoreHalf simulates a two-byte cache write.
func (c *Cache) StoreHalf(address uint32) {
	b0 := c.write(address)
	b1 := c.write(address + ByteLength)
	if b0 && b1 {
		c.hits++
	}
	c.accesses++
	c.fireNotifications(address)
}

// StoreWord simulates a four-byte cache write.
func (c *Cache) StoreWord(address uint32) {
	b0 := c.write(address)
	b1 := c.write(address + ByteLength)
	b2 := c.write(address + 2*ByteLength)
	b3 := c.write(address + 3*ByteLength)
	if b0 && b1 && b2 && b3 {
		c.hits++
	}
	c.accesses++
	c.fireNotifications(address)
}

// GetDiff returns and clears the pending backup captured during this
// step, for the history subsystem.
func (c *Cache) GetDiff() *CacheBackup {
	old := c.diff
	c.diff = nil
	return old
}

// Restore rolls the cache back to a prior backup (back-step).
func (c *Cache) Restore(d *CacheBackup) {
	if d == nil {
		return
	}
	c.hits = d.hits
	c.accesses = d.accesses
	c.sets = d.sets
	c.state = d.state
	for i, st := range c.state {
		c.sink.CacheBlockStateChanged(i, st)
	}
}

// Reset clears all cache state: accesses, hits and every block.
func (c *Cache) Reset() {
	c.hits = 0
	c.accesses = 0
	for _, s := range c.sets {
		s.reset()
	}
	for i := range c.state {
		c.state[i] = BlockEmpty
		c.sink.CacheBlockStateChanged(i, BlockEmpty)
	}
}

func (c *Cache) Hits() int      { return c.hits }
func (c *Cache) Accesses() int  { return c.accesses }
func (c *Cache) BlockSize() int { return c.blockSize }
func (c *Cache) NumBlocks() int { return c.numBlocks }
func (c *Cache) Associativity() int { return c.associativity }
func (c *Cache) Replace() ReplacePolicy { return c.replace }

// HitRate returns hits/accesses, or 0 if there have been no accesses.
func (c *Cache) HitRate() float64 {
	if c.accesses == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.accesses)
}

// DirectMapped reports whether this is a direct-mapped cache.
func (c *Cache) DirectMapped() bool { return c.associativity == 1 }

// FullyAssociative reports whether this is a fully-associative cache.
func (c *Cache) FullyAssociative() bool { return c.associativity == c.numBlocks }
