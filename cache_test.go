package jupiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func directMappedFlags() Flags {
	f := DefaultFlags()
	f.CacheBlockSize = 4
	f.CacheNumBlocks = 4
	f.CacheAssociativity = 1
	f.CacheReplace = LRU
	return f
}

func TestCacheMissThenHit(t *testing.T) {
	assert := assert.New(t)
	c := NewCache(directMappedFlags(), nil)

	c.LoadWord(0x1000)
	assert.Equal(1, c.Accesses())
	assert.Equal(0, c.Hits())

	c.LoadWord(0x1000)
	assert.Equal(2, c.Accesses())
	assert.Equal(1, c.Hits())
	assert.InDelta(0.5, c.HitRate(), 1e-9)
}

func TestCacheEmptyHitRateIsZero(t *testing.T) {
	assert := assert.New(t)
	c := NewCache(directMappedFlags(), nil)
	assert.Equal(float64(0), c.HitRate())
}

func TestCacheReset(t *testing.T) {
	assert := assert.New(t)
	c := NewCache(directMappedFlags(), nil)
	c.LoadWord(0x1000)
	c.LoadWord(0x1000)
	assert.True(c.Accesses() > 0)

	c.Reset()
	assert.Equal(0, c.Accesses())
	assert.Equal(0, c.Hits())
}

func TestCacheWriteMissDoesNotInstall(t *testing.T) {
	assert := assert.New(t)
	c := NewCache(directMappedFlags(), nil)

	c.StoreWord(0x2000)
	assert.Equal(0, c.Hits())

	// The original simulator only fills a block on a read miss, so a
	// second write to the same address is still a miss.
	c.StoreWord(0x2000)
	assert.Equal(0, c.Hits())

	c.LoadWord(0x2000)
	c.LoadWord(0x2000)
	assert.Equal(1, c.Hits())
}

func TestCacheBackupRestore(t *testing.T) {
	assert := assert.New(t)
	c := NewCache(directMappedFlags(), nil)

	c.LoadWord(0x1000)
	before := c.GetDiff()
	assert.NotNil(before)

	c.LoadWord(0x1000)
	assert.Equal(1, c.Hits())

	c.Restore(before)
	assert.Equal(0, c.Hits())
}

func TestCacheReconfigure(t *testing.T) {
	assert := assert.New(t)
	c := NewCache(directMappedFlags(), nil)

	ok := c.Reconfigure(8, 8, 2, FIFO)
	assert.True(ok)
	assert.Equal(8, c.BlockSize())
	assert.Equal(8, c.NumBlocks())
	assert.Equal(2, c.Associativity())
	assert.Equal(FIFO, c.Replace())

	ok = c.Reconfigure(3, 8, 2, FIFO)
	assert.False(ok, "non-power-of-two block size must be rejected")

	ok = c.Reconfigure(4, 4, 8, FIFO)
	assert.False(ok, "associativity greater than block count must be rejected")
}

func TestCacheDirectMappedAndFullyAssociative(t *testing.T) {
	assert := assert.New(t)
	c := NewCache(directMappedFlags(), nil)
	assert.True(c.DirectMapped())
	assert.False(c.FullyAssociative())

	c.Reconfigure(4, 4, 4, LRU)
	assert.False(c.DirectMapped())
	assert.True(c.FullyAssociative())
}

func TestCacheFIFOEvictionRotatesOnlyOnRead(t *testing.T) {
	assert := assert.New(t)
	f := directMappedFlags()
	f.CacheNumBlocks = 2
	f.CacheAssociativity = 2
	f.CacheReplace = FIFO
	c := NewCache(f, nil)

	// Fill both blocks of the single fully-associative set via reads.
	c.LoadWord(0x1000)
	c.LoadWord(0x2000)

	// Write misses consult the FIFO queue but never install a block on a
	// miss and never rotate it, so repeated write misses leave both
	// resident blocks untouched.
	c.StoreWord(0x3000)
	c.StoreWord(0x4000)
	c.LoadWord(0x1000)
	assert.Equal(1, c.Hits())
	c.LoadWord(0x2000)
	assert.Equal(2, c.Hits())

	// A read miss does rotate the queue and does install a block, so it
	// evicts the oldest read-filled block (0x1000's).
	c.LoadWord(0x5000)
	c.LoadWord(0x2000)
	assert.Equal(3, c.Hits())
	c.LoadWord(0x1000)
	assert.Equal(3, c.Hits(), "0x1000's block should have been evicted by the read miss")
}
