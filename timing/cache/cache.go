// Package cache implements the engine's set-associative, write-through,
// no-write-allocate data cache. It is metadata-only: no data bytes are ever
// stored in the cache itself, because write-through keeps the backing store
// authoritative and no coherence protocol is modelled. Tag/valid/LRU
// bookkeeping is delegated to Akita's cache directory.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/Farahemad1/tomasulosim/simerr"
)

// Config holds the cache's runtime-configurable geometry and timing.
type Config struct {
	Size          int
	BlockSize     int
	Associativity int
	HitLatency    uint64
	MissPenalty   uint64
}

// Validate checks that every parameter is positive and that Size divides
// evenly by BlockSize*Associativity, per the derived-num-sets requirement.
func (c Config) Validate() error {
	if c.Size <= 0 || c.BlockSize <= 0 || c.Associativity <= 0 {
		return simerr.New(simerr.BadConfig, "cache size, block size, and associativity must be positive")
	}
	if c.HitLatency == 0 || c.MissPenalty == 0 {
		return simerr.New(simerr.BadConfig, "cache hit latency and miss penalty must be positive")
	}
	if c.Size%(c.BlockSize*c.Associativity) != 0 {
		return simerr.New(simerr.BadConfig, "cache size not divisible by block size * associativity")
	}
	return nil
}

// BackingStore is the next level of the memory hierarchy a Cache reads
// through and writes through to.
type BackingStore interface {
	LoadWord(addr uint64) (int64, error)
	LoadDouble(addr uint64) (int64, error)
	StoreWord(addr uint64, value int64) error
	StoreDouble(addr uint64, value int64) error
}

// Stats holds cache hit/miss/eviction counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// LineMeta is the observable metadata for one cache line: no data bytes,
// per §4.2/§6 (valid, tag, LRU counter only). Tag holds the block-aligned
// address of the cached block, not the block number divided by the set
// count.
type LineMeta struct {
	Valid bool
	Tag   uint64
	LRU   uint64
}

// Cache is a set-associative, write-through, no-write-allocate cache with
// LRU replacement. It never holds data; every load/store reads or writes
// through to the backing store.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	backing   BackingStore
	stats     Stats

	// lruStamp mirrors the directory's internal recency tracking as an
	// observable per-line timestamp, since Akita's directory does not
	// expose one directly. Drawn from a single monotonic counter, same as
	// the original engine's access-counter-based LRU timestamps.
	lruStamp      [][]uint64
	accessCounter uint64
}

// New constructs a Cache. Returns a BadConfig error if the geometry is
// invalid.
func New(config Config, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	numSets := config.Size / (config.BlockSize * config.Associativity)
	lruStamp := make([][]uint64, numSets)
	for i := range lruStamp {
		lruStamp[i] = make([]uint64, config.Associativity)
	}
	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		backing:  backing,
		lruStamp: lruStamp,
	}, nil
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// ProbeLatency returns the latency a load/store to addr would take without
// mutating any cache state: hit_latency if the block is present and valid,
// else hit_latency + miss_penalty.
func (c *Cache) ProbeLatency(addr uint64) uint64 {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		return c.config.HitLatency
	}
	return c.config.HitLatency + c.config.MissPenalty
}

func (c *Cache) touch(block *akitacache.Block) {
	c.accessCounter++
	c.directory.Visit(block)
	c.lruStamp[block.SetID][block.WayID] = c.accessCounter
}

// Load performs a load, updating LRU state on hit and installing block
// metadata (without fetching data into the cache) on miss. The value is
// always read from the backing store, since the cache holds no data.
func (c *Cache) Load(addr uint64, isDouble bool) (int64, error) {
	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.touch(block)
	} else {
		c.stats.Misses++
		victim := c.directory.FindVictim(blockAddr)
		if victim != nil {
			if victim.IsValid {
				c.stats.Evictions++
			}
			victim.Tag = blockAddr
			victim.IsValid = true
			c.touch(victim)
		}
	}
	if isDouble {
		return c.backing.LoadDouble(addr)
	}
	return c.backing.LoadWord(addr)
}

// Store performs a write-through, no-write-allocate store: on hit, LRU
// metadata is updated; on miss, no block is installed, only the counters
// change. Either way the value is written through to the backing store.
func (c *Cache) Store(addr uint64, value int64, isDouble bool) error {
	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.touch(block)
	} else {
		c.stats.Misses++
	}
	if isDouble {
		return c.backing.StoreDouble(addr, value)
	}
	return c.backing.StoreWord(addr, value)
}

// Stats returns the cache's hit/miss/eviction counters.
func (c *Cache) Stats() Stats { return c.stats }

// Config returns the cache's configuration.
func (c *Cache) Config() Config { return c.config }

// Metadata returns a by-value snapshot of every line's valid/tag/LRU state,
// indexed [set][way], for observable per-snapshot state (§6) and for
// restoring cache metadata on reverse stepping (§4.4.5).
func (c *Cache) Metadata() [][]LineMeta {
	sets := c.directory.GetSets()
	out := make([][]LineMeta, len(sets))
	for s, set := range sets {
		out[s] = make([]LineMeta, len(set.Blocks))
		for w, block := range set.Blocks {
			out[s][w] = LineMeta{
				Valid: block.IsValid,
				Tag:   block.Tag,
				LRU:   c.lruStamp[s][w],
			}
		}
	}
	return out
}

// Restore overwrites the cache's valid/tag/LRU metadata from a previously
// captured snapshot, used by reverse stepping.
func (c *Cache) Restore(meta [][]LineMeta, stats Stats) {
	sets := c.directory.GetSets()
	for s, set := range sets {
		for w, block := range set.Blocks {
			if s < len(meta) && w < len(meta[s]) {
				block.IsValid = meta[s][w].Valid
				block.Tag = meta[s][w].Tag
				c.lruStamp[s][w] = meta[s][w].LRU
			}
		}
	}
	c.stats = stats
}
