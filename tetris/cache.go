package tetris

import (
	"sync"

	"github.com/kamstrup/intmap"
)

// DefaultCacheSize bounds an EnumerationCache created with size <= 0.
const DefaultCacheSize = 4096

type cacheEntry struct {
	board    *Board
	shape    Shape
	spawnRow int
	space    *ActionSpace
}

// EnumerationCache memoizes action spaces by board contents and shape. It is
// safe for concurrent use. Cached spaces are shared and must be treated as
// read-only.
type EnumerationCache struct {
	mu      sync.Mutex
	entries *intmap.Map[uint64, []cacheEntry]
	size    int
	limit   int
	hits    int64
	misses  int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewEnumerationCache creates a cache holding up to limit spaces. When the
// limit is reached the cache starts over empty.
func NewEnumerationCache(limit int) *EnumerationCache {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	return &EnumerationCache{
		entries: intmap.New[uint64, []cacheEntry](limit),
		limit:   limit,
	}
}

func cacheKey(board *Board, shape Shape, spawnRow int) uint64 {
	h := board.Hash()
	h ^= uint64(shape)<<56 | uint64(uint32(spawnRow))
	h *= 1099511628211
	return h
}

// Get returns the cached space for board and shape. Entries are compared
// cell by cell, so hash collisions never return a wrong space.
func (c *EnumerationCache) Get(board *Board, shape Shape, spawnRow int) (*ActionSpace, bool) {
	key := cacheKey(board, shape, spawnRow)

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.entries.Get(key)
	if ok {
		for _, e := range bucket {
			if e.shape == shape && e.spawnRow == spawnRow && e.board.Equal(board) {
				c.hits++
				return e.space, true
			}
		}
	}
	c.misses++
	return nil, false
}

// Put stores space for board and shape. The board is copied.
func (c *EnumerationCache) Put(board *Board, shape Shape, spawnRow int, space *ActionSpace) {
	key := cacheKey(board, shape, spawnRow)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.size >= c.limit {
		c.entries.Clear()
		c.size = 0
	}
	bucket, _ := c.entries.Get(key)
	for _, e := range bucket {
		if e.shape == shape && e.spawnRow == spawnRow && e.board.Equal(board) {
			return
		}
	}
	c.entries.Put(key, append(bucket, cacheEntry{
		board:    board.Clone(),
		shape:    shape,
		spawnRow: spawnRow,
		space:    space,
	}))
	c.size++
}

// Stats returns a snapshot of the cache counters.
func (c *EnumerationCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: c.size, Hits: c.hits, Misses: c.misses}
}
