package forecast

import (
	"sync"

	"crimecast/pkg/contracts/domain"
)

// Cache stores forecast results by key
type Cache interface {
	Get(key Key) (domain.ForecastResult, bool)
	Set(key Key, result domain.ForecastResult)
	Stats() CacheStats
}

// CacheStats reports cache usage
type CacheStats struct {
	Entries  int     `json:"entries"`
	MaxSize  int     `json:"max_size"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

type cacheEntry struct {
	result domain.ForecastResult
	seq    uint64
	hits   int
}

// MemoryCache is an in-process Cache. With maxSize > 0 the oldest entry is
// evicted once the cache is full; with maxSize 0 it grows without bound.
type MemoryCache struct {
	entries   map[Key]cacheEntry
	mutex     sync.RWMutex
	maxSize   int
	seq       uint64
	hitCount  int64
	missCount int64
}

// NewMemoryCache creates a cache holding at most maxSize results
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize < 0 {
		maxSize = 0
	}
	return &MemoryCache{
		entries: make(map[Key]cacheEntry),
		maxSize: maxSize,
	}
}

// Get retrieves a result from cache
func (c *MemoryCache) Get(key Key) (domain.ForecastResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return domain.ForecastResult{}, false
	}

	entry.hits++
	c.entries[key] = entry
	c.hitCount++

	return entry.result, true
}

// Set stores a result in cache
func (c *MemoryCache) Set(key Key, result domain.ForecastResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.seq++
	c.entries[key] = cacheEntry{result: result, seq: c.seq}
}

// Len returns the number of cached results
func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	return CacheStats{
		Entries:  len(c.entries),
		MaxSize:  c.maxSize,
		Hits:     c.hitCount,
		Misses:   c.missCount,
		HitRatio: ratio,
	}
}

func (c *MemoryCache) evictOldest() {
	var oldest Key
	var oldestSeq uint64
	found := false

	for key, entry := range c.entries {
		if !found || entry.seq < oldestSeq {
			oldest = key
			oldestSeq = entry.seq
			found = true
		}
	}

	if found {
		delete(c.entries, oldest)
	}
}
