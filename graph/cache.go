package graph

import "sort"

// CacheEntry is one memoized evaluation result.
type CacheEntry[V any] struct {
	Key   uint64
	Tick  uint64
	Value V
}

// CacheStats reports cache occupancy and lookup outcomes.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// Cache memoizes expensive evaluation results under an externally supplied
// 64-bit key, conventionally MixKey(graphID, seed, lod). Each entry is
// tagged with the tick it was stored at so stale entries can be evicted.
//
// Cache is not safe for concurrent use.
type Cache[V any] struct {
	entries map[uint64]CacheEntry[V]
	hits    uint64
	misses  uint64
	metrics *PrometheusMetrics
}

// NewCache creates an empty cache. Only WithMetrics is honored.
func NewCache[V any](opts ...Option) *Cache[V] {
	cfg := buildConfig(opts)
	return &Cache[V]{
		entries: make(map[uint64]CacheEntry[V]),
		metrics: cfg.metrics,
	}
}

// Store inserts or replaces the entry for key.
func (c *Cache[V]) Store(key, tick uint64, v V) {
	c.entries[key] = CacheEntry[V]{Key: key, Tick: tick, Value: v}
	c.metrics.SetCacheEntries(len(c.entries))
}

// Lookup returns the value stored under key. A miss returns the zero V and
// false.
func (c *Cache[V]) Lookup(key uint64) (V, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		c.metrics.RecordCacheLookup(false)
		var zero V
		return zero, false
	}
	c.hits++
	c.metrics.RecordCacheLookup(true)
	return e.Value, true
}

// Entry returns the full entry for key without touching the hit counters.
func (c *Cache[V]) Entry(key uint64) (CacheEntry[V], bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Contains reports whether key is cached.
func (c *Cache[V]) Contains(key uint64) bool {
	_, ok := c.entries[key]
	return ok
}

// Invalidate removes key. Returns false if it was not cached.
func (c *Cache[V]) Invalidate(key uint64) bool {
	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.metrics.SetCacheEntries(len(c.entries))
	return true
}

// InvalidateAll removes every entry. Hit and miss counters are kept.
func (c *Cache[V]) InvalidateAll() {
	c.entries = make(map[uint64]CacheEntry[V])
	c.metrics.SetCacheEntries(0)
}

// EvictBefore removes every entry stored at a tick strictly less than tick
// and returns how many were removed.
func (c *Cache[V]) EvictBefore(tick uint64) int {
	removed := 0
	for k, e := range c.entries {
		if e.Tick < tick {
			delete(c.entries, k)
			removed++
		}
	}
	if removed > 0 {
		c.metrics.SetCacheEntries(len(c.entries))
	}
	return removed
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	return len(c.entries)
}

// Keys returns the cached keys in ascending order.
func (c *Cache[V]) Keys() []uint64 {
	keys := make([]uint64, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Stats returns occupancy and lookup counters.
func (c *Cache[V]) Stats() CacheStats {
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
