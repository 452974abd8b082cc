package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LRUCache is a size-bounded cache backed by ristretto. Entry cost is the
// byte length of the stored value.
type LRUCache struct {
	cache      *ristretto.Cache
	defaultTTL time.Duration
}

// NewLRU creates a cache holding at most maxSizeMB megabytes. maxEntries
// sizes the admission counters; defaultTTL applies when Set is given 0.
func NewLRU(maxSizeMB int64, maxEntries int64, defaultTTL time.Duration) (*LRUCache, error) {
	// NumCounters should be ~10x the number of entries
	numCounters := maxEntries * 10
	if numCounters < 1000 {
		numCounters = 1000
	}
	maxCost := maxSizeMB * 1024 * 1024
	if maxCost <= 0 {
		maxCost = 1024
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &LRUCache{cache: c, defaultTTL: defaultTTL}, nil
}

// Get retrieves a value from the cache by key.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	if !ok {
		c.cache.Del(key)
		return nil, false
	}
	return data, true
}

// Set stores a value. Ristretto may reject the entry under its admission
// policy; callers treat the cache as best effort.
func (c *LRUCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	_ = c.cache.SetWithTTL(key, value, int64(len(value)), ttl)
	c.cache.Wait()
}

// Delete removes a value from the cache.
func (c *LRUCache) Delete(key string) {
	c.cache.Del(key)
}

// Clear removes all values from the cache.
func (c *LRUCache) Clear() {
	c.cache.Clear()
}

// Stats returns cache statistics.
func (c *LRUCache) Stats() Stats {
	m := c.cache.Metrics
	return Stats{
		Hits:      m.Hits(),
		Misses:    m.Misses(),
		KeysAdded: m.KeysAdded(),
		Evictions: m.KeysEvicted(),
		Size:      int64(m.CostAdded() - m.CostEvicted()),
		Items:     int64(m.KeysAdded() - m.KeysEvicted()),
	}
}

// Close closes the cache and releases resources.
func (c *LRUCache) Close() {
	c.cache.Close()
}
