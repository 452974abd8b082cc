package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores serialized layout results keyed by a content hash.
type Cache interface {
	// Get returns the value and true if found and not expired.
	Get(key string) ([]byte, bool)

	// Set stores a value with the given TTL. A TTL of 0 means the cache default.
	Set(key string, value []byte, ttl time.Duration)

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats represents cache statistics.
type Stats struct {
	Hits      uint64 // Total cache hits
	Misses    uint64 // Total cache misses
	KeysAdded uint64 // Total keys added
	Evictions uint64 // Total evictions
	Size      int64  // Approximate size in bytes
	Items     int64  // Current number of items
}

// Key derives a cache key from a namespace and the canonical encoding of
// a request. Equal inputs always map to the same key.
func Key(namespace string, canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return namespace + ":" + hex.EncodeToString(sum[:])
}
