package cache

import (
	"sync"
	"time"
)

type mockEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MockCache is an in-memory Cache for tests. It honours TTLs and counts
// hits and misses so callers can assert on cache behaviour.
type MockCache struct {
	mu     sync.Mutex
	data   map[string]mockEntry
	hits   uint64
	misses uint64
	added  uint64
}

// NewMockCache creates a new mock cache for testing.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string]mockEntry)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if ok && !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.data, key)
		ok = false
	}
	if !ok {
		m.misses++
		return nil, false
	}
	m.hits++
	return e.data, true
}

func (m *MockCache) Set(key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := mockEntry{data: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.data[key] = e
	m.added++
}

func (m *MockCache) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]mockEntry)
}

func (m *MockCache) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	var size int64
	for _, e := range m.data {
		size += int64(len(e.data))
	}
	return Stats{
		Hits:      m.hits,
		Misses:    m.misses,
		KeysAdded: m.added,
		Size:      size,
		Items:     int64(len(m.data)),
	}
}
