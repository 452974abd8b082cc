package cache

import (
	"testing"
	"time"
)

func newTestLRU(t *testing.T, ttl time.Duration) *LRUCache {
	t.Helper()
	c, err := NewLRU(10, 100, ttl)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestLRUCache_SetAndGet(t *testing.T) {
	cache := newTestLRU(t, time.Minute)

	value := []byte(`{"nodes":[]}`)
	cache.Set("layout:abc", value, 0)

	retrieved, found := cache.Get("layout:abc")
	if !found {
		t.Fatal("Expected to find cached value")
	}
	if string(retrieved) != string(value) {
		t.Errorf("Expected %s, got %s", value, retrieved)
	}
}

func TestLRUCache_GetNonExistent(t *testing.T) {
	cache := newTestLRU(t, time.Minute)
	if _, found := cache.Get("nonexistent"); found {
		t.Error("Expected not to find nonexistent key")
	}
}

func TestLRUCache_Expiration(t *testing.T) {
	cache := newTestLRU(t, time.Minute)

	cache.Set("expiring-key", []byte("expiring-value"), 100*time.Millisecond)
	if _, found := cache.Get("expiring-key"); !found {
		t.Error("Expected to find value immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, found := cache.Get("expiring-key"); found {
		t.Error("Expected value to be expired")
	}
}

func TestLRUCache_DeleteAndClear(t *testing.T) {
	cache := newTestLRU(t, time.Minute)

	cache.Set("key1", []byte("value1"), 0)
	cache.Set("key2", []byte("value2"), 0)

	cache.Delete("key1")
	if _, found := cache.Get("key1"); found {
		t.Error("Expected key1 to be deleted")
	}
	if _, found := cache.Get("key2"); !found {
		t.Error("Expected key2 to survive Delete of key1")
	}

	cache.Clear()
	if _, found := cache.Get("key2"); found {
		t.Error("Expected key2 to be cleared")
	}
}

func TestLRUCache_Stats(t *testing.T) {
	cache := newTestLRU(t, time.Minute)

	cache.Set("key1", []byte("value1"), 0)
	cache.Get("key1")
	cache.Get("missing")

	stats := cache.Stats()
	// Ristretto counts asynchronously; hits and misses are recorded on the
	// calling goroutine.
	if stats.Hits < 1 || stats.Misses < 1 {
		t.Errorf("Stats = %+v, want at least one hit and one miss", stats)
	}
}

func TestLRUCache_SizeLimit(t *testing.T) {
	cache, err := NewLRU(0, 10, time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	for i := 0; i < 20; i++ {
		cache.Set(string(rune('a'+i)), []byte("small value"), 0)
	}

	found := 0
	for i := 0; i < 20; i++ {
		if _, ok := cache.Get(string(rune('a' + i))); ok {
			found++
		}
	}
	if found == 0 {
		t.Error("Expected at least some items to be cached")
	}
}

func TestKey(t *testing.T) {
	a := Key("layout", []byte(`{"a":1}`))
	b := Key("layout", []byte(`{"a":1}`))
	c := Key("layout", []byte(`{"a":2}`))
	if a != b {
		t.Error("equal inputs should give equal keys")
	}
	if a == c {
		t.Error("different inputs should give different keys")
	}
	if a[:7] != "layout:" {
		t.Errorf("key %q should carry the namespace prefix", a)
	}
}

func TestMockCache(t *testing.T) {
	m := NewMockCache()
	m.Set("a", []byte("123"), 0)
	m.Set("b", []byte("45"), 10*time.Millisecond)

	if _, ok := m.Get("a"); !ok {
		t.Error("expected a to be present")
	}
	if s := m.Stats(); s.Items != 2 || s.Size != 5 {
		t.Errorf("Stats = %+v, want 2 items of 5 bytes", s)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get("b"); ok {
		t.Error("expected b to expire")
	}
	s := m.Stats()
	if s.Hits != 1 || s.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", s.Hits, s.Misses)
	}
}
