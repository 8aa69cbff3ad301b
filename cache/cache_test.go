package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestNewSharded(t *testing.T) {
	c := NewSharded[string, int](100, StringHasher)
	if c == nil {
		t.Fatal("NewSharded returned nil")
	}
	if c.Capacity() != 100 {
		t.Errorf("expected capacity 100, got %d", c.Capacity())
	}
	if c.TotalCapacity() != 100*DefaultShardCount {
		t.Errorf("expected total capacity %d, got %d", 100*DefaultShardCount, c.TotalCapacity())
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestShardedCacheGetSet(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	// Set a value
	c.Set("key1", 42)

	// Get existing key
	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected key1 to exist")
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}

	// Get non-existing key
	_, ok = c.Get("nonexistent")
	if ok {
		t.Error("expected nonexistent key to not exist")
	}
}

func TestShardedCacheGetOrCreate(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)
	createCalled := 0

	// First call should create
	val, err := c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 100, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate error = %v", err)
	}
	if val != 100 {
		t.Errorf("expected 100, got %d", val)
	}
	if createCalled != 1 {
		t.Errorf("expected create called once, got %d", createCalled)
	}

	// Second call should return cached
	val, err = c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 200, nil
	})
	if err != nil {
		t.Fatalf("GetOrCreate error = %v", err)
	}
	if val != 100 {
		t.Errorf("expected 100 (cached), got %d", val)
	}
	if createCalled != 1 {
		t.Errorf("expected create still called once, got %d", createCalled)
	}
}

func TestShardedCacheGetOrCreateError(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)
	wantErr := errors.New("compile failed")

	// A failed create caches nothing.
	_, err := c.GetOrCreate("key1", func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("GetOrCreate error = %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache after failed create, got %d", c.Len())
	}

	// The next attempt retries.
	val, err := c.GetOrCreate("key1", func() (int, error) {
		return 7, nil
	})
	if err != nil || val != 7 {
		t.Errorf("retry = (%d, %v), want (7, nil)", val, err)
	}
}

func TestShardedCacheDelete(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key1", 42)

	// Delete existing
	if !c.Delete("key1") {
		t.Error("expected Delete to return true for existing key")
	}

	// Verify deleted
	_, ok := c.Get("key1")
	if ok {
		t.Error("expected key1 to be deleted")
	}

	// Delete non-existing
	if c.Delete("nonexistent") {
		t.Error("expected Delete to return false for non-existing key")
	}
}

func TestShardedCacheClear(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key1", 1)
	c.Set("key2", 2)
	c.Set("key3", 3)

	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("expected 0 entries after clear, got %d", c.Len())
	}
}

func TestShardedCacheEvictCallback(t *testing.T) {
	evicted := make(map[string]int)
	c := NewShardedWithEvict[string, int](1, StringHasher, func(k string, v int) {
		evicted[k] = v
	})

	// Capacity 1 per shard: two keys landing in the same shard evict
	// the older one. Fill enough keys that every shard overflows.
	for i := 0; i < 64; i++ {
		c.Set("k"+strconv.Itoa(i), i)
	}
	if len(evicted) == 0 {
		t.Error("expected eviction callbacks")
	}
	if c.Stats().Evictions == 0 {
		t.Error("expected eviction count > 0")
	}

	// Delete and Clear run the callback too.
	evicted = map[string]int{}
	c2 := NewShardedWithEvict[string, int](10, StringHasher, func(k string, v int) {
		evicted[k] = v
	})
	c2.Set("a", 1)
	c2.Set("b", 2)
	c2.Delete("a")
	if evicted["a"] != 1 {
		t.Errorf("Delete did not run callback: %v", evicted)
	}
	c2.Clear()
	if evicted["b"] != 2 {
		t.Errorf("Clear did not run callback: %v", evicted)
	}
}

func TestShardedCacheSetReplaceEvicts(t *testing.T) {
	var old []int
	c := NewShardedWithEvict[string, int](10, StringHasher, func(k string, v int) {
		old = append(old, v)
	})
	c.Set("key", 1)
	c.Set("key", 2)
	if len(old) != 1 || old[0] != 1 {
		t.Errorf("expected replaced value 1 evicted, got %v", old)
	}
	if v, _ := c.Get("key"); v != 2 {
		t.Errorf("expected 2 after replace, got %d", v)
	}
}

func TestShardedCacheStats(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key1", 1)
	c.Set("key2", 2)

	// Generate hits and misses
	c.Get("key1")        // hit
	c.Get("key1")        // hit
	c.Get("nonexistent") // miss

	stats := c.Stats()
	if stats.Len != 2 {
		t.Errorf("expected Len=2, got %d", stats.Len)
	}
	if stats.Hits != 2 {
		t.Errorf("expected Hits=2, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected Misses=1, got %d", stats.Misses)
	}
}

func TestShardedCacheResetStats(t *testing.T) {
	c := NewSharded[string, int](10, StringHasher)

	c.Set("key1", 1)
	c.Get("key1")
	c.Get("nonexistent")

	c.ResetStats()

	stats := c.Stats()
	if stats.Hits != 0 || stats.Misses != 0 || stats.Evictions != 0 {
		t.Errorf("expected all stats to be 0 after reset, got hits=%d misses=%d evictions=%d",
			stats.Hits, stats.Misses, stats.Evictions)
	}
}

func TestShardedCacheConcurrent(t *testing.T) {
	c := NewSharded[uint64, int](100, Uint64Hasher)
	var wg sync.WaitGroup

	// Concurrent writes from multiple goroutines
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(uint64(n*100+j), n*100+j)
			}
		}(i)
	}
	wg.Wait()

	// Concurrent reads
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Get(uint64(n*100 + j))
			}
		}(i)
	}
	wg.Wait()

	// Cache should have entries
	if c.Len() == 0 {
		t.Error("expected non-empty cache after concurrent operations")
	}
}

func TestHashers(t *testing.T) {
	// Test StringHasher
	h1 := StringHasher("hello")
	h2 := StringHasher("hello")
	h3 := StringHasher("world")

	if h1 != h2 {
		t.Error("StringHasher not deterministic")
	}
	if h1 == h3 {
		t.Error("StringHasher collision for different strings")
	}

	// Test Uint64Hasher
	h4 := Uint64Hasher(12345)
	if h4 != 12345 {
		t.Errorf("Uint64Hasher expected identity, got %d", h4)
	}
}

// LRU list tests

func TestLRUList(t *testing.T) {
	l := newLRUList[string]()

	if l.Len() != 0 {
		t.Errorf("expected empty list, got %d", l.Len())
	}

	// Push elements
	n1 := l.PushFront("a")
	n2 := l.PushFront("b")
	l.PushFront("c")

	if l.Len() != 3 {
		t.Errorf("expected 3 elements, got %d", l.Len())
	}

	// Move a to front; b becomes oldest
	l.MoveToFront(n1)

	// Remove b
	l.Remove(n2)
	if l.Len() != 2 {
		t.Errorf("expected 2 elements after remove, got %d", l.Len())
	}

	// Remove oldest (c)
	removed, ok := l.RemoveOldest()
	if !ok || removed != "c" {
		t.Errorf("expected to remove 'c', got %v", removed)
	}

	// Only a remains
	if l.Len() != 1 {
		t.Errorf("expected 1 element, got %d", l.Len())
	}

	// Clear
	l.Clear()
	if l.Len() != 0 {
		t.Errorf("expected empty list after clear, got %d", l.Len())
	}
}

func TestLRUListEmptyOperations(t *testing.T) {
	l := newLRUList[int]()

	// RemoveOldest on empty list
	_, ok := l.RemoveOldest()
	if ok {
		t.Error("expected RemoveOldest to return false on empty list")
	}

	// Remove nil
	l.Remove(nil) // Should not panic

	// MoveToFront nil
	l.MoveToFront(nil) // Should not panic
}
