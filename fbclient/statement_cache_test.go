package fbclient

import "testing"

// stubStatement returns an already-closed Statement: Close is then a no-op,
// so eviction/clear exercise the cache's bookkeeping without touching a
// wire connection.
func stubStatement() *Statement {
	return &Statement{closed: true}
}

func TestStatementCacheEvictsLRU(t *testing.T) {
	c := NewStatementCache(2)

	c.mu.Lock()
	c.statements["a"] = stubStatement()
	c.accessOrder = append(c.accessOrder, "a")
	c.statements["b"] = stubStatement()
	c.accessOrder = append(c.accessOrder, "b")
	c.mu.Unlock()

	c.mu.Lock()
	if len(c.accessOrder) >= c.maxSize {
		if err := c.evictLRULocked(); err != nil {
			t.Fatalf("evictLRULocked() error = %v", err)
		}
	}
	c.statements["c"] = stubStatement()
	c.accessOrder = append(c.accessOrder, "c")
	c.mu.Unlock()

	if _, ok := c.statements["a"]; ok {
		t.Fatal("least recently used entry \"a\" should have been evicted")
	}
	if _, ok := c.statements["b"]; !ok {
		t.Fatal("entry \"b\" should still be cached")
	}
	if _, ok := c.statements["c"]; !ok {
		t.Fatal("entry \"c\" should be cached")
	}
	if hits, misses, evictions := c.Stats(); evictions != 1 || hits != 0 || misses != 0 {
		t.Fatalf("Stats() = (%d, %d, %d), want (0, 0, 1)", hits, misses, evictions)
	}
}

func TestStatementCacheTouchReordersAccess(t *testing.T) {
	c := NewStatementCache(3)
	c.accessOrder = []string{"a", "b", "c"}

	c.mu.Lock()
	c.touch("a")
	c.mu.Unlock()

	want := []string{"b", "c", "a"}
	if len(c.accessOrder) != len(want) {
		t.Fatalf("accessOrder = %v, want %v", c.accessOrder, want)
	}
	for i := range want {
		if c.accessOrder[i] != want[i] {
			t.Fatalf("accessOrder = %v, want %v", c.accessOrder, want)
		}
	}
}

func TestStatementCacheClear(t *testing.T) {
	c := NewStatementCache(2)
	c.statements["a"] = stubStatement()
	c.accessOrder = append(c.accessOrder, "a")

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if len(c.statements) != 0 || len(c.accessOrder) != 0 {
		t.Fatal("Clear() must empty both the map and the access order")
	}
}
