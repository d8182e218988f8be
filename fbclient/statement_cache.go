package fbclient

import (
	"sync"
	"sync/atomic"
)

// StatementCache keys prepared statements by their SQL text, with LRU
// eviction. It exists because Prepare is a full network round trip (two
// pipelined requests, plus a describe-truncation loop); reusing a
// statement across executions skips all of it bar Execute/Fetch.
type StatementCache struct {
	mu          sync.Mutex
	statements  map[string]*Statement
	accessOrder []string
	maxSize     int
	stats       CacheStats
}

// CacheStats tracks cache hit/miss/eviction counts.
type CacheStats struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Evictions atomic.Int64
}

// NewStatementCache creates a cache holding at most maxSize statements.
func NewStatementCache(maxSize int) *StatementCache {
	return &StatementCache{
		statements:  make(map[string]*Statement, maxSize),
		accessOrder: make([]string, 0, maxSize),
		maxSize:     maxSize,
	}
}

// Get returns a cached statement for sql, preparing and caching a new one
// on a miss (evicting the least-recently-used entry first if the cache is
// full).
func (c *StatementCache) Get(conn *Connection, tr TrHandle, db DbHandle, dialect uint32, sql string) (*Statement, error) {
	c.mu.Lock()
	if stmt, ok := c.statements[sql]; ok {
		c.stats.Hits.Add(1)
		c.touch(sql)
		c.mu.Unlock()
		return stmt, nil
	}
	c.mu.Unlock()

	c.stats.Misses.Add(1)
	stmt, err := conn.Prepare(tr, db, dialect, sql)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.accessOrder) >= c.maxSize {
		if err := c.evictLRULocked(); err != nil {
			return nil, err
		}
	}
	c.statements[sql] = stmt
	c.accessOrder = append(c.accessOrder, sql)
	return stmt, nil
}

// Stats returns a point-in-time snapshot of the cache's counters.
func (c *StatementCache) Stats() (hits, misses, evictions int64) {
	return c.stats.Hits.Load(), c.stats.Misses.Load(), c.stats.Evictions.Load()
}

// Clear drops every cached statement, closing each with DSQL_drop.
func (c *StatementCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, sql := range c.accessOrder {
		if stmt, ok := c.statements[sql]; ok {
			if err := stmt.Close(true); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	c.statements = make(map[string]*Statement, c.maxSize)
	c.accessOrder = c.accessOrder[:0]
	return firstErr
}

// evictLRULocked closes and removes the least recently used statement.
// Must be called with c.mu held.
func (c *StatementCache) evictLRULocked() error {
	if len(c.accessOrder) == 0 {
		return nil
	}
	lru := c.accessOrder[0]
	c.accessOrder = c.accessOrder[1:]
	stmt, ok := c.statements[lru]
	delete(c.statements, lru)
	if !ok {
		return nil
	}
	c.stats.Evictions.Add(1)
	return stmt.Close(true)
}

// touch moves sql to the most-recently-used end. Must be called with c.mu
// held.
func (c *StatementCache) touch(sql string) {
	for i, s := range c.accessOrder {
		if s == sql {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
	c.accessOrder = append(c.accessOrder, sql)
}
