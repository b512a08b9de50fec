// Package cache provides an LRU cache for compiled statements. Compilation
// is deterministic, so a cached statement is safe to replay for the exact
// query that produced it; entries expire by TTL to keep the cache from
// pinning stale schema shapes forever.
package cache

import (
	"sync"
	"time"

	"github.com/vesperdb/vesper/query/compiler"
)

// Stats reports cache effectiveness.
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
}

// HitRate returns the fraction of lookups served from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type node struct {
	key       string
	stmt      *compiler.Statement
	expiresAt time.Time
	prev      *node
	next      *node
}

// LRU is a fixed-capacity statement cache with TTL. Safe for concurrent
// use.
type LRU struct {
	mu         sync.Mutex
	data       map[string]*node
	maxSize    int
	defaultTTL time.Duration
	head       *node // most recent
	tail       *node // least recent
	hits       int64
	misses     int64
	evictions  int64
}

// NewLRU returns a cache holding at most maxSize statements. A zero ttl
// means entries never expire.
func NewLRU(maxSize int, ttl time.Duration) *LRU {
	if maxSize <= 0 {
		maxSize = 128
	}
	return &LRU{
		data:       make(map[string]*node, maxSize),
		maxSize:    maxSize,
		defaultTTL: ttl,
	}
}

// Get returns the cached statement for the key, if present and fresh.
func (c *LRU) Get(key string) (*compiler.Statement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.data[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if !n.expiresAt.IsZero() && time.Now().After(n.expiresAt) {
		c.remove(n)
		c.misses++
		return nil, false
	}
	c.moveToFront(n)
	c.hits++
	return n.stmt, true
}

// Set stores the statement under the key, evicting the least recently used
// entry when full.
func (c *LRU) Set(key string, stmt *compiler.Statement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.data[key]; ok {
		n.stmt = stmt
		n.expiresAt = c.deadline()
		c.moveToFront(n)
		return
	}
	if len(c.data) >= c.maxSize && c.tail != nil {
		c.remove(c.tail)
		c.evictions++
	}
	n := &node{key: key, stmt: stmt, expiresAt: c.deadline()}
	c.data[key] = n
	c.pushFront(n)
}

// Invalidate drops the entry for the key, if any.
func (c *LRU) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.data[key]; ok {
		c.remove(n)
	}
}

// Clear drops every entry.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*node, c.maxSize)
	c.head = nil
	c.tail = nil
}

// GetStats returns a snapshot of the counters.
func (c *LRU) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Size:      len(c.data),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
	}
}

func (c *LRU) deadline() time.Time {
	if c.defaultTTL <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.defaultTTL)
}

func (c *LRU) pushFront(n *node) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU) moveToFront(n *node) {
	if c.head == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU) remove(n *node) {
	c.unlink(n)
	delete(c.data, n.key)
}

func (c *LRU) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
