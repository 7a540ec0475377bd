// Package cache is a small in-memory TTL cache keyed by any comparable value
package cache

import (
	"sync"
	"time"

	"estimateml/domain/core"
)

// Entry is a cached value with its expiry
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Cache maps K to V with a fixed time-to-live. A zero or negative TTL disables it:
// Set is a no-op and Get always misses.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]Entry[V]
	ttl     time.Duration
	now     core.Clock
}

// New creates a cache; a nil clock uses the wall clock
func New[K comparable, V any](ttl time.Duration, clock core.Clock) *Cache[K, V] {
	if clock == nil {
		clock = core.SystemClock
	}
	return &Cache[K, V]{
		entries: make(map[K]Entry[V]),
		ttl:     ttl,
		now:     clock,
	}
}

// Enabled reports whether entries are retained at all
func (c *Cache[K, V]) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Get returns the live value for key
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !c.now().Before(e.ExpiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.ExpiresAt.Equal(e.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key until now+TTL
func (c *Cache[K, V]) Set(key K, value V) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	c.entries[key] = Entry[V]{Value: value, ExpiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed
func (c *Cache[K, V]) Purge() int {
	if !c.Enabled() {
		return 0
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear drops every entry
func (c *Cache[K, V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[K]Entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included until purged
func (c *Cache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
