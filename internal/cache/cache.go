// Package cache provides a small TTL cache. It is an explicit,
// component-owned abstraction: each user constructs its own cache
// rather than sharing hidden global state. Entries are best-effort;
// dropping or recomputing one is always safe.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value  V
	expiry time.Time
}

// TTL is a thread-safe cache mapping keys to values with a fixed
// time-to-live. A zero or negative TTL disables caching entirely:
// Get never hits and Set is a no-op.
type TTL[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[K]entry[V]
}

// NewTTL creates a cache whose entries expire after ttl.
func NewTTL[K comparable, V any](ttl time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the cached value for key if present and unexpired.
// Expired entries are removed on access.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c.ttl <= 0 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiry) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL.
func (c *TTL[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiry: time.Now().Add(c.ttl)}
}

// Delete removes key from the cache.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge removes every entry.
func (c *TTL[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of entries, expired ones included until their
// next access.
func (c *TTL[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
