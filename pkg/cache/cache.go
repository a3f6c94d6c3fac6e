// Package cache provides generic, thread-safe cache implementations.
//
// Two cache types are offered:
//   - LRUCache: bounded, least-recently-used eviction
//   - TTLCache: time-to-live eviction with a background janitor
//
// Both are safe for concurrent use.
package cache

import "time"

// Cache is the interface all cache implementations satisfy, parameterized by
// value type V.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the zero value and false when absent.
	Get(key string) (V, bool)

	// Set stores a value with the given key.
	Set(key string, value V)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) bool

	// Clear removes all entries.
	Clear()

	// Size returns the current number of entries.
	Size() int

	// Keys returns all keys currently in the cache.
	Keys() []string

	// Close releases any background resources.
	Close()
}

// EvictCallback is invoked when an entry is evicted.
type EvictCallback[V any] func(key string, value V)

// entry is a TTL cache entry with its expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}
