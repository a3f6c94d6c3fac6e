package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache is a bounded cache with least-recently-used eviction.
type LRUCache[V any] struct {
	inner *lru.Cache[string, V]
}

// NewLRU creates an LRU cache holding at most size entries. onEvict may be
// nil.
func NewLRU[V any](size int, onEvict EvictCallback[V]) (*LRUCache[V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache: LRU size must be positive, got %d", size)
	}

	var inner *lru.Cache[string, V]
	var err error
	if onEvict != nil {
		inner, err = lru.NewWithEvict[string, V](size, func(key string, value V) {
			onEvict(key, value)
		})
	} else {
		inner, err = lru.New[string, V](size)
	}
	if err != nil {
		return nil, fmt.Errorf("cache: failed to create LRU: %w", err)
	}

	return &LRUCache[V]{inner: inner}, nil
}

// Get retrieves a value and marks it recently used.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	return c.inner.Get(key)
}

// Set stores a value, evicting the least recently used entry when full.
func (c *LRUCache[V]) Set(key string, value V) {
	c.inner.Add(key, value)
}

// Delete removes an entry by key.
func (c *LRUCache[V]) Delete(key string) bool {
	return c.inner.Remove(key)
}

// Clear removes all entries.
func (c *LRUCache[V]) Clear() {
	c.inner.Purge()
}

// Size returns the current number of entries.
func (c *LRUCache[V]) Size() int {
	return c.inner.Len()
}

// Keys returns all keys from oldest to newest.
func (c *LRUCache[V]) Keys() []string {
	return c.inner.Keys()
}

// Close is a no-op for the LRU cache.
func (c *LRUCache[V]) Close() {}
