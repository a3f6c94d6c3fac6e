package cache

import (
	"sync"
	"time"
)

// TTLCache evicts entries after a fixed time-to-live. A background janitor
// sweeps expired entries at the cleanup interval; reads also check expiry so
// stale values are never returned.
type TTLCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	ttl     time.Duration
	onEvict EvictCallback[V]

	done chan struct{}
	once sync.Once
}

// NewTTL creates a TTL cache. cleanupInterval <= 0 disables the janitor;
// expired entries are then only reclaimed lazily on access.
func NewTTL[V any](ttl, cleanupInterval time.Duration, onEvict EvictCallback[V]) *TTLCache[V] {
	c := &TTLCache[V]{
		entries: make(map[string]*entry[V]),
		ttl:     ttl,
		onEvict: onEvict,
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}

	return c
}

func (c *TTLCache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes all expired entries.
func (c *TTLCache[V]) sweep() {
	now := time.Now()

	c.mu.Lock()
	var evicted []struct {
		key   string
		value V
	}
	for key, e := range c.entries {
		if e.expired(now) {
			evicted = append(evicted, struct {
				key   string
				value V
			}{key, e.value})
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, ev := range evicted {
			c.onEvict(ev.key, ev.value)
		}
	}
}

// Get retrieves a value if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the cache's TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = &entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// SetIfAbsent stores a value only when the key is absent or expired.
// Returns true if the value was stored. The check and insert are atomic.
func (c *TTLCache[V]) SetIfAbsent(key string, value V) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && !e.expired(now) {
		return false
	}
	c.entries[key] = &entry[V]{value: value, expiresAt: now.Add(c.ttl)}
	return true
}

// Delete removes an entry by key.
func (c *TTLCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Clear removes all entries.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry[V])
	c.mu.Unlock()
}

// Size returns the number of entries, including not-yet-swept expired ones.
func (c *TTLCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns all unexpired keys.
func (c *TTLCache[V]) Keys() []string {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key, e := range c.entries {
		if !e.expired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Close stops the janitor goroutine.
func (c *TTLCache[V]) Close() {
	c.once.Do(func() { close(c.done) })
}
