package cache

import (
	"sync"
	"time"
)

// entry holds a cached value with the time it was stored
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache provides thread-safe caching with TTL support
type Cache[V any] struct {
	data   map[string]*entry[V]
	mutex  sync.RWMutex
	ttl    time.Duration
	stopCh chan struct{}
	once   sync.Once
}

// New creates a new Cache with the specified TTL and starts its cleanup goroutine.
// Call Stop to release it.
func New[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		data:   make(map[string]*entry[V]),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a value from the cache if it exists and hasn't expired
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var zero V
	e, exists := c.data[key]
	if !exists || time.Since(e.storedAt) > c.ttl {
		return zero, false
	}
	return e.value, true
}

// Set stores a value in the cache with the current timestamp
func (c *Cache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &entry[V]{value: value, storedAt: time.Now()}
}

// Delete removes a key from the cache
func (c *Cache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
}

// Clear removes all entries from the cache
func (c *Cache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*entry[V])
}

// Size returns the number of entries in the cache, expired ones included until cleanup runs
func (c *Cache[V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}

func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, e := range c.data {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.data, key)
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (c *Cache[V]) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}
