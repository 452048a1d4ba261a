// Package cache provides small in-memory caches for reference data.
// Loaded once per process and invalidated only by an explicit Clear.
package cache

import "sync"

// Value caches a single loaded collection or record.
type Value[T any] struct {
	mu     sync.RWMutex
	value  T
	loaded bool
}

// Get returns the cached value and whether it has been set.
func (c *Value[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.loaded
}

// Set stores the value.
func (c *Value[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.loaded = true
	c.mu.Unlock()
}

// Clear drops the cached value.
func (c *Value[T]) Clear() {
	var zero T
	c.mu.Lock()
	c.value = zero
	c.loaded = false
	c.mu.Unlock()
}

// Map caches values by key.
type Map[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewMap creates an empty keyed cache.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Get returns the cached value for key.
func (c *Map[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

// Set stores a value under key.
func (c *Map[K, V]) Set(key K, v V) {
	c.mu.Lock()
	c.m[key] = v
	c.mu.Unlock()
}

// Clear drops all cached entries.
func (c *Map[K, V]) Clear() {
	c.mu.Lock()
	c.m = make(map[K]V)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Map[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
