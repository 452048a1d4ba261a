package kvstore

import (
	"context"
	"sync"
)

// InMemory is a Store backed by a map. Used in tests and local runs
// without Redis.
type InMemory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{m: make(map[string][]byte)}
}

// Get implements Store.
func (s *InMemory) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

// Put implements Store.
func (s *InMemory) Put(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.mu.Lock()
	s.m[key] = cp
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}
