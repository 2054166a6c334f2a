// Package memory keeps the persisted session record in process memory. It is
// the default store for short lived clients and tests.
package memory

import (
	"context"
	"sync"
)

// Store is a map backed key/value store, safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// New creates an empty store
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get returns the value stored under key
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set stores value under key
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes key, missing keys are ignored
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
