// Package memorystore provides the in-process KeyedStore used by tests,
// the seed tool, and single-instance deployments.
package memorystore

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store is a concurrent in-memory KeyedStore backed by a sharded map. All
// operations are lock-free reads or fine-grained writes; none of them can
// fail, so every error return is nil.
type Store[K comparable, V any] struct {
	entries *xsync.MapOf[K, V]
}

// New creates an empty store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{entries: xsync.NewMapOf[K, V]()}
}

// Get returns the entry for key, reporting whether it was present.
func (s *Store[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	value, ok := s.entries.Load(key)
	return value, ok, nil
}

// GetAll returns the present entries for the given keys.
func (s *Store[K, V]) GetAll(_ context.Context, keys []K) (map[K]V, error) {
	out := make(map[K]V, len(keys))
	for _, key := range keys {
		if value, ok := s.entries.Load(key); ok {
			out[key] = value
		}
	}
	return out, nil
}

// Put inserts or replaces the entry for key.
func (s *Store[K, V]) Put(_ context.Context, key K, value V) error {
	s.entries.Store(key, value)
	return nil
}

// PutAll inserts or replaces all given entries.
func (s *Store[K, V]) PutAll(_ context.Context, entries map[K]V) error {
	for key, value := range entries {
		s.entries.Store(key, value)
	}
	return nil
}

// Remove deletes the entry for key, reporting whether it was present.
func (s *Store[K, V]) Remove(_ context.Context, key K) (bool, error) {
	_, present := s.entries.LoadAndDelete(key)
	return present, nil
}

// Len returns the number of stored entries.
func (s *Store[K, V]) Len() int {
	return s.entries.Size()
}

// Range calls fn for every entry until fn returns false.
func (s *Store[K, V]) Range(fn func(key K, value V) bool) {
	s.entries.Range(fn)
}
