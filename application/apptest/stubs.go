// Package apptest provides call-counting test doubles for the coordinator
// packages. The doubles implement the application ports over plain maps and
// let tests inject failures per operation.
package apptest

import (
	"context"
	"sync"
	"sync/atomic"
)

// CountingStore is an in-memory KeyedStore that records how often each
// operation runs. Error fields, when set, fail the matching operation
// before it touches the map.
type CountingStore[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]V

	GetCalls    atomic.Int64
	GetAllCalls atomic.Int64
	PutCalls    atomic.Int64
	PutAllCalls atomic.Int64
	RemoveCalls atomic.Int64

	GetErr    error
	GetAllErr error
	PutErr    error
	PutAllErr error
	RemoveErr error
}

// NewStore creates an empty counting store.
func NewStore[K comparable, V any]() *CountingStore[K, V] {
	return &CountingStore[K, V]{entries: make(map[K]V)}
}

// Seed inserts an entry without touching the call counters.
func (s *CountingStore[K, V]) Seed(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Snapshot returns a copy of the stored entries.
func (s *CountingStore[K, V]) Snapshot() map[K]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, len(s.entries))
	for key, value := range s.entries {
		out[key] = value
	}
	return out
}

// Len returns the number of stored entries.
func (s *CountingStore[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// removeDirect deletes an entry without touching the call counters.
func (s *CountingStore[K, V]) removeDirect(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *CountingStore[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	s.GetCalls.Add(1)
	var zero V
	if s.GetErr != nil {
		return zero, false, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *CountingStore[K, V]) GetAll(_ context.Context, keys []K) (map[K]V, error) {
	s.GetAllCalls.Add(1)
	if s.GetAllErr != nil {
		return nil, s.GetAllErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, len(keys))
	for _, key := range keys {
		if value, ok := s.entries[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (s *CountingStore[K, V]) Put(_ context.Context, key K, value V) error {
	s.PutCalls.Add(1)
	if s.PutErr != nil {
		return s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *CountingStore[K, V]) PutAll(_ context.Context, entries map[K]V) error {
	s.PutAllCalls.Add(1)
	if s.PutAllErr != nil {
		return s.PutAllErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		s.entries[key] = value
	}
	return nil
}

func (s *CountingStore[K, V]) Remove(_ context.Context, key K) (bool, error) {
	s.RemoveCalls.Add(1)
	if s.RemoveErr != nil {
		return false, s.RemoveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok, nil
}

// CountingSystem is an in-memory ExternalSystem that records how often each
// operation runs. TopEntries backs LoadTop and is kept separate from the
// main map so tests control exactly what warm-up sees.
type CountingSystem[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]V
	TopEntries map[K]V

	LoadCalls        atomic.Int64
	LoadManyCalls    atomic.Int64
	PersistCalls     atomic.Int64
	PersistManyCalls atomic.Int64
	LoadTopCalls     atomic.Int64

	LoadErr        error
	LoadManyErr    error
	PersistErr     error
	PersistManyErr error
	LoadTopErr     error
}

// NewSystem creates an empty counting system of record.
func NewSystem[K comparable, V any]() *CountingSystem[K, V] {
	return &CountingSystem[K, V]{entries: make(map[K]V)}
}

// Seed inserts an entry without touching the call counters.
func (s *CountingSystem[K, V]) Seed(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Snapshot returns a copy of the persisted entries.
func (s *CountingSystem[K, V]) Snapshot() map[K]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, len(s.entries))
	for key, value := range s.entries {
		out[key] = value
	}
	return out
}

// Len returns the number of persisted entries.
func (s *CountingSystem[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *CountingSystem[K, V]) Load(_ context.Context, key K) (V, bool, error) {
	s.LoadCalls.Add(1)
	var zero V
	if s.LoadErr != nil {
		return zero, false, s.LoadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *CountingSystem[K, V]) LoadMany(_ context.Context, keys []K) (map[K]V, error) {
	s.LoadManyCalls.Add(1)
	if s.LoadManyErr != nil {
		return nil, s.LoadManyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, len(keys))
	for _, key := range keys {
		if value, ok := s.entries[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (s *CountingSystem[K, V]) Persist(_ context.Context, key K, value V) error {
	s.PersistCalls.Add(1)
	if s.PersistErr != nil {
		return s.PersistErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *CountingSystem[K, V]) PersistMany(_ context.Context, entries map[K]V) error {
	s.PersistManyCalls.Add(1)
	if s.PersistManyErr != nil {
		return s.PersistManyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		s.entries[key] = value
	}
	return nil
}

func (s *CountingSystem[K, V]) LoadTop(_ context.Context, n int) (map[K]V, error) {
	s.LoadTopCalls.Add(1)
	if s.LoadTopErr != nil {
		return nil, s.LoadTopErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, n)
	for key, value := range s.TopEntries {
		if len(out) == n {
			break
		}
		out[key] = value
	}
	return out, nil
}
