package ports

import (
	"context"
)

// KeyedStore defines the interface for the distributed cache store.
// This is a port in hexagonal architecture - the coordinators don't know
// whether entries live in process memory or in a remote table.
//
// Implementations must be safe for concurrent use. The found flag
// distinguishes an absent key from a stored zero value; errors are reserved
// for infrastructure failures, never for misses.
type KeyedStore[K comparable, V any] interface {
	// Get returns the entry for key, reporting whether it was present.
	Get(ctx context.Context, key K) (V, bool, error)

	// GetAll returns the entries for the given keys. Absent keys are
	// omitted from the result rather than reported as errors.
	GetAll(ctx context.Context, keys []K) (map[K]V, error)

	// Put inserts or replaces the entry for key.
	Put(ctx context.Context, key K, value V) error

	// PutAll inserts or replaces all given entries.
	PutAll(ctx context.Context, entries map[K]V) error

	// Remove deletes the entry for key, reporting whether it was present.
	// Removing an absent key is not an error.
	Remove(ctx context.Context, key K) (bool, error)
}

// ExternalSystem defines the interface for the system of record behind the
// cache. Loads happen on cache misses and warm-up; persists happen on the
// write paths.
type ExternalSystem[K comparable, V any] interface {
	// Load fetches the value for key, reporting whether it exists.
	Load(ctx context.Context, key K) (V, bool, error)

	// LoadMany fetches the values for the given keys in one round trip.
	// Unknown keys are omitted from the result.
	LoadMany(ctx context.Context, keys []K) (map[K]V, error)

	// Persist writes one value to the system of record.
	Persist(ctx context.Context, key K, value V) error

	// PersistMany writes a batch of values in one round trip.
	PersistMany(ctx context.Context, entries map[K]V) error

	// LoadTop returns up to n entries ranked by the backing system's
	// notion of popularity. Used by cache warm-up.
	LoadTop(ctx context.Context, n int) (map[K]V, error)
}
