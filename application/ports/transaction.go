package ports

import (
	"context"
)

// Tx is a transaction-scoped view of a KeyedStore. Reads through the view
// observe writes staged earlier in the same transaction, before anything
// commits.
type Tx[K comparable, V any] interface {
	// Get returns the entry for key as the transaction sees it.
	Get(ctx context.Context, key K) (V, bool, error)

	// Put stages an insert or replace of the entry for key.
	Put(ctx context.Context, key K, value V) error

	// Remove stages a delete of the entry for key, reporting whether the
	// transaction saw it as present.
	Remove(ctx context.Context, key K) (bool, error)
}

// TransactionRunner executes a function inside one atomic unit against the
// cache store. When fn returns an error every staged mutation is discarded
// and the error is returned; otherwise all staged mutations commit together.
//
// Implementations must not let a partially applied transaction become
// visible to readers once Run returns.
type TransactionRunner[K comparable, V any] interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx[K, V]) error) error
}
