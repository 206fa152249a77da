package memorystore

import (
	"context"
	"sync"

	"tempocache/application/ports"
)

// Runner executes transactions against a memory store. Transactions are
// serialized under one mutex, which holds for the whole unit including any
// external calls made inside it: simple and strict, sized for tests and
// single-instance use. Mutations stage in a private view and reach the
// store only on commit.
type Runner[K comparable, V any] struct {
	store *Store[K, V]
	mu    sync.Mutex
}

// NewRunner creates a transaction runner over the given store.
func NewRunner[K comparable, V any](store *Store[K, V]) *Runner[K, V] {
	return &Runner[K, V]{store: store}
}

type stagedOp[V any] struct {
	value  V
	remove bool
}

type memTx[K comparable, V any] struct {
	store  *Store[K, V]
	staged map[K]stagedOp[V]
}

// Get returns the entry as the transaction sees it: staged writes shadow
// the store.
func (t *memTx[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if op, ok := t.staged[key]; ok {
		if op.remove {
			var zero V
			return zero, false, nil
		}
		return op.value, true, nil
	}
	return t.store.Get(ctx, key)
}

// Put stages an insert or replace.
func (t *memTx[K, V]) Put(_ context.Context, key K, value V) error {
	t.staged[key] = stagedOp[V]{value: value}
	return nil
}

// Remove stages a delete.
func (t *memTx[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	_, present, err := t.Get(ctx, key)
	if err != nil {
		return false, err
	}
	t.staged[key] = stagedOp[V]{remove: true}
	return present, nil
}

// RunInTransaction runs fn over a fresh staged view and commits the staged
// mutations only when fn succeeds.
func (r *Runner[K, V]) RunInTransaction(ctx context.Context, fn func(tx ports.Tx[K, V]) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx[K, V]{store: r.store, staged: make(map[K]stagedOp[V])}
	if err := fn(tx); err != nil {
		return err
	}
	for key, op := range tx.staged {
		if op.remove {
			r.store.entries.Delete(key)
		} else {
			r.store.entries.Store(key, op.value)
		}
	}
	return nil
}
