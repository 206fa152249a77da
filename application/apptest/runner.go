package apptest

import (
	"context"
	"sync/atomic"

	"tempocache/application/ports"
)

// StagedRunner is a TransactionRunner double that stages mutations in
// memory and applies them to the wrapped CountingStore only when the
// transaction function succeeds. CommitErr, when set, fails the commit
// after the function has already succeeded.
type StagedRunner[K comparable, V any] struct {
	Store *CountingStore[K, V]

	RunCalls  atomic.Int64
	CommitErr error
	TxPutErr  error
}

// NewRunner creates a staged runner over the given store.
func NewRunner[K comparable, V any](store *CountingStore[K, V]) *StagedRunner[K, V] {
	return &StagedRunner[K, V]{Store: store}
}

type stagedOp[V any] struct {
	value  V
	remove bool
}

type stagedTx[K comparable, V any] struct {
	runner *StagedRunner[K, V]
	staged map[K]stagedOp[V]
}

func (t *stagedTx[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if op, ok := t.staged[key]; ok {
		if op.remove {
			var zero V
			return zero, false, nil
		}
		return op.value, true, nil
	}
	return t.runner.Store.Get(ctx, key)
}

func (t *stagedTx[K, V]) Put(_ context.Context, key K, value V) error {
	if t.runner.TxPutErr != nil {
		return t.runner.TxPutErr
	}
	t.staged[key] = stagedOp[V]{value: value}
	return nil
}

func (t *stagedTx[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	_, existed, err := t.Get(ctx, key)
	if err != nil {
		return false, err
	}
	t.staged[key] = stagedOp[V]{remove: true}
	return existed, nil
}

// RunInTransaction executes fn over a fresh staged view. Mutations reach
// the store only when fn and the commit both succeed.
func (r *StagedRunner[K, V]) RunInTransaction(ctx context.Context, fn func(tx ports.Tx[K, V]) error) error {
	r.RunCalls.Add(1)
	tx := &stagedTx[K, V]{runner: r, staged: make(map[K]stagedOp[V])}
	if err := fn(tx); err != nil {
		return err
	}
	if r.CommitErr != nil {
		return r.CommitErr
	}
	for key, op := range tx.staged {
		if op.remove {
			r.Store.removeDirect(key)
		} else {
			r.Store.Seed(key, op.value)
		}
	}
	return nil
}
