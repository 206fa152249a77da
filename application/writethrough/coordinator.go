// Package writethrough implements the strongly consistent write pattern:
// the cache store and the system of record are updated inside one atomic
// unit, so readers never observe a state the system of record has not
// accepted or is not about to accept.
package writethrough

import (
	"context"

	"go.uber.org/zap"

	"tempocache/application/ports"
	"tempocache/pkg/errors"
)

// Coordinator drives the write-through pattern for one value type. Every
// operation runs inside a transaction obtained from the runner; if any step
// fails the staged cache mutations are discarded and nothing is visible.
type Coordinator[K comparable, V any] struct {
	kind   string
	runner ports.TransactionRunner[K, V]
	source ports.ExternalSystem[K, V]
	logger *zap.Logger
}

// New creates a write-through coordinator. kind names the entity for error
// messages and logs.
func New[K comparable, V any](
	kind string,
	runner ports.TransactionRunner[K, V],
	source ports.ExternalSystem[K, V],
	logger *zap.Logger,
) *Coordinator[K, V] {
	return &Coordinator[K, V]{
		kind:   kind,
		runner: runner,
		source: source,
		logger: logger,
	}
}

// Create inserts a new entry into both tiers. The cache is checked first:
// when the key already exists the create fails with an already-exists error
// and the system of record is never called. Otherwise the value is persisted
// to the system of record and then staged into the cache, all inside one
// unit. Any failure aborts the unit and surfaces as a write-through abort
// wrapping the original cause; the already-exists outcome is returned as is.
func (c *Coordinator[K, V]) Create(ctx context.Context, key K, value V) error {
	err := c.runner.RunInTransaction(ctx, func(tx ports.Tx[K, V]) error {
		_, exists, err := tx.Get(ctx, key)
		if err != nil {
			return errors.NewStoreUnavailableError("get", err)
		}
		if exists {
			return errors.NewAlreadyExistsError(c.kind, key)
		}
		// System of record first: a value enters the cache only after the
		// authoritative copy is accepted.
		if err := c.source.Persist(ctx, key, value); err != nil {
			return errors.NewExternalUnavailableError("persist", err)
		}
		return tx.Put(ctx, key, value)
	})
	if err != nil {
		if errors.IsAlreadyExists(err) {
			return err
		}
		c.logger.Warn("create aborted",
			zap.String("kind", c.kind),
			zap.Any("key", key),
			zap.Error(err))
		return errors.NewWriteThroughAbortedError("create", err)
	}
	c.logger.Debug("entry created",
		zap.String("kind", c.kind),
		zap.Any("key", key))
	return nil
}

// Update replaces an entry in both tiers inside one unit. The cache
// mutation is staged before the system of record is written; within the
// open unit the cache may briefly run ahead, never the other way, and an
// abort discards the staged state entirely.
func (c *Coordinator[K, V]) Update(ctx context.Context, key K, value V) error {
	err := c.runner.RunInTransaction(ctx, func(tx ports.Tx[K, V]) error {
		if err := tx.Put(ctx, key, value); err != nil {
			return errors.NewStoreUnavailableError("put", err)
		}
		if err := c.source.Persist(ctx, key, value); err != nil {
			return errors.NewExternalUnavailableError("persist", err)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("update aborted",
			zap.String("kind", c.kind),
			zap.Any("key", key),
			zap.Error(err))
		return errors.NewWriteThroughAbortedError("update", err)
	}
	return nil
}

// UpdateAll replaces a batch of entries inside one shared unit. The batch
// commits or aborts as a whole; one bad entry rolls back every other entry
// staged in the same call.
func (c *Coordinator[K, V]) UpdateAll(ctx context.Context, entries map[K]V) error {
	if len(entries) == 0 {
		return nil
	}
	err := c.runner.RunInTransaction(ctx, func(tx ports.Tx[K, V]) error {
		for key, value := range entries {
			if err := tx.Put(ctx, key, value); err != nil {
				return errors.NewStoreUnavailableError("put", err)
			}
			if err := c.source.Persist(ctx, key, value); err != nil {
				return errors.NewExternalUnavailableError("persist", err)
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("batched update aborted",
			zap.String("kind", c.kind),
			zap.Int("entries", len(entries)),
			zap.Error(err))
		return errors.NewWriteThroughAbortedError("update_all", err)
	}
	c.logger.Debug("batched update committed",
		zap.String("kind", c.kind),
		zap.Int("entries", len(entries)))
	return nil
}

// CreateAsync runs Create on its own goroutine and delivers the outcome on
// the returned channel.
func (c *Coordinator[K, V]) CreateAsync(ctx context.Context, key K, value V) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		out <- c.Create(ctx, key, value)
	}()
	return out
}

// UpdateAsync runs Update on its own goroutine and delivers the outcome on
// the returned channel.
func (c *Coordinator[K, V]) UpdateAsync(ctx context.Context, key K, value V) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		out <- c.Update(ctx, key, value)
	}()
	return out
}

// UpdateAllAsync runs UpdateAll on its own goroutine and delivers the
// outcome on the returned channel.
func (c *Coordinator[K, V]) UpdateAllAsync(ctx context.Context, entries map[K]V) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		out <- c.UpdateAll(ctx, entries)
	}()
	return out
}
