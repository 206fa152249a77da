// Package invalidation removes cache entries that external writers have
// made stale. Single-key invalidation is idempotent; related-key fan-out is
// best effort, because a missed removal only costs freshness until the next
// write, never correctness of the system of record.
package invalidation

import (
	"context"

	"go.uber.org/zap"

	"tempocache/application/ports"
	"tempocache/pkg/errors"
	"tempocache/pkg/observability"
)

// Remover is the slice of the cache store the invalidator needs.
type Remover[K comparable] interface {
	Remove(ctx context.Context, key K) (bool, error)
}

// MultiRemover fans one removal out to several stores and reports whether
// any of them held the key. Typed cache tiers partition one logical
// keyspace, so a key lives in at most one tier and the others miss
// harmlessly.
type MultiRemover[K comparable] []Remover[K]

// Remove deletes key from every store, stopping at the first failure.
func (m MultiRemover[K]) Remove(ctx context.Context, key K) (bool, error) {
	removed := false
	for _, store := range m {
		ok, err := store.Remove(ctx, key)
		if err != nil {
			return removed, err
		}
		removed = removed || ok
	}
	return removed, nil
}

// Invalidator removes entries and their derived relatives from the cache
// store.
type Invalidator[K comparable] struct {
	store    Remover[K]
	resolver ports.RelationResolver[K]
	derived  func(K) []K
	logger   *zap.Logger
	metrics  *observability.Collector
}

// New creates an invalidator. resolver and derived may be nil, turning the
// related fan-out into a plain root removal.
func New[K comparable](
	store Remover[K],
	resolver ports.RelationResolver[K],
	derived func(K) []K,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Invalidator[K] {
	return &Invalidator[K]{
		store:    store,
		resolver: resolver,
		derived:  derived,
		logger:   logger,
		metrics:  metrics,
	}
}

// Invalidate removes one entry. Removing a key that is not cached still
// succeeds, so repeating an invalidation is safe.
func (i *Invalidator[K]) Invalidate(ctx context.Context, key K) error {
	removed, err := i.store.Remove(ctx, key)
	if err != nil {
		i.countError(1)
		return errors.NewStoreUnavailableError("remove", err)
	}
	if removed {
		i.countRemoved(1)
	}
	i.logger.Debug("cache entry invalidated",
		zap.Any("key", key),
		zap.Bool("was_cached", removed))
	return nil
}

// InvalidateRelated removes the root entry plus every key that derives from
// it: resolved dependents and the conventional stats entries of each. The
// root removal must succeed; failures on related keys are logged and
// counted but never propagated, and one bad key does not stop the rest.
func (i *Invalidator[K]) InvalidateRelated(ctx context.Context, root K) error {
	if err := i.Invalidate(ctx, root); err != nil {
		return err
	}

	related := i.relatedKeys(ctx, root)
	failed := 0
	removed := 0
	for _, key := range related {
		ok, err := i.store.Remove(ctx, key)
		if err != nil {
			failed++
			i.logger.Warn("failed to invalidate related key",
				zap.Any("root", root),
				zap.Any("key", key),
				zap.Error(err))
			continue
		}
		if ok {
			removed++
		}
	}
	i.countRemoved(removed)
	i.countError(failed)

	i.logger.Debug("related invalidation completed",
		zap.Any("root", root),
		zap.Int("related", len(related)),
		zap.Int("removed", removed),
		zap.Int("failed", failed))
	return nil
}

// InvalidateAll removes a set of keys best effort and reports how many were
// actually dropped and how many removals failed.
func (i *Invalidator[K]) InvalidateAll(ctx context.Context, keys []K) (removed, failed int) {
	for _, key := range dedupe(keys) {
		ok, err := i.store.Remove(ctx, key)
		if err != nil {
			failed++
			i.logger.Warn("failed to invalidate key",
				zap.Any("key", key),
				zap.Error(err))
			continue
		}
		if ok {
			removed++
		}
	}
	i.countRemoved(removed)
	i.countError(failed)
	return removed, failed
}

// relatedKeys collects the fan-out set for a root: its derived keys, its
// resolved dependents, and their derived keys. A resolver failure shrinks
// the set instead of failing the call.
func (i *Invalidator[K]) relatedKeys(ctx context.Context, root K) []K {
	var keys []K
	if i.derived != nil {
		keys = append(keys, i.derived(root)...)
	}
	if i.resolver != nil {
		dependents, err := i.resolver.Resolve(ctx, root)
		if err != nil {
			i.countError(1)
			i.logger.Warn("relation resolution failed, invalidating root only",
				zap.Any("root", root),
				zap.Error(err))
		} else {
			for _, dependent := range dependents {
				keys = append(keys, dependent)
				if i.derived != nil {
					keys = append(keys, i.derived(dependent)...)
				}
			}
		}
	}
	return dedupe(keys)
}

func (i *Invalidator[K]) countRemoved(n int) {
	if i.metrics != nil && n > 0 {
		i.metrics.KeysInvalidated.Add(float64(n))
	}
}

func (i *Invalidator[K]) countError(n int) {
	if i.metrics != nil && n > 0 {
		i.metrics.InvalidationErrors.Add(float64(n))
	}
}

func dedupe[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}
