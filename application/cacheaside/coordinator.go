// Package cacheaside implements the read-mostly caching pattern: reads
// consult the cache store first and fall through to the system of record,
// populating the store on the way back. Writes persist to the system of
// record and invalidate the cached entry instead of updating it in place.
package cacheaside

import (
	"context"

	"go.uber.org/zap"

	"tempocache/application/ports"
	"tempocache/pkg/errors"
	"tempocache/pkg/observability"
)

// Coordinator drives the cache-aside pattern for one value type. It is
// stateless apart from its collaborators and safe for concurrent use.
type Coordinator[K comparable, V any] struct {
	kind    string
	store   ports.KeyedStore[K, V]
	source  ports.ExternalSystem[K, V]
	logger  *zap.Logger
	metrics *observability.Collector
}

// New creates a cache-aside coordinator. kind names the entity for error
// messages and logs, e.g. "artist".
func New[K comparable, V any](
	kind string,
	store ports.KeyedStore[K, V],
	source ports.ExternalSystem[K, V],
	logger *zap.Logger,
	metrics *observability.Collector,
) *Coordinator[K, V] {
	return &Coordinator[K, V]{
		kind:    kind,
		store:   store,
		source:  source,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the value for key, serving from the cache store when present
// and loading through from the system of record on a miss. A value loaded on
// a miss is written to the store before it is returned. Negative results are
// never cached: a missing key costs a load on every call until it appears.
func (c *Coordinator[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V

	value, found, err := c.store.Get(ctx, key)
	if err != nil {
		// A failing cache store is surfaced, not silently bypassed.
		return zero, errors.NewStoreUnavailableError("get", err)
	}
	if found {
		c.recordHit()
		return value, nil
	}
	c.recordMiss()

	loaded, ok, err := c.source.Load(ctx, key)
	if err != nil {
		return zero, errors.NewExternalUnavailableError("load", err)
	}
	if !ok {
		return zero, errors.NewNotFoundError(c.kind, key)
	}

	if err := c.store.Put(ctx, key, loaded); err != nil {
		return zero, errors.NewStoreUnavailableError("put", err)
	}
	c.logger.Debug("cache populated after miss",
		zap.String("kind", c.kind),
		zap.Any("key", key))
	return loaded, nil
}

// GetAll returns the values for the given keys, mixing cache hits with a
// single batched load for whatever is missing. Keys absent from both tiers
// are omitted from the result; a missing key is not an error here.
func (c *Coordinator[K, V]) GetAll(ctx context.Context, keys []K) (map[K]V, error) {
	if len(keys) == 0 {
		return map[K]V{}, nil
	}
	unique := dedupe(keys)

	cached, err := c.store.GetAll(ctx, unique)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("get_all", err)
	}

	missing := make([]K, 0, len(unique))
	for _, key := range unique {
		if _, ok := cached[key]; !ok {
			missing = append(missing, key)
		}
	}
	c.recordHits(len(unique) - len(missing))
	c.recordMisses(len(missing))

	if len(missing) == 0 {
		return cached, nil
	}

	// One round trip for all misses, regardless of how many there are.
	loaded, err := c.source.LoadMany(ctx, missing)
	if err != nil {
		return nil, errors.NewExternalUnavailableError("load_many", err)
	}
	if len(loaded) > 0 {
		if err := c.store.PutAll(ctx, loaded); err != nil {
			return nil, errors.NewStoreUnavailableError("put_all", err)
		}
	}

	merged := make(map[K]V, len(cached)+len(loaded))
	for key, value := range cached {
		merged[key] = value
	}
	for key, value := range loaded {
		merged[key] = value
	}

	c.logger.Debug("batched read completed",
		zap.String("kind", c.kind),
		zap.Int("requested", len(unique)),
		zap.Int("from_cache", len(cached)),
		zap.Int("from_source", len(loaded)))
	return merged, nil
}

// Update persists the value to the system of record and invalidates the
// cached entry, in that order. The next read repopulates the cache from
// fresh state; the entry is never patched in place.
func (c *Coordinator[K, V]) Update(ctx context.Context, key K, value V) error {
	if err := c.source.Persist(ctx, key, value); err != nil {
		return errors.NewExternalUnavailableError("persist", err)
	}
	if _, err := c.store.Remove(ctx, key); err != nil {
		return errors.NewStoreUnavailableError("remove", err)
	}
	c.logger.Debug("entry updated and invalidated",
		zap.String("kind", c.kind),
		zap.Any("key", key))
	return nil
}

// GetAsync runs Get on its own goroutine and delivers the outcome on the
// returned channel. The channel is buffered and closed after one send.
func (c *Coordinator[K, V]) GetAsync(ctx context.Context, key K) <-chan ports.Result[V] {
	out := make(chan ports.Result[V], 1)
	go func() {
		defer close(out)
		value, err := c.Get(ctx, key)
		out <- ports.Result[V]{Value: value, Err: err}
	}()
	return out
}

// GetAllAsync runs GetAll on its own goroutine and delivers the outcome on
// the returned channel.
func (c *Coordinator[K, V]) GetAllAsync(ctx context.Context, keys []K) <-chan ports.Result[map[K]V] {
	out := make(chan ports.Result[map[K]V], 1)
	go func() {
		defer close(out)
		values, err := c.GetAll(ctx, keys)
		out <- ports.Result[map[K]V]{Value: values, Err: err}
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

func (c *Coordinator[K, V]) recordHit()  { c.recordHits(1) }
func (c *Coordinator[K, V]) recordMiss() { c.recordMisses(1) }

func (c *Coordinator[K, V]) recordHits(n int) {
	if c.metrics != nil && n > 0 {
		c.metrics.CacheHits.Add(float64(n))
	}
}

func (c *Coordinator[K, V]) recordMisses(n int) {
	if c.metrics != nil && n > 0 {
		c.metrics.CacheMisses.Add(float64(n))
	}
}

// dedupe returns keys with duplicates removed, preserving first-seen order.
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
