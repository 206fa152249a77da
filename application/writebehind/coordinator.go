// Package writebehind implements the buffered write pattern: events are
// accepted into the cache store immediately and persisted to the system of
// record later in batches. Callers trade durability-on-ack for write
// latency; delivery is at least once, so the system of record must absorb
// replays.
package writebehind

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"tempocache/application/ports"
	"tempocache/pkg/errors"
	"tempocache/pkg/observability"
)

const defaultBatchSize = 50

// Coordinator buffers writes in the cache store and tracks which keys still
// await persistence. The pending index lives in process memory; after a
// restart, recovery happens by re-recording or by an operator-driven sync,
// not automatically.
type Coordinator[K comparable, V any] struct {
	kind      string
	store     ports.KeyedStore[K, PendingWrite[V]]
	source    ports.ExternalSystem[K, V]
	keyFn     func(V) K
	batchSize int
	logger    *zap.Logger
	metrics   *observability.Collector

	pending      *xsync.MapOf[K, struct{}]
	pendingCount atomic.Int64
	syncedCount  atomic.Int64
	errorCount   atomic.Int64
}

// New creates a write-behind coordinator. keyFn derives the buffer key from
// an event; batchSize caps how many entries one flush cycle picks up, with
// a sensible default when zero.
func New[K comparable, V any](
	kind string,
	store ports.KeyedStore[K, PendingWrite[V]],
	source ports.ExternalSystem[K, V],
	keyFn func(V) K,
	batchSize int,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Coordinator[K, V] {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Coordinator[K, V]{
		kind:      kind,
		store:     store,
		source:    source,
		keyFn:     keyFn,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
		pending:   xsync.NewMapOf[K, struct{}](),
	}
}

// RecordEvent buffers one event and returns as soon as the cache store has
// accepted it. The system of record sees the event on a later flush cycle.
func (c *Coordinator[K, V]) RecordEvent(ctx context.Context, event V) error {
	key := c.keyFn(event)
	entry := PendingWrite[V]{
		Value:      event,
		Status:     StatusPending,
		RecordedAt: time.Now(),
	}
	if err := c.store.Put(ctx, key, entry); err != nil {
		return errors.NewStoreUnavailableError("put", err)
	}
	c.trackPending(key)
	if c.metrics != nil {
		c.metrics.WritesBuffered.Inc()
	}
	return nil
}

// RecordEvents buffers a batch of events with one store round trip.
func (c *Coordinator[K, V]) RecordEvents(ctx context.Context, events []V) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now()
	entries := make(map[K]PendingWrite[V], len(events))
	for _, event := range events {
		entries[c.keyFn(event)] = PendingWrite[V]{
			Value:      event,
			Status:     StatusPending,
			RecordedAt: now,
		}
	}
	if err := c.store.PutAll(ctx, entries); err != nil {
		return errors.NewStoreUnavailableError("put_all", err)
	}
	for key := range entries {
		c.trackPending(key)
	}
	if c.metrics != nil {
		c.metrics.WritesBuffered.Add(float64(len(entries)))
	}
	return nil
}

// RecordEventAsync runs RecordEvent on its own goroutine and delivers the
// outcome on the returned channel.
func (c *Coordinator[K, V]) RecordEventAsync(ctx context.Context, event V) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		out <- c.RecordEvent(ctx, event)
	}()
	return out
}

// ForceSync persists one buffered event immediately instead of waiting for
// the next flush cycle.
func (c *Coordinator[K, V]) ForceSync(ctx context.Context, event V) error {
	return c.ForceSyncKey(ctx, c.keyFn(event))
}

// ForceSyncKey persists the buffered entry under key immediately. Syncing
// an entry that has already synced is a no-op; an unknown key is reported
// as not found.
func (c *Coordinator[K, V]) ForceSyncKey(ctx context.Context, key K) error {
	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		return errors.NewStoreUnavailableError("get", err)
	}
	if !found {
		return errors.NewNotFoundError(c.kind, key)
	}
	if entry.Status == StatusSynced {
		return nil
	}
	if err := c.source.Persist(ctx, key, entry.Value); err != nil {
		c.errorCount.Add(1)
		return errors.NewExternalUnavailableError("persist", err)
	}
	entry.Status = StatusSynced
	entry.SyncedAt = time.Now()
	if err := c.store.Put(ctx, key, entry); err != nil {
		// Persisted but still marked pending; the flush cycle will
		// re-deliver it. At-least-once absorbs the duplicate.
		return errors.NewStoreUnavailableError("put", err)
	}
	c.untrackPending(key)
	c.syncedCount.Add(1)
	c.logger.Debug("entry force-synced",
		zap.String("kind", c.kind),
		zap.Any("key", key))
	return nil
}

// Flush runs one flush cycle: it snapshots up to batchSize pending keys,
// persists their values in a single batched call, and marks them synced.
// On failure every entry stays pending and the next cycle retries; the
// error is returned for the scheduler to log, never for event producers.
func (c *Coordinator[K, V]) Flush(ctx context.Context) (int, error) {
	if c.metrics != nil {
		c.metrics.FlushCycles.Inc()
	}
	if c.pendingCount.Load() == 0 {
		return 0, nil
	}

	keys := make([]K, 0, c.batchSize)
	c.pending.Range(func(key K, _ struct{}) bool {
		keys = append(keys, key)
		return len(keys) < c.batchSize
	})
	if len(keys) == 0 {
		return 0, nil
	}

	entries, err := c.store.GetAll(ctx, keys)
	if err != nil {
		return 0, c.flushFailed(errors.NewStoreUnavailableError("get_all", err))
	}

	// Keys whose entries vanished or already synced drop out of the index.
	batch := make(map[K]V, len(entries))
	flushable := make(map[K]PendingWrite[V], len(entries))
	for _, key := range keys {
		entry, ok := entries[key]
		if !ok || entry.Status != StatusPending {
			c.untrackPending(key)
			continue
		}
		batch[key] = entry.Value
		flushable[key] = entry
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if err := c.source.PersistMany(ctx, batch); err != nil {
		return 0, c.flushFailed(errors.NewExternalUnavailableError("persist_many", err))
	}

	now := time.Now()
	synced := make(map[K]PendingWrite[V], len(flushable))
	for key, entry := range flushable {
		entry.Status = StatusSynced
		entry.SyncedAt = now
		synced[key] = entry
	}
	if err := c.store.PutAll(ctx, synced); err != nil {
		// Persisted but still marked pending; the next cycle re-delivers.
		return 0, c.flushFailed(errors.NewStoreUnavailableError("put_all", err))
	}

	for key := range synced {
		c.untrackPending(key)
	}
	c.syncedCount.Add(int64(len(synced)))
	if c.metrics != nil {
		c.metrics.WritesFlushed.Add(float64(len(synced)))
	}
	c.logger.Debug("flush cycle completed",
		zap.String("kind", c.kind),
		zap.Int("flushed", len(synced)))
	return len(synced), nil
}

// Stats returns a snapshot of the buffer counters.
func (c *Coordinator[K, V]) Stats() Stats {
	return Stats{
		Pending: c.pendingCount.Load(),
		Synced:  c.syncedCount.Load(),
		Errors:  c.errorCount.Load(),
	}
}

// PendingCount returns the number of unique keys awaiting persistence.
func (c *Coordinator[K, V]) PendingCount() int64 {
	return c.pendingCount.Load()
}

func (c *Coordinator[K, V]) flushFailed(err error) error {
	c.errorCount.Add(1)
	if c.metrics != nil {
		c.metrics.FlushErrors.Inc()
	}
	return err
}

func (c *Coordinator[K, V]) trackPending(key K) {
	if _, loaded := c.pending.LoadOrStore(key, struct{}{}); !loaded {
		count := c.pendingCount.Add(1)
		if c.metrics != nil {
			c.metrics.WritesPending.Set(float64(count))
		}
	}
}

func (c *Coordinator[K, V]) untrackPending(key K) {
	if _, loaded := c.pending.LoadAndDelete(key); loaded {
		count := c.pendingCount.Add(-1)
		if c.metrics != nil {
			c.metrics.WritesPending.Set(float64(count))
		}
	}
}
