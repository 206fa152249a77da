package writebehind

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultFlushInterval = 5 * time.Second

// Flusher drives flush cycles on a fixed interval in the background. It is
// started once at boot and stopped during shutdown, draining whatever is
// still buffered before it confirms termination.
type Flusher[K comparable, V any] struct {
	coordinator *Coordinator[K, V]
	interval    time.Duration
	logger      *zap.Logger

	cancel      context.CancelFunc
	stopOnce    sync.Once
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewFlusher creates a background flusher for the coordinator. A zero
// interval falls back to the default.
func NewFlusher[K comparable, V any](
	coordinator *Coordinator[K, V],
	interval time.Duration,
	logger *zap.Logger,
) *Flusher[K, V] {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	return &Flusher[K, V]{
		coordinator: coordinator,
		interval:    interval,
		logger:      logger,
		cancel:      func() {},
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the background flush loop.
func (f *Flusher[K, V]) Start(ctx context.Context) {
	f.logger.Info("starting write-behind flusher",
		zap.Duration("interval", f.interval),
		zap.Int("batch_size", f.coordinator.batchSize),
	)

	ctx, f.cancel = context.WithCancel(ctx)
	go f.run(ctx)
}

// Stop shuts the flusher down gracefully: it signals the loop, waits for
// the final drain, and force-cancels the in-flight cycle if ctx expires
// first. A non-nil return means buffered entries may still be pending.
func (f *Flusher[K, V]) Stop(ctx context.Context) error {
	f.logger.Info("stopping write-behind flusher")
	f.stopOnce.Do(func() { close(f.stopChan) })

	select {
	case <-f.stoppedChan:
		f.logger.Info("write-behind flusher stopped",
			zap.Int64("still_pending", f.coordinator.PendingCount()))
		return nil
	case <-ctx.Done():
		f.cancel()
		<-f.stoppedChan
		f.logger.Warn("write-behind flusher force-stopped",
			zap.Int64("still_pending", f.coordinator.PendingCount()),
			zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// run is the main flush loop.
func (f *Flusher[K, V]) run(ctx context.Context) {
	defer close(f.stoppedChan)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("context cancelled, stopping flush loop")
			return
		case <-f.stopChan:
			f.drain(ctx)
			return
		case <-ticker.C:
			if _, err := f.coordinator.Flush(ctx); err != nil {
				f.logger.Error("flush cycle failed", zap.Error(err))
			}
		}
	}
}

// drain flushes until the buffer is empty or a cycle fails. It runs once,
// on shutdown, after the loop has stopped ticking.
func (f *Flusher[K, V]) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		flushed, err := f.coordinator.Flush(ctx)
		if err != nil {
			f.logger.Error("final drain failed, entries remain pending",
				zap.Int64("pending", f.coordinator.PendingCount()),
				zap.Error(err))
			return
		}
		if flushed == 0 {
			return
		}
	}
}
