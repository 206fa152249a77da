// Package warmup preloads the cache store with entries that are likely to
// be read soon, typically at boot or before an announced traffic spike. A
// warm-up failure leaves the cache colder than hoped, nothing worse, so
// tasks run concurrently and fail soft.
package warmup

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tempocache/application/ports"
	"tempocache/pkg/observability"
)

// Task is one named preload unit. Run reports how many entries it loaded.
type Task struct {
	Name string
	Run  func(ctx context.Context) (int, error)
}

// NewTask builds the usual top-K preload over one store and source pair:
// fetch the most popular entries from the system of record and bulk-insert
// them into the cache.
func NewTask[K comparable, V any](
	name string,
	topK int,
	source ports.ExternalSystem[K, V],
	store ports.KeyedStore[K, V],
) Task {
	return Task{
		Name: name,
		Run: func(ctx context.Context) (int, error) {
			entries, err := source.LoadTop(ctx, topK)
			if err != nil {
				return 0, err
			}
			if len(entries) == 0 {
				return 0, nil
			}
			if err := store.PutAll(ctx, entries); err != nil {
				return 0, err
			}
			return len(entries), nil
		},
	}
}

// Report summarizes one warm-up run.
type Report struct {
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Loaded    int           `json:"loaded"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Warmer runs a fixed set of preload tasks.
type Warmer struct {
	tasks   []Task
	logger  *zap.Logger
	metrics *observability.Collector
}

// New creates a warmer over the given tasks.
func New(tasks []Task, logger *zap.Logger, metrics *observability.Collector) *Warmer {
	return &Warmer{tasks: tasks, logger: logger, metrics: metrics}
}

// WarmUp runs every task concurrently and waits for all of them. A failing
// task is logged and counted; it never aborts the run or fails the others.
func (w *Warmer) WarmUp(ctx context.Context) Report {
	start := time.Now()
	var wg sync.WaitGroup
	var completed, failed, loaded atomic.Int64

	for _, task := range w.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			n, err := t.Run(ctx)
			if err != nil {
				failed.Add(1)
				if w.metrics != nil {
					w.metrics.WarmupErrors.Inc()
				}
				w.logger.Warn("warm-up task failed",
					zap.String("task", t.Name),
					zap.Error(err))
				return
			}
			completed.Add(1)
			loaded.Add(int64(n))
			if w.metrics != nil {
				w.metrics.WarmupEntries.Add(float64(n))
			}
			w.logger.Info("warm-up task completed",
				zap.String("task", t.Name),
				zap.Int("entries", n))
		}(task)
	}
	wg.Wait()

	report := Report{
		Completed: int(completed.Load()),
		Failed:    int(failed.Load()),
		Loaded:    int(loaded.Load()),
		Elapsed:   time.Since(start),
	}
	w.logger.Info("warm-up finished",
		zap.Int("completed", report.Completed),
		zap.Int("failed", report.Failed),
		zap.Int("loaded", report.Loaded),
		zap.Duration("elapsed", report.Elapsed))
	return report
}

// WarmUpAsync runs WarmUp on its own goroutine and delivers the report on
// the returned channel.
func (w *Warmer) WarmUpAsync(ctx context.Context) <-chan Report {
	out := make(chan Report, 1)
	go func() {
		defer close(out)
		out <- w.WarmUp(ctx)
	}()
	return out
}
