package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Each instance
// owns a private registry, so tests can build collectors freely without
// duplicate registration panics.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Read-path metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Write-behind metrics
	WritesBuffered prometheus.Counter
	WritesFlushed  prometheus.Counter
	WritesPending  prometheus.Gauge
	FlushCycles    prometheus.Counter
	FlushErrors    prometheus.Counter

	// Invalidation metrics
	KeysInvalidated    prometheus.Counter
	InvalidationErrors prometheus.Counter

	// Warm-up metrics
	WarmupEntries prometheus.Counter
	WarmupErrors  prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of reads served from the cache store",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of reads that fell through to the system of record",
		},
	)

	writesBuffered := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_buffered_total",
			Help:      "Total number of events accepted into the write-behind buffer",
		},
	)

	writesFlushed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_flushed_total",
			Help:      "Total number of buffered events persisted to the system of record",
		},
	)

	writesPending := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "writes_pending",
			Help:      "Number of buffered events awaiting flush",
		},
	)

	flushCycles := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_cycles_total",
			Help:      "Total number of write-behind flush cycles",
		},
	)

	flushErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_errors_total",
			Help:      "Total number of flush cycles that failed",
		},
	)

	keysInvalidated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_invalidated_total",
			Help:      "Total number of cache keys removed by invalidation",
		},
	)

	invalidationErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidation_errors_total",
			Help:      "Total number of cache keys that failed to invalidate",
		},
	)

	warmupEntries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warmup_entries_total",
			Help:      "Total number of entries preloaded into the cache",
		},
	)

	warmupErrors := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warmup_errors_total",
			Help:      "Total number of warm-up tasks that failed",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		cacheHits,
		cacheMisses,
		writesBuffered,
		writesFlushed,
		writesPending,
		flushCycles,
		flushErrors,
		keysInvalidated,
		invalidationErrors,
		warmupEntries,
		warmupErrors,
	)

	return &Collector{
		registry:           registry,
		HTTPRequests:       httpRequests,
		HTTPDuration:       httpDuration,
		CacheHits:          cacheHits,
		CacheMisses:        cacheMisses,
		WritesBuffered:     writesBuffered,
		WritesFlushed:      writesFlushed,
		WritesPending:      writesPending,
		FlushCycles:        flushCycles,
		FlushErrors:        flushErrors,
		KeysInvalidated:    keysInvalidated,
		InvalidationErrors: invalidationErrors,
		WarmupEntries:      warmupEntries,
		WarmupErrors:       warmupErrors,
	}
}

// Handler returns the HTTP handler that exposes this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
