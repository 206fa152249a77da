// Package ratelimit provides a per-key token bucket used to shed ingest
// load. Buffered listen writes are acknowledged before they are persisted,
// so the bucket caps how fast any one client can fill the buffer.
package ratelimit

import (
	"sync"
	"time"
)

const (
	sweepInterval   = 5 * time.Minute
	bucketRetention = time.Hour
)

// TokenBucket keeps one bucket per key. Each bucket starts full at burst
// tokens and regains one token per refill interval.
type TokenBucket struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   int
	refill  time.Duration
}

type bucket struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates a limiter allowing bursts of the given size with
// one token refilled per interval. A background sweep drops buckets that
// have been idle for over an hour.
func NewTokenBucket(burst int, refill time.Duration) *TokenBucket {
	limiter := &TokenBucket{
		buckets: make(map[string]*bucket),
		burst:   burst,
		refill:  refill,
	}
	go limiter.sweep()
	return limiter
}

// Allow consumes one token for key and reports whether any were left.
func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastRefill: time.Now()}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	refilled := int(now.Sub(b.lastRefill) / l.refill)
	if refilled > 0 {
		b.tokens = min(b.tokens+refilled, l.burst)
		b.lastRefill = now
	}

	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// Reset drops the bucket for key, restoring a full burst on its next use.
func (l *TokenBucket) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep periodically removes buckets nobody has touched in a while. Dropped
// buckets come back full, so a sweep can only make the limiter more lenient.
func (l *TokenBucket) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for key, b := range l.buckets {
			b.mu.Lock()
			idle := now.Sub(b.lastRefill) > bucketRetention
			b.mu.Unlock()
			if idle {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
