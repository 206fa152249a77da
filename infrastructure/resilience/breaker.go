// Package resilience wraps the system of record in a circuit breaker so a
// failing backend sheds load instead of stacking timeouts behind the cache.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"tempocache/application/ports"
)

// Config holds the circuit breaker tuning knobs.
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// The breaker trips once at least MinRequests calls have been seen and
	// the failure ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns the tuning used for catalog backends.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerSystem decorates an ExternalSystem with one shared circuit breaker.
// Reads and writes count against the same breaker; once it opens, every
// operation fails fast with gobreaker.ErrOpenState until the timeout lapses.
type BreakerSystem[K comparable, V any] struct {
	inner   ports.ExternalSystem[K, V]
	breaker *gobreaker.CircuitBreaker
}

// Wrap decorates inner with a circuit breaker built from config.
func Wrap[K comparable, V any](inner ports.ExternalSystem[K, V], config Config, logger *zap.Logger) *BreakerSystem[K, V] {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Caller hangups are not backend failures.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerSystem[K, V]{
		inner:   inner,
		breaker: cb,
	}
}

type loadOutcome[V any] struct {
	value V
	found bool
}

// Load fetches one value through the breaker.
func (s *BreakerSystem[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		value, found, err := s.inner.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		return loadOutcome[V]{value: value, found: found}, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	outcome := result.(loadOutcome[V])
	return outcome.value, outcome.found, nil
}

// LoadMany fetches a batch through the breaker.
func (s *BreakerSystem[K, V]) LoadMany(ctx context.Context, keys []K) (map[K]V, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.inner.LoadMany(ctx, keys)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[K]V), nil
}

// Persist writes one value through the breaker.
func (s *BreakerSystem[K, V]) Persist(ctx context.Context, key K, value V) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.inner.Persist(ctx, key, value)
	})
	return err
}

// PersistMany writes a batch through the breaker.
func (s *BreakerSystem[K, V]) PersistMany(ctx context.Context, entries map[K]V) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.inner.PersistMany(ctx, entries)
	})
	return err
}

// LoadTop fetches the warm-up set through the breaker.
func (s *BreakerSystem[K, V]) LoadTop(ctx context.Context, n int) (map[K]V, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.inner.LoadTop(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[K]V), nil
}

// State reports the breaker's current state.
func (s *BreakerSystem[K, V]) State() gobreaker.State {
	return s.breaker.State()
}
