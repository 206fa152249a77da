package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempocache/application/apptest"
	"tempocache/domain/catalog"
)

func testConfig() Config {
	cfg := DefaultConfig("test-backend")
	cfg.MinRequests = 3
	cfg.FailureThreshold = 0.5
	cfg.MaxRequests = 1
	cfg.Timeout = 50 * time.Millisecond
	return cfg
}

func mustTestArtist(t *testing.T, id string) catalog.Artist {
	t.Helper()
	artist, err := catalog.NewArtist(id, "Madonna", "pop", 95)
	require.NoError(t, err)
	return artist
}

func TestBreakerPassesThroughReads(t *testing.T) {
	inner := apptest.NewSystem[string, catalog.Artist]()
	system := Wrap[string, catalog.Artist](inner, testConfig(), zap.NewNop())
	ctx := context.Background()
	madonna := mustTestArtist(t, "42")
	inner.Seed(madonna.Key(), madonna)

	loaded, found, err := system.Load(ctx, "artist#42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, madonna, loaded)

	many, err := system.LoadMany(ctx, []string{"artist#42", "artist#404"})
	require.NoError(t, err)
	assert.Len(t, many, 1)
	assert.Equal(t, gobreaker.StateClosed, system.State())
}

func TestMissesAreNotFailures(t *testing.T) {
	inner := apptest.NewSystem[string, catalog.Artist]()
	system := Wrap[string, catalog.Artist](inner, testConfig(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, found, err := system.Load(ctx, "artist#404")
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, gobreaker.StateClosed, system.State())
	assert.Equal(t, int64(10), inner.LoadCalls.Load())
}

func TestBreakerOpensThenRecovers(t *testing.T) {
	inner := apptest.NewSystem[string, catalog.Artist]()
	system := Wrap[string, catalog.Artist](inner, testConfig(), zap.NewNop())
	ctx := context.Background()

	inner.LoadErr = errors.New("backend down")
	for i := 0; i < 3; i++ {
		_, _, err := system.Load(ctx, "artist#42")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, system.State())

	// Open breaker fails fast without reaching the backend.
	_, _, err := system.Load(ctx, "artist#42")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int64(3), inner.LoadCalls.Load())

	// After the timeout a half-open probe goes through and closes it again.
	inner.LoadErr = nil
	madonna := mustTestArtist(t, "42")
	inner.Seed(madonna.Key(), madonna)
	require.Eventually(t, func() bool {
		_, found, err := system.Load(ctx, "artist#42")
		return err == nil && found
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, gobreaker.StateClosed, system.State())
}

func TestWriteFailuresShedReads(t *testing.T) {
	inner := apptest.NewSystem[string, catalog.Artist]()
	system := Wrap[string, catalog.Artist](inner, testConfig(), zap.NewNop())
	ctx := context.Background()
	madonna := mustTestArtist(t, "42")

	inner.PersistErr = errors.New("backend down")
	for i := 0; i < 3; i++ {
		require.Error(t, system.Persist(ctx, madonna.Key(), madonna))
	}

	// One breaker guards the whole system, so reads fail fast too.
	_, _, err := system.Load(ctx, "artist#42")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, inner.LoadCalls.Load())
}

func TestCancellationDoesNotTrip(t *testing.T) {
	inner := apptest.NewSystem[string, catalog.Artist]()
	system := Wrap[string, catalog.Artist](inner, testConfig(), zap.NewNop())
	ctx := context.Background()

	inner.LoadErr = context.Canceled
	for i := 0; i < 10; i++ {
		_, _, err := system.Load(ctx, "artist#42")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, system.State())
	assert.Equal(t, int64(10), inner.LoadCalls.Load())
}
