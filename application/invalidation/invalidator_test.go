package invalidation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempocache/application/apptest"
	"tempocache/application/ports"
	"tempocache/domain/catalog"
	apperrors "tempocache/pkg/errors"
)

func albumsOf(albums ...string) ports.RelationResolverFunc[string] {
	return func(_ context.Context, root string) ([]string, error) {
		return albums, nil
	}
}

func failingResolver(err error) ports.RelationResolverFunc[string] {
	return func(_ context.Context, _ string) ([]string, error) {
		return nil, err
	}
}

func seedKeys(store *apptest.CountingStore[string, string], keys ...string) {
	for _, key := range keys {
		store.Seed(key, "cached")
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	store := apptest.NewStore[string, string]()
	invalidator := New[string](store, nil, nil, zap.NewNop(), nil)

	// The key was never cached; both calls succeed all the same.
	require.NoError(t, invalidator.Invalidate(context.Background(), "artist#42"))
	require.NoError(t, invalidator.Invalidate(context.Background(), "artist#42"))
	assert.EqualValues(t, 2, store.RemoveCalls.Load())
}

func TestInvalidateRemovesEntry(t *testing.T) {
	store := apptest.NewStore[string, string]()
	seedKeys(store, "artist#42")
	invalidator := New[string](store, nil, nil, zap.NewNop(), nil)

	require.NoError(t, invalidator.Invalidate(context.Background(), "artist#42"))
	assert.Equal(t, 0, store.Len())
}

func TestInvalidateStoreFailure(t *testing.T) {
	store := apptest.NewStore[string, string]()
	store.RemoveErr = errors.New("store down")
	invalidator := New[string](store, nil, nil, zap.NewNop(), nil)

	err := invalidator.Invalidate(context.Background(), "artist#42")
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreUnavailable(err))
}

func TestInvalidateRelatedFansOut(t *testing.T) {
	store := apptest.NewStore[string, string]()
	seedKeys(store,
		"artist#42",
		"artist_42_stats",
		"album#42#7",
		"album_42#7_stats",
		"album#42#8",
		"artist#99", // unrelated, must survive
	)
	resolver := albumsOf("album#42#7", "album#42#8")
	invalidator := New[string](store, resolver, catalog.StatsKeysFor, zap.NewNop(), nil)

	require.NoError(t, invalidator.InvalidateRelated(context.Background(), "artist#42"))

	snapshot := store.Snapshot()
	assert.Len(t, snapshot, 1)
	_, survives := snapshot["artist#99"]
	assert.True(t, survives)
}

// flakyRemover fails removal for selected keys only.
type flakyRemover struct {
	store    *apptest.CountingStore[string, string]
	failKeys map[string]bool
}

func (f *flakyRemover) Remove(ctx context.Context, key string) (bool, error) {
	if f.failKeys[key] {
		return false, errors.New("remove failed")
	}
	return f.store.Remove(ctx, key)
}

func TestInvalidateRelatedToleratesPartialFailure(t *testing.T) {
	store := apptest.NewStore[string, string]()
	seedKeys(store, "artist#42", "album#42#7", "album#42#8")
	remover := &flakyRemover{store: store, failKeys: map[string]bool{"album#42#7": true}}
	resolver := albumsOf("album#42#7", "album#42#8")
	invalidator := New[string](remover, resolver, catalog.StatsKeysFor, zap.NewNop(), nil)

	// One broken related key is logged, the rest still drop.
	require.NoError(t, invalidator.InvalidateRelated(context.Background(), "artist#42"))

	snapshot := store.Snapshot()
	_, stuck := snapshot["album#42#7"]
	assert.True(t, stuck)
	_, gone := snapshot["album#42#8"]
	assert.False(t, gone)
	_, rootGone := snapshot["artist#42"]
	assert.False(t, rootGone)
}

func TestInvalidateRelatedRootFailurePropagates(t *testing.T) {
	store := apptest.NewStore[string, string]()
	store.RemoveErr = errors.New("store down")
	invalidator := New[string](store, albumsOf("album#42#7"), catalog.StatsKeysFor, zap.NewNop(), nil)

	err := invalidator.InvalidateRelated(context.Background(), "artist#42")
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreUnavailable(err))
}

func TestInvalidateRelatedSurvivesResolverFailure(t *testing.T) {
	store := apptest.NewStore[string, string]()
	seedKeys(store, "artist#42", "artist_42_stats", "album#42#7")
	invalidator := New[string](store, failingResolver(errors.New("resolver down")), catalog.StatsKeysFor, zap.NewNop(), nil)

	require.NoError(t, invalidator.InvalidateRelated(context.Background(), "artist#42"))

	// Root and its stats entry drop; unresolved dependents stay.
	snapshot := store.Snapshot()
	assert.Len(t, snapshot, 1)
	_, stays := snapshot["album#42#7"]
	assert.True(t, stays)
}

func TestInvalidateAllCountsAndDedupes(t *testing.T) {
	store := apptest.NewStore[string, string]()
	seedKeys(store, "artist#1", "artist#2")
	invalidator := New[string](store, nil, nil, zap.NewNop(), nil)

	removed, failed := invalidator.InvalidateAll(
		context.Background(),
		[]string{"artist#1", "artist#1", "artist#2", "artist#3"},
	)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, failed)
	assert.EqualValues(t, 3, store.RemoveCalls.Load())
}

func TestMultiRemoverSpansTiers(t *testing.T) {
	artists := apptest.NewStore[string, string]()
	albums := apptest.NewStore[string, string]()
	seedKeys(artists, "artist#42")
	seedKeys(albums, "album#42#7")
	invalidator := New[string](
		MultiRemover[string]{artists, albums},
		albumsOf("album#42#7"),
		catalog.StatsKeysFor,
		zap.NewNop(),
		nil,
	)

	require.NoError(t, invalidator.InvalidateRelated(context.Background(), "artist#42"))
	assert.Equal(t, 0, artists.Len())
	assert.Equal(t, 0, albums.Len())
}

func TestMultiRemoverStopsAtFirstFailure(t *testing.T) {
	broken := apptest.NewStore[string, string]()
	broken.RemoveErr = errors.New("store down")
	healthy := apptest.NewStore[string, string]()
	remover := MultiRemover[string]{broken, healthy}

	_, err := remover.Remove(context.Background(), "artist#42")
	require.Error(t, err)
	assert.Zero(t, healthy.RemoveCalls.Load())
}
