package writethrough

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempocache/application/apptest"
	"tempocache/domain/catalog"
	apperrors "tempocache/pkg/errors"
)

type fixture struct {
	store       *apptest.CountingStore[string, catalog.Album]
	runner      *apptest.StagedRunner[string, catalog.Album]
	source      *apptest.CountingSystem[string, catalog.Album]
	coordinator *Coordinator[string, catalog.Album]
}

func newFixture() *fixture {
	store := apptest.NewStore[string, catalog.Album]()
	runner := apptest.NewRunner(store)
	source := apptest.NewSystem[string, catalog.Album]()
	return &fixture{
		store:       store,
		runner:      runner,
		source:      source,
		coordinator: New(catalog.KindAlbum, runner, source, zap.NewNop()),
	}
}

func album(id, artistID, title string) catalog.Album {
	return catalog.Album{ID: id, ArtistID: artistID, Title: title, Year: 1989, Tracks: 11}
}

func TestCreateWritesBothTiers(t *testing.T) {
	f := newFixture()
	entry := album("7", "42", "Like a Prayer")

	require.NoError(t, f.coordinator.Create(context.Background(), entry.Key(), entry))

	assert.Equal(t, "Like a Prayer", f.store.Snapshot()["album#42#7"].Title)
	assert.Equal(t, "Like a Prayer", f.source.Snapshot()["album#42#7"].Title)
	assert.EqualValues(t, 1, f.runner.RunCalls.Load())
}

func TestCreateDuplicateShortCircuits(t *testing.T) {
	f := newFixture()
	entry := album("7", "42", "Like a Prayer")
	f.store.Seed(entry.Key(), entry)

	err := f.coordinator.Create(context.Background(), entry.Key(), album("7", "42", "Imposter"))
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))
	assert.False(t, apperrors.IsWriteThroughAborted(err))

	// The system of record is never consulted for a duplicate create.
	assert.EqualValues(t, 0, f.source.PersistCalls.Load())
	assert.Equal(t, "Like a Prayer", f.store.Snapshot()["album#42#7"].Title)
}

func TestCreatePersistFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture()
	f.source.PersistErr = errors.New("origin down")
	entry := album("7", "42", "Like a Prayer")

	err := f.coordinator.Create(context.Background(), entry.Key(), entry)
	require.Error(t, err)
	assert.True(t, apperrors.IsWriteThroughAborted(err))

	// The staged cache insert is discarded with the unit.
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, 0, f.source.Len())
}

func TestCreateAbortWrapsOriginalCause(t *testing.T) {
	f := newFixture()
	cause := errors.New("origin down")
	f.source.PersistErr = cause

	err := f.coordinator.Create(context.Background(), "album#42#7", album("7", "42", "X"))
	require.Error(t, err)
	assert.True(t, apperrors.IsWriteThroughAborted(err))
	assert.ErrorIs(t, err, cause)
}

func TestCreateCommitFailureKeepsCacheClean(t *testing.T) {
	f := newFixture()
	f.runner.CommitErr = errors.New("transact write failed")
	entry := album("7", "42", "Like a Prayer")

	err := f.coordinator.Create(context.Background(), entry.Key(), entry)
	require.Error(t, err)
	assert.True(t, apperrors.IsWriteThroughAborted(err))

	// The cache never exposes an entry from an aborted unit. The system of
	// record write stands; the next read-through restores agreement.
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, 1, f.source.Len())
}

func TestUpdateWritesBothTiers(t *testing.T) {
	f := newFixture()
	original := album("7", "42", "Like a Prayer")
	f.store.Seed(original.Key(), original)
	f.source.Seed(original.Key(), original)

	updated := album("7", "42", "Like a Prayer (Remastered)")
	require.NoError(t, f.coordinator.Update(context.Background(), updated.Key(), updated))

	assert.Equal(t, "Like a Prayer (Remastered)", f.store.Snapshot()["album#42#7"].Title)
	assert.Equal(t, "Like a Prayer (Remastered)", f.source.Snapshot()["album#42#7"].Title)
}

func TestUpdatePersistFailureRollsBackStagedCache(t *testing.T) {
	f := newFixture()
	original := album("7", "42", "Like a Prayer")
	f.store.Seed(original.Key(), original)
	f.source.Seed(original.Key(), original)
	f.source.PersistErr = errors.New("origin down")

	err := f.coordinator.Update(context.Background(), original.Key(), album("7", "42", "Broken"))
	require.Error(t, err)
	assert.True(t, apperrors.IsWriteThroughAborted(err))

	// The staged cache write never became visible.
	assert.Equal(t, "Like a Prayer", f.store.Snapshot()["album#42#7"].Title)
	assert.Equal(t, "Like a Prayer", f.source.Snapshot()["album#42#7"].Title)
}

func TestUpdateAllCommitsAsOneUnit(t *testing.T) {
	f := newFixture()
	first := album("7", "42", "Like a Prayer")
	second := album("8", "42", "Erotica")

	entries := map[string]catalog.Album{
		first.Key():  first,
		second.Key(): second,
	}
	require.NoError(t, f.coordinator.UpdateAll(context.Background(), entries))

	assert.Equal(t, 2, f.store.Len())
	assert.Equal(t, 2, f.source.Len())
	assert.EqualValues(t, 1, f.runner.RunCalls.Load())
	assert.EqualValues(t, 2, f.source.PersistCalls.Load())
}

func TestUpdateAllAbortsWholeBatch(t *testing.T) {
	f := newFixture()
	f.source.PersistErr = errors.New("origin down")

	entries := map[string]catalog.Album{
		"album#42#7": album("7", "42", "A"),
		"album#42#8": album("8", "42", "B"),
	}
	err := f.coordinator.UpdateAll(context.Background(), entries)
	require.Error(t, err)
	assert.True(t, apperrors.IsWriteThroughAborted(err))

	// Nothing from the batch reaches the cache.
	assert.Equal(t, 0, f.store.Len())
}

func TestUpdateAllEmptyBatch(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.coordinator.UpdateAll(context.Background(), nil))
	assert.EqualValues(t, 0, f.runner.RunCalls.Load())
}

func TestCreateAsyncDeliversError(t *testing.T) {
	f := newFixture()
	entry := album("7", "42", "Like a Prayer")
	f.store.Seed(entry.Key(), entry)

	err := <-f.coordinator.CreateAsync(context.Background(), entry.Key(), entry)
	assert.True(t, apperrors.IsAlreadyExists(err))
}
