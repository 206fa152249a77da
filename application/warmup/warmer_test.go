package warmup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempocache/application/apptest"
	"tempocache/domain/catalog"
)

func topArtists(ids ...string) map[string]catalog.Artist {
	out := make(map[string]catalog.Artist, len(ids))
	for _, id := range ids {
		out[catalog.ArtistKey(id)] = catalog.Artist{ID: id, Name: "artist " + id, Popularity: 90}
	}
	return out
}

func TestWarmUpPreloadsTopEntries(t *testing.T) {
	store := apptest.NewStore[string, catalog.Artist]()
	source := apptest.NewSystem[string, catalog.Artist]()
	source.TopEntries = topArtists("1", "2", "3")

	warmer := New([]Task{NewTask("artists", 10, source, store)}, zap.NewNop(), nil)
	report := warmer.WarmUp(context.Background())

	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 3, report.Loaded)
	assert.Equal(t, 3, store.Len())
	assert.EqualValues(t, 1, source.LoadTopCalls.Load())
}

func TestWarmUpHonorsTopK(t *testing.T) {
	store := apptest.NewStore[string, catalog.Artist]()
	source := apptest.NewSystem[string, catalog.Artist]()
	source.TopEntries = topArtists("1", "2", "3", "4", "5")

	warmer := New([]Task{NewTask("artists", 2, source, store)}, zap.NewNop(), nil)
	report := warmer.WarmUp(context.Background())

	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 2, store.Len())
}

func TestWarmUpRunsTasksConcurrentlyAndFailsSoft(t *testing.T) {
	artistStore := apptest.NewStore[string, catalog.Artist]()
	artistSource := apptest.NewSystem[string, catalog.Artist]()
	artistSource.TopEntries = topArtists("1", "2")

	brokenStore := apptest.NewStore[string, catalog.Artist]()
	brokenSource := apptest.NewSystem[string, catalog.Artist]()
	brokenSource.LoadTopErr = errors.New("origin down")

	warmer := New([]Task{
		NewTask("artists", 10, artistSource, artistStore),
		NewTask("broken", 10, brokenSource, brokenStore),
	}, zap.NewNop(), nil)

	// The broken task is reported, the healthy one still lands.
	report := warmer.WarmUp(context.Background())
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 2, artistStore.Len())
}

func TestWarmUpStorePutFailureCountsAsTaskFailure(t *testing.T) {
	store := apptest.NewStore[string, catalog.Artist]()
	store.PutAllErr = errors.New("store down")
	source := apptest.NewSystem[string, catalog.Artist]()
	source.TopEntries = topArtists("1")

	warmer := New([]Task{NewTask("artists", 10, source, store)}, zap.NewNop(), nil)
	report := warmer.WarmUp(context.Background())

	assert.Equal(t, 0, report.Completed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Loaded)
}

func TestWarmUpWithNoTasks(t *testing.T) {
	warmer := New(nil, zap.NewNop(), nil)
	report := warmer.WarmUp(context.Background())
	assert.Equal(t, Report{Elapsed: report.Elapsed}, report)
}

func TestWarmUpAsyncDeliversReport(t *testing.T) {
	store := apptest.NewStore[string, catalog.Artist]()
	source := apptest.NewSystem[string, catalog.Artist]()
	source.TopEntries = topArtists("1")

	warmer := New([]Task{NewTask("artists", 10, source, store)}, zap.NewNop(), nil)
	report := <-warmer.WarmUpAsync(context.Background())
	require.Equal(t, 1, report.Loaded)
}
