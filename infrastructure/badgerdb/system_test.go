package badgerdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tempocache/domain/catalog"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open("", true, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func newArtistSystem(db *DB) *System[catalog.Artist] {
	return NewSystem[catalog.Artist](db, catalog.KindPrefix(catalog.KindArtist), func(a catalog.Artist) int {
		return a.Popularity
	})
}

func mustArtist(t *testing.T, id, name string, popularity int) catalog.Artist {
	t.Helper()
	artist, err := catalog.NewArtist(id, name, "pop", popularity)
	require.NoError(t, err)
	return artist
}

func mustAlbum(t *testing.T, id, artistID, title string) catalog.Album {
	t.Helper()
	album, err := catalog.NewAlbum(id, artistID, title, 1989, 11)
	require.NoError(t, err)
	return album
}

func TestLoadMissingKey(t *testing.T) {
	t.Parallel()
	system := newArtistSystem(newTestDB(t))

	_, found, err := system.Load(context.Background(), "artist#42")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPersistThenLoad(t *testing.T) {
	t.Parallel()
	system := newArtistSystem(newTestDB(t))
	ctx := context.Background()
	madonna := mustArtist(t, "42", "Madonna", 95)

	require.NoError(t, system.Persist(ctx, madonna.Key(), madonna))

	loaded, found, err := system.Load(ctx, "artist#42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, madonna, loaded)
}

func TestLoadManySkipsUnknownKeys(t *testing.T) {
	t.Parallel()
	system := newArtistSystem(newTestDB(t))
	ctx := context.Background()
	madonna := mustArtist(t, "42", "Madonna", 95)
	prince := mustArtist(t, "7", "Prince", 90)

	require.NoError(t, system.Persist(ctx, madonna.Key(), madonna))
	require.NoError(t, system.Persist(ctx, prince.Key(), prince))

	loaded, err := system.LoadMany(ctx, []string{"artist#42", "artist#7", "artist#404"})
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, madonna, loaded["artist#42"])
	assert.Equal(t, prince, loaded["artist#7"])
}

func TestPersistManyCommitsBatch(t *testing.T) {
	t.Parallel()
	system := newArtistSystem(newTestDB(t))
	ctx := context.Background()

	batch := map[string]catalog.Artist{}
	for _, artist := range []catalog.Artist{
		mustArtist(t, "1", "Madonna", 95),
		mustArtist(t, "2", "Prince", 90),
		mustArtist(t, "3", "Sade", 80),
	} {
		batch[artist.Key()] = artist
	}

	require.NoError(t, system.PersistMany(ctx, batch))

	loaded, err := system.LoadMany(ctx, []string{"artist#1", "artist#2", "artist#3"})
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
}

func TestLoadTopRanksByPopularity(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	artists := newArtistSystem(db)
	albums := NewSystem[catalog.Album](db, catalog.KindPrefix(catalog.KindAlbum), nil)
	ctx := context.Background()

	for _, artist := range []catalog.Artist{
		mustArtist(t, "1", "Sade", 80),
		mustArtist(t, "2", "Madonna", 95),
		mustArtist(t, "3", "Prince", 90),
	} {
		require.NoError(t, artists.Persist(ctx, artist.Key(), artist))
	}
	album := mustAlbum(t, "7", "2", "Like a Prayer")
	require.NoError(t, albums.Persist(ctx, album.Key(), album))

	top, err := artists.LoadTop(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Contains(t, top, "artist#2")
	assert.Contains(t, top, "artist#3")
	assert.NotContains(t, top, "artist#1")
	assert.NotContains(t, top, "album#2#7")
}

func TestLoadTopWithoutRankUsesKeyOrder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	system := NewSystem[catalog.Artist](db, catalog.KindPrefix(catalog.KindArtist), nil)
	ctx := context.Background()

	for _, artist := range []catalog.Artist{
		mustArtist(t, "9", "Sade", 80),
		mustArtist(t, "1", "Madonna", 95),
	} {
		require.NoError(t, system.Persist(ctx, artist.Key(), artist))
	}

	top, err := system.LoadTop(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Contains(t, top, "artist#1")
}

func TestLoadTopZeroBudget(t *testing.T) {
	t.Parallel()
	system := newArtistSystem(newTestDB(t))

	top, err := system.LoadTop(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}
