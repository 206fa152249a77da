package badgerdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempocache/domain/catalog"
)

func TestResolveListsAlbumKeysOfArtist(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	albums := NewSystem[catalog.Album](db, catalog.KindPrefix(catalog.KindAlbum), nil)
	ctx := context.Background()

	for _, album := range []catalog.Album{
		mustAlbum(t, "7", "42", "Like a Prayer"),
		mustAlbum(t, "8", "42", "Ray of Light"),
		mustAlbum(t, "1", "99", "Purple Rain"),
	} {
		require.NoError(t, albums.Persist(ctx, album.Key(), album))
	}

	resolver := NewPrefixResolver(db, catalog.DependentKeyPrefix)

	dependents, err := resolver.Resolve(ctx, "artist#42")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"album#42#7", "album#42#8"}, dependents)
}

func TestResolveNonRootKey(t *testing.T) {
	t.Parallel()
	resolver := NewPrefixResolver(newTestDB(t), catalog.DependentKeyPrefix)

	dependents, err := resolver.Resolve(context.Background(), "album#42#7")
	require.NoError(t, err)
	assert.Empty(t, dependents)
}

func TestResolveArtistWithoutAlbums(t *testing.T) {
	t.Parallel()
	resolver := NewPrefixResolver(newTestDB(t), catalog.DependentKeyPrefix)

	dependents, err := resolver.Resolve(context.Background(), "artist#42")
	require.NoError(t, err)
	assert.Empty(t, dependents)
}
