package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempocache/pkg/errors"
)

func TestNewArtist(t *testing.T) {
	artist, err := NewArtist("42", "Madonna", "pop", 95)
	require.NoError(t, err)
	assert.Equal(t, "artist#42", artist.Key())
	assert.Equal(t, 95, artist.Popularity)
}

func TestNewArtistValidation(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		artistName string
		popularity int
	}{
		{name: "missing id", id: "", artistName: "Madonna", popularity: 10},
		{name: "missing name", id: "42", artistName: "", popularity: 10},
		{name: "popularity out of range", id: "42", artistName: "Madonna", popularity: 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArtist(tt.id, tt.artistName, "pop", tt.popularity)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestNewAlbumKeyedUnderArtist(t *testing.T) {
	album, err := NewAlbum("7", "42", "Like a Prayer", 1989, 11)
	require.NoError(t, err)
	assert.Equal(t, "album#42#7", album.Key())
}

func TestNewListenEventDefaults(t *testing.T) {
	event, err := NewListenEvent("user-1", "42", "7", "Cherish", time.Time{})
	require.NoError(t, err)
	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.ListenedAt.IsZero())
	assert.Equal(t, "listen#"+event.EventID, event.Key())
}

func TestNewListenEventRequiresTrack(t *testing.T) {
	_, err := NewListenEvent("user-1", "42", "", "", time.Now())
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key      string
		wantKind string
		wantID   string
		wantOK   bool
	}{
		{key: "artist#42", wantKind: "artist", wantID: "42", wantOK: true},
		{key: "album#42#7", wantKind: "album", wantID: "42#7", wantOK: true},
		{key: "listen#abc", wantKind: "listen", wantID: "abc", wantOK: true},
		{key: "artist_42_stats", wantOK: false},
		{key: "playlist#1", wantOK: false},
		{key: "artist#", wantOK: false},
		{key: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			kind, id, ok := SplitKey(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKind, kind)
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestStatsKeys(t *testing.T) {
	assert.Equal(t, "artist_42_stats", StatsKey(KindArtist, "42"))
	assert.Equal(t, []string{"artist_42_stats"}, StatsKeysFor("artist#42"))
	assert.Nil(t, StatsKeysFor("artist_42_stats"))
}

func TestDependentKeyPrefix(t *testing.T) {
	prefix, ok := DependentKeyPrefix("artist#42")
	require.True(t, ok)
	assert.Equal(t, "album#42#", prefix)

	_, ok = DependentKeyPrefix("album#42#7")
	assert.False(t, ok)
	_, ok = DependentKeyPrefix("artist_42_stats")
	assert.False(t, ok)
}
