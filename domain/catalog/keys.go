package catalog

import (
	"fmt"
	"strings"
)

// Key conventions shared by the cache store and the system of record.
// Entity keys use '#'-separated segments; derived aggregate keys use the
// flat "{kind}_{id}_stats" form so operators can spot them at a glance.
const (
	KindArtist = "artist"
	KindAlbum  = "album"
	KindListen = "listen"

	keySeparator = "#"
	statsSuffix  = "_stats"
)

// ArtistKey returns the cache key for an artist ID.
func ArtistKey(artistID string) string {
	return KindArtist + keySeparator + artistID
}

// AlbumKey returns the cache key for an album under its artist.
func AlbumKey(artistID, albumID string) string {
	return KindAlbum + keySeparator + artistID + keySeparator + albumID
}

// AlbumKeyPrefix returns the key prefix shared by all albums of an artist.
func AlbumKeyPrefix(artistID string) string {
	return KindAlbum + keySeparator + artistID + keySeparator
}

// ListenKey returns the cache key for a listen event ID.
func ListenKey(eventID string) string {
	return KindListen + keySeparator + eventID
}

// KindPrefix returns the key prefix shared by every entity of a kind, used
// to scan one kind out of a shared keyspace.
func KindPrefix(kind string) string {
	return kind + keySeparator
}

// DependentKeyPrefix returns the key prefix of the entries that hang off the
// given root key. Only artists have dependents today: their albums.
func DependentKeyPrefix(root string) (string, bool) {
	kind, id, ok := SplitKey(root)
	if !ok || kind != KindArtist {
		return "", false
	}
	return AlbumKeyPrefix(id), true
}

// StatsKey returns the derived aggregate key for an entity, for example
// "artist_42_stats". Invalidation removes these alongside the entity entry.
func StatsKey(kind, id string) string {
	return fmt.Sprintf("%s_%s%s", kind, id, statsSuffix)
}

// SplitKey breaks a cache key into its kind and ID segments. The ID of an
// album key keeps its artist segment ("42#7"). It reports false for keys
// that don't follow the entity convention, such as derived stats keys.
func SplitKey(key string) (kind, id string, ok bool) {
	kind, id, found := strings.Cut(key, keySeparator)
	if !found || kind == "" || id == "" {
		return "", "", false
	}
	switch kind {
	case KindArtist, KindAlbum, KindListen:
		return kind, id, true
	}
	return "", "", false
}

// StatsKeysFor returns the derived keys that must be invalidated together
// with the given entity key.
func StatsKeysFor(key string) []string {
	kind, id, ok := SplitKey(key)
	if !ok {
		return nil
	}
	return []string{StatsKey(kind, id)}
}
