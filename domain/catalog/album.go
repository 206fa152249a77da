package catalog

import (
	"tempocache/pkg/errors"
	"tempocache/pkg/utils"
)

// Album is a catalog entry for a release. Albums are keyed under their
// artist so related entries can be found and invalidated by prefix.
type Album struct {
	ID       string `json:"id" dynamodbav:"ID" validate:"required"`
	ArtistID string `json:"artist_id" dynamodbav:"ArtistID" validate:"required"`
	Title    string `json:"title" dynamodbav:"Title" validate:"required,min=1,max=200"`
	Year     int    `json:"year" dynamodbav:"Year" validate:"gte=1900,lte=2100"`
	Tracks   int    `json:"tracks" dynamodbav:"Tracks" validate:"gte=0,lte=500"`
}

// NewAlbum creates a validated album entry.
func NewAlbum(id, artistID, title string, year, tracks int) (Album, error) {
	album := Album{
		ID:       id,
		ArtistID: artistID,
		Title:    title,
		Year:     year,
		Tracks:   tracks,
	}
	if err := utils.ValidateStruct(album); err != nil {
		return Album{}, errors.NewValidationError(err.Error())
	}
	return album, nil
}

// Key returns the cache key for this album.
func (a Album) Key() string {
	return AlbumKey(a.ArtistID, a.ID)
}
