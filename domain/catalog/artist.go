package catalog

import (
	"tempocache/pkg/errors"
	"tempocache/pkg/utils"
)

// Artist is a catalog entry for a performing artist. Instances travel
// between the cache store and the system of record, so fields stay exported
// and tagged for both codecs.
type Artist struct {
	ID         string `json:"id" dynamodbav:"ID" validate:"required"`
	Name       string `json:"name" dynamodbav:"Name" validate:"required,min=1,max=200"`
	Genre      string `json:"genre,omitempty" dynamodbav:"Genre,omitempty" validate:"max=100"`
	Popularity int    `json:"popularity" dynamodbav:"Popularity" validate:"gte=0,lte=100"`
}

// NewArtist creates a validated artist entry.
func NewArtist(id, name, genre string, popularity int) (Artist, error) {
	artist := Artist{
		ID:         id,
		Name:       name,
		Genre:      genre,
		Popularity: popularity,
	}
	if err := utils.ValidateStruct(artist); err != nil {
		return Artist{}, errors.NewValidationError(err.Error())
	}
	return artist, nil
}

// Key returns the cache key for this artist.
func (a Artist) Key() string {
	return ArtistKey(a.ID)
}
