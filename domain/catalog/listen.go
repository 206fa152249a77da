package catalog

import (
	"time"

	"github.com/google/uuid"

	"tempocache/pkg/errors"
	"tempocache/pkg/utils"
)

// ListenEvent records one playback of a track. Listens arrive at high
// volume and are buffered by the write-behind path rather than persisted
// synchronously.
type ListenEvent struct {
	EventID    string    `json:"event_id" dynamodbav:"EventID" validate:"required"`
	UserID     string    `json:"user_id" dynamodbav:"UserID" validate:"required"`
	ArtistID   string    `json:"artist_id" dynamodbav:"ArtistID" validate:"required"`
	AlbumID    string    `json:"album_id,omitempty" dynamodbav:"AlbumID,omitempty"`
	TrackTitle string    `json:"track_title" dynamodbav:"TrackTitle" validate:"required,min=1,max=200"`
	ListenedAt time.Time `json:"listened_at" dynamodbav:"ListenedAt"`
}

// NewListenEvent creates a validated listen event with a fresh event ID.
func NewListenEvent(userID, artistID, albumID, trackTitle string, listenedAt time.Time) (ListenEvent, error) {
	if listenedAt.IsZero() {
		listenedAt = time.Now()
	}
	event := ListenEvent{
		EventID:    uuid.New().String(),
		UserID:     userID,
		ArtistID:   artistID,
		AlbumID:    albumID,
		TrackTitle: trackTitle,
		ListenedAt: listenedAt,
	}
	if err := utils.ValidateStruct(event); err != nil {
		return ListenEvent{}, errors.NewValidationError(err.Error())
	}
	return event, nil
}

// Key returns the cache key for this listen event.
func (e ListenEvent) Key() string {
	return ListenKey(e.EventID)
}
