package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tempocache/application/writebehind"
	"tempocache/domain/catalog"
	apperrors "tempocache/pkg/errors"
	"tempocache/pkg/utils"
)

// ListenHandler handles listen-event HTTP requests. Listens are accepted
// into the write-behind buffer and acknowledged before the catalog database
// sees them, so successful records return 202 rather than 201.
type ListenHandler struct {
	recorder *writebehind.Coordinator[string, catalog.ListenEvent]
	logger   *zap.Logger
}

// NewListenHandler creates a new listen handler
func NewListenHandler(recorder *writebehind.Coordinator[string, catalog.ListenEvent], logger *zap.Logger) *ListenHandler {
	return &ListenHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// ListenRequest represents the request body for recording a listen.
// listened_at is RFC3339 and defaults to now.
type ListenRequest struct {
	UserID     string `json:"user_id"`
	ArtistID   string `json:"artist_id"`
	AlbumID    string `json:"album_id,omitempty"`
	TrackTitle string `json:"track_title"`
	ListenedAt string `json:"listened_at,omitempty"`
}

// ListenBatchRequest represents the request body for recording a batch of
// listens in one buffer write.
type ListenBatchRequest struct {
	Listens []ListenRequest `json:"listens"`
}

func (req ListenRequest) toEvent() (catalog.ListenEvent, error) {
	var listenedAt time.Time
	if req.ListenedAt != "" {
		parsed, err := utils.ParseRFC3339(req.ListenedAt)
		if err != nil {
			return catalog.ListenEvent{}, apperrors.NewValidationError("listened_at must be RFC3339")
		}
		listenedAt = parsed
	}
	return catalog.NewListenEvent(req.UserID, req.ArtistID, req.AlbumID, req.TrackTitle, listenedAt)
}

// RecordListen handles POST /listens
func (h *ListenHandler) RecordListen(w http.ResponseWriter, r *http.Request) {
	var req ListenRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	event, err := req.toEvent()
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if err := h.recorder.RecordEvent(r.Context(), event); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusAccepted, map[string]interface{}{
		"event_id": event.EventID,
		"status":   writebehind.StatusPending,
	})
}

// RecordListenBatch handles POST /listens/batch. The whole batch is
// buffered in one write; one invalid listen rejects the batch.
func (h *ListenHandler) RecordListenBatch(w http.ResponseWriter, r *http.Request) {
	var req ListenBatchRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}
	if len(req.Listens) == 0 {
		respondError(w, h.logger, http.StatusBadRequest, "listens must not be empty")
		return
	}

	events := make([]catalog.ListenEvent, 0, len(req.Listens))
	eventIDs := make([]string, 0, len(req.Listens))
	for _, listen := range req.Listens {
		event, err := listen.toEvent()
		if err != nil {
			respondAppError(w, h.logger, err)
			return
		}
		events = append(events, event)
		eventIDs = append(eventIDs, event.EventID)
	}
	if err := h.recorder.RecordEvents(r.Context(), events); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusAccepted, map[string]interface{}{
		"accepted":  len(events),
		"event_ids": eventIDs,
		"status":    writebehind.StatusPending,
	})
}

// ForceSync handles POST /listens/{eventID}/sync
func (h *ListenHandler) ForceSync(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Event ID is required")
		return
	}

	if err := h.recorder.ForceSyncKey(r.Context(), catalog.ListenKey(eventID)); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"event_id": eventID,
		"status":   writebehind.StatusSynced,
	})
}

// GetStats handles GET /listens/stats
func (h *ListenHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.recorder.Stats()
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"pending": stats.Pending,
		"synced":  stats.Synced,
		"errors":  stats.Errors,
		"as_of":   utils.NowRFC3339(),
	})
}
