package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tempocache/application/cacheaside"
	"tempocache/application/writethrough"
	"tempocache/domain/catalog"
)

// ArtistHandler handles artist-related HTTP requests. Reads go through the
// cache-aside path, writes through the write-through path.
type ArtistHandler struct {
	reader *cacheaside.Coordinator[string, catalog.Artist]
	writer *writethrough.Coordinator[string, catalog.Artist]
	logger *zap.Logger
}

// NewArtistHandler creates a new artist handler
func NewArtistHandler(
	reader *cacheaside.Coordinator[string, catalog.Artist],
	writer *writethrough.Coordinator[string, catalog.Artist],
	logger *zap.Logger,
) *ArtistHandler {
	return &ArtistHandler{
		reader: reader,
		writer: writer,
		logger: logger,
	}
}

// ArtistRequest represents the request body for creating or updating an
// artist. On update the path ID wins over the body ID.
type ArtistRequest struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Genre      string `json:"genre,omitempty"`
	Popularity int    `json:"popularity"`
}

// GetArtist handles GET /artists/{artistID}
func (h *ArtistHandler) GetArtist(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	if artistID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID is required")
		return
	}

	artist, err := h.reader.Get(r.Context(), catalog.ArtistKey(artistID))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, artist)
}

// ListArtists handles GET /artists?ids=1,2,3
func (h *ArtistHandler) ListArtists(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		respondError(w, h.logger, http.StatusBadRequest, "ids query parameter is required")
		return
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, catalog.ArtistKey(id))
	}
	found, err := h.reader.GetAll(r.Context(), keys)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	// Known artists come back in request order; unknown IDs are skipped.
	artists := make([]catalog.Artist, 0, len(found))
	for _, key := range keys {
		if artist, ok := found[key]; ok {
			artists = append(artists, artist)
		}
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"artists":   artists,
		"requested": len(keys),
		"found":     len(artists),
	})
}

// CreateArtist handles POST /artists
func (h *ArtistHandler) CreateArtist(w http.ResponseWriter, r *http.Request) {
	var req ArtistRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	artist, err := catalog.NewArtist(req.ID, req.Name, req.Genre, req.Popularity)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if err := h.writer.Create(r.Context(), artist.Key(), artist); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, artist)
}

// UpdateArtist handles PUT /artists/{artistID}
func (h *ArtistHandler) UpdateArtist(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	if artistID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID is required")
		return
	}
	var req ArtistRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	artist, err := catalog.NewArtist(artistID, req.Name, req.Genre, req.Popularity)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if err := h.writer.Update(r.Context(), artist.Key(), artist); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, artist)
}

// splitIDs splits a comma-separated ids parameter, dropping empty segments.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
