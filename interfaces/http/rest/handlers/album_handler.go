package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tempocache/application/cacheaside"
	"tempocache/application/writethrough"
	"tempocache/domain/catalog"
)

// AlbumHandler handles album-related HTTP requests. Albums are always
// addressed under their artist.
type AlbumHandler struct {
	reader *cacheaside.Coordinator[string, catalog.Album]
	writer *writethrough.Coordinator[string, catalog.Album]
	logger *zap.Logger
}

// NewAlbumHandler creates a new album handler
func NewAlbumHandler(
	reader *cacheaside.Coordinator[string, catalog.Album],
	writer *writethrough.Coordinator[string, catalog.Album],
	logger *zap.Logger,
) *AlbumHandler {
	return &AlbumHandler{
		reader: reader,
		writer: writer,
		logger: logger,
	}
}

// AlbumRequest represents the request body for creating or updating an
// album. The artist comes from the path.
type AlbumRequest struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Tracks int    `json:"tracks"`
}

// GetAlbum handles GET /artists/{artistID}/albums/{albumID}
func (h *AlbumHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	albumID := chi.URLParam(r, "albumID")
	if artistID == "" || albumID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID and album ID are required")
		return
	}

	album, err := h.reader.Get(r.Context(), catalog.AlbumKey(artistID, albumID))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, album)
}

// ListAlbums handles GET /artists/{artistID}/albums?ids=7,8
func (h *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	ids := splitIDs(r.URL.Query().Get("ids"))
	if artistID == "" || len(ids) == 0 {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID and ids query parameter are required")
		return
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, catalog.AlbumKey(artistID, id))
	}
	found, err := h.reader.GetAll(r.Context(), keys)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	albums := make([]catalog.Album, 0, len(found))
	for _, key := range keys {
		if album, ok := found[key]; ok {
			albums = append(albums, album)
		}
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"albums":    albums,
		"requested": len(keys),
		"found":     len(albums),
	})
}

// CreateAlbum handles POST /artists/{artistID}/albums
func (h *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	if artistID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID is required")
		return
	}
	var req AlbumRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	album, err := catalog.NewAlbum(req.ID, artistID, req.Title, req.Year, req.Tracks)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if err := h.writer.Create(r.Context(), album.Key(), album); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, album)
}

// UpdateAlbum handles PUT /artists/{artistID}/albums/{albumID}
func (h *AlbumHandler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	albumID := chi.URLParam(r, "albumID")
	if artistID == "" || albumID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID and album ID are required")
		return
	}
	var req AlbumRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	album, err := catalog.NewAlbum(albumID, artistID, req.Title, req.Year, req.Tracks)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if err := h.writer.Update(r.Context(), album.Key(), album); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, album)
}
