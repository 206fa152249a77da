package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tempocache/application/invalidation"
	"tempocache/application/warmup"
	"tempocache/application/writebehind"
	"tempocache/domain/catalog"
	"tempocache/pkg/utils"
)

// AdminHandler handles operational endpoints: cache warm-up, manual flush
// of the listen buffer, and cache invalidation.
type AdminHandler struct {
	recorder    *writebehind.Coordinator[string, catalog.ListenEvent]
	invalidator *invalidation.Invalidator[string]
	warmer      *warmup.Warmer
	logger      *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	recorder *writebehind.Coordinator[string, catalog.ListenEvent],
	invalidator *invalidation.Invalidator[string],
	warmer *warmup.Warmer,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		recorder:    recorder,
		invalidator: invalidator,
		warmer:      warmer,
		logger:      logger,
	}
}

// WarmUp handles POST /admin/warmup. Warm-up is fail-soft; the report
// carries per-run counts rather than an error status.
func (h *AdminHandler) WarmUp(w http.ResponseWriter, r *http.Request) {
	report := h.warmer.WarmUp(r.Context())
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"report":      report,
		"finished_at": utils.NowRFC3339(),
	})
}

// Flush handles POST /admin/flush, running one flush cycle immediately.
func (h *AdminHandler) Flush(w http.ResponseWriter, r *http.Request) {
	flushed, err := h.recorder.Flush(r.Context())
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"flushed": flushed,
	})
}

// InvalidateArtist handles DELETE /admin/cache/artists/{artistID}
func (h *AdminHandler) InvalidateArtist(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	if artistID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID is required")
		return
	}

	key := catalog.ArtistKey(artistID)
	if err := h.invalidator.Invalidate(r.Context(), key); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"invalidated": key,
	})
}

// InvalidateArtistRelated handles DELETE /admin/cache/artists/{artistID}/related
func (h *AdminHandler) InvalidateArtistRelated(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "artistID")
	if artistID == "" {
		respondError(w, h.logger, http.StatusBadRequest, "Artist ID is required")
		return
	}

	key := catalog.ArtistKey(artistID)
	if err := h.invalidator.InvalidateRelated(r.Context(), key); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"invalidated": key,
		"related":     true,
	})
}
