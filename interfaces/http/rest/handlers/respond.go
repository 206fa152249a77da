// Package handlers exposes the cache coordination paths over HTTP. Each
// handler owns one entity family and translates typed application errors
// into status codes; raw error text never leaks to clients.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "tempocache/pkg/errors"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

// respondAppError maps a typed application error to its HTTP status.
// Untyped errors become a generic 500.
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		respondJSON(w, logger, appErr.HTTPStatus, map[string]interface{}{
			"error":   true,
			"type":    string(appErr.Type),
			"message": appErr.Message,
			"code":    appErr.HTTPStatus,
		})
		return
	}
	logger.Error("unhandled error", zap.Error(err))
	respondError(w, logger, http.StatusInternalServerError, "Internal server error")
}

func decodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, logger, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
