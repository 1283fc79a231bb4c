package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"thesis-catalog/internal/domain"
	apperrors "thesis-catalog/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps an application error onto an HTTP error response.
func writeError(w http.ResponseWriter, logger domain.Logger, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("unexpected error", err)
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", err)
	}
	writeJSON(w, appErr.StatusCode, map[string]interface{}{"error": appErr})
}

// writeBadRequest writes a plain validation-style error for malformed input
// that never reached a service.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}
