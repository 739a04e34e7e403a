// Package handlers contains the HTTP surface of risk-engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/riskwatch/risk-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteDomainError maps domain errors onto HTTP status codes.
func WriteDomainError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return ErrorResponse(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrCacheUnavailable):
		return ErrorResponse(w, http.StatusServiceUnavailable, "cache_unavailable", "profile cache is unavailable")
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
