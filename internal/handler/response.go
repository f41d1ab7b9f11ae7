package handler

// RESPONSE HELPERS:
// These functions standardise how the JSON endpoints answer.
//
// CONSISTENT ERROR FORMAT:
// Every JSON error has the same shape:
//   {"error": "not_found", "message": "Car not found"}
//
// The message is the one the banner would show, so a script sees the cars
// API's own text wherever the API supplied one.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/car-listing/internal/apperror"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status go out with the first Write, so both are set before
// the body is encoded.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// The status is already on the wire; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status.
//
// ERROR MAPPING:
//
//	ErrValidation    → 400 validation_error
//	ErrNotFound      → 404 not_found
//	ErrImageTooLarge → 413 image_too_large
//	ErrUpstream      → 502 upstream_error   (the cars API said no)
//	ErrTransport     → 502 transport_error  (the cars API could not be reached)
//
// errors.Is walks the whole chain, so a repository error wrapped as
// "get car: %w" still matches its sentinel.
func writeError(w http.ResponseWriter, err error) {
	status, kind := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrImageTooLarge):
		status, kind = http.StatusRequestEntityTooLarge, "image_too_large"
	case errors.Is(err, apperror.ErrUpstream):
		status, kind = http.StatusBadGateway, "upstream_error"
	case errors.Is(err, apperror.ErrTransport):
		status, kind = http.StatusBadGateway, "transport_error"
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// NEVER echo an unclassified error: it may carry internals.
		writeJSON(w, status, ErrorResponse{Error: kind, Message: "An internal error occurred"})
		return
	}
	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: apperror.Message(appErr, http.StatusText(status)),
	})
}
