package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("Validation Error")
	ErrTransport     = errors.New("transport failure")
	ErrUpstream      = errors.New("upstream rejected request")
	ErrImageTooLarge = errors.New("image too large")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Status  int    // Optional: HTTP status returned by the cars API
}

func (e *AppError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Transport wraps a network-level failure (connection refused, DNS, truncated body).
// The message is the cause's text so it can be shown to the user as-is.
func Transport(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrTransport, cause),
		Message: cause.Error(),
	}
}

// Upstream reports a non-2xx answer from the cars API. message is the API's
// {"error": "..."} text and may be empty when the body had none.
// A 404 is classified as ErrNotFound so callers can tell it apart.
func Upstream(status int, message string) *AppError {
	sentinel := ErrUpstream
	if status == 404 {
		sentinel = ErrNotFound
	}
	return &AppError{
		Err:     sentinel,
		Message: message,
		Status:  status,
	}
}

// ImageTooLarge rejects an attachment over the size cap.
func ImageTooLarge(size, limit int64) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, size, limit),
		Message: "Image size should be less than 5MB",
		Field:   "image",
	}
}

// Message extracts the user-facing text from err. An AppError contributes its
// Message; an AppError without one, or any other error, yields fallback.
// With an empty fallback the raw err.Error() is used instead.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
