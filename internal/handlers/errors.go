package handlers

import (
	"errors"
	"net/http"

	"viswords-api/internal/adapters/storage"
	"viswords-api/internal/repositories"
	"viswords-api/internal/services"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Request errors detected before the upload service is reached
var (
	ErrNoFilePart     = errors.New("no file part in the request")
	ErrMissingSession = errors.New("missing session")
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoFilePart), errors.Is(err, services.ErrNoSelectedFile), errors.Is(err, services.ErrFileNotAllowed):
		return http.StatusBadRequest
	case storage.IsInvalidKey(err), repositories.IsValidation(err):
		return http.StatusBadRequest
	case storage.IsNotFound(err), repositories.IsNotFound(err):
		return http.StatusNotFound
	case storage.IsAlreadyExists(err), repositories.IsDuplicate(err):
		return http.StatusConflict
	case errors.Is(err, ErrMissingSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
