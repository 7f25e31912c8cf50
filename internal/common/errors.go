package common

import (
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., tab name already registered
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrExternalService marks failures of the spreadsheet or repository host
	// APIs. The queue layer retries attempts that fail with this error; every
	// other pipeline error is terminal for the submission.
	ErrExternalService = errors.New("external service failure")

	ErrUserNotReady    = errors.New("user is not ready for submissions")
	ErrMappingMissing  = errors.New("question mapping not configured for group")
	ErrColumnExhausted = errors.New("no empty column pair found within probing bound")
	ErrCommitFailed    = errors.New("failed to retrieve commit URL")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrExternalService) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrColumnExhausted) {
		return http.StatusUnprocessableEntity
	}
	if mongo.IsDuplicateKeyError(err) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
