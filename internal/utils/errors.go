package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError represents an error occurring during data validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// GenerationErrorKind classifies failures of the external text-generation
// call so callers can branch on the kind instead of raw status codes.
type GenerationErrorKind string

const (
	GenerationAuthRequired   GenerationErrorKind = "auth_required"
	GenerationRateLimited    GenerationErrorKind = "rate_limited"
	GenerationQuotaExhausted GenerationErrorKind = "quota_exhausted"
	GenerationGeneric        GenerationErrorKind = "generic"
)

// GenerationError wraps a failed generation call with its classified kind.
type GenerationError struct {
	Kind    GenerationErrorKind
	Message string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("insight generation failed (%s): %s", e.Kind, e.Message)
}

// NewGenerationError builds a GenerationError of the given kind.
func NewGenerationError(kind GenerationErrorKind, message string) error {
	return &GenerationError{Kind: kind, Message: message}
}

// ClassifyGenerationStatus maps an upstream HTTP status to an error kind.
func ClassifyGenerationStatus(status int) GenerationErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return GenerationAuthRequired
	case http.StatusTooManyRequests:
		return GenerationRateLimited
	case http.StatusPaymentRequired:
		return GenerationQuotaExhausted
	default:
		return GenerationGeneric
	}
}

// GenerationKind extracts the classified kind from err, defaulting to the
// generic kind for errors raised outside the gateway client.
func GenerationKind(err error) GenerationErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return GenerationGeneric
}

// GenerationStatusCode maps an error kind back to the HTTP status surfaced to
// the caller of the insights endpoint.
func GenerationStatusCode(kind GenerationErrorKind) int {
	switch kind {
	case GenerationAuthRequired:
		return http.StatusUnauthorized
	case GenerationRateLimited:
		return http.StatusTooManyRequests
	case GenerationQuotaExhausted:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
