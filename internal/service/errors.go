package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for
// with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrQuotaExceeded indicates the user's daily AI generation quota has no
	// remaining capacity. API layer should map this to HTTP 429.
	ErrQuotaExceeded = errors.New("daily generation quota exceeded")

	// ErrNoValidCards indicates a generation call produced candidates but
	// none survived validation, so nothing was persisted or counted.
	ErrNoValidCards = errors.New("no valid cards produced")

	// ErrSessionClosed indicates a mutating operation targeted a study
	// session that has already ended. API layer should map this to HTTP 409.
	ErrSessionClosed = errors.New("study session is closed")

	// ErrNoCardsDue indicates the deck has no cards due for review.
	ErrNoCardsDue = errors.New("no cards due for review")

	// ErrCardNotDue indicates a review was submitted for a card that is not
	// currently due, typically because a concurrent review already
	// rescheduled it.
	ErrCardNotDue = errors.New("card is not due for review")

	// ErrCardNotInDeck indicates a review targeted a card that does not
	// belong to the session's deck.
	ErrCardNotInDeck = errors.New("card does not belong to the session deck")

	// ErrInvalidGrade indicates the submitted grade is not a known value.
	ErrInvalidGrade = errors.New("invalid review grade")

	// ErrSourceTextInvalid indicates the generation source text is outside
	// the configured length bounds.
	ErrSourceTextInvalid = errors.New("source text length out of bounds")
)

// ServiceError wraps errors from the service layer with additional context.
// This allows consumers to differentiate between error sources using
// errors.As instead of string matching.
type ServiceError struct {
	Operation string // The operation that failed (e.g., "generate_cards", "submit_review")
	Message   string // Human-readable description
	Err       error  // Original error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
