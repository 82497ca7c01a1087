package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/deckhand-app/deckhand-api/internal/api/shared"
	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/generation"
	"github.com/deckhand-app/deckhand-api/internal/service"
	"github.com/deckhand-app/deckhand-api/internal/service/auth"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// Stable machine-readable error codes returned in every error payload.
// Clients branch on these, never on the message text.
const (
	CodeValidation        = "VALIDATION"
	CodeAuthorization     = "AUTHORIZATION"
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeGenerationService = "GENERATION_SERVICE_ERROR"
	CodeInvalidCard       = "INVALID_CARD"
	CodeSessionClosed     = "SESSION_CLOSED"
	CodeNotFound          = "NOT_FOUND"
	CodeInternal          = "INTERNAL"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusTooManyRequests

	case errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrCardNotDue),
		errors.Is(err, service.ErrCardNotInDeck):
		return http.StatusConflict

	case errors.Is(err, service.ErrSourceTextInvalid),
		errors.Is(err, service.ErrInvalidGrade),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidGrade),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrNoValidCards),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrContentBlocked):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the stable machine code for the error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, service.ErrNotOwned):
		return CodeAuthorization

	case errors.Is(err, store.ErrNotFound):
		return CodeNotFound

	case errors.Is(err, service.ErrQuotaExceeded):
		return CodeQuotaExceeded

	case errors.Is(err, service.ErrSessionClosed):
		return CodeSessionClosed

	case errors.Is(err, service.ErrCardNotDue),
		errors.Is(err, service.ErrCardNotInDeck):
		return CodeInvalidCard

	case errors.Is(err, service.ErrSourceTextInvalid),
		errors.Is(err, service.ErrInvalidGrade),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidGrade),
		errors.Is(err, store.ErrInvalidEntity):
		return CodeValidation

	case errors.Is(err, service.ErrNoValidCards),
		errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrContentBlocked):
		return CodeGenerationService

	default:
		return CodeInternal
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Internal details never appear here.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, service.ErrQuotaExceeded):
		return "Daily card generation limit reached"

	case errors.Is(err, service.ErrSessionClosed):
		return "Session has already ended"
	case errors.Is(err, service.ErrCardNotDue):
		return "Card is not due for review"
	case errors.Is(err, service.ErrCardNotInDeck):
		return "Card does not belong to the session deck"

	case errors.Is(err, service.ErrSourceTextInvalid):
		return "Source text length is out of bounds"
	case errors.Is(err, service.ErrInvalidGrade),
		errors.Is(err, domain.ErrInvalidGrade):
		return "Invalid review grade"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, generation.ErrContentBlocked):
		return "Source text was rejected by the generation service"
	case errors.Is(err, service.ErrNoValidCards):
		return "The generation service produced no usable cards"
	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrInvalidResponse):
		return "Card generation failed, please try again later"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a struct validation error into a
// user-friendly message without echoing internal field paths.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Validation error"
	}

	first := validationErrs[0]
	return fmt.Sprintf("Invalid %s: %s", first.Field(), validationTagMessage(first.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid":
		return "invalid identifier format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gt":
		return "must be greater than zero"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the standard error response for err. An empty
// userMessage falls back to the safe message for the error type.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	code := ErrorCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, code, userMessage, err)
}
