// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidGrade is returned when a review grade is not one of
	// again, hard, good, easy.
	ErrInvalidGrade = errors.New("invalid review grade")

	// ErrInvalidStatusTransition is returned when a flashcard status change
	// would move backward in the draft -> new -> finalized progression.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
