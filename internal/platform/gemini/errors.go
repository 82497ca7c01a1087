package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrEmptySourceText is returned when the source text is empty.
	ErrEmptySourceText = errors.New("source text cannot be empty")
)
