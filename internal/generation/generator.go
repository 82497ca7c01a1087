package generation

import (
	"context"
)

// Candidate is a single model-proposed flashcard before any validation or
// persistence. Candidates that fail domain validation are reported back to
// the caller rather than silently dropped.
type Candidate struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Generator defines the interface for generating flashcard candidates from
// source text. This interface serves as a boundary between the application
// core and external AI/LLM services; the orchestrating service owns
// validation, quota accounting, and persistence.
type Generator interface {
	// GenerateCandidates asks the model for up to count flashcard
	// candidates derived from the source text. A single call is made with
	// no internal retry; cancellation and timeouts arrive through ctx.
	//
	// Returns the raw candidates, which may number fewer than count, or an
	// error if the call fails (see errors.go for specific types).
	GenerateCandidates(ctx context.Context, sourceText string, count int) ([]Candidate, error)
}
