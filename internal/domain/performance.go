package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Grade is the user's self-reported recall quality for a reviewed card.
type Grade string

// Possible grade values
const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

// IsValid checks if the grade is one of the known values.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAgain, GradeHard, GradeGood, GradeEasy:
		return true
	default:
		return false
	}
}

// IsCorrect reports whether the grade counts toward a session's
// cards_correct tally. Only good and easy do.
func (g Grade) IsCorrect() bool {
	return g == GradeGood || g == GradeEasy
}

// Performance-specific validation errors
var (
	// ErrPerformanceCardIDEmpty is returned when a performance row's card ID is empty.
	ErrPerformanceCardIDEmpty = errors.New("performance flashcard ID cannot be empty")

	// ErrPerformanceSessionIDEmpty is returned when a performance row's session ID is empty.
	ErrPerformanceSessionIDEmpty = errors.New("performance session ID cannot be empty")
)

// FlashcardPerformance is the append-only audit record of a single graded
// review: the grade, when it happened, and the scheduling values before
// and after. Rows are never mutated once written.
type FlashcardPerformance struct {
	ID               uuid.UUID `json:"id"`
	FlashcardID      uuid.UUID `json:"flashcard_id"`
	SessionID        uuid.UUID `json:"session_id"`
	Grade            Grade     `json:"grade"`
	ReviewedAt       time.Time `json:"reviewed_at"`
	EaseFactorBefore float64   `json:"ease_factor_before"`
	EaseFactorAfter  float64   `json:"ease_factor_after"`
	IntervalBefore   int       `json:"interval_before"`
	IntervalAfter    int       `json:"interval_after"`
}

// NewFlashcardPerformance creates an audit row for one graded review.
// Returns an error if validation fails.
func NewFlashcardPerformance(
	flashcardID, sessionID uuid.UUID,
	grade Grade,
	reviewedAt time.Time,
	efBefore, efAfter float64,
	intervalBefore, intervalAfter int,
) (*FlashcardPerformance, error) {
	perf := &FlashcardPerformance{
		ID:               uuid.New(),
		FlashcardID:      flashcardID,
		SessionID:        sessionID,
		Grade:            grade,
		ReviewedAt:       reviewedAt.UTC(),
		EaseFactorBefore: efBefore,
		EaseFactorAfter:  efAfter,
		IntervalBefore:   intervalBefore,
		IntervalAfter:    intervalAfter,
	}

	if err := perf.Validate(); err != nil {
		return nil, err
	}

	return perf, nil
}

// Validate checks if the FlashcardPerformance has valid data.
// Returns an error if any field fails validation.
func (p *FlashcardPerformance) Validate() error {
	if p.ID == uuid.Nil {
		return ErrInvalidID
	}

	if p.FlashcardID == uuid.Nil {
		return ErrPerformanceCardIDEmpty
	}

	if p.SessionID == uuid.Nil {
		return ErrPerformanceSessionIDEmpty
	}

	if !p.Grade.IsValid() {
		return ErrInvalidGrade
	}

	if p.IntervalBefore < 0 || p.IntervalAfter < 0 {
		return ErrInvalidInterval
	}

	return nil
}
