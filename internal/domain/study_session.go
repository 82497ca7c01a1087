package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StudySession-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrSessionUserIDEmpty is returned when a session's user ID is empty or nil.
	ErrSessionUserIDEmpty = errors.New("session user ID cannot be empty")

	// ErrSessionDeckIDEmpty is returned when a session's deck ID is empty or nil.
	ErrSessionDeckIDEmpty = errors.New("session deck ID cannot be empty")

	// ErrSessionClosed is returned when a mutating operation targets a
	// session that has already ended.
	ErrSessionClosed = errors.New("study session is closed")

	// ErrInvalidCounters is returned when session counters are negative or
	// cards_correct exceeds cards_reviewed.
	ErrInvalidCounters = errors.New("invalid session counters")
)

// StudySession tracks one user's pass over the due cards of a deck.
// At most one session per (user, deck) pair may be open at a time; a nil
// EndedAt marks the session as open.
type StudySession struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	DeckID        uuid.UUID  `json:"deck_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	CardsReviewed int        `json:"cards_reviewed"`
	CardsCorrect  int        `json:"cards_correct"`
}

// NewStudySession creates an open session for the given user and deck
// starting at the given time.
// Returns an error if validation fails.
func NewStudySession(userID, deckID uuid.UUID, startedAt time.Time) (*StudySession, error) {
	session := &StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		StartedAt: startedAt.UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
// Returns an error if any field fails validation.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}

	if s.DeckID == uuid.Nil {
		return ErrSessionDeckIDEmpty
	}

	if s.CardsReviewed < 0 || s.CardsCorrect < 0 || s.CardsCorrect > s.CardsReviewed {
		return ErrInvalidCounters
	}

	return nil
}

// IsOpen reports whether the session is still accepting reviews.
func (s *StudySession) IsOpen() bool {
	return s.EndedAt == nil
}

// RecordReview increments the running counters for one graded review.
// Returns ErrSessionClosed if the session has already ended.
func (s *StudySession) RecordReview(grade Grade) error {
	if !s.IsOpen() {
		return ErrSessionClosed
	}

	s.CardsReviewed++
	if grade.IsCorrect() {
		s.CardsCorrect++
	}
	return nil
}

// Close ends the session at the given time. Closing an already-closed
// session is a no-op so that End is idempotent.
func (s *StudySession) Close(endedAt time.Time) {
	if s.EndedAt != nil {
		return
	}
	t := endedAt.UTC()
	s.EndedAt = &t
}

// AccuracyRate is cards_correct / cards_reviewed, or 0 when nothing has
// been reviewed.
func (s *StudySession) AccuracyRate() float64 {
	if s.CardsReviewed == 0 {
		return 0
	}
	return float64(s.CardsCorrect) / float64(s.CardsReviewed)
}
