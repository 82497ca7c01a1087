package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// GenerationLog-specific validation errors
var (
	// ErrLogUserIDEmpty is returned when a generation log's user ID is empty.
	ErrLogUserIDEmpty = errors.New("generation log user ID cannot be empty")

	// ErrLogInvalidCount is returned when a generation log's card count is
	// not positive.
	ErrLogInvalidCount = errors.New("generation log cards count must be positive")
)

// AIGenerationLog is one append-only row per successful generation call,
// recording how many cards were persisted. Daily quota usage is computed
// exclusively from these rows; they are immutable once written.
type AIGenerationLog struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CardsCount  int       `json:"cards_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewAIGenerationLog creates a ledger row for a generation call that
// persisted cardsCount cards at the given time.
// Returns an error if validation fails.
func NewAIGenerationLog(userID uuid.UUID, cardsCount int, generatedAt time.Time) (*AIGenerationLog, error) {
	log := &AIGenerationLog{
		ID:          uuid.New(),
		UserID:      userID,
		CardsCount:  cardsCount,
		GeneratedAt: generatedAt.UTC(),
	}

	if err := log.Validate(); err != nil {
		return nil, err
	}

	return log, nil
}

// Validate checks if the AIGenerationLog has valid data.
// Returns an error if any field fails validation.
func (l *AIGenerationLog) Validate() error {
	if l.ID == uuid.Nil {
		return ErrInvalidID
	}

	if l.UserID == uuid.Nil {
		return ErrLogUserIDEmpty
	}

	if l.CardsCount <= 0 {
		return ErrLogInvalidCount
	}

	return nil
}
