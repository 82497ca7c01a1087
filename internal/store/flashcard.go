package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
)

// FlashcardStore defines the interface for flashcard data persistence.
type FlashcardStore interface {
	// CreateMultiple saves multiple flashcards. All cards must be valid
	// according to domain validation rules; returns validation errors if
	// any card data is invalid.
	// The operation is only atomic when run within a transaction; use
	// WithTx together with store.RunInTransaction.
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a flashcard by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error)

	// GetForUpdate retrieves a flashcard with a row-level lock using
	// SELECT FOR UPDATE. Must be used within a transaction; it is the
	// serialization point for concurrent reviews of the same card.
	// Returns ErrCardNotFound if the card does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error)

	// UpdateScheduling persists a card's scheduling state and status
	// (ease factor, interval, next review date, status) after a graded
	// review or an accept/reject decision.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateScheduling(ctx context.Context, card *domain.Flashcard) error

	// FindDue returns the deck's due cards for the given date: status new
	// or finalized with next_review_date on or before the date, ordered
	// by next_review_date ascending then id ascending so that selection
	// is deterministic. A limit of 0 means no limit.
	FindDue(ctx context.Context, deckID uuid.UUID, today time.Time, limit int) ([]*domain.Flashcard, error)

	// CountDue returns the number of due cards FindDue would select.
	CountDue(ctx context.Context, deckID uuid.UUID, today time.Time) (int, error)

	// WithTx returns a new FlashcardStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) FlashcardStore
}
