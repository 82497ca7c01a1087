package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
)

// DeckStore defines the interface for deck data persistence. The engine
// only ever reads decks to verify ownership; creation exists for seeding
// and tests, deck management is a different service's concern.
type DeckStore interface {
	// Create saves a new deck.
	// Returns validation errors from the domain Deck if data is invalid.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// WithTx returns a new DeckStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) DeckStore
}
