package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
)

// GenerationLogStore defines the interface for AI generation usage
// accounting. Usage is derived by summing log rows over a UTC day window
// rather than kept as a mutable counter, so the log itself is the source
// of truth.
type GenerationLogStore interface {
	// Create appends one generation log entry.
	Create(ctx context.Context, entry *domain.AIGenerationLog) error

	// SumCardsGenerated returns the total cards_count for a user across
	// entries with generated_at in [from, to). A user with no entries in
	// the window sums to zero.
	SumCardsGenerated(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)

	// AcquireUserLock takes a transaction-scoped advisory lock keyed on
	// the user. It serializes concurrent quota check-then-append sequences
	// for the same user and releases automatically at commit or rollback.
	// Must be called inside a transaction.
	AcquireUserLock(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new GenerationLogStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) GenerationLogStore
}
