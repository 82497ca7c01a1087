package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
)

// SessionStore defines the interface for study session persistence.
type SessionStore interface {
	// Create saves a new study session. The schema enforces at most one
	// open session per (user, deck) pair with a partial unique index;
	// a racing insert surfaces as ErrOpenSessionExists, at which point
	// the caller should re-read the winner via FindOpen.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// FindOpen retrieves the open session for a (user, deck) pair.
	// Returns ErrSessionNotFound if no session is currently open.
	FindOpen(ctx context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error)

	// Update persists a session's counters and end timestamp.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.StudySession) error

	// WithTx returns a new SessionStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) SessionStore
}

// PerformanceStore defines the interface for the append-only review audit
// trail. Rows are written once per graded review and never mutated.
type PerformanceStore interface {
	// Create appends one performance row.
	// Returns validation errors from the domain FlashcardPerformance if
	// data is invalid.
	Create(ctx context.Context, perf *domain.FlashcardPerformance) error

	// ListBySession returns a session's performance rows in review order.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.FlashcardPerformance, error)

	// WithTx returns a new PerformanceStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) PerformanceStore
}
