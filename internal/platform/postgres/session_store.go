package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// openSessionIndexName is the partial unique index enforcing at most one
// open session per (user, deck) pair.
const openSessionIndexName = "study_sessions_one_open_per_user_deck"

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// Create implements store.SessionStore.Create
// It saves a new study session. A unique violation on the open-session
// partial index means another request opened a session for the same
// (user, deck) pair first; that surfaces as store.ErrOpenSessionExists
// so the caller can re-read the winner.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		INSERT INTO study_sessions
			(id, user_id, deck_id, started_at, ended_at, cards_reviewed, cards_correct)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.DeckID,
		session.StartedAt,
		session.EndedAt,
		session.CardsReviewed,
		session.CardsCorrect,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case uniqueViolationCode:
				if pgErr.ConstraintName != openSessionIndexName {
					log.Error("unexpected unique violation during session creation",
						slog.String("error", err.Error()),
						slog.String("constraint", pgErr.ConstraintName))
					return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
				}
				log.Debug("open session already exists",
					slog.String("user_id", session.UserID.String()),
					slog.String("deck_id", session.DeckID.String()),
					slog.String("constraint", pgErr.ConstraintName))
				return fmt.Errorf("%w: %v", store.ErrOpenSessionExists, err)
			case foreignKeyViolationCode:
				log.Warn("foreign key violation during session creation",
					slog.String("error", err.Error()),
					slog.String("session_id", session.ID.String()))
				return fmt.Errorf("%w: deck with ID %s not found",
					store.ErrInvalidEntity, session.DeckID)
			}
		}

		log.Error("failed to create study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	log.Info("study session created successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.String("deck_id", session.DeckID.String()))
	return nil
}

// GetByID implements store.SessionStore.GetByID
// It retrieves a study session by its unique ID.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_reviewed, cards_correct
		FROM study_sessions
		WHERE id = $1
	`

	session, err := s.scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("study session not found", slog.String("session_id", id.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get study session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, err
	}

	return session, nil
}

// FindOpen implements store.SessionStore.FindOpen
// It retrieves the open session for a (user, deck) pair. The partial
// unique index guarantees at most one row matches.
// Returns store.ErrSessionNotFound if no session is currently open.
func (s *PostgresSessionStore) FindOpen(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, deck_id, started_at, ended_at, cards_reviewed, cards_correct
		FROM study_sessions
		WHERE user_id = $1 AND deck_id = $2 AND ended_at IS NULL
	`

	session, err := s.scanSession(s.db.QueryRowContext(ctx, query, userID, deckID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no open study session",
				slog.String("user_id", userID.String()),
				slog.String("deck_id", deckID.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to find open study session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}

	return session, nil
}

// Update implements store.SessionStore.Update
// It persists a session's counters and end timestamp.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresSessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		UPDATE study_sessions
		SET ended_at = $1, cards_reviewed = $2, cards_correct = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.EndedAt,
		session.CardsReviewed,
		session.CardsCorrect,
		session.ID,
	)

	if err != nil {
		log.Error("failed to update study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("study session not found for update",
			slog.String("session_id", session.ID.String()))
		return store.ErrSessionNotFound
	}

	log.Debug("study session updated",
		slog.String("session_id", session.ID.String()),
		slog.Int("cards_reviewed", session.CardsReviewed),
		slog.Int("cards_correct", session.CardsCorrect))
	return nil
}

// WithTx implements store.SessionStore.WithTx
// It returns a new SessionStore instance that uses the provided transaction.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanSession maps one study_sessions row onto a domain StudySession,
// converting the nullable ended_at column.
func (s *PostgresSessionStore) scanSession(row *sql.Row) (*domain.StudySession, error) {
	var session domain.StudySession
	var endedAt sql.NullTime

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.DeckID,
		&session.StartedAt,
		&endedAt,
		&session.CardsReviewed,
		&session.CardsCorrect,
	)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		t := endedAt.Time
		session.EndedAt = &t
	}

	return &session, nil
}
