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

// PostgresPerformanceStore implements the store.PerformanceStore interface
// using a PostgreSQL database as the storage backend. Performance rows are
// append-only; there is no update or delete path.
type PostgresPerformanceStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPerformanceStore creates a new PostgreSQL implementation of the PerformanceStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPerformanceStore(db store.DBTX, logger *slog.Logger) *PostgresPerformanceStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPerformanceStore{
		db:     db,
		logger: logger.With(slog.String("component", "performance_store")),
	}
}

// Ensure PostgresPerformanceStore implements store.PerformanceStore interface
var _ store.PerformanceStore = (*PostgresPerformanceStore)(nil)

// Create implements store.PerformanceStore.Create
// It appends one performance row for a graded review.
// Returns store.ErrInvalidEntity if the card or session doesn't exist
// (foreign key violation).
func (s *PostgresPerformanceStore) Create(ctx context.Context, perf *domain.FlashcardPerformance) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := perf.Validate(); err != nil {
		log.Warn("performance validation failed during create",
			slog.String("error", err.Error()),
			slog.String("performance_id", perf.ID.String()))
		return err
	}

	query := `
		INSERT INTO flashcard_performances
			(id, flashcard_id, session_id, grade, reviewed_at,
			 ease_factor_before, ease_factor_after, interval_before, interval_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		perf.ID,
		perf.FlashcardID,
		perf.SessionID,
		perf.Grade,
		perf.ReviewedAt,
		perf.EaseFactorBefore,
		perf.EaseFactorAfter,
		perf.IntervalBefore,
		perf.IntervalAfter,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during performance creation",
				slog.String("error", err.Error()),
				slog.String("performance_id", perf.ID.String()),
				slog.String("card_id", perf.FlashcardID.String()),
				slog.String("session_id", perf.SessionID.String()))
			return fmt.Errorf("%w: referenced card or session not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create performance row",
			slog.String("error", err.Error()),
			slog.String("performance_id", perf.ID.String()))
		return MapError(err)
	}

	log.Debug("performance row created",
		slog.String("performance_id", perf.ID.String()),
		slog.String("card_id", perf.FlashcardID.String()),
		slog.String("grade", string(perf.Grade)))
	return nil
}

// ListBySession implements store.PerformanceStore.ListBySession
// It returns a session's performance rows in review order.
// Returns an empty slice if the session has no reviews.
func (s *PostgresPerformanceStore) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]*domain.FlashcardPerformance, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, flashcard_id, session_id, grade, reviewed_at,
		       ease_factor_before, ease_factor_after, interval_before, interval_after
		FROM flashcard_performances
		WHERE session_id = $1
		ORDER BY reviewed_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		log.Error("failed to query performance rows",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, err
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var perfs []*domain.FlashcardPerformance
	for rows.Next() {
		var perf domain.FlashcardPerformance
		var grade string

		err := rows.Scan(
			&perf.ID,
			&perf.FlashcardID,
			&perf.SessionID,
			&grade,
			&perf.ReviewedAt,
			&perf.EaseFactorBefore,
			&perf.EaseFactorAfter,
			&perf.IntervalBefore,
			&perf.IntervalAfter,
		)
		if err != nil {
			log.Error("failed to scan performance row",
				slog.String("error", err.Error()))
			return nil, err
		}

		perf.Grade = domain.Grade(grade)
		perfs = append(perfs, &perf)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if perfs == nil {
		perfs = []*domain.FlashcardPerformance{}
	}

	return perfs, nil
}

// WithTx implements store.PerformanceStore.WithTx
// It returns a new PerformanceStore instance that uses the provided transaction.
func (s *PostgresPerformanceStore) WithTx(tx *sql.Tx) store.PerformanceStore {
	return &PostgresPerformanceStore{
		db:     tx,
		logger: s.logger,
	}
}
