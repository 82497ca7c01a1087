package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// PostgresGenerationLogStore implements the store.GenerationLogStore
// interface using a PostgreSQL database as the storage backend. The log
// is append-only; usage totals are derived with SUM over a day window.
type PostgresGenerationLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationLogStore creates a new PostgreSQL implementation of the GenerationLogStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresGenerationLogStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_log_store")),
	}
}

// Ensure PostgresGenerationLogStore implements store.GenerationLogStore interface
var _ store.GenerationLogStore = (*PostgresGenerationLogStore)(nil)

// Create implements store.GenerationLogStore.Create
// It appends one generation log entry.
// Returns store.ErrInvalidEntity if the user doesn't exist (foreign key violation).
func (s *PostgresGenerationLogStore) Create(ctx context.Context, entry *domain.AIGenerationLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("generation log validation failed during create",
			slog.String("error", err.Error()),
			slog.String("log_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO ai_generation_logs (id, user_id, cards_count, generated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.CardsCount,
		entry.GeneratedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during generation log creation",
				slog.String("error", err.Error()),
				slog.String("user_id", entry.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, entry.UserID)
		}

		log.Error("failed to create generation log",
			slog.String("error", err.Error()),
			slog.String("log_id", entry.ID.String()),
			slog.String("user_id", entry.UserID.String()))
		return MapError(err)
	}

	log.Info("generation log created",
		slog.String("log_id", entry.ID.String()),
		slog.String("user_id", entry.UserID.String()),
		slog.Int("cards_count", entry.CardsCount))
	return nil
}

// SumCardsGenerated implements store.GenerationLogStore.SumCardsGenerated
// It returns the total cards_count for a user across entries with
// generated_at in [from, to). COALESCE makes a user with no entries sum
// to zero rather than NULL.
func (s *PostgresGenerationLogStore) SumCardsGenerated(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COALESCE(SUM(cards_count), 0)
		FROM ai_generation_logs
		WHERE user_id = $1
		  AND generated_at >= $2
		  AND generated_at < $3
	`

	var total int
	err := s.db.QueryRowContext(ctx, query, userID, from, to).Scan(&total)
	if err != nil {
		log.Error("failed to sum generated cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	log.Debug("summed generated cards",
		slog.String("user_id", userID.String()),
		slog.Int("total", total))
	return total, nil
}

// AcquireUserLock implements store.GenerationLogStore.AcquireUserLock
// It takes a transaction-scoped advisory lock keyed on the user so that
// concurrent quota check-then-append sequences for the same user
// serialize. The lock releases automatically at commit or rollback.
// Must be called inside a transaction.
func (s *PostgresGenerationLogStore) AcquireUserLock(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey(userID))
	if err != nil {
		log.Error("failed to acquire user advisory lock",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return fmt.Errorf("failed to acquire user lock: %w", err)
	}

	log.Debug("acquired user advisory lock",
		slog.String("user_id", userID.String()))
	return nil
}

// WithTx implements store.GenerationLogStore.WithTx
// It returns a new GenerationLogStore instance that uses the provided transaction.
func (s *PostgresGenerationLogStore) WithTx(tx *sql.Tx) store.GenerationLogStore {
	return &PostgresGenerationLogStore{
		db:     tx,
		logger: s.logger,
	}
}

// advisoryLockKey hashes a user ID into the bigint key space
// pg_advisory_xact_lock expects. FNV-1a keeps the mapping stable across
// processes; collisions only cause extra serialization, never corruption.
func advisoryLockKey(userID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(userID[:])
	return int64(h.Sum64())
}
