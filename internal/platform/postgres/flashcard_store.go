package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// flashcardColumns is the column list shared by every flashcard SELECT.
const flashcardColumns = `id, deck_id, front, back, status, source,
	ease_factor, interval, next_review_date, created_at, updated_at`

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// CreateMultiple implements store.FlashcardStore.CreateMultiple
// It validates every card up front and inserts them one by one; atomicity
// comes from the caller's transaction.
// Returns store.ErrInvalidEntity if the deck doesn't exist (foreign key violation).
func (s *PostgresFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil
	}

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("flashcard validation failed during create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO flashcards
			(id, deck_id, front, back, status, source,
			 ease_factor, interval, next_review_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, card := range cards {
		_, err := s.db.ExecContext(
			ctx,
			query,
			card.ID,
			card.DeckID,
			card.Front,
			card.Back,
			card.Status,
			card.Source,
			card.EaseFactor,
			card.Interval,
			card.NextReviewDate,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
				log.Warn("foreign key violation during flashcard creation",
					slog.String("error", err.Error()),
					slog.String("card_id", card.ID.String()),
					slog.String("deck_id", card.DeckID.String()))
				return fmt.Errorf("%w: deck with ID %s not found",
					store.ErrInvalidEntity, card.DeckID)
			}

			log.Error("failed to create flashcard",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", card.DeckID.String()))
			return MapError(err)
		}
	}

	log.Info("flashcards created successfully",
		slog.Int("count", len(cards)),
		slog.String("deck_id", cards[0].DeckID.String()))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID
// It retrieves a flashcard by its unique ID.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + ` FROM flashcards WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetForUpdate implements store.FlashcardStore.GetForUpdate
// It retrieves a flashcard and takes a row lock with SELECT FOR UPDATE,
// so concurrent reviews of the same card serialize on the row. Only
// meaningful inside a transaction.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresFlashcardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	query := `SELECT ` + flashcardColumns + ` FROM flashcards WHERE id = $1 FOR UPDATE`
	return s.getOne(ctx, query, id)
}

func (s *PostgresFlashcardStore) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var card domain.Flashcard
	var status, source string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&card.ID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&status,
		&source,
		&card.EaseFactor,
		&card.Interval,
		&card.NextReviewDate,
		&card.CreatedAt,
		&card.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get flashcard",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, err
	}

	card.Status = domain.CardStatus(status)
	card.Source = domain.CardSource(source)
	return &card, nil
}

// UpdateScheduling implements store.FlashcardStore.UpdateScheduling
// It persists a card's scheduling state and status after a graded review
// or an accept/reject decision.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresFlashcardStore) UpdateScheduling(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during scheduling update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE flashcards
		SET status = $1, ease_factor = $2, interval = $3,
		    next_review_date = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		card.Status,
		card.EaseFactor,
		card.Interval,
		card.NextReviewDate,
		card.UpdatedAt,
		card.ID,
	)

	if err != nil {
		log.Error("failed to update flashcard scheduling",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("flashcard not found for scheduling update",
			slog.String("card_id", card.ID.String()))
		return store.ErrCardNotFound
	}

	log.Debug("flashcard scheduling updated",
		slog.String("card_id", card.ID.String()),
		slog.String("status", string(card.Status)),
		slog.Int("interval", card.Interval))
	return nil
}

// FindDue implements store.FlashcardStore.FindDue
// It returns the deck's due cards for the given date, ordered by
// next_review_date ascending then id ascending so selection is
// deterministic. Draft cards are never due.
// Returns an empty slice if no cards match.
func (s *PostgresFlashcardStore) FindDue(
	ctx context.Context,
	deckID uuid.UUID,
	today time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	date := domain.DateOf(today)

	log.Debug("finding due flashcards",
		slog.String("deck_id", deckID.String()),
		slog.Time("date", date),
		slog.Int("limit", limit))

	query := `SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE deck_id = $1
		  AND status IN ('new', 'finalized')
		  AND next_review_date <= $2
		ORDER BY next_review_date ASC, id ASC
	`
	args := []any{deckID, date}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due flashcards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var cards []*domain.Flashcard
	for rows.Next() {
		var card domain.Flashcard
		var status, source string

		err := rows.Scan(
			&card.ID,
			&card.DeckID,
			&card.Front,
			&card.Back,
			&status,
			&source,
			&card.EaseFactor,
			&card.Interval,
			&card.NextReviewDate,
			&card.CreatedAt,
			&card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan flashcard row",
				slog.String("error", err.Error()))
			return nil, err
		}

		card.Status = domain.CardStatus(status)
		card.Source = domain.CardSource(source)
		cards = append(cards, &card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if cards == nil {
		cards = []*domain.Flashcard{}
	}

	log.Debug("found due flashcards",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// CountDue implements store.FlashcardStore.CountDue
// It returns the number of due cards FindDue would select for the date.
func (s *PostgresFlashcardStore) CountDue(ctx context.Context, deckID uuid.UUID, today time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM flashcards
		WHERE deck_id = $1
		  AND status IN ('new', 'finalized')
		  AND next_review_date <= $2
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, deckID, domain.DateOf(today)).Scan(&count)
	if err != nil {
		log.Error("failed to count due flashcards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return 0, err
	}

	return count, nil
}

// WithTx implements store.FlashcardStore.WithTx
// It returns a new FlashcardStore instance that uses the provided transaction.
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}
