package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/generation"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// GenerationRequest is one user request to generate flashcards from text.
type GenerationRequest struct {
	UserID     uuid.UUID
	DeckID     uuid.UUID
	SourceText string
	Count      int
}

// SkippedCandidate reports one model candidate that failed validation and
// was not persisted.
type SkippedCandidate struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// GenerationResult is the outcome of a generation call: the persisted
// draft cards, any skipped candidates, and the quota state after the call.
// GenerationID identifies the usage ledger entry the batch was billed to.
type GenerationResult struct {
	GenerationID uuid.UUID           `json:"generation_id"`
	Cards        []*domain.Flashcard `json:"cards"`
	Skipped      []SkippedCandidate  `json:"skipped,omitempty"`
	Usage        QuotaUsage          `json:"usage"`
}

// GenerationService orchestrates AI flashcard generation: request
// validation, ownership checks, quota enforcement, the model call, and
// transactional persistence of the surviving candidates.
type GenerationService interface {
	// GenerateCards runs the full generation flow for one request.
	//
	// Returns:
	//   - (*GenerationResult, nil): persisted draft cards plus skipped candidates
	//   - (nil, ErrSourceTextInvalid): source text outside configured bounds
	//   - (nil, store.ErrDeckNotFound): the deck does not exist
	//   - (nil, ErrNotOwned): the deck belongs to another user
	//   - (nil, ErrQuotaExceeded): no remaining daily quota
	//   - (nil, ErrNoValidCards): the model produced nothing persistable
	//   - (nil, generation.Err*): model call failures, unwrapped for the API layer
	GenerateCards(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// GenerationConfig carries the service-level bounds for generation requests.
type GenerationConfig struct {
	DailyCardLimit      int
	MaxCardsPerRequest  int
	MinSourceTextLength int
	MaxSourceTextLength int
	RequestTimeout      time.Duration
}

// generationServiceImpl implements the GenerationService interface
type generationServiceImpl struct {
	runner    store.Runner
	deckStore store.DeckStore
	cardStore store.FlashcardStore
	logStore  store.GenerationLogStore
	generator generation.Generator
	cfg       GenerationConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewGenerationService creates a new GenerationService.
// It returns an error if any of the required dependencies are nil or the
// configuration bounds are invalid.
func NewGenerationService(
	runner store.Runner,
	deckStore store.DeckStore,
	cardStore store.FlashcardStore,
	logStore store.GenerationLogStore,
	generator generation.Generator,
	cfg GenerationConfig,
	logger *slog.Logger,
) (GenerationService, error) {
	if runner == nil {
		return nil, NewServiceError("new_generation_service", "runner cannot be nil", nil)
	}
	if deckStore == nil {
		return nil, NewServiceError("new_generation_service", "deckStore cannot be nil", nil)
	}
	if cardStore == nil {
		return nil, NewServiceError("new_generation_service", "cardStore cannot be nil", nil)
	}
	if logStore == nil {
		return nil, NewServiceError("new_generation_service", "logStore cannot be nil", nil)
	}
	if generator == nil {
		return nil, NewServiceError("new_generation_service", "generator cannot be nil", nil)
	}
	if cfg.DailyCardLimit <= 0 || cfg.MaxCardsPerRequest <= 0 ||
		cfg.MinSourceTextLength <= 0 || cfg.MaxSourceTextLength <= cfg.MinSourceTextLength {
		return nil, NewServiceError("new_generation_service", "invalid generation bounds", nil)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &generationServiceImpl{
		runner:    runner,
		deckStore: deckStore,
		cardStore: cardStore,
		logStore:  logStore,
		generator: generator,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "generation_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// GenerateCards implements GenerationService.GenerateCards
func (s *generationServiceImpl) GenerateCards(
	ctx context.Context,
	req GenerationRequest,
) (*GenerationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.validateRequest(req); err != nil {
		log.Warn("generation request rejected",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID.String()))
		return nil, err
	}

	// Ownership check before spending quota or tokens.
	deck, err := s.deckStore.GetByID(ctx, req.DeckID)
	if err != nil {
		return nil, err
	}
	if !deck.OwnedBy(req.UserID) {
		log.Warn("generation request for deck owned by another user",
			slog.String("user_id", req.UserID.String()),
			slog.String("deck_id", req.DeckID.String()))
		return nil, ErrNotOwned
	}

	// Advisory pre-check: cheap rejection before the model call. The
	// authoritative check repeats inside the commit transaction.
	from, to := dayWindow(s.now())
	used, err := s.logStore.SumCardsGenerated(ctx, req.UserID, from, to)
	if err != nil {
		return nil, NewServiceError("generate_cards", "failed to check quota", err)
	}
	remaining := s.cfg.DailyCardLimit - used
	if remaining <= 0 {
		log.Info("generation rejected: quota exhausted",
			slog.String("user_id", req.UserID.String()),
			slog.Int("used", used),
			slog.Int("limit", s.cfg.DailyCardLimit))
		return nil, ErrQuotaExceeded
	}

	// The model is never asked for more than the user can persist.
	count := req.Count
	if count > remaining {
		count = remaining
	}

	callCtx := ctx
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	candidates, err := s.generator.GenerateCandidates(callCtx, req.SourceText, count)
	if err != nil {
		log.Error("model call failed",
			slog.String("error", err.Error()),
			slog.String("user_id", req.UserID.String()))
		return nil, err
	}

	cards, skipped := s.buildCards(log, req.DeckID, candidates)
	if len(cards) == 0 {
		log.Warn("no candidates survived validation",
			slog.String("user_id", req.UserID.String()),
			slog.Int("candidate_count", len(candidates)))
		return nil, fmt.Errorf("%w: %d candidates, all malformed", ErrNoValidCards, len(candidates))
	}
	if len(cards) > count {
		// Model over-delivered; excess is dropped, not billed.
		cards = cards[:count]
	}

	persisted, usage, generationID, err := s.persistCards(ctx, log, req.UserID, cards)
	if err != nil {
		return nil, err
	}

	log.Info("generation completed",
		slog.String("user_id", req.UserID.String()),
		slog.String("deck_id", req.DeckID.String()),
		slog.Int("persisted", len(persisted)),
		slog.Int("skipped", len(skipped)))

	return &GenerationResult{
		GenerationID: generationID,
		Cards:        persisted,
		Skipped:      skipped,
		Usage:        *usage,
	}, nil
}

// validateRequest checks the request against the configured bounds.
func (s *generationServiceImpl) validateRequest(req GenerationRequest) error {
	if req.UserID == uuid.Nil || req.DeckID == uuid.Nil {
		return domain.ErrInvalidID
	}

	length := utf8.RuneCountInString(req.SourceText)
	if length < s.cfg.MinSourceTextLength || length > s.cfg.MaxSourceTextLength {
		return fmt.Errorf("%w: %d characters, bounds [%d, %d]",
			ErrSourceTextInvalid, length, s.cfg.MinSourceTextLength, s.cfg.MaxSourceTextLength)
	}

	if req.Count <= 0 || req.Count > s.cfg.MaxCardsPerRequest {
		return fmt.Errorf("%w: count %d, maximum %d",
			domain.ErrValidation, req.Count, s.cfg.MaxCardsPerRequest)
	}

	return nil
}

// buildCards converts model candidates into draft flashcards, collecting
// per-item failures instead of failing the whole batch.
func (s *generationServiceImpl) buildCards(
	log *slog.Logger,
	deckID uuid.UUID,
	candidates []generation.Candidate,
) ([]*domain.Flashcard, []SkippedCandidate) {
	cards := make([]*domain.Flashcard, 0, len(candidates))
	var skipped []SkippedCandidate

	for i, candidate := range candidates {
		card, err := domain.NewDraftFlashcard(deckID, candidate.Front, candidate.Back)
		if err != nil {
			log.Debug("skipping malformed candidate",
				slog.Int("index", i),
				slog.String("reason", err.Error()))
			skipped = append(skipped, SkippedCandidate{Index: i, Reason: err.Error()})
			continue
		}
		cards = append(cards, card)
	}

	return cards, skipped
}

// persistCards commits the generated cards and the quota ledger entry in
// one transaction. The per-user advisory lock serializes concurrent
// generation commits, and the quota is recomputed under that lock so two
// racing requests cannot both land over the limit. If the recheck shows
// less room than the model delivered, the batch is trimmed to fit.
func (s *generationServiceImpl) persistCards(
	ctx context.Context,
	log *slog.Logger,
	userID uuid.UUID,
	cards []*domain.Flashcard,
) ([]*domain.Flashcard, *QuotaUsage, uuid.UUID, error) {
	var persisted []*domain.Flashcard
	var usage QuotaUsage
	var generationID uuid.UUID

	err := s.runner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txCards := s.cardStore.WithTx(tx)
		txLogs := s.logStore.WithTx(tx)

		if err := txLogs.AcquireUserLock(ctx, userID); err != nil {
			return err
		}

		from, to := dayWindow(s.now())
		used, err := txLogs.SumCardsGenerated(ctx, userID, from, to)
		if err != nil {
			return err
		}

		remaining := s.cfg.DailyCardLimit - used
		if remaining <= 0 {
			return ErrQuotaExceeded
		}
		toPersist := cards
		if len(toPersist) > remaining {
			log.Info("trimming batch to remaining quota",
				slog.String("user_id", userID.String()),
				slog.Int("batch", len(toPersist)),
				slog.Int("remaining", remaining))
			toPersist = toPersist[:remaining]
		}

		if err := txCards.CreateMultiple(ctx, toPersist); err != nil {
			// Card text is lost if not surfaced here since nothing was committed.
			for _, card := range toPersist {
				log.Error("failed to persist generated card",
					slog.String("card_id", card.ID.String()),
					slog.String("front", card.Front))
			}
			return NewServiceError("generate_cards", "failed to save cards", err)
		}

		entry, err := domain.NewAIGenerationLog(userID, len(toPersist), s.now())
		if err != nil {
			return NewServiceError("generate_cards", "failed to build quota entry", err)
		}
		if err := txLogs.Create(ctx, entry); err != nil {
			return NewServiceError("generate_cards", "failed to record quota usage", err)
		}

		persisted = toPersist
		generationID = entry.ID
		newUsed := used + len(toPersist)
		newRemaining := s.cfg.DailyCardLimit - newUsed
		if newRemaining < 0 {
			newRemaining = 0
		}
		usage = QuotaUsage{
			Used:      newUsed,
			Limit:     s.cfg.DailyCardLimit,
			Remaining: newRemaining,
			ResetAt:   to,
		}
		return nil
	})
	if err != nil {
		return nil, nil, uuid.Nil, err
	}

	return persisted, &usage, generationID, nil
}
