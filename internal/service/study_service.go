package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/domain/srs"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// ReviewResult is the outcome of grading one card: the updated card
// scheduling and the session's running counters.
type ReviewResult struct {
	Card    *domain.Flashcard    `json:"card"`
	Session *domain.StudySession `json:"session"`
}

// StudyService drives study sessions: starting them, serving due cards,
// recording graded reviews, and closing them out.
type StudyService interface {
	// StartSession opens a session for the user on the deck, or resumes
	// the existing open one. At most one session per (user, deck) pair is
	// ever open; racing starts converge on the same session.
	//
	// Returns:
	//   - (*domain.StudySession, nil): the open session, new or resumed
	//   - (nil, store.ErrDeckNotFound): the deck does not exist
	//   - (nil, ErrNotOwned): the deck belongs to another user
	StartSession(ctx context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error)

	// NextCard returns the next due card for the session's deck,
	// deterministically ordered by next review date then card ID.
	//
	// Returns:
	//   - (*domain.Flashcard, nil): the next card to review
	//   - (nil, ErrNoCardsDue): nothing left to review today
	//   - (nil, ErrSessionClosed): the session has already ended
	//   - (nil, store.ErrSessionNotFound): the session does not exist
	//   - (nil, ErrNotOwned): the session belongs to another user
	NextCard(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Flashcard, error)

	// DueCount returns how many cards the session still has to review
	// today, respecting the per-session card cap when one is configured.
	//
	// Returns:
	//   - (n, nil): due cards remaining, possibly zero
	//   - (0, ErrSessionClosed): the session has already ended
	//   - (0, store.ErrSessionNotFound): the session does not exist
	//   - (0, ErrNotOwned): the session belongs to another user
	DueCount(ctx context.Context, userID, sessionID uuid.UUID) (int, error)

	// SubmitReview grades one card inside the session. In a single
	// transaction it locks the card row, rechecks that the card is still
	// due, applies the scheduling algorithm, appends the performance
	// audit row, and bumps the session counters.
	//
	// Returns:
	//   - (*ReviewResult, nil): updated card and session
	//   - (nil, ErrInvalidGrade): unknown grade value
	//   - (nil, ErrCardNotDue): a concurrent review already rescheduled the card
	//   - (nil, ErrCardNotInDeck): the card belongs to a different deck
	//   - (nil, ErrSessionClosed): the session has already ended
	//   - (nil, store.ErrCardNotFound): the card does not exist
	//   - (nil, ErrNotOwned): the session belongs to another user
	SubmitReview(
		ctx context.Context,
		userID, sessionID, cardID uuid.UUID,
		grade domain.Grade,
	) (*ReviewResult, error)

	// EndSession closes the session and returns its final state. Ending
	// an already-closed session returns the same summary; the operation
	// is idempotent.
	//
	// Returns:
	//   - (*domain.StudySession, nil): the closed session
	//   - (nil, store.ErrSessionNotFound): the session does not exist
	//   - (nil, ErrNotOwned): the session belongs to another user
	EndSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.StudySession, error)
}

// studyServiceImpl implements the StudyService interface
type studyServiceImpl struct {
	runner             store.Runner
	deckStore          store.DeckStore
	cardStore          store.FlashcardStore
	sessionStore       store.SessionStore
	perfStore          store.PerformanceStore
	srsService         srs.Service
	maxCardsPerSession int
	logger             *slog.Logger
	now                func() time.Time
}

// NewStudyService creates a new StudyService.
// maxCardsPerSession of 0 means sessions are uncapped.
// It returns an error if any of the required dependencies are nil.
func NewStudyService(
	runner store.Runner,
	deckStore store.DeckStore,
	cardStore store.FlashcardStore,
	sessionStore store.SessionStore,
	perfStore store.PerformanceStore,
	srsService srs.Service,
	maxCardsPerSession int,
	logger *slog.Logger,
) (StudyService, error) {
	if runner == nil {
		return nil, NewServiceError("new_study_service", "runner cannot be nil", nil)
	}
	if deckStore == nil {
		return nil, NewServiceError("new_study_service", "deckStore cannot be nil", nil)
	}
	if cardStore == nil {
		return nil, NewServiceError("new_study_service", "cardStore cannot be nil", nil)
	}
	if sessionStore == nil {
		return nil, NewServiceError("new_study_service", "sessionStore cannot be nil", nil)
	}
	if perfStore == nil {
		return nil, NewServiceError("new_study_service", "perfStore cannot be nil", nil)
	}
	if srsService == nil {
		return nil, NewServiceError("new_study_service", "srsService cannot be nil", nil)
	}
	if maxCardsPerSession < 0 {
		return nil, NewServiceError("new_study_service", "maxCardsPerSession cannot be negative", nil)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		runner:             runner,
		deckStore:          deckStore,
		cardStore:          cardStore,
		sessionStore:       sessionStore,
		perfStore:          perfStore,
		srsService:         srsService,
		maxCardsPerSession: maxCardsPerSession,
		logger:             logger.With(slog.String("component", "study_service")),
		now:                func() time.Time { return time.Now().UTC() },
	}, nil
}

// StartSession implements StudyService.StartSession
func (s *studyServiceImpl) StartSession(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := s.deckStore.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if !deck.OwnedBy(userID) {
		log.Warn("session start for deck owned by another user",
			slog.String("user_id", userID.String()),
			slog.String("deck_id", deckID.String()))
		return nil, ErrNotOwned
	}

	// Resume before create so repeated starts are idempotent.
	existing, err := s.sessionStore.FindOpen(ctx, userID, deckID)
	if err == nil {
		log.Debug("resuming open session",
			slog.String("session_id", existing.ID.String()))
		return existing, nil
	}
	if !errors.Is(err, store.ErrSessionNotFound) {
		return nil, NewServiceError("start_session", "failed to look up open session", err)
	}

	session, err := domain.NewStudySession(userID, deckID, s.now())
	if err != nil {
		return nil, err
	}

	err = s.sessionStore.Create(ctx, session)
	if err != nil {
		// A concurrent start won the race; its session is the open one.
		if errors.Is(err, store.ErrOpenSessionExists) {
			winner, findErr := s.sessionStore.FindOpen(ctx, userID, deckID)
			if findErr != nil {
				return nil, NewServiceError("start_session", "failed to resume racing session", findErr)
			}
			log.Debug("lost session start race, resuming winner",
				slog.String("session_id", winner.ID.String()))
			return winner, nil
		}
		return nil, NewServiceError("start_session", "failed to create session", err)
	}

	log.Info("study session started",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()))
	return session, nil
}

// NextCard implements StudyService.NextCard
func (s *studyServiceImpl) NextCard(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, ErrSessionClosed
	}

	if s.maxCardsPerSession > 0 && session.CardsReviewed >= s.maxCardsPerSession {
		log.Debug("session reached card cap",
			slog.String("session_id", sessionID.String()),
			slog.Int("cards_reviewed", session.CardsReviewed))
		return nil, ErrNoCardsDue
	}

	cards, err := s.cardStore.FindDue(ctx, session.DeckID, s.now(), 1)
	if err != nil {
		return nil, NewServiceError("next_card", "failed to find due cards", err)
	}
	if len(cards) == 0 {
		return nil, ErrNoCardsDue
	}

	return cards[0], nil
}

func (s *studyServiceImpl) DueCount(ctx context.Context, userID, sessionID uuid.UUID) (int, error) {
	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return 0, err
	}
	if !session.IsOpen() {
		return 0, ErrSessionClosed
	}

	count, err := s.cardStore.CountDue(ctx, session.DeckID, s.now())
	if err != nil {
		return 0, NewServiceError("due_count", "failed to count due cards", err)
	}

	if s.maxCardsPerSession > 0 {
		budget := s.maxCardsPerSession - session.CardsReviewed
		if budget < 0 {
			budget = 0
		}
		if count > budget {
			count = budget
		}
	}
	return count, nil
}

// SubmitReview implements StudyService.SubmitReview
func (s *studyServiceImpl) SubmitReview(
	ctx context.Context,
	userID, sessionID, cardID uuid.UUID,
	grade domain.Grade,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !grade.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGrade, grade)
	}

	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen() {
		return nil, ErrSessionClosed
	}

	var result *ReviewResult
	err = s.runner.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txCards := s.cardStore.WithTx(tx)
		txSessions := s.sessionStore.WithTx(tx)
		txPerf := s.perfStore.WithTx(tx)

		// The row lock serializes concurrent reviews of the same card;
		// the due recheck under the lock rejects the loser.
		card, err := txCards.GetForUpdate(ctx, cardID)
		if err != nil {
			return err
		}
		if card.DeckID != session.DeckID {
			return ErrCardNotInDeck
		}

		reviewedAt := s.now()
		if !card.IsDue(reviewedAt) {
			return ErrCardNotDue
		}

		before := srs.State{
			EaseFactor: card.EaseFactor,
			Interval:   card.Interval,
		}
		next, err := s.srsService.NextReview(before, grade, reviewedAt)
		if err != nil {
			return err
		}

		perf, err := domain.NewFlashcardPerformance(
			card.ID, session.ID, grade, reviewedAt,
			before.EaseFactor, next.EaseFactor,
			before.Interval, next.Interval,
		)
		if err != nil {
			return err
		}

		card.EaseFactor = next.EaseFactor
		card.Interval = next.Interval
		card.NextReviewDate = next.NextReviewDate
		card.UpdatedAt = reviewedAt
		if err := card.TransitionTo(domain.CardStatusFinalized); err != nil {
			return err
		}

		if err := txCards.UpdateScheduling(ctx, card); err != nil {
			return NewServiceError("submit_review", "failed to update card scheduling", err)
		}
		if err := txPerf.Create(ctx, perf); err != nil {
			return NewServiceError("submit_review", "failed to record performance", err)
		}

		// Counters update on the fresh in-transaction copy so the write
		// reflects concurrent reviews committed before this one.
		fresh, err := txSessions.GetByID(ctx, session.ID)
		if err != nil {
			return err
		}
		if err := fresh.RecordReview(grade); err != nil {
			return err
		}
		if err := txSessions.Update(ctx, fresh); err != nil {
			return NewServiceError("submit_review", "failed to update session counters", err)
		}

		result = &ReviewResult{Card: card, Session: fresh}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("review recorded",
		slog.String("session_id", sessionID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("grade", string(grade)),
		slog.Int("new_interval", result.Card.Interval))
	return result, nil
}

// EndSession implements StudyService.EndSession
func (s *studyServiceImpl) EndSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.loadOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.IsOpen() {
		log.Debug("session already closed",
			slog.String("session_id", sessionID.String()))
		return session, nil
	}

	session.Close(s.now())
	if err := s.sessionStore.Update(ctx, session); err != nil {
		return nil, NewServiceError("end_session", "failed to close session", err)
	}

	log.Info("study session ended",
		slog.String("session_id", sessionID.String()),
		slog.Int("cards_reviewed", session.CardsReviewed),
		slog.Int("cards_correct", session.CardsCorrect))
	return session, nil
}

// loadOwnedSession fetches a session and verifies the caller owns it.
func (s *studyServiceImpl) loadOwnedSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.StudySession, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotOwned
	}
	return session, nil
}
