package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/generation"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// fakeRunner satisfies store.Runner without a database: the function runs
// with a nil transaction and the fakes ignore WithTx.
type fakeRunner struct {
	err error
}

func (r *fakeRunner) RunInTx(ctx context.Context, fn store.TxFn) error {
	if r.err != nil {
		return r.err
	}
	return fn(ctx, nil)
}

// fakeDeckStore is an in-memory store.DeckStore.
type fakeDeckStore struct {
	decks map[uuid.UUID]*domain.Deck
}

func newFakeDeckStore() *fakeDeckStore {
	return &fakeDeckStore{decks: make(map[uuid.UUID]*domain.Deck)}
}

func (f *fakeDeckStore) Create(_ context.Context, deck *domain.Deck) error {
	f.decks[deck.ID] = deck
	return nil
}

func (f *fakeDeckStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Deck, error) {
	deck, ok := f.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	return deck, nil
}

func (f *fakeDeckStore) WithTx(_ *sql.Tx) store.DeckStore { return f }

// fakeFlashcardStore is an in-memory store.FlashcardStore.
type fakeFlashcardStore struct {
	cards     map[uuid.UUID]*domain.Flashcard
	createErr error
	updateErr error
}

func newFakeFlashcardStore() *fakeFlashcardStore {
	return &fakeFlashcardStore{cards: make(map[uuid.UUID]*domain.Flashcard)}
}

func (f *fakeFlashcardStore) CreateMultiple(_ context.Context, cards []*domain.Flashcard) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, card := range cards {
		copied := *card
		f.cards[card.ID] = &copied
	}
	return nil
}

func (f *fakeFlashcardStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	card, ok := f.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (f *fakeFlashcardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeFlashcardStore) UpdateScheduling(_ context.Context, card *domain.Flashcard) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.cards[card.ID]; !ok {
		return store.ErrCardNotFound
	}
	copied := *card
	f.cards[card.ID] = &copied
	return nil
}

func (f *fakeFlashcardStore) FindDue(
	_ context.Context,
	deckID uuid.UUID,
	today time.Time,
	limit int,
) ([]*domain.Flashcard, error) {
	var due []*domain.Flashcard
	for _, card := range f.cards {
		if card.DeckID == deckID && card.IsDue(today) {
			copied := *card
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewDate.Equal(due[j].NextReviewDate) {
			return due[i].NextReviewDate.Before(due[j].NextReviewDate)
		}
		return due[i].ID.String() < due[j].ID.String()
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeFlashcardStore) CountDue(ctx context.Context, deckID uuid.UUID, today time.Time) (int, error) {
	due, err := f.FindDue(ctx, deckID, today, 0)
	return len(due), err
}

func (f *fakeFlashcardStore) WithTx(_ *sql.Tx) store.FlashcardStore { return f }

// fakeSessionStore is an in-memory store.SessionStore.
type fakeSessionStore struct {
	sessions  map[uuid.UUID]*domain.StudySession
	createErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.StudySession)}
}

func (f *fakeSessionStore) Create(_ context.Context, session *domain.StudySession) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.sessions {
		if existing.UserID == session.UserID &&
			existing.DeckID == session.DeckID &&
			existing.IsOpen() {
			return store.ErrOpenSessionExists
		}
	}
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uuid.UUID) (*domain.StudySession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionStore) FindOpen(_ context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error) {
	for _, session := range f.sessions {
		if session.UserID == userID && session.DeckID == deckID && session.IsOpen() {
			copied := *session
			return &copied, nil
		}
	}
	return nil, store.ErrSessionNotFound
}

func (f *fakeSessionStore) Update(_ context.Context, session *domain.StudySession) error {
	if _, ok := f.sessions[session.ID]; !ok {
		return store.ErrSessionNotFound
	}
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionStore) WithTx(_ *sql.Tx) store.SessionStore { return f }

// fakePerformanceStore is an in-memory store.PerformanceStore.
type fakePerformanceStore struct {
	rows []*domain.FlashcardPerformance
}

func newFakePerformanceStore() *fakePerformanceStore {
	return &fakePerformanceStore{}
}

func (f *fakePerformanceStore) Create(_ context.Context, perf *domain.FlashcardPerformance) error {
	copied := *perf
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakePerformanceStore) ListBySession(
	_ context.Context,
	sessionID uuid.UUID,
) ([]*domain.FlashcardPerformance, error) {
	var out []*domain.FlashcardPerformance
	for _, row := range f.rows {
		if row.SessionID == sessionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakePerformanceStore) WithTx(_ *sql.Tx) store.PerformanceStore { return f }

// fakeGenerationLogStore is an in-memory store.GenerationLogStore.
type fakeGenerationLogStore struct {
	entries   []*domain.AIGenerationLog
	lockCalls int
	sumErr    error
	createErr error
}

func newFakeGenerationLogStore() *fakeGenerationLogStore {
	return &fakeGenerationLogStore{}
}

func (f *fakeGenerationLogStore) Create(_ context.Context, entry *domain.AIGenerationLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeGenerationLogStore) SumCardsGenerated(
	_ context.Context,
	userID uuid.UUID,
	from, to time.Time,
) (int, error) {
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	total := 0
	for _, entry := range f.entries {
		if entry.UserID != userID {
			continue
		}
		if entry.GeneratedAt.Before(from) || !entry.GeneratedAt.Before(to) {
			continue
		}
		total += entry.CardsCount
	}
	return total, nil
}

func (f *fakeGenerationLogStore) AcquireUserLock(_ context.Context, _ uuid.UUID) error {
	f.lockCalls++
	return nil
}

func (f *fakeGenerationLogStore) WithTx(_ *sql.Tx) store.GenerationLogStore { return f }

// fakeGenerator returns canned candidates or an error.
type fakeGenerator struct {
	candidates []generation.Candidate
	err        error

	lastSourceText string
	lastCount      int
	calls          int
}

func (f *fakeGenerator) GenerateCandidates(
	_ context.Context,
	sourceText string,
	count int,
) ([]generation.Candidate, error) {
	f.calls++
	f.lastSourceText = sourceText
	f.lastCount = count
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}
