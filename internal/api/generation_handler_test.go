package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-app/deckhand-api/internal/api/shared"
	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/service"
)

func TestGenerateCards(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	deckID := uuid.New()

	makeResult := func(t *testing.T) *service.GenerationResult {
		t.Helper()
		card, err := domain.NewDraftFlashcard(deckID, "What is ATP?", "The cell's energy currency.")
		require.NoError(t, err)
		return &service.GenerationResult{
			GenerationID: uuid.New(),
			Cards:        []*domain.Flashcard{card},
			Usage: service.QuotaUsage{
				Used:      1,
				Limit:     100,
				Remaining: 99,
				ResetAt:   time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC),
			},
		}
	}

	t.Run("generates cards", func(t *testing.T) {
		t.Parallel()

		stub := &stubGenerationService{result: makeResult(t)}
		h := NewGenerationHandler(stub, 20)

		body := GenerateCardsRequest{Text: strings.Repeat("mitochondria ", 10), MaxCards: 5}
		r := newAuthedRequest(t, http.MethodPost, "/api/decks/"+deckID.String()+"/generate",
			userID, body, map[string]string{"deckID": deckID.String()})
		w := httptest.NewRecorder()

		h.GenerateCards(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 5, stub.lastReq.Count)
		assert.Equal(t, userID, stub.lastReq.UserID)
		assert.Equal(t, deckID, stub.lastReq.DeckID)

		var resp GenerateCardsResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, deckID, resp.DeckID)
		assert.Equal(t, 1, resp.CardsGenerated)
		require.Len(t, resp.Flashcards, 1)
		assert.Equal(t, "draft", resp.Flashcards[0].Status)
		assert.Equal(t, "ai", resp.Flashcards[0].Source)
		assert.Equal(t, 99, resp.Usage.Remaining)
		assert.Equal(t, 100, resp.Usage.DailyLimit)
	})

	t.Run("omitted max_cards falls back to default", func(t *testing.T) {
		t.Parallel()

		stub := &stubGenerationService{result: makeResult(t)}
		h := NewGenerationHandler(stub, 20)

		body := GenerateCardsRequest{Text: "enough source text for a request"}
		r := newAuthedRequest(t, http.MethodPost, "/api/decks/"+deckID.String()+"/generate",
			userID, body, map[string]string{"deckID": deckID.String()})
		w := httptest.NewRecorder()

		h.GenerateCards(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 20, stub.lastReq.Count)
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()

		stub := &stubGenerationService{}
		h := NewGenerationHandler(stub, 20)

		r := newAuthedRequest(t, http.MethodPost, "/api/decks/"+deckID.String()+"/generate",
			uuid.Nil, GenerateCardsRequest{Text: "text"},
			map[string]string{"deckID": deckID.String()})
		w := httptest.NewRecorder()

		h.GenerateCards(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, stub.calls)
	})

	t.Run("invalid deck id in path", func(t *testing.T) {
		t.Parallel()

		stub := &stubGenerationService{}
		h := NewGenerationHandler(stub, 20)

		r := newAuthedRequest(t, http.MethodPost, "/api/decks/nope/generate",
			userID, GenerateCardsRequest{Text: "text"},
			map[string]string{"deckID": "nope"})
		w := httptest.NewRecorder()

		h.GenerateCards(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, stub.calls)
	})

	t.Run("missing text", func(t *testing.T) {
		t.Parallel()

		stub := &stubGenerationService{}
		h := NewGenerationHandler(stub, 20)

		r := newAuthedRequest(t, http.MethodPost, "/api/decks/"+deckID.String()+"/generate",
			userID, GenerateCardsRequest{},
			map[string]string{"deckID": deckID.String()})
		w := httptest.NewRecorder()

		h.GenerateCards(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp shared.ErrorResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, CodeValidation, resp.Code)
	})

	t.Run("quota exceeded", func(t *testing.T) {
		t.Parallel()

		stub := &stubGenerationService{err: service.ErrQuotaExceeded}
		h := NewGenerationHandler(stub, 20)

		r := newAuthedRequest(t, http.MethodPost, "/api/decks/"+deckID.String()+"/generate",
			userID, GenerateCardsRequest{Text: "plenty of source text here"},
			map[string]string{"deckID": deckID.String()})
		w := httptest.NewRecorder()

		h.GenerateCards(w, r)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		var resp shared.ErrorResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, CodeQuotaExceeded, resp.Code)
	})
}
