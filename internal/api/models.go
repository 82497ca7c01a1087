package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/service"
)

// GenerateCardsRequest is the payload for POST /api/decks/{deckID}/generate.
// MaxCards of 0 means "as many as the server allows".
type GenerateCardsRequest struct {
	Text     string `json:"text"      validate:"required"`
	MaxCards int    `json:"max_cards" validate:"omitempty,gt=0"`
}

// GeneratedCard is one persisted draft card in a generation response.
type GeneratedCard struct {
	ID     uuid.UUID `json:"id"`
	Front  string    `json:"front"`
	Back   string    `json:"back"`
	Status string    `json:"status"`
	Source string    `json:"source"`
}

// UsageResponse is the payload for GET /api/usage.
type UsageResponse struct {
	DailyLimit int       `json:"daily_limit"`
	UsedToday  int       `json:"used_today"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
}

// GenerateCardsResponse is the payload for a successful generation.
type GenerateCardsResponse struct {
	GenerationID   uuid.UUID                  `json:"generation_id"`
	DeckID         uuid.UUID                  `json:"deck_id"`
	Flashcards     []GeneratedCard            `json:"flashcards"`
	CardsGenerated int                        `json:"cards_generated"`
	Skipped        []service.SkippedCandidate `json:"skipped,omitempty"`
	Usage          UsageResponse              `json:"usage"`
}

// StartSessionRequest is the payload for POST /api/sessions.
type StartSessionRequest struct {
	DeckID string `json:"deck_id" validate:"required,uuid"`
}

// CardPreview shows a due card's front only; the back is withheld until
// the card is reviewed.
type CardPreview struct {
	ID    uuid.UUID `json:"id"`
	Front string    `json:"front"`
}

// StartSessionResponse is the payload for a started or resumed session.
type StartSessionResponse struct {
	SessionID     uuid.UUID    `json:"session_id"`
	DeckID        uuid.UUID    `json:"deck_id"`
	StartedAt     time.Time    `json:"started_at"`
	CardsToReview int          `json:"cards_to_review"`
	FirstCard     *CardPreview `json:"first_card"`
}

// ReviewRequest is the payload for POST /api/sessions/{sessionID}/review.
type ReviewRequest struct {
	FlashcardID string `json:"flashcard_id" validate:"required,uuid"`
	Grade       string `json:"grade"        validate:"required,oneof=again hard good easy"`
}

// ReviewedCard carries the updated scheduling state of a graded card.
type ReviewedCard struct {
	ID             uuid.UUID `json:"id"`
	EaseFactor     float64   `json:"ease_factor"`
	Interval       int       `json:"interval"`
	NextReviewDate time.Time `json:"next_review_date"`
	Status         string    `json:"status"`
}

// ReviewResponse is the payload for a recorded review.
type ReviewResponse struct {
	Flashcard      ReviewedCard `json:"flashcard"`
	NextCard       *CardPreview `json:"next_card"`
	CardsRemaining int          `json:"cards_remaining"`
}

// EndSessionResponse is the payload for a closed session summary.
type EndSessionResponse struct {
	SessionID     uuid.UUID  `json:"session_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	CardsReviewed int        `json:"cards_reviewed"`
	CardsCorrect  int        `json:"cards_correct"`
	AccuracyRate  float64    `json:"accuracy_rate"`
}

func newGeneratedCard(card *domain.Flashcard) GeneratedCard {
	return GeneratedCard{
		ID:     card.ID,
		Front:  card.Front,
		Back:   card.Back,
		Status: string(card.Status),
		Source: string(card.Source),
	}
}

func newCardPreview(card *domain.Flashcard) *CardPreview {
	if card == nil {
		return nil
	}
	return &CardPreview{ID: card.ID, Front: card.Front}
}

func newUsageResponse(usage service.QuotaUsage) UsageResponse {
	return UsageResponse{
		DailyLimit: usage.Limit,
		UsedToday:  usage.Used,
		Remaining:  usage.Remaining,
		ResetAt:    usage.ResetAt,
	}
}
