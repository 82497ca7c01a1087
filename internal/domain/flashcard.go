package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// CardStatus represents where a flashcard sits in its lifecycle.
// The progression is strictly forward: draft -> new -> finalized.
type CardStatus string

// Possible card status values
const (
	// CardStatusDraft is an AI-generated card awaiting user acceptance.
	// Draft cards are excluded from study selection.
	CardStatusDraft CardStatus = "draft"

	// CardStatusNew is an accepted (or manually created) card that has
	// not yet received a graded review.
	CardStatusNew CardStatus = "new"

	// CardStatusFinalized is a card that has been graded at least once.
	CardStatusFinalized CardStatus = "finalized"
)

// CardSource records how a flashcard came into existence.
type CardSource string

// Possible card source values
const (
	CardSourceManual CardSource = "manual"
	CardSourceAI     CardSource = "ai"
)

// Text length and scheduling bounds for flashcards.
const (
	MaxCardFrontLength = 200
	MaxCardBackLength  = 500

	DefaultEaseFactor = 2.50
	MinEaseFactor     = 1.30
	MaxEaseFactor     = 4.00
)

// Flashcard-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card's front text is empty.
	ErrCardFrontEmpty = errors.New("card front text cannot be empty")

	// ErrCardFrontTooLong is returned when a card's front text exceeds the maximum length.
	ErrCardFrontTooLong = errors.New("card front text exceeds maximum length")

	// ErrCardBackEmpty is returned when a card's back text is empty.
	ErrCardBackEmpty = errors.New("card back text cannot be empty")

	// ErrCardBackTooLong is returned when a card's back text exceeds the maximum length.
	ErrCardBackTooLong = errors.New("card back text exceeds maximum length")

	// ErrInvalidCardStatus is returned when a card status is not a known value.
	ErrInvalidCardStatus = errors.New("invalid card status")

	// ErrInvalidCardSource is returned when a card source is not a known value.
	ErrInvalidCardSource = errors.New("invalid card source")

	// ErrInvalidEaseFactor is returned when an ease factor is outside its bounds.
	ErrInvalidEaseFactor = errors.New("ease factor out of bounds")

	// ErrInvalidInterval is returned when an interval is negative.
	ErrInvalidInterval = errors.New("interval must be greater than or equal to 0")

	// ErrCardNotEditable is returned when text edits are attempted on a
	// finalized card.
	ErrCardNotEditable = errors.New("finalized cards cannot be edited")
)

// Flashcard is a single front/back study card belonging to a deck.
// It carries its own retention parameters (ease factor, interval, next
// review date); only the scheduling engine and explicit text edits may
// mutate it.
type Flashcard struct {
	ID             uuid.UUID  `json:"id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	Status         CardStatus `json:"status"`
	Source         CardSource `json:"source"`
	EaseFactor     float64    `json:"ease_factor"`
	Interval       int        `json:"interval"`
	NextReviewDate time.Time  `json:"next_review_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewFlashcard creates a manually entered card with status "new",
// available for study immediately.
// Returns an error if validation fails.
func NewFlashcard(deckID uuid.UUID, front, back string) (*Flashcard, error) {
	return newCard(deckID, front, back, CardStatusNew, CardSourceManual)
}

// NewDraftFlashcard creates an AI-generated card with status "draft".
// Draft cards carry default scheduling values but are excluded from
// study selection until accepted.
// Returns an error if validation fails.
func NewDraftFlashcard(deckID uuid.UUID, front, back string) (*Flashcard, error) {
	return newCard(deckID, front, back, CardStatusDraft, CardSourceAI)
}

func newCard(deckID uuid.UUID, front, back string, status CardStatus, source CardSource) (*Flashcard, error) {
	now := time.Now().UTC()
	card := &Flashcard{
		ID:             uuid.New(),
		DeckID:         deckID,
		Front:          front,
		Back:           back,
		Status:         status,
		Source:         source,
		EaseFactor:     DefaultEaseFactor,
		Interval:       0,
		NextReviewDate: DateOf(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
// Returns an error if any field fails validation.
func (c *Flashcard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.Front == "" {
		return ErrCardFrontEmpty
	}

	if utf8.RuneCountInString(c.Front) > MaxCardFrontLength {
		return ErrCardFrontTooLong
	}

	if c.Back == "" {
		return ErrCardBackEmpty
	}

	if utf8.RuneCountInString(c.Back) > MaxCardBackLength {
		return ErrCardBackTooLong
	}

	if !isValidCardStatus(c.Status) {
		return ErrInvalidCardStatus
	}

	if !isValidCardSource(c.Source) {
		return ErrInvalidCardSource
	}

	if c.EaseFactor < MinEaseFactor || c.EaseFactor > MaxEaseFactor {
		return ErrInvalidEaseFactor
	}

	if c.Interval < 0 {
		return ErrInvalidInterval
	}

	return nil
}

// TransitionTo advances the card's status. Transitions are validated
// centrally here rather than trusted from callers; the progression only
// ever moves forward (draft -> new -> finalized) and never backward.
// Transitioning to the current status is a no-op.
func (c *Flashcard) TransitionTo(status CardStatus) error {
	if !isValidCardStatus(status) {
		return ErrInvalidCardStatus
	}

	if status == c.Status {
		return nil
	}

	if statusRank(status) < statusRank(c.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, c.Status, status)
	}

	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateText changes the card's front and back text. Only draft and new
// cards may be edited; once a card is finalized its text is frozen.
// Returns an error if the new text is invalid.
func (c *Flashcard) UpdateText(front, back string) error {
	if c.Status == CardStatusFinalized {
		return ErrCardNotEditable
	}

	origFront, origBack := c.Front, c.Back
	c.Front, c.Back = front, back

	if err := c.Validate(); err != nil {
		c.Front, c.Back = origFront, origBack
		return err
	}

	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsDue reports whether the card is selectable for study on the given
// date: accepted (new or finalized) and scheduled on or before that date.
func (c *Flashcard) IsDue(today time.Time) bool {
	if c.Status == CardStatusDraft {
		return false
	}
	return !c.NextReviewDate.After(DateOf(today))
}

// DateOf truncates a timestamp to its UTC calendar date (midnight).
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// statusRank orders statuses along the forward-only progression.
func statusRank(s CardStatus) int {
	switch s {
	case CardStatusDraft:
		return 0
	case CardStatusNew:
		return 1
	case CardStatusFinalized:
		return 2
	default:
		return -1
	}
}

// isValidCardStatus checks if the given status is a valid CardStatus.
func isValidCardStatus(status CardStatus) bool {
	switch status {
	case CardStatusDraft, CardStatusNew, CardStatusFinalized:
		return true
	default:
		return false
	}
}

// isValidCardSource checks if the given source is a valid CardSource.
func isValidCardSource(source CardSource) bool {
	switch source {
	case CardSourceManual, CardSourceAI:
		return true
	default:
		return false
	}
}
