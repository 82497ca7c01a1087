package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Maximum length for a deck title.
const MaxDeckTitleLength = 100

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckUserIDEmpty is returned when a deck's user ID is empty or nil.
	ErrDeckUserIDEmpty = errors.New("deck user ID cannot be empty")

	// ErrDeckTitleEmpty is returned when a deck's title is empty.
	ErrDeckTitleEmpty = errors.New("deck title cannot be empty")

	// ErrDeckTitleTooLong is returned when a deck's title exceeds the maximum length.
	ErrDeckTitleTooLong = errors.New("deck title exceeds maximum length")
)

// Deck is a named collection of flashcards owned by a single user.
// The study and generation engines only ever read decks to verify
// ownership; deck content management lives outside this service.
type Deck struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDeck creates a new Deck with the given owner and title.
// It generates a new UUID for the deck ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewDeck(userID uuid.UUID, title string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
// Returns an error if any field fails validation.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}

	if d.Title == "" {
		return ErrDeckTitleEmpty
	}

	if len(d.Title) > MaxDeckTitleLength {
		return ErrDeckTitleTooLong
	}

	return nil
}

// OwnedBy reports whether the deck belongs to the given user.
func (d *Deck) OwnedBy(userID uuid.UUID) bool {
	return d.UserID == userID
}
