package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/deckhand-app/deckhand-api/internal/api/shared"
	"github.com/deckhand-app/deckhand-api/internal/service"
)

// GenerationHandler handles AI card generation requests.
type GenerationHandler struct {
	generationService service.GenerationService
	defaultMaxCards   int
	validator         *validator.Validate
}

// NewGenerationHandler creates a GenerationHandler. defaultMaxCards is
// used when a request omits max_cards.
func NewGenerationHandler(
	generationService service.GenerationService,
	defaultMaxCards int,
) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		defaultMaxCards:   defaultMaxCards,
		validator:         validator.New(),
	}
}

// GenerateCards handles POST /api/decks/{deckID}/generate requests.
func (h *GenerationHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := requireUserAndPathUUID(w, r, "deckID")
	if !ok {
		return
	}

	var req GenerateCardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			CodeValidation, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			CodeValidation, SanitizeValidationError(err))
		return
	}

	count := req.MaxCards
	if count == 0 {
		count = h.defaultMaxCards
	}

	result, err := h.generationService.GenerateCards(r.Context(), service.GenerationRequest{
		UserID:     userID,
		DeckID:     deckID,
		SourceText: req.Text,
		Count:      count,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards := make([]GeneratedCard, 0, len(result.Cards))
	for _, card := range result.Cards {
		cards = append(cards, newGeneratedCard(card))
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, GenerateCardsResponse{
		GenerationID:   result.GenerationID,
		DeckID:         deckID,
		Flashcards:     cards,
		CardsGenerated: len(cards),
		Skipped:        result.Skipped,
		Usage:          newUsageResponse(result.Usage),
	})
}
