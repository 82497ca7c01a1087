package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/deckhand-app/deckhand-api/internal/api/shared"
	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/service"
)

// StudyHandler handles study session requests.
type StudyHandler struct {
	studyService service.StudyService
	validator    *validator.Validate
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(studyService service.StudyService) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
		validator:    validator.New(),
	}
}

// StartSession handles POST /api/sessions requests. Starting a session
// that is already open resumes it.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req StartSessionRequest
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

	deckID, err := uuid.Parse(req.DeckID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			CodeValidation, "Invalid deck_id")
		return
	}

	session, err := h.studyService.StartSession(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	firstCard, remaining, err := h.peekNext(r, userID, session.ID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, StartSessionResponse{
		SessionID:     session.ID,
		DeckID:        session.DeckID,
		StartedAt:     session.StartedAt,
		CardsToReview: remaining,
		FirstCard:     newCardPreview(firstCard),
	})
}

// SubmitReview handles POST /api/sessions/{sessionID}/review requests.
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	var req ReviewRequest
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

	cardID, err := uuid.Parse(req.FlashcardID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			CodeValidation, "Invalid flashcard_id")
		return
	}

	result, err := h.studyService.SubmitReview(
		r.Context(), userID, sessionID, cardID, domain.Grade(req.Grade))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	nextCard, remaining, err := h.peekNext(r, userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ReviewResponse{
		Flashcard: ReviewedCard{
			ID:             result.Card.ID,
			EaseFactor:     result.Card.EaseFactor,
			Interval:       result.Card.Interval,
			NextReviewDate: result.Card.NextReviewDate,
			Status:         string(result.Card.Status),
		},
		NextCard:       newCardPreview(nextCard),
		CardsRemaining: remaining,
	})
}

// EndSession handles POST /api/sessions/{sessionID}/end requests. Ending
// an already-closed session returns the same summary.
func (h *StudyHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := requireUserAndPathUUID(w, r, "sessionID")
	if !ok {
		return
	}

	session, err := h.studyService.EndSession(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, EndSessionResponse{
		SessionID:     session.ID,
		StartedAt:     session.StartedAt,
		EndedAt:       session.EndedAt,
		CardsReviewed: session.CardsReviewed,
		CardsCorrect:  session.CardsCorrect,
		AccuracyRate:  session.AccuracyRate(),
	})
}

// peekNext fetches the next due card and remaining count for a session.
// An exhausted session yields a nil card and zero, not an error.
func (h *StudyHandler) peekNext(
	r *http.Request,
	userID, sessionID uuid.UUID,
) (*domain.Flashcard, int, error) {
	card, err := h.studyService.NextCard(r.Context(), userID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNoCardsDue) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	remaining, err := h.studyService.DueCount(r.Context(), userID, sessionID)
	if err != nil {
		return nil, 0, err
	}
	return card, remaining, nil
}
