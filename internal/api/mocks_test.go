package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-app/deckhand-api/internal/api/shared"
	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/service"
)

type stubGenerationService struct {
	result  *service.GenerationResult
	err     error
	lastReq service.GenerationRequest
	calls   int
}

func (s *stubGenerationService) GenerateCards(
	ctx context.Context,
	req service.GenerationRequest,
) (*service.GenerationResult, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubQuotaService struct {
	usage *service.QuotaUsage
	err   error
}

func (s *stubQuotaService) Usage(ctx context.Context, userID uuid.UUID) (*service.QuotaUsage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.usage, nil
}

func (s *stubQuotaService) Remaining(ctx context.Context, userID uuid.UUID) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.usage.Remaining, nil
}

type stubStudyService struct {
	session   *domain.StudySession
	nextCard  *domain.Flashcard
	review    *service.ReviewResult
	dueCount  int
	startErr  error
	nextErr   error
	reviewErr error
	endErr    error
	dueErr    error

	lastGrade  domain.Grade
	lastCardID uuid.UUID
}

func (s *stubStudyService) StartSession(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.StudySession, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	return s.session, nil
}

func (s *stubStudyService) NextCard(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.Flashcard, error) {
	if s.nextErr != nil {
		return nil, s.nextErr
	}
	return s.nextCard, nil
}

func (s *stubStudyService) DueCount(ctx context.Context, userID, sessionID uuid.UUID) (int, error) {
	if s.dueErr != nil {
		return 0, s.dueErr
	}
	return s.dueCount, nil
}

func (s *stubStudyService) SubmitReview(
	ctx context.Context,
	userID, sessionID, cardID uuid.UUID,
	grade domain.Grade,
) (*service.ReviewResult, error) {
	s.lastCardID = cardID
	s.lastGrade = grade
	if s.reviewErr != nil {
		return nil, s.reviewErr
	}
	return s.review, nil
}

func (s *stubStudyService) EndSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*domain.StudySession, error) {
	if s.endErr != nil {
		return nil, s.endErr
	}
	return s.session, nil
}

// newAuthedRequest builds a request carrying the user ID and optional chi
// URL parameters, with the body JSON-encoded when non-nil.
func newAuthedRequest(
	t *testing.T,
	method, target string,
	userID uuid.UUID,
	body interface{},
	params map[string]string,
) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, target, &buf)
	ctx := r.Context()
	if userID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
	}

	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}

	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
