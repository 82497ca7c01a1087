package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	t.Run("includes code and trace ID", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/test", nil)
		ctx := context.WithValue(r.Context(), TraceIDKey, "abc123")
		r = r.WithContext(ctx)

		RespondWithError(w, r, http.StatusNotFound, "NOT_FOUND", "Deck not found")

		assert.Equal(t, http.StatusNotFound, w.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "NOT_FOUND", body.Code)
		assert.Equal(t, "Deck not found", body.Error)
		assert.Equal(t, "abc123", body.TraceID)
	})

	t.Run("omits missing trace ID", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/test", nil)

		RespondWithError(w, r, http.StatusBadRequest, "VALIDATION", "bad input")

		assert.NotContains(t, w.Body.String(), "trace_id")
	})
}

func TestRespondWithErrorAndLog(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/test", nil)

	underlying := errors.New("pq: connection to postgres://user:secret@db failed")
	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "INTERNAL",
		"An unexpected error occurred", underlying)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The raw error must never reach the client.
	assert.NotContains(t, w.Body.String(), "secret")
	assert.NotContains(t, w.Body.String(), "postgres://")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL", body.Code)
	assert.Equal(t, "An unexpected error occurred", body.Error)
}
