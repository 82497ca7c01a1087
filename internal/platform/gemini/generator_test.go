package gemini

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-app/deckhand-api/internal/config"
	"github.com/deckhand-app/deckhand-api/internal/generation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	tmpl, err := template.New("flashcard").Parse(defaultPromptTemplate)
	require.NoError(t, err)
	return &Generator{
		logger:         testLogger(),
		promptTemplate: tmpl,
		model:          "gemini-2.0-flash",
	}
}

func TestNewGeneratorConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.GenerationConfig
	}{
		{
			name: "missing API key",
			cfg:  config.GenerationConfig{ModelName: "gemini-2.0-flash"},
		},
		{
			name: "missing model name",
			cfg:  config.GenerationConfig{GeminiAPIKey: "test-key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(context.Background(), testLogger(), tt.cfg)
			assert.Nil(t, gen)
			assert.ErrorIs(t, err, generation.ErrInvalidConfig)
		})
	}

	t.Run("nil logger", func(t *testing.T) {
		gen, err := NewGenerator(context.Background(), nil, config.GenerationConfig{
			GeminiAPIKey: "test-key",
			ModelName:    "gemini-2.0-flash",
		})
		assert.Nil(t, gen)
		assert.Error(t, err)
	})
}

func TestCreatePrompt(t *testing.T) {
	g := testGenerator(t)

	t.Run("includes source text and count", func(t *testing.T) {
		prompt, err := g.createPrompt(context.Background(), "The mitochondria is the powerhouse of the cell.", 5)
		require.NoError(t, err)
		assert.Contains(t, prompt, "The mitochondria is the powerhouse of the cell.")
		assert.Contains(t, prompt, "up to 5")
	})

	t.Run("empty source text", func(t *testing.T) {
		_, err := g.createPrompt(context.Background(), "", 5)
		assert.ErrorIs(t, err, ErrEmptySourceText)
	})

	t.Run("non-positive count", func(t *testing.T) {
		_, err := g.createPrompt(context.Background(), "some text", 0)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestParseCandidates(t *testing.T) {
	g := testGenerator(t)
	ctx := context.Background()

	t.Run("valid response", func(t *testing.T) {
		text := `{"cards": [
			{"front": "What organelle produces ATP?", "back": "The mitochondria."},
			{"front": "What is ATP?", "back": "Adenosine triphosphate, the cell's energy currency."}
		]}`

		candidates, err := g.parseCandidates(ctx, text)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, "What organelle produces ATP?", candidates[0].Front)
		assert.Equal(t, "The mitochondria.", candidates[0].Back)
	})

	t.Run("malformed fields pass through for service-level validation", func(t *testing.T) {
		text := `{"cards": [{"front": "", "back": "answer"}]}`

		candidates, err := g.parseCandidates(ctx, text)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Empty(t, candidates[0].Front)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := g.parseCandidates(ctx, `not json at all`)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("empty card list", func(t *testing.T) {
		_, err := g.parseCandidates(ctx, `{"cards": []}`)
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})
}
