package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deckhand-app/deckhand-api/internal/config"
	"github.com/deckhand-app/deckhand-api/internal/generation"
)

// validateConfig checks that the generation configuration carries
// everything a Gemini-backed generator needs.
//
// Returns an error if validation fails, nil otherwise.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.GenerationConfig) error {
	if cfg.GeminiAPIKey == "" {
		logger.ErrorContext(ctx, "missing Gemini API key",
			"error", "GeminiAPIKey is empty")
		return fmt.Errorf("%w: GeminiAPIKey cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		logger.ErrorContext(ctx, "missing model name",
			"error", "ModelName is empty")
		return fmt.Errorf("%w: ModelName cannot be empty", generation.ErrInvalidConfig)
	}

	return nil
}
