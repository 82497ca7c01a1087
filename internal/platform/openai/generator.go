// Package openai provides an implementation of the generation.Generator
// interface backed by the OpenAI chat completions API. It mirrors the
// gemini adapter: one call per request, no internal retry, sentinel error
// mapping for transient and permanent failures.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/deckhand-app/deckhand-api/internal/config"
	"github.com/deckhand-app/deckhand-api/internal/generation"
)

// ErrEmptySourceText is returned when the source text is empty.
var ErrEmptySourceText = errors.New("source text cannot be empty")

const systemPrompt = `You are a flashcard author. You respond with JSON only, matching exactly: {"cards": [{"front": "...", "back": "..."}]}`

const userPromptTemplate = `Read the source text below and produce up to {{.Count}} high-quality flashcards that test the key facts and concepts it contains.

Rules:
- Each card has a "front" (a question or prompt) and a "back" (the answer).
- Keep fronts under 200 characters and backs under 500 characters.
- Cover distinct facts; do not produce near-duplicate cards.

Source text:
{{.SourceText}}`

// promptData represents the data passed to the prompt template
type promptData struct {
	SourceText string
	Count      int
}

// responseSchema represents the expected structure of the model reply
type responseSchema struct {
	Cards []struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	} `json:"cards"`
}

// completionClient is the slice of the go-openai client this adapter uses.
// Narrowing it keeps tests free of network access.
type completionClient interface {
	CreateChatCompletion(
		ctx context.Context,
		request goopenai.ChatCompletionRequest,
	) (goopenai.ChatCompletionResponse, error)
}

// Generator implements the generation.Generator interface using the
// OpenAI chat completions API.
type Generator struct {
	logger         *slog.Logger
	client         completionClient
	promptTemplate *template.Template
	model          string
}

// NewGenerator creates a new OpenAI-backed Generator with the provided
// dependencies.
//
// Returns a properly initialized Generator or an error if the
// configuration is invalid.
func NewGenerator(logger *slog.Logger, cfg config.GenerationConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: OpenAIAPIKey cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: ModelName cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("flashcard").Parse(userPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger.With(slog.String("component", "openai_generator")),
		client:         goopenai.NewClient(cfg.OpenAIAPIKey),
		promptTemplate: promptTemplate,
		model:          cfg.ModelName,
	}, nil
}

// Ensure Generator implements the generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// GenerateCandidates asks the model for up to count flashcard candidates
// derived from the source text. One API call is made; cancellation and
// timeouts arrive through ctx and surface as generation.ErrTransientFailure.
func (g *Generator) GenerateCandidates(
	ctx context.Context,
	sourceText string,
	count int,
) ([]generation.Candidate, error) {
	if sourceText == "" {
		return nil, ErrEmptySourceText
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: requested count must be positive", generation.ErrInvalidConfig)
	}

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, promptData{
		SourceText: sourceText,
		Count:      count,
	}); err != nil {
		return nil, fmt.Errorf("failed to execute prompt template: %w", err)
	}

	g.logger.InfoContext(ctx, "calling OpenAI API",
		slog.String("model", g.model),
		slog.Int("requested_count", count),
		slog.Int("source_length", len(sourceText)))

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: promptBuffer.String()},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			g.logger.WarnContext(ctx, "OpenAI API call cancelled or timed out",
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
		g.logger.ErrorContext(ctx, "OpenAI API call failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		g.logger.WarnContext(ctx, "content blocked by content filter")
		return nil, fmt.Errorf("%w: finish reason content_filter", generation.ErrContentBlocked)
	}

	var parsed responseSchema
	if err := json.Unmarshal([]byte(choice.Message.Content), &parsed); err != nil {
		g.logger.WarnContext(ctx, "failed to parse OpenAI response",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}
	if len(parsed.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	candidates := make([]generation.Candidate, 0, len(parsed.Cards))
	for _, card := range parsed.Cards {
		candidates = append(candidates, generation.Candidate{Front: card.Front, Back: card.Back})
	}

	g.logger.InfoContext(ctx, "OpenAI response parsed",
		slog.Int("candidate_count", len(candidates)))
	return candidates, nil
}
