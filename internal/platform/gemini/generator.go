package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"google.golang.org/genai"

	"github.com/deckhand-app/deckhand-api/internal/config"
	"github.com/deckhand-app/deckhand-api/internal/generation"
)

// defaultPromptTemplate instructs the model to reply with strict JSON so
// the response can be parsed against responseSchema.
const defaultPromptTemplate = `You are a flashcard author. Read the source text below and produce up to {{.Count}} high-quality flashcards that test the key facts and concepts it contains.

Rules:
- Each card has a "front" (a question or prompt) and a "back" (the answer).
- Keep fronts under 200 characters and backs under 500 characters.
- Cover distinct facts; do not produce near-duplicate cards.
- Respond with JSON only, no prose, matching exactly:
  {"cards": [{"front": "...", "back": "..."}]}

Source text:
{{.SourceText}}`

// Generator implements the generation.Generator interface using
// Google's Gemini API to generate flashcard candidates from source text.
type Generator struct {
	logger *slog.Logger

	// cfg contains generation-specific configuration
	cfg config.GenerationConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// NewGenerator creates a new Gemini-backed Generator with the provided
// dependencies. The context is only used for client initialization.
//
// Returns a properly initialized Generator or an error if the
// configuration is invalid or client creation fails.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.GenerationConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	promptTemplate, err := template.New("flashcard").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		cfg:            cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// Ensure Generator implements the generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// GenerateCandidates asks Gemini for up to count flashcard candidates
// derived from the source text. One API call is made; cancellation and
// timeouts arrive through ctx and surface as generation.ErrTransientFailure.
func (g *Generator) GenerateCandidates(
	ctx context.Context,
	sourceText string,
	count int,
) ([]generation.Candidate, error) {
	prompt, err := g.createPrompt(ctx, sourceText, count)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "calling Gemini API",
		slog.String("model", g.model),
		slog.Int("requested_count", count),
		slog.Int("source_length", len(sourceText)))

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		if ctx.Err() != nil {
			g.logger.WarnContext(ctx, "Gemini API call cancelled or timed out",
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
		g.logger.ErrorContext(ctx, "Gemini API call failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := g.extractText(ctx, resp)
	if err != nil {
		return nil, err
	}

	return g.parseCandidates(ctx, text)
}

// createPrompt generates a prompt string from the template with the
// provided source text and requested card count.
func (g *Generator) createPrompt(ctx context.Context, sourceText string, count int) (string, error) {
	if sourceText == "" {
		return "", ErrEmptySourceText
	}
	if count <= 0 {
		return "", fmt.Errorf("%w: requested count must be positive", generation.ErrInvalidConfig)
	}

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, promptData{
		SourceText: sourceText,
		Count:      count,
	}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	g.logger.DebugContext(ctx, "prompt generated",
		slog.Int("prompt_length", promptBuffer.Len()))
	return promptBuffer.String(), nil
}

// extractText pulls the text payload out of a Gemini response, translating
// empty and safety-blocked responses to the generation sentinels.
func (g *Generator) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		g.logger.WarnContext(ctx, "content blocked by safety filters")
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return text, nil
}

// parseCandidates decodes the model's JSON reply into candidates. Field
// level validation (length bounds, non-empty text) is the orchestrating
// service's job; only structural problems are rejected here.
func (g *Generator) parseCandidates(ctx context.Context, text string) ([]generation.Candidate, error) {
	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		g.logger.WarnContext(ctx, "failed to parse Gemini response",
			slog.String("error", err.Error()),
			slog.Int("response_length", len(text)))
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}

	if len(parsed.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	candidates := make([]generation.Candidate, 0, len(parsed.Cards))
	for _, card := range parsed.Cards {
		candidates = append(candidates, generation.Candidate{
			Front: card.Front,
			Back:  card.Back,
		})
	}

	g.logger.InfoContext(ctx, "Gemini response parsed",
		slog.Int("candidate_count", len(candidates)))
	return candidates, nil
}
