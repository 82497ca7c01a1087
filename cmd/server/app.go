package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/deckhand-app/deckhand-api/internal/config"
	"github.com/deckhand-app/deckhand-api/internal/domain/srs"
	"github.com/deckhand-app/deckhand-api/internal/generation"
	"github.com/deckhand-app/deckhand-api/internal/platform/gemini"
	"github.com/deckhand-app/deckhand-api/internal/platform/openai"
	"github.com/deckhand-app/deckhand-api/internal/platform/postgres"
	"github.com/deckhand-app/deckhand-api/internal/service"
	"github.com/deckhand-app/deckhand-api/internal/service/auth"
	"github.com/deckhand-app/deckhand-api/internal/store"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService        auth.JWTService
	quotaService      service.QuotaService
	generationService service.GenerationService
	studyService      service.StudyService
}

// newApplication wires stores, the generator, and services from the
// loaded configuration and open database connection.
func newApplication(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*application, error) {
	runner := store.NewRunner(db)
	deckStore := postgres.NewPostgresDeckStore(db, logger)
	cardStore := postgres.NewPostgresFlashcardStore(db, logger)
	sessionStore := postgres.NewPostgresSessionStore(db, logger)
	perfStore := postgres.NewPostgresPerformanceStore(db, logger)
	logStore := postgres.NewPostgresGenerationLogStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	generator, err := newGenerator(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	quotaService, err := service.NewQuotaService(logStore, cfg.Generation.DailyCardLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create quota service: %w", err)
	}

	generationService, err := service.NewGenerationService(
		runner, deckStore, cardStore, logStore, generator,
		service.GenerationConfig{
			DailyCardLimit:      cfg.Generation.DailyCardLimit,
			MaxCardsPerRequest:  cfg.Generation.MaxCardsPerRequest,
			MinSourceTextLength: cfg.Generation.MinSourceTextLength,
			MaxSourceTextLength: cfg.Generation.MaxSourceTextLength,
			RequestTimeout:      time.Duration(cfg.Generation.RequestTimeoutSeconds) * time.Second,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	studyService, err := service.NewStudyService(
		runner, deckStore, cardStore, sessionStore, perfStore,
		newSRSService(cfg.SRS), cfg.Study.MaxCardsPerSession, logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	return &application{
		config:            cfg,
		logger:            logger,
		db:                db,
		jwtService:        jwtService,
		quotaService:      quotaService,
		generationService: generationService,
		studyService:      studyService,
	}, nil
}

// newGenerator builds the configured model backend.
func newGenerator(cfg *config.Config, logger *slog.Logger) (generation.Generator, error) {
	switch cfg.Generation.Provider {
	case "openai":
		return openai.NewGenerator(logger, cfg.Generation)
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return gemini.NewGenerator(ctx, logger, cfg.Generation)
	}
}

// newSRSService applies configured scheduling overrides on top of the
// built-in defaults.
func newSRSService(cfg config.SRSConfig) srs.Service {
	if cfg.MinEaseFactor == 0 && cfg.MaxEaseFactor == 0 &&
		cfg.HardIntervalMultiplier == 0 && cfg.EasyIntervalBonus == 0 {
		return srs.NewDefaultService()
	}

	defaults := srs.NewDefaultParams()
	params := *defaults
	if cfg.MinEaseFactor > 0 {
		params.MinEaseFactor = cfg.MinEaseFactor
	}
	if cfg.MaxEaseFactor > 0 {
		params.MaxEaseFactor = cfg.MaxEaseFactor
	}
	if cfg.HardIntervalMultiplier > 0 {
		params.HardIntervalMultiplier = cfg.HardIntervalMultiplier
	}
	if cfg.EasyIntervalBonus > 0 {
		params.EasyIntervalBonus = cfg.EasyIntervalBonus
	}
	return srs.NewServiceWithParams(&params)
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
