// Package main implements the entry point for the Deckhand API server,
// which handles AI flashcard generation and spaced repetition study
// sessions.
package main

import (
	"fmt"
	"log"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/deckhand-app/deckhand-api/internal/config"
	"github.com/deckhand-app/deckhand-api/internal/platform/logger"
	"github.com/deckhand-app/deckhand-api/internal/platform/postgres"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.serve(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration, sets up logging, connects to the
// database, applies migrations, and wires the application dependencies.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"generation_provider", cfg.Generation.Provider)

	db, err := openDatabase(cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := postgres.MigrateUp(db); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return newApplication(cfg, db, appLogger)
}
