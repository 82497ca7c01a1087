package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/deckhand-app/deckhand-api/internal/api"
	apiMiddleware "github.com/deckhand-app/deckhand-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	generationHandler := api.NewGenerationHandler(
		app.generationService, app.config.Generation.MaxCardsPerRequest)
	usageHandler := api.NewUsageHandler(app.quotaService)
	studyHandler := api.NewStudyHandler(app.studyService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/decks/{deckID}/generate", generationHandler.GenerateCards)
			r.Get("/usage", usageHandler.GetUsage)

			r.Post("/sessions", studyHandler.StartSession)
			r.Post("/sessions/{sessionID}/review", studyHandler.SubmitReview)
			r.Post("/sessions/{sessionID}/end", studyHandler.EndSession)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
