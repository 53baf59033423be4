package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lumenlms/adapt-api/internal/api"
	apiMiddleware "github.com/lumenlms/adapt-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.examineeStore, app.jwtService, app.passwordVerifier)
	sessionHandler := api.NewSessionHandler(app.assessmentService, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Adaptive session endpoints
			r.Post("/sessions", sessionHandler.StartSession)
			r.Get("/sessions/{id}", sessionHandler.GetProgress)
			r.Post("/sessions/{id}/responses", sessionHandler.SubmitResponse)
			r.Post("/sessions/{id}/abandon", sessionHandler.AbandonSession)

			// Spaced-repetition review endpoints
			r.Post("/reviews/session", reviewHandler.BuildSession)
			r.Get("/reviews/due", reviewHandler.GetDueQueue)
			r.Post("/reviews", reviewHandler.RecordReview)
			r.Post("/reviews/{itemID}/postpone", reviewHandler.PostponeReview)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
