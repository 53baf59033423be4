package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenlms/adapt-api/internal/config"
	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/domain/irt"
	"github.com/lumenlms/adapt-api/internal/domain/srs"
	"github.com/lumenlms/adapt-api/internal/events"
	"github.com/lumenlms/adapt-api/internal/platform/postgres"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
	"github.com/lumenlms/adapt-api/internal/service/auth"
	"github.com/lumenlms/adapt-api/internal/service/grading"
	"github.com/lumenlms/adapt-api/internal/service/review"
	"github.com/lumenlms/adapt-api/internal/service/selection"
	"github.com/lumenlms/adapt-api/internal/store"
)

// completionLogHandler records terminated sessions. It stands in for the
// surrounding product's analytics consumers.
type completionLogHandler struct {
	logger *slog.Logger
}

// HandleEvent implements events.Handler.
func (h *completionLogHandler) HandleEvent(
	ctx context.Context,
	event *events.SessionCompletedEvent,
) error {
	h.logger.Info("session completed",
		"session_id", event.SessionID,
		"examinee_id", event.ExamineeID,
		"reason", string(event.Reason),
		"final_ability", event.FinalAbility,
		"final_standard_error", event.FinalStandardError,
		"questions_administered", event.TotalQuestionsAdministered)
	return nil
}

// application holds the initialized dependencies of the server.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	examineeStore store.ExamineeStore
	sessionStore  store.SessionStore
	recordStore   store.LearningRecordStore
	itemStore     store.ItemStore

	// Service interfaces
	jwtService        auth.JWTService
	passwordVerifier  auth.PasswordVerifier
	assessmentService assessment.Service
	reviewService     review.Service

	// Event system
	eventEmitter events.Emitter
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger,
// and database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.examineeStore = postgres.NewExamineeStore(db, logger, cfg.Auth.BcryptCost)
	app.sessionStore = postgres.NewSessionStore(db, logger)
	app.recordStore = postgres.NewLearningRecordStore(db, logger)
	itemStore := postgres.NewItemStore(db, logger)
	app.itemStore = itemStore

	// Initialize grader over the item bank's answer keys
	grader := grading.NewKeyGrader(itemStore, logger)

	// Initialize ability estimator
	estimator, err := irt.NewEstimator(domain.ModelVariant(cfg.Engine.Model), &irt.Params{
		ThetaMin:             cfg.Engine.ThetaMin,
		ThetaMax:             cfg.Engine.ThetaMax,
		StandardErrorFloor:   cfg.Engine.StandardErrorFloor,
		InitialStandardError: cfg.Engine.InitialStandardError,
		InformationEpsilon:   cfg.Engine.InformationEpsilon,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ability estimator: %w", err)
	}

	// Initialize item selector
	selector, err := selection.NewSelector(estimator, selection.Options{
		TopK:            cfg.Engine.ExposureTopK,
		PosteriorPoints: cfg.Engine.PosteriorPoints,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item selector: %w", err)
	}

	// Initialize event emitter with a logging completion handler
	emitter := events.NewInMemoryEmitter(logger)
	emitter.RegisterHandler(&completionLogHandler{
		logger: logger.With(slog.String("component", "completion_handler")),
	})
	app.eventEmitter = emitter

	// Initialize assessment service
	app.assessmentService, err = assessment.NewService(
		app.sessionStore,
		itemStore,
		grader,
		estimator,
		selector,
		selection.Strategy(cfg.Engine.Strategy),
		assessment.Config{
			MinQuestions:       cfg.Engine.MinQuestions,
			MaxQuestions:       cfg.Engine.MaxQuestions,
			PrecisionThreshold: cfg.Engine.PrecisionThreshold,
			StartingAbility:    cfg.Engine.StartingAbility,
			GradingTimeout:     time.Duration(cfg.Engine.GradingTimeoutSeconds) * time.Second,
			GradingMaxRetries:  cfg.Engine.GradingMaxRetries,
		},
		emitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create assessment service: %w", err)
	}

	// Initialize spaced-repetition scheduler
	scheduler, err := srs.NewServiceWithParams(&srs.Params{
		MinEaseFactor:            cfg.Review.MinEaseFactor,
		InitialEaseFactor:        cfg.Review.InitialEaseFactor,
		SecondsPerDifficultyUnit: cfg.Review.SecondsPerDifficultyUnit,
		MinExpectedSeconds:       cfg.Review.MinExpectedSeconds,
		SlowIncorrectSeconds:     cfg.Review.SlowIncorrectSeconds,
		FirstInterval:            cfg.Review.FirstIntervalDays,
		SecondInterval:           cfg.Review.SecondIntervalDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	// Initialize review service
	app.reviewService = review.NewService(
		app.recordStore,
		itemStore,
		grader,
		scheduler,
		cfg.Review.SessionSize,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
}
