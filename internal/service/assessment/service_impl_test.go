package assessment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/domain/irt"
	"github.com/lumenlms/adapt-api/internal/events"
	"github.com/lumenlms/adapt-api/internal/mocks"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
	"github.com/lumenlms/adapt-api/internal/service/selection"
)

// captureHandler records completion events for assertions.
type captureHandler struct {
	mu     sync.Mutex
	events []*events.SessionCompletedEvent
}

func (h *captureHandler) HandleEvent(_ context.Context, event *events.SessionCompletedEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *captureHandler) captured() []*events.SessionCompletedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*events.SessionCompletedEvent(nil), h.events...)
}

type testEnv struct {
	service      assessment.Service
	sessionStore *mocks.MockSessionStore
	pool         *mocks.MockItemPool
	grader       *mocks.MockGrader
	handler      *captureHandler
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func poolOf(difficulties ...float64) []domain.Item {
	items := make([]domain.Item, len(difficulties))
	for i, d := range difficulties {
		items[i] = domain.Item{
			ID:             uuid.New(),
			Difficulty:     d,
			Discrimination: 1.0,
			CompetencyTag:  "algebra",
		}
	}
	return items
}

func newTestEnv(t *testing.T, cfg assessment.Config, items []domain.Item) *testEnv {
	t.Helper()

	log := testLogger()

	estimator, err := irt.NewEstimator(domain.ModelRasch, nil)
	require.NoError(t, err)

	selector, err := selection.NewSelector(estimator, selection.Options{})
	require.NoError(t, err)

	handler := &captureHandler{}
	emitter := events.NewInMemoryEmitter(log)
	emitter.RegisterHandler(handler)

	env := &testEnv{
		sessionStore: mocks.NewMockSessionStore(),
		pool:         mocks.NewMockItemPool(items...),
		grader:       &mocks.MockGrader{Result: assessment.GradeResult{IsCorrect: true, Score: 1.0}},
		handler:      handler,
	}

	env.service, err = assessment.NewService(
		env.sessionStore,
		env.pool,
		env.grader,
		estimator,
		selector,
		selection.StrategyMaxInformation,
		cfg,
		emitter,
		log,
	)
	require.NoError(t, err)

	return env
}

// shortSessionConfig terminates on the second response via MaxQuestions.
func shortSessionConfig() assessment.Config {
	return assessment.Config{
		MinQuestions:       1,
		MaxQuestions:       2,
		PrecisionThreshold: 0.001,
		StartingAbility:    0.0,
		GradingTimeout:     time.Second,
		GradingMaxRetries:  0,
	}
}

func TestStartSession(t *testing.T) {
	t.Parallel()

	t.Run("creates an in-progress session with the closest item", func(t *testing.T) {
		t.Parallel()

		items := poolOf(-2.0, 0.2, 1.5)
		env := newTestEnv(t, shortSessionConfig(), items)
		examineeID := uuid.New()

		result, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		assert.Equal(t, items[1].ID, result.Item.ID, "first item should be closest to the starting ability")
		assert.Equal(t, domain.SessionInProgress, result.Session.Status)
		assert.Equal(t, items[1].ID, result.Session.CurrentItemID)
		assert.Equal(t, examineeID, result.Session.ExamineeID)
		assert.Empty(t, result.Session.History)

		stored, err := env.sessionStore.Get(context.Background(), result.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionInProgress, stored.Status)
	})

	t.Run("rejects a second active session for the same scope", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		_, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.StartSession(context.Background(), examineeID, "algebra")
		assert.ErrorIs(t, err, assessment.ErrSessionConflict)
	})

	t.Run("empty pool scope", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), nil)

		_, err := env.service.StartSession(context.Background(), uuid.New(), "algebra")
		assert.ErrorIs(t, err, selection.ErrPoolExhausted)
	})

	t.Run("validates inputs", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0))

		_, err := env.service.StartSession(context.Background(), uuid.Nil, "algebra")
		assert.ErrorIs(t, err, domain.ErrValidation)

		_, err = env.service.StartSession(context.Background(), uuid.New(), "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSubmitResponse(t *testing.T) {
	t.Parallel()

	t.Run("grades, updates the estimate and issues the next item", func(t *testing.T) {
		t.Parallel()

		cfg := shortSessionConfig()
		cfg.MaxQuestions = 10
		env := newTestEnv(t, cfg, poolOf(-1.0, 0.0, 1.0, 2.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		result, err := env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "42", 8*time.Second)
		require.NoError(t, err)

		assert.True(t, result.Grade.IsCorrect)
		assert.False(t, result.Terminated)
		require.NotNil(t, result.NextItem)
		assert.NotEqual(t, start.Item.ID, result.NextItem.ID, "an item is never administered twice")
		assert.Greater(t, result.Session.Estimate.Theta, 0.0, "a correct response should raise theta")
		require.Len(t, result.Session.History, 1)
		assert.Equal(t, start.Item.ID, result.Session.History[0].ItemID)
		assert.Equal(t, result.NextItem.ID, result.Session.CurrentItemID)
	})

	t.Run("incorrect response lowers the estimate", func(t *testing.T) {
		t.Parallel()

		cfg := shortSessionConfig()
		cfg.MaxQuestions = 10
		env := newTestEnv(t, cfg, poolOf(-1.0, 0.0, 1.0))
		env.grader.Result = assessment.GradeResult{IsCorrect: false}
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		result, err := env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "wrong", time.Second)
		require.NoError(t, err)

		assert.Less(t, result.Session.Estimate.Theta, 0.0)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0))

		_, err := env.service.SubmitResponse(
			context.Background(), uuid.New(), uuid.New(), uuid.New(), "42", time.Second)
		assert.ErrorIs(t, err, assessment.ErrSessionNotFound)
	})

	t.Run("non-owning examinee", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, uuid.New(), start.Item.ID, "42", time.Second)
		assert.ErrorIs(t, err, assessment.ErrSessionNotOwned)
	})

	t.Run("stale submission leaves the session untouched", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, uuid.New(), "42", time.Second)
		assert.ErrorIs(t, err, assessment.ErrStaleSubmission)

		stored, err := env.sessionStore.Get(context.Background(), start.Session.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.History)
		assert.Equal(t, start.Item.ID, stored.CurrentItemID)
	})

	t.Run("duplicate submission for a graded item is stale", func(t *testing.T) {
		t.Parallel()

		cfg := shortSessionConfig()
		cfg.MaxQuestions = 10
		env := newTestEnv(t, cfg, poolOf(0.0, 1.0, 2.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "42", time.Second)
		require.NoError(t, err)

		// Grading moved CurrentItemID forward; replaying the same item
		// must be rejected.
		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "42", time.Second)
		assert.ErrorIs(t, err, assessment.ErrStaleSubmission)
	})

	t.Run("submission after termination is stale", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.AbandonSession(context.Background(), start.Session.ID, examineeID)
		require.NoError(t, err)

		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "42", time.Second)
		assert.ErrorIs(t, err, assessment.ErrStaleSubmission)
	})
}

func TestSubmitResponseTermination(t *testing.T) {
	t.Parallel()

	submit := func(t *testing.T, env *testEnv, sessionID, examineeID, itemID uuid.UUID) *assessment.SubmitResult {
		t.Helper()
		result, err := env.service.SubmitResponse(
			context.Background(), sessionID, examineeID, itemID, "42", time.Second)
		require.NoError(t, err)
		return result
	}

	t.Run("maximum questions reached", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(-1.0, 0.0, 1.0, 2.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		first := submit(t, env, start.Session.ID, examineeID, start.Item.ID)
		require.NotNil(t, first.NextItem)

		second := submit(t, env, start.Session.ID, examineeID, first.NextItem.ID)
		assert.True(t, second.Terminated)
		assert.Equal(t, domain.TerminationMaxReached, second.Reason)
		assert.Nil(t, second.NextItem)
		assert.Equal(t, domain.SessionTerminated, second.Session.Status)
		assert.Equal(t, uuid.Nil, second.Session.CurrentItemID)
	})

	t.Run("precision reached", func(t *testing.T) {
		t.Parallel()

		cfg := assessment.Config{
			MinQuestions:       1,
			MaxQuestions:       10,
			PrecisionThreshold: 2.0,
			GradingTimeout:     time.Second,
		}
		env := newTestEnv(t, cfg, poolOf(-1.0, 0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		result := submit(t, env, start.Session.ID, examineeID, start.Item.ID)
		assert.True(t, result.Terminated)
		assert.Equal(t, domain.TerminationPrecisionReached, result.Reason)
	})

	t.Run("pool exhausted after the minimum", func(t *testing.T) {
		t.Parallel()

		cfg := assessment.Config{
			MinQuestions:       1,
			MaxQuestions:       10,
			PrecisionThreshold: 0.001,
			GradingTimeout:     time.Second,
		}
		env := newTestEnv(t, cfg, poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		first := submit(t, env, start.Session.ID, examineeID, start.Item.ID)
		require.NotNil(t, first.NextItem)

		second := submit(t, env, start.Session.ID, examineeID, first.NextItem.ID)
		assert.True(t, second.Terminated)
		assert.Equal(t, domain.TerminationPoolExhausted, second.Reason)
	})

	t.Run("pool exhaustion below the minimum still terminates gracefully", func(t *testing.T) {
		t.Parallel()

		cfg := assessment.Config{
			MinQuestions:       5,
			MaxQuestions:       10,
			PrecisionThreshold: 0.001,
			GradingTimeout:     time.Second,
		}
		env := newTestEnv(t, cfg, poolOf(0.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		result := submit(t, env, start.Session.ID, examineeID, start.Item.ID)
		assert.True(t, result.Terminated)
		assert.Equal(t, domain.TerminationPoolExhausted, result.Reason)
	})

	t.Run("termination emits a completion event", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(-1.0, 0.0, 1.0, 2.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		first := submit(t, env, start.Session.ID, examineeID, start.Item.ID)
		assert.Empty(t, env.handler.captured(), "no event before termination")

		second := submit(t, env, start.Session.ID, examineeID, first.NextItem.ID)
		require.True(t, second.Terminated)

		captured := env.handler.captured()
		require.Len(t, captured, 1)
		event := captured[0]
		assert.Equal(t, start.Session.ID, event.SessionID)
		assert.Equal(t, examineeID, event.ExamineeID)
		assert.Equal(t, domain.TerminationMaxReached, event.Reason)
		assert.Equal(t, 2, event.TotalQuestionsAdministered)
		assert.Len(t, event.ItemHistory, 2)
	})
}

func TestGradeRetries(t *testing.T) {
	t.Parallel()

	t.Run("timeouts are retried up to the bound", func(t *testing.T) {
		t.Parallel()

		cfg := shortSessionConfig()
		cfg.GradingTimeout = 50 * time.Millisecond
		cfg.GradingMaxRetries = 2
		env := newTestEnv(t, cfg, poolOf(0.0, 1.0))

		var attempts int
		var mu sync.Mutex
		env.grader.GradeResponseFn = func(ctx context.Context, item domain.Item, rawAnswer string) (assessment.GradeResult, error) {
			mu.Lock()
			attempts++
			mu.Unlock()
			return assessment.GradeResult{}, context.DeadlineExceeded
		}

		examineeID := uuid.New()
		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "42", time.Second)
		assert.ErrorIs(t, err, assessment.ErrGradingTimeout)
		assert.Equal(t, 3, attempts, "one initial attempt plus two retries")

		// A grading timeout must not consume the in-flight item.
		stored, err := env.sessionStore.Get(context.Background(), start.Session.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.History)
		assert.Equal(t, start.Item.ID, stored.CurrentItemID)
	})

	t.Run("non-timeout failures are not retried", func(t *testing.T) {
		t.Parallel()

		cfg := shortSessionConfig()
		cfg.GradingMaxRetries = 5
		env := newTestEnv(t, cfg, poolOf(0.0, 1.0))

		gradeErr := errors.New("grader unavailable")
		var attempts int
		env.grader.GradeResponseFn = func(ctx context.Context, item domain.Item, rawAnswer string) (assessment.GradeResult, error) {
			attempts++
			return assessment.GradeResult{}, gradeErr
		}

		examineeID := uuid.New()
		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "42", time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gradeErr)
		assert.NotErrorIs(t, err, assessment.ErrGradingTimeout)
		assert.Equal(t, 1, attempts)

		var serviceErr *assessment.ServiceError
		assert.ErrorAs(t, err, &serviceErr)
	})
}

func TestAbandonSession(t *testing.T) {
	t.Parallel()

	t.Run("terminates with reason abandoned", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		session, err := env.service.AbandonSession(context.Background(), start.Session.ID, examineeID)
		require.NoError(t, err)

		assert.Equal(t, domain.SessionTerminated, session.Status)
		assert.Equal(t, domain.TerminationAbandoned, session.Reason)
		assert.Equal(t, uuid.Nil, session.CurrentItemID)
		assert.Empty(t, session.History, "the in-flight item contributes no response")

		captured := env.handler.captured()
		require.Len(t, captured, 1)
		assert.Equal(t, domain.TerminationAbandoned, captured[0].Reason)
	})

	t.Run("abandoning twice is an invalid transition", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.AbandonSession(context.Background(), start.Session.ID, examineeID)
		require.NoError(t, err)

		_, err = env.service.AbandonSession(context.Background(), start.Session.ID, examineeID)
		assert.ErrorIs(t, err, assessment.ErrInvalidStateTransition)
	})

	t.Run("frees the uniqueness slot", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.AbandonSession(context.Background(), start.Session.ID, examineeID)
		require.NoError(t, err)

		_, err = env.service.StartSession(context.Background(), examineeID, "algebra")
		assert.NoError(t, err, "a new session should be allowed after abandoning")
	})

	t.Run("non-owning examinee", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.AbandonSession(context.Background(), start.Session.ID, uuid.New())
		assert.ErrorIs(t, err, assessment.ErrSessionNotOwned)
	})
}

func TestGetProgress(t *testing.T) {
	t.Parallel()

	t.Run("returns a snapshot", func(t *testing.T) {
		t.Parallel()

		cfg := shortSessionConfig()
		cfg.MaxQuestions = 10
		env := newTestEnv(t, cfg, poolOf(0.0, 1.0, 2.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.SubmitResponse(
			context.Background(), start.Session.ID, examineeID, start.Item.ID, "42", time.Second)
		require.NoError(t, err)

		progress, err := env.service.GetProgress(context.Background(), start.Session.ID, examineeID)
		require.NoError(t, err)

		assert.Equal(t, start.Session.ID, progress.SessionID)
		assert.Equal(t, domain.SessionInProgress, progress.Status)
		assert.Equal(t, 1, progress.Administered)
		assert.Positive(t, progress.StandardError)
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0))

		_, err := env.service.GetProgress(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, assessment.ErrSessionNotFound)
	})

	t.Run("non-owning examinee", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, shortSessionConfig(), poolOf(0.0, 1.0))
		examineeID := uuid.New()

		start, err := env.service.StartSession(context.Background(), examineeID, "algebra")
		require.NoError(t, err)

		_, err = env.service.GetProgress(context.Background(), start.Session.ID, uuid.New())
		assert.ErrorIs(t, err, assessment.ErrSessionNotOwned)
	})
}
