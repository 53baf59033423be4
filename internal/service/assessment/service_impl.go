package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/domain/irt"
	"github.com/lumenlms/adapt-api/internal/events"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
	"github.com/lumenlms/adapt-api/internal/service/selection"
	"github.com/lumenlms/adapt-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	sessionStore store.SessionStore
	pool         ItemPool
	grader       Grader
	estimator    *irt.Estimator
	selector     *selection.Selector
	strategy     selection.Strategy
	policy       TerminationPolicy
	cfg          Config
	registry     *activeRegistry
	emitter      events.Emitter
	logger       *slog.Logger
	timeFunc     func() time.Time // Injectable for testing

	// sessionLocks serializes submissions per session. Sessions are
	// single-writer, so contention here only occurs on misbehaving
	// duplicate submission streams.
	locksMu      sync.Mutex
	sessionLocks map[uuid.UUID]*sync.Mutex
}

// NewService creates a new assessment Service implementation.
func NewService(
	sessionStore store.SessionStore,
	pool ItemPool,
	grader Grader,
	estimator *irt.Estimator,
	selector *selection.Selector,
	strategy selection.Strategy,
	cfg Config,
	emitter events.Emitter,
	log *slog.Logger,
) (Service, error) {
	if sessionStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sessionStore cannot be nil")
	}
	if pool == nil {
		panic("pool cannot be nil")
	}
	if grader == nil {
		panic("grader cannot be nil")
	}
	if estimator == nil {
		panic("estimator cannot be nil")
	}
	if selector == nil {
		panic("selector cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !selection.IsValidStrategy(strategy) {
		return nil, fmt.Errorf("%w: %q", selection.ErrInvalidStrategy, strategy)
	}

	if log == nil {
		log = slog.Default()
	}

	return &serviceImpl{
		sessionStore: sessionStore,
		pool:         pool,
		grader:       grader,
		estimator:    estimator,
		selector:     selector,
		strategy:     strategy,
		policy: TerminationPolicy{
			MinQuestions:       cfg.MinQuestions,
			MaxQuestions:       cfg.MaxQuestions,
			PrecisionThreshold: cfg.PrecisionThreshold,
		},
		cfg:          cfg,
		registry:     newActiveRegistry(),
		emitter:      emitter,
		logger:       log.With(slog.String("component", "assessment_service")),
		timeFunc:     func() time.Time { return time.Now().UTC() },
		sessionLocks: make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

// StartSession implements Service.StartSession.
func (s *serviceImpl) StartSession(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if examineeID == uuid.Nil {
		return nil, fmt.Errorf("%w: examinee ID cannot be empty", domain.ErrValidation)
	}
	if poolScope == "" {
		return nil, fmt.Errorf("%w: pool scope cannot be empty", domain.ErrValidation)
	}

	log.Debug("starting adaptive session",
		slog.String("examinee_id", examineeID.String()),
		slog.String("pool_scope", poolScope))

	// The uniqueness invariant is enforced both against persisted state
	// and in the in-memory registry, which also covers races between two
	// concurrent starts.
	if existing, err := s.sessionStore.GetActiveForExaminee(ctx, examineeID, poolScope); err == nil {
		log.Debug("active session already exists",
			slog.String("examinee_id", examineeID.String()),
			slog.String("session_id", existing.ID.String()))
		return nil, ErrSessionConflict
	} else if !errors.Is(err, store.ErrSessionNotFound) {
		return nil, NewServiceError("start_session", "failed to check for active session", err)
	}

	estimate := s.estimator.Initialize(s.cfg.StartingAbility)

	session, err := domain.NewSessionState(examineeID, poolScope, estimate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if !s.registry.acquire(examineeID, poolScope, session.ID) {
		return nil, ErrSessionConflict
	}

	items, err := s.pool.GetAvailableItems(ctx, poolScope)
	if err != nil {
		s.registry.release(examineeID, poolScope, session.ID)
		return nil, NewServiceError("start_session", "failed to load item pool", err)
	}

	first, err := s.selector.SelectInitial(items, s.cfg.StartingAbility)
	if err != nil {
		s.registry.release(examineeID, poolScope, session.ID)
		return nil, err
	}

	// First item issuance is the INITIALIZED -> IN_PROGRESS transition.
	session.Status = domain.SessionInProgress
	session.CurrentItemID = first.ID
	session.UpdatedAt = s.timeFunc()

	if err := s.sessionStore.Create(ctx, session); err != nil {
		s.registry.release(examineeID, poolScope, session.ID)
		return nil, NewServiceError("start_session", "failed to persist session", err)
	}

	log.Info("adaptive session started",
		slog.String("session_id", session.ID.String()),
		slog.String("examinee_id", examineeID.String()),
		slog.String("first_item_id", first.ID.String()))

	return &StartResult{Session: session, Item: first}, nil
}

// SubmitResponse implements Service.SubmitResponse.
func (s *serviceImpl) SubmitResponse(
	ctx context.Context,
	sessionID uuid.UUID,
	examineeID uuid.UUID,
	itemID uuid.UUID,
	rawAnswer string,
	responseTime time.Duration,
) (*SubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewServiceError("submit_response", "failed to load session", err)
	}

	if session.ExamineeID != examineeID {
		log.Warn("submission from non-owning examinee",
			slog.String("session_id", sessionID.String()),
			slog.String("examinee_id", examineeID.String()))
		return nil, ErrSessionNotOwned
	}

	// Submissions after termination and submissions referencing anything
	// but the single in-flight item are rejected without mutation. A
	// duplicate submission for an already-graded item lands here too,
	// because grading moves CurrentItemID forward.
	if session.IsTerminated() || itemID != session.CurrentItemID {
		log.Debug("stale submission rejected",
			slog.String("session_id", sessionID.String()),
			slog.String("item_id", itemID.String()),
			slog.String("status", string(session.Status)))
		return nil, ErrStaleSubmission
	}

	item, err := s.findItem(ctx, session.PoolScope, itemID)
	if err != nil {
		return nil, NewServiceError("submit_response", "failed to resolve active item", err)
	}

	// Grading is the only blocking call in this path. The ability
	// estimate is committed only after a successful grade result.
	grade, err := s.gradeWithRetry(ctx, item, rawAnswer)
	if err != nil {
		return nil, err
	}

	now := s.timeFunc()
	session.Estimate = s.estimator.Update(session.Estimate, item, grade.IsCorrect)
	session.History = append(session.History, domain.Response{
		ItemID:         item.ID,
		IsCorrect:      grade.IsCorrect,
		ResponseTime:   responseTime,
		Difficulty:     item.Difficulty,
		Discrimination: item.Discrimination,
		Guessing:       item.Guessing,
		AnsweredAt:     now,
	})
	session.CurrentItemID = uuid.Nil
	session.UpdatedAt = now

	eligible, err := s.eligibleItems(ctx, session)
	if err != nil {
		return nil, NewServiceError("submit_response", "failed to load remaining items", err)
	}

	result := &SubmitResult{Session: session, Grade: grade}

	terminate, reason := s.policy.ShouldTerminate(len(session.History), session.Estimate, len(eligible) == 0)
	if !terminate {
		next, selErr := s.selector.SelectNext(eligible, session.UsedItemIDs(), session.Estimate, s.strategy)
		if selErr != nil {
			if !errors.Is(selErr, selection.ErrPoolExhausted) {
				return nil, NewServiceError("submit_response", "item selection failed", selErr)
			}
			// Pool exhaustion triggers graceful termination, not an error.
			terminate = true
			reason = domain.TerminationPoolExhausted
		} else {
			session.CurrentItemID = next.ID
			result.NextItem = &next
		}
	}

	if terminate {
		s.terminate(session, reason)
		result.Terminated = true
		result.Reason = reason
	}

	if err := s.sessionStore.Update(ctx, session); err != nil {
		return nil, NewServiceError("submit_response", "failed to persist session", err)
	}

	if terminate {
		s.emitCompletion(ctx, session)
	}

	log.Debug("response processed",
		slog.String("session_id", session.ID.String()),
		slog.Bool("is_correct", grade.IsCorrect),
		slog.Float64("theta", session.Estimate.Theta),
		slog.Float64("standard_error", session.Estimate.StandardError),
		slog.Bool("terminated", result.Terminated))

	return result, nil
}

// AbandonSession implements Service.AbandonSession.
func (s *serviceImpl) AbandonSession(
	ctx context.Context,
	sessionID, examineeID uuid.UUID,
) (*domain.SessionState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewServiceError("abandon_session", "failed to load session", err)
	}

	if session.ExamineeID != examineeID {
		return nil, ErrSessionNotOwned
	}

	if session.IsTerminated() {
		return nil, ErrInvalidStateTransition
	}

	// The in-flight item, if any, contributes no ability update.
	s.terminate(session, domain.TerminationAbandoned)
	session.UpdatedAt = s.timeFunc()

	if err := s.sessionStore.Update(ctx, session); err != nil {
		return nil, NewServiceError("abandon_session", "failed to persist session", err)
	}

	s.emitCompletion(ctx, session)

	log.Info("session abandoned",
		slog.String("session_id", session.ID.String()),
		slog.String("examinee_id", examineeID.String()))

	return session, nil
}

// GetProgress implements Service.GetProgress.
func (s *serviceImpl) GetProgress(
	ctx context.Context,
	sessionID, examineeID uuid.UUID,
) (*Progress, error) {
	session, err := s.sessionStore.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, NewServiceError("get_progress", "failed to load session", err)
	}

	if session.ExamineeID != examineeID {
		return nil, ErrSessionNotOwned
	}

	return &Progress{
		SessionID:     session.ID,
		Status:        session.Status,
		Administered:  len(session.History),
		Theta:         session.Estimate.Theta,
		StandardError: session.Estimate.StandardError,
		Reason:        session.Reason,
	}, nil
}

// terminate moves the session to its terminal state and frees the
// uniqueness slot. TERMINATED has no outgoing transitions.
func (s *serviceImpl) terminate(session *domain.SessionState, reason domain.TerminationReason) {
	session.Status = domain.SessionTerminated
	session.Reason = reason
	session.CurrentItemID = uuid.Nil
	s.registry.release(session.ExamineeID, session.PoolScope, session.ID)
	s.dropSessionLock(session.ID)
}

// emitCompletion publishes the completion event. Emission failures are
// logged but never affect the terminated session.
func (s *serviceImpl) emitCompletion(ctx context.Context, session *domain.SessionState) {
	if s.emitter == nil {
		return
	}

	event := events.NewSessionCompletedEvent(session)
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit session completed event",
			slog.String("session_id", session.ID.String()),
			slog.String("error", err.Error()))
	}
}

// gradeWithRetry calls the grading collaborator under the configured
// timeout, retrying timeouts up to the bounded count before surfacing
// ErrGradingTimeout. Non-timeout grading failures are not retried.
func (s *serviceImpl) gradeWithRetry(ctx context.Context, item domain.Item, rawAnswer string) (GradeResult, error) {
	attempts := s.cfg.GradingMaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		gradeCtx, cancel := context.WithTimeout(ctx, s.cfg.GradingTimeout)
		result, err := s.grader.GradeResponse(gradeCtx, item, rawAnswer)
		cancel()

		if err == nil {
			return result, nil
		}

		if !errors.Is(err, context.DeadlineExceeded) {
			return GradeResult{}, NewServiceError("submit_response", "grading failed", err)
		}

		s.logger.Warn("grading attempt timed out",
			slog.String("item_id", item.ID.String()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts))
	}

	return GradeResult{}, ErrGradingTimeout
}

// findItem resolves an item's calibrated parameters from the pool scope.
func (s *serviceImpl) findItem(ctx context.Context, scope string, itemID uuid.UUID) (domain.Item, error) {
	items, err := s.pool.GetAvailableItems(ctx, scope)
	if err != nil {
		return domain.Item{}, err
	}

	for _, item := range items {
		if item.ID == itemID {
			return item, nil
		}
	}

	return domain.Item{}, fmt.Errorf("item %s not found in scope %q", itemID, scope)
}

// eligibleItems returns pool items not yet administered in the session.
// The collaborator's unused view is filtered against the session history
// again in case the pool lags behind uncommitted state.
func (s *serviceImpl) eligibleItems(ctx context.Context, session *domain.SessionState) ([]domain.Item, error) {
	unused, err := s.pool.GetUnusedItems(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	used := session.UsedItemIDs()
	eligible := make([]domain.Item, 0, len(unused))
	for _, item := range unused {
		if !used[item.ID] {
			eligible = append(eligible, item)
		}
	}

	return eligible, nil
}

// lockSession acquires the per-session submission lock and returns its
// release function.
func (s *serviceImpl) lockSession(id uuid.UUID) func() {
	s.locksMu.Lock()
	mu, ok := s.sessionLocks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.sessionLocks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// dropSessionLock forgets the lock of a terminated session.
func (s *serviceImpl) dropSessionLock(id uuid.UUID) {
	s.locksMu.Lock()
	delete(s.sessionLocks, id)
	s.locksMu.Unlock()
}
