package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// Common error types for the assessment service
var (
	// ErrSessionNotFound indicates that the session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotOwned indicates the caller is not the session's examinee.
	// Sessions are single-writer: only the owning examinee's submission
	// stream may advance them.
	ErrSessionNotOwned = errors.New("unauthorized access: session not owned by examinee")

	// ErrSessionConflict indicates the examinee already has an active
	// session for the same pool scope.
	ErrSessionConflict = errors.New("an active session already exists for this examinee and scope")

	// ErrStaleSubmission indicates an answer referencing an item other
	// than the currently active one, or submitted after termination.
	// Stale submissions are rejected without any state mutation.
	ErrStaleSubmission = errors.New("stale submission: item is not the active one")

	// ErrGradingTimeout indicates the external grading collaborator did
	// not respond within the configured timeout across all retries.
	ErrGradingTimeout = errors.New("grading collaborator timed out")

	// ErrInvalidStateTransition indicates an attempt to advance a
	// terminated session.
	ErrInvalidStateTransition = errors.New("invalid state transition: session is terminated")
)

// Config holds the session controller's tunables. The values are
// per-deployment configuration with documented defaults rather than
// constants, since hard-coding them would bias results across item banks.
type Config struct {
	MinQuestions       int
	MaxQuestions       int
	PrecisionThreshold float64
	StartingAbility    float64
	GradingTimeout     time.Duration
	GradingMaxRetries  int
}

// NewDefaultConfig returns the documented default controller settings.
func NewDefaultConfig() Config {
	return Config{
		MinQuestions:       5,
		MaxQuestions:       20,
		PrecisionThreshold: 0.3,
		StartingAbility:    0.0,
		GradingTimeout:     10 * time.Second,
		GradingMaxRetries:  2,
	}
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.MinQuestions < 1 {
		return fmt.Errorf("%w: min questions must be at least 1", domain.ErrValidation)
	}
	if c.MaxQuestions < c.MinQuestions {
		return fmt.Errorf("%w: max questions must be at least min questions", domain.ErrValidation)
	}
	if c.PrecisionThreshold <= 0 {
		return fmt.Errorf("%w: precision threshold must be positive", domain.ErrValidation)
	}
	if c.GradingTimeout <= 0 {
		return fmt.Errorf("%w: grading timeout must be positive", domain.ErrValidation)
	}
	if c.GradingMaxRetries < 0 {
		return fmt.Errorf("%w: grading retry count cannot be negative", domain.ErrValidation)
	}
	return nil
}

// StartResult is the outcome of starting a session: the created session
// and the first item to administer.
type StartResult struct {
	Session *domain.SessionState
	Item    domain.Item
}

// SubmitResult is the outcome of one graded submission. NextItem is set
// only when the session continues; on termination Terminated is true and
// Reason records why.
type SubmitResult struct {
	Session    *domain.SessionState
	Grade      GradeResult
	NextItem   *domain.Item
	Terminated bool
	Reason     domain.TerminationReason
}

// Progress is a read-only snapshot of an in-flight session.
type Progress struct {
	SessionID     uuid.UUID                `json:"session_id"`
	Status        domain.SessionStatus     `json:"status"`
	Administered  int                      `json:"administered"`
	Theta         float64                  `json:"theta"`
	StandardError float64                  `json:"standard_error"`
	Reason        domain.TerminationReason `json:"reason,omitempty"`
}

// Service drives adaptive test sessions: it composes the ability
// estimator, item selector and termination policy into one state machine
// and owns the response history.
type Service interface {
	// StartSession creates a new adaptive session for the examinee over
	// the given pool scope and issues the first item, transitioning the
	// session to IN_PROGRESS.
	//
	// Returns ErrSessionConflict if the examinee already has an active
	// session for the scope, and selection.ErrPoolExhausted if the scope
	// contains no items.
	StartSession(ctx context.Context, examineeID uuid.UUID, poolScope string) (*StartResult, error)

	// SubmitResponse grades the examinee's answer for the session's
	// active item, updates the ability estimate, appends to the history,
	// and either issues the next item or terminates the session.
	//
	// Returns ErrStaleSubmission when itemID is not the active item,
	// ErrInvalidStateTransition when the session is already terminated,
	// and ErrGradingTimeout when grading exhausts its retries. None of
	// these failure paths mutate session state.
	SubmitResponse(
		ctx context.Context,
		sessionID uuid.UUID,
		examineeID uuid.UUID,
		itemID uuid.UUID,
		rawAnswer string,
		responseTime time.Duration,
	) (*SubmitResult, error)

	// AbandonSession transitions a session directly to TERMINATED with
	// reason ABANDONED. An item in flight at that moment contributes no
	// ability update.
	AbandonSession(ctx context.Context, sessionID, examineeID uuid.UUID) (*domain.SessionState, error)

	// GetProgress returns a read-only snapshot of the session.
	GetProgress(ctx context.Context, sessionID, examineeID uuid.UUID) (*Progress, error)
}

// ServiceError wraps errors from the assessment service with additional
// context, so consumers can differentiate failures with errors.As instead
// of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start_session")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError for the given operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
