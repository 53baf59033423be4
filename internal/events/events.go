package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// SessionCompletedEvent is published when an adaptive session reaches its
// terminal state. Consumers (achievements, analytics) receive the final
// results but never influence engine decisions.
type SessionCompletedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// SessionID identifies the terminated session
	SessionID uuid.UUID `json:"session_id"`

	// ExamineeID identifies the examinee the session belonged to
	ExamineeID uuid.UUID `json:"examinee_id"`

	// Reason records why the session terminated
	Reason domain.TerminationReason `json:"reason"`

	// FinalAbility is the ability estimate at termination
	FinalAbility float64 `json:"final_ability"`

	// FinalStandardError is the estimate uncertainty at termination
	FinalStandardError float64 `json:"final_standard_error"`

	// TotalQuestionsAdministered counts graded responses in the session
	TotalQuestionsAdministered int `json:"total_questions_administered"`

	// ItemHistory is the ordered response history of the session
	ItemHistory []domain.Response `json:"item_history"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewSessionCompletedEvent builds a completion event from a terminated session.
func NewSessionCompletedEvent(session *domain.SessionState) *SessionCompletedEvent {
	history := make([]domain.Response, len(session.History))
	copy(history, session.History)

	return &SessionCompletedEvent{
		ID:                         uuid.New(),
		SessionID:                  session.ID,
		ExamineeID:                 session.ExamineeID,
		Reason:                     session.Reason,
		FinalAbility:               session.Estimate.Theta,
		FinalStandardError:         session.Estimate.StandardError,
		TotalQuestionsAdministered: len(session.History),
		ItemHistory:                history,
		CreatedAt:                  time.Now().UTC(),
	}
}

// Handler defines an interface for components that consume completion events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *SessionCompletedEvent) error
}

// Emitter defines an interface for components that publish completion
// events. This allows the session controller to announce terminations
// without direct knowledge of downstream consumers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *SessionCompletedEvent) error
}
