package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// fnHandler adapts a function to the Handler interface.
type fnHandler struct {
	fn func(ctx context.Context, event *SessionCompletedEvent) error
}

func (h *fnHandler) HandleEvent(ctx context.Context, event *SessionCompletedEvent) error {
	return h.fn(ctx, event)
}

func testEvent() *SessionCompletedEvent {
	session := &domain.SessionState{
		ID:         uuid.New(),
		ExamineeID: uuid.New(),
		PoolScope:  "algebra",
		Status:     domain.SessionTerminated,
		Reason:     domain.TerminationMaxReached,
		Estimate: domain.AbilityEstimate{
			Theta:         0.7,
			StandardError: 0.28,
			Model:         domain.Model2PL,
		},
		History: []domain.Response{
			{ItemID: uuid.New(), IsCorrect: true},
			{ItemID: uuid.New(), IsCorrect: false},
		},
	}
	return NewSessionCompletedEvent(session)
}

func newTestEmitter() *InMemoryEmitter {
	return NewInMemoryEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewSessionCompletedEvent(t *testing.T) {
	t.Parallel()

	event := testEvent()

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, domain.TerminationMaxReached, event.Reason)
	assert.Equal(t, 0.7, event.FinalAbility)
	assert.Equal(t, 0.28, event.FinalStandardError)
	assert.Equal(t, 2, event.TotalQuestionsAdministered)
	assert.Len(t, event.ItemHistory, 2)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestEmitEventDeliversToAllHandlers(t *testing.T) {
	t.Parallel()

	emitter := newTestEmitter()

	var first, second int
	emitter.RegisterHandler(&fnHandler{fn: func(context.Context, *SessionCompletedEvent) error {
		first++
		return nil
	}})
	emitter.RegisterHandler(&fnHandler{fn: func(context.Context, *SessionCompletedEvent) error {
		second++
		return nil
	}})

	require.NoError(t, emitter.EmitEvent(context.Background(), testEvent()))
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestEmitEventFailureDoesNotStopDelivery(t *testing.T) {
	t.Parallel()

	emitter := newTestEmitter()

	firstErr := errors.New("achievements consumer down")
	var delivered int

	emitter.RegisterHandler(&fnHandler{fn: func(context.Context, *SessionCompletedEvent) error {
		return firstErr
	}})
	emitter.RegisterHandler(&fnHandler{fn: func(context.Context, *SessionCompletedEvent) error {
		return errors.New("second failure")
	}})
	emitter.RegisterHandler(&fnHandler{fn: func(context.Context, *SessionCompletedEvent) error {
		delivered++
		return nil
	}})

	err := emitter.EmitEvent(context.Background(), testEvent())
	assert.ErrorIs(t, err, firstErr, "the first failure is the one reported")
	assert.Equal(t, 1, delivered, "later handlers still receive the event")
}

func TestEmitEventWithNoHandlers(t *testing.T) {
	t.Parallel()

	emitter := newTestEmitter()
	assert.NoError(t, emitter.EmitEvent(context.Background(), testEvent()))
}
