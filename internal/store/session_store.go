package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// SessionStore defines the interface for adaptive session persistence.
// The engine serializes SessionState; durability is the collaborator's
// responsibility.
type SessionStore interface {
	// Create saves a new session.
	// It handles domain validation internally.
	// Returns an error if the session already exists.
	Create(ctx context.Context, session *domain.SessionState) error

	// Get retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.SessionState, error)

	// GetActiveForExaminee retrieves the examinee's non-terminated session
	// for the given pool scope, if one exists.
	// Returns ErrSessionNotFound if no active session exists.
	GetActiveForExaminee(ctx context.Context, examineeID uuid.UUID, poolScope string) (*domain.SessionState, error)

	// Update persists the session's current state.
	// It handles domain validation internally.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.SessionState) error

	// WithTx returns a new SessionStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) SessionStore
}
