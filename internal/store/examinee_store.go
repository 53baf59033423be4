package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// ExamineeStore defines the interface for examinee account persistence.
type ExamineeStore interface {
	// Create saves a new examinee. The plaintext password is hashed
	// before storage; the plaintext is never persisted.
	// Returns ErrEmailExists if the email is already registered.
	Create(ctx context.Context, examinee *domain.Examinee) error

	// GetByID retrieves an examinee by unique ID.
	// Returns ErrExamineeNotFound if the examinee does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Examinee, error)

	// GetByEmail retrieves an examinee by email address.
	// Returns ErrExamineeNotFound if the examinee does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.Examinee, error)

	// WithTx returns a new ExamineeStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ExamineeStore
}
