package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// LearningRecordStore defines the interface for spaced-repetition
// learning record persistence. Records are keyed by (examinee, item) and
// retained indefinitely as an audit trail.
type LearningRecordStore interface {
	// Create saves a new learning record.
	// It handles domain validation internally.
	// Returns an error if the record already exists.
	Create(ctx context.Context, record *domain.LearningRecord) error

	// Get retrieves a record by the combination of examinee ID and item ID.
	// Returns ErrLearningRecordNotFound if the record does not exist.
	Get(ctx context.Context, examineeID, itemID uuid.UUID) (*domain.LearningRecord, error)

	// GetForExaminee retrieves all of an examinee's learning records.
	GetForExaminee(ctx context.Context, examineeID uuid.UUID) ([]*domain.LearningRecord, error)

	// Update modifies an existing record.
	// It handles domain validation internally.
	// Returns ErrLearningRecordNotFound if the record does not exist.
	Update(ctx context.Context, record *domain.LearningRecord) error

	// WithTx returns a new LearningRecordStore instance that uses the
	// provided transaction. The transaction is created and managed by the
	// caller.
	WithTx(tx *sql.Tx) LearningRecordStore
}
