// Package review composes the spaced-repetition scheduler with the item
// pool: it builds a session's mix of due-for-review and new items and
// records review outcomes against learning records.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/domain/srs"
)

// DefaultSessionSize is used when no session size is configured.
const DefaultSessionSize = 20

// Common error types for the review service
var (
	// ErrItemNotFound indicates the item does not exist in the pool scope.
	ErrItemNotFound = errors.New("item not found in pool scope")

	// ErrInvalidCount indicates a negative desired session size.
	ErrInvalidCount = errors.New("desired count cannot be negative")
)

// QueueEntry is one element of the derived review queue: a due item and
// how overdue it is. The queue is never persisted; it is recomputed from
// learning records on demand.
type QueueEntry struct {
	Item    domain.Item            `json:"item"`
	Record  *domain.LearningRecord `json:"record"`
	Overdue time.Duration          `json:"overdue"`
}

// ReviewResult is the outcome of recording one review.
type ReviewResult struct {
	Record  *domain.LearningRecord `json:"record"`
	Quality srs.Quality            `json:"quality"`
}

// Service provides spaced-repetition review operations for examinees.
type Service interface {
	// SelectForSession builds a review session of up to desiredCount
	// items: due items first, ordered most-overdue first, then items the
	// examinee has never reviewed, lowest difficulty first. A zero
	// desiredCount uses the configured session size. If the pool cannot
	// supply enough items, fewer are returned; a short fill is not an
	// error.
	SelectForSession(
		ctx context.Context,
		examineeID uuid.UUID,
		poolScope string,
		desiredCount int,
	) ([]domain.Item, error)

	// GetDueQueue returns the examinee's due items ordered most-overdue
	// first.
	GetDueQueue(ctx context.Context, examineeID uuid.UUID, poolScope string) ([]QueueEntry, error)

	// RecordReview grades the raw answer and applies the scheduling
	// update to the examinee's learning record for the item, creating the
	// record on first exposure.
	RecordReview(
		ctx context.Context,
		examineeID uuid.UUID,
		poolScope string,
		itemID uuid.UUID,
		rawAnswer string,
		responseTime time.Duration,
	) (*ReviewResult, error)

	// PostponeReview pushes the item's next review forward by days.
	PostponeReview(
		ctx context.Context,
		examineeID, itemID uuid.UUID,
		days int,
	) (*domain.LearningRecord, error)
}

// ServiceError wraps errors from the review service with operation context.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
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
