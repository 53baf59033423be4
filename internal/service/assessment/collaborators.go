package assessment

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// ItemPool is the external collaborator supplying calibrated items.
// The engine treats the pool's parameters as read-only for the lifetime
// of any session; recalibration happens out-of-band between sessions.
type ItemPool interface {
	// GetAvailableItems returns every item in the given pool scope.
	GetAvailableItems(ctx context.Context, scope string) ([]domain.Item, error)

	// GetUnusedItems returns the items in the session's scope that have
	// not yet been administered in that session.
	GetUnusedItems(ctx context.Context, sessionID uuid.UUID) ([]domain.Item, error)
}

// GradeResult is the outcome of grading one raw answer. The ability
// update consumes only IsCorrect; Score feeds the spaced-repetition
// quality computation.
type GradeResult struct {
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
}

// Grader is the external collaborator that grades raw answers. Grading is
// the only blocking call in the submission path; the session controller
// wraps it with a timeout and bounded retries.
type Grader interface {
	GradeResponse(ctx context.Context, item domain.Item, rawAnswer string) (GradeResult, error)
}
