package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// ItemStore defines the interface for the calibrated item bank. It doubles
// as the assessment service's item pool; calibration parameters are
// read-only for the lifetime of any session.
type ItemStore interface {
	// GetAvailableItems returns every item in the given pool scope.
	GetAvailableItems(ctx context.Context, scope string) ([]domain.Item, error)

	// GetUnusedItems returns the items in the session's pool scope that
	// have not yet been administered in that session.
	GetUnusedItems(ctx context.Context, sessionID uuid.UUID) ([]domain.Item, error)

	// GetAnswerKey returns the stored answer key for the item.
	// Returns ErrItemNotFound if the item does not exist.
	GetAnswerKey(ctx context.Context, itemID uuid.UUID) (string, error)
}
