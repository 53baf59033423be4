package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// MockItemPool implements assessment.ItemPool for testing
type MockItemPool struct {
	// Function fields for customizable behavior
	GetAvailableItemsFn func(ctx context.Context, poolScope string) ([]domain.Item, error)
	GetUnusedItemsFn    func(ctx context.Context, sessionID uuid.UUID) ([]domain.Item, error)

	// Data for default implementation
	Items []domain.Item
	Err   error
}

// NewMockItemPool creates a mock pool preloaded with the given items.
func NewMockItemPool(items ...domain.Item) *MockItemPool {
	return &MockItemPool{Items: items}
}

// GetAvailableItems implements the assessment.ItemPool interface
func (m *MockItemPool) GetAvailableItems(ctx context.Context, poolScope string) ([]domain.Item, error) {
	if m.GetAvailableItemsFn != nil {
		return m.GetAvailableItemsFn(ctx, poolScope)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}

// GetUnusedItems implements the assessment.ItemPool interface
func (m *MockItemPool) GetUnusedItems(ctx context.Context, sessionID uuid.UUID) ([]domain.Item, error) {
	if m.GetUnusedItemsFn != nil {
		return m.GetUnusedItemsFn(ctx, sessionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}
