package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/store"
)

type recordKey struct {
	examineeID uuid.UUID
	itemID     uuid.UUID
}

// MockLearningRecordStore implements store.LearningRecordStore for testing
type MockLearningRecordStore struct {
	// Function fields for customizable behavior
	CreateFn         func(ctx context.Context, record *domain.LearningRecord) error
	GetFn            func(ctx context.Context, examineeID, itemID uuid.UUID) (*domain.LearningRecord, error)
	GetForExamineeFn func(ctx context.Context, examineeID uuid.UUID) ([]*domain.LearningRecord, error)
	UpdateFn         func(ctx context.Context, record *domain.LearningRecord) error

	// Data for default implementation
	mu      sync.Mutex
	Records map[recordKey]*domain.LearningRecord
}

// NewMockLearningRecordStore creates a new mock store with initialized defaults
func NewMockLearningRecordStore() *MockLearningRecordStore {
	return &MockLearningRecordStore{
		Records: make(map[recordKey]*domain.LearningRecord),
	}
}

// Put seeds the default in-memory map with a record.
func (m *MockLearningRecordStore) Put(record *domain.LearningRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[recordKey{record.ExamineeID, record.ItemID}] = record
}

// Create implements the store.LearningRecordStore interface
func (m *MockLearningRecordStore) Create(ctx context.Context, record *domain.LearningRecord) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{record.ExamineeID, record.ItemID}
	if _, exists := m.Records[key]; exists {
		return store.ErrDuplicate
	}
	m.Records[key] = record
	return nil
}

// Get implements the store.LearningRecordStore interface
func (m *MockLearningRecordStore) Get(
	ctx context.Context,
	examineeID, itemID uuid.UUID,
) (*domain.LearningRecord, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, examineeID, itemID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.Records[recordKey{examineeID, itemID}]
	if !ok {
		return nil, store.ErrLearningRecordNotFound
	}
	return record, nil
}

// GetForExaminee implements the store.LearningRecordStore interface
func (m *MockLearningRecordStore) GetForExaminee(
	ctx context.Context,
	examineeID uuid.UUID,
) ([]*domain.LearningRecord, error) {
	if m.GetForExamineeFn != nil {
		return m.GetForExamineeFn(ctx, examineeID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var records []*domain.LearningRecord
	for key, record := range m.Records {
		if key.examineeID == examineeID {
			records = append(records, record)
		}
	}
	return records, nil
}

// Update implements the store.LearningRecordStore interface
func (m *MockLearningRecordStore) Update(ctx context.Context, record *domain.LearningRecord) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{record.ExamineeID, record.ItemID}
	if _, exists := m.Records[key]; !exists {
		return store.ErrLearningRecordNotFound
	}
	m.Records[key] = record
	return nil
}

// WithTx implements the store.LearningRecordStore interface
func (m *MockLearningRecordStore) WithTx(tx *sql.Tx) store.LearningRecordStore {
	return m
}
