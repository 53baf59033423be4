package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/store"
)

// MockExamineeStore implements store.ExamineeStore for testing
type MockExamineeStore struct {
	// Function fields for customizable behavior
	CreateFn     func(ctx context.Context, examinee *domain.Examinee) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Examinee, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.Examinee, error)

	// Data for default implementation
	Examinees   map[string]*domain.Examinee
	CreateError error
}

// NewMockExamineeStore creates a new mock store with initialized defaults
func NewMockExamineeStore() *MockExamineeStore {
	return &MockExamineeStore{
		Examinees: make(map[string]*domain.Examinee),
	}
}

// Create implements the store.ExamineeStore interface
func (m *MockExamineeStore) Create(ctx context.Context, examinee *domain.Examinee) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, examinee)
	}

	if m.CreateError != nil {
		return m.CreateError
	}

	if _, exists := m.Examinees[examinee.Email]; exists {
		return store.ErrEmailExists
	}

	// Mirror the real store: the plaintext never survives Create.
	if examinee.Password != "" {
		examinee.HashedPassword = "hashed:" + examinee.Password
		examinee.Password = ""
	}

	m.Examinees[examinee.Email] = examinee
	return nil
}

// GetByID implements the store.ExamineeStore interface
func (m *MockExamineeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Examinee, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	for _, examinee := range m.Examinees {
		if examinee.ID == id {
			return examinee, nil
		}
	}
	return nil, store.ErrExamineeNotFound
}

// GetByEmail implements the store.ExamineeStore interface
func (m *MockExamineeStore) GetByEmail(ctx context.Context, email string) (*domain.Examinee, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	examinee, ok := m.Examinees[email]
	if !ok {
		return nil, store.ErrExamineeNotFound
	}
	return examinee, nil
}

// WithTx implements the store.ExamineeStore interface
func (m *MockExamineeStore) WithTx(tx *sql.Tx) store.ExamineeStore {
	return m
}
