package mocks

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/store"
)

// MockSessionStore implements store.SessionStore for testing
type MockSessionStore struct {
	// Function fields for customizable behavior
	CreateFn               func(ctx context.Context, session *domain.SessionState) error
	GetFn                  func(ctx context.Context, id uuid.UUID) (*domain.SessionState, error)
	GetActiveForExamineeFn func(ctx context.Context, examineeID uuid.UUID, poolScope string) (*domain.SessionState, error)
	UpdateFn               func(ctx context.Context, session *domain.SessionState) error

	// Data for default implementation
	mu       sync.Mutex
	Sessions map[uuid.UUID]*domain.SessionState
}

// NewMockSessionStore creates a new mock store with initialized defaults
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		Sessions: make(map[uuid.UUID]*domain.SessionState),
	}
}

// Create implements the store.SessionStore interface
func (m *MockSessionStore) Create(ctx context.Context, session *domain.SessionState) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, session)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Sessions[session.ID]; exists {
		return store.ErrDuplicate
	}
	m.Sessions[session.ID] = session
	return nil
}

// Get implements the store.SessionStore interface
func (m *MockSessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.SessionState, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.Sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}

// GetActiveForExaminee implements the store.SessionStore interface
func (m *MockSessionStore) GetActiveForExaminee(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
) (*domain.SessionState, error) {
	if m.GetActiveForExamineeFn != nil {
		return m.GetActiveForExamineeFn(ctx, examineeID, poolScope)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.Sessions {
		if session.ExamineeID == examineeID &&
			session.PoolScope == poolScope &&
			session.Status != domain.SessionTerminated {
			return session, nil
		}
	}
	return nil, store.ErrSessionNotFound
}

// Update implements the store.SessionStore interface
func (m *MockSessionStore) Update(ctx context.Context, session *domain.SessionState) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, session)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Sessions[session.ID]; !exists {
		return store.ErrSessionNotFound
	}
	m.Sessions[session.ID] = session
	return nil
}

// WithTx implements the store.SessionStore interface
func (m *MockSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return m
}
