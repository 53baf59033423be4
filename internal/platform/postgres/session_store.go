package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
	"github.com/lumenlms/adapt-api/internal/store"
)

// SessionStore implements the store.SessionStore interface using a
// PostgreSQL database as the storage backend. The response history is
// stored as a JSONB document; the rest of the session state is flattened
// into columns so active-session lookups stay indexable.
type SessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSessionStore creates a new PostgreSQL implementation of the
// store.SessionStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewSessionStore(db store.DBTX, logger *slog.Logger) *SessionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure SessionStore implements store.SessionStore interface
var _ store.SessionStore = (*SessionStore)(nil)

// Create implements store.SessionStore.Create.
func (s *SessionStore) Create(ctx context.Context, session *domain.SessionState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	history, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("failed to encode session history: %w", err)
	}

	query := `
		INSERT INTO sessions (id, examinee_id, pool_scope, status, reason,
			current_item_id, theta, standard_error, model, history,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.ExamineeID,
		session.PoolScope,
		string(session.Status),
		string(session.Reason),
		nullableUUID(session.CurrentItemID),
		session.Estimate.Theta,
		session.Estimate.StandardError,
		string(session.Estimate.Model),
		history,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	log.Info("session created successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("examinee_id", session.ExamineeID.String()))
	return nil
}

// Get implements store.SessionStore.Get.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.SessionState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := sessionSelect + ` WHERE id = $1`

	session, err := s.scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("session not found", slog.String("session_id", id.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// GetActiveForExaminee implements store.SessionStore.GetActiveForExaminee.
// Returns store.ErrSessionNotFound if no active session exists.
func (s *SessionStore) GetActiveForExaminee(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
) (*domain.SessionState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := sessionSelect + `
		WHERE examinee_id = $1 AND pool_scope = $2 AND status <> $3
		ORDER BY created_at DESC
		LIMIT 1`

	session, err := s.scanSession(
		s.db.QueryRowContext(ctx, query, examineeID, poolScope, string(domain.SessionTerminated)),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get active session",
			slog.String("error", err.Error()),
			slog.String("examinee_id", examineeID.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// Update implements store.SessionStore.Update.
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *SessionStore) Update(ctx context.Context, session *domain.SessionState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	history, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("failed to encode session history: %w", err)
	}

	session.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sessions
		SET status = $1, reason = $2, current_item_id = $3, theta = $4,
			standard_error = $5, history = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		string(session.Status),
		string(session.Reason),
		nullableUUID(session.CurrentItemID),
		session.Estimate.Theta,
		session.Estimate.StandardError,
		history,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		log.Error("failed to update session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "session"); err != nil {
		return store.ErrSessionNotFound
	}

	log.Debug("session updated successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("status", string(session.Status)))
	return nil
}

// WithTx implements store.SessionStore.WithTx.
func (s *SessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &SessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// sessionSelect is the shared column list for session queries.
const sessionSelect = `
	SELECT id, examinee_id, pool_scope, status, reason, current_item_id,
		theta, standard_error, model, history, created_at, updated_at
	FROM sessions`

// scanSession maps one row onto a domain.SessionState.
func (s *SessionStore) scanSession(row *sql.Row) (*domain.SessionState, error) {
	var (
		session     domain.SessionState
		status      string
		reason      string
		model       string
		currentItem sql.NullString
		history     []byte
	)

	err := row.Scan(
		&session.ID,
		&session.ExamineeID,
		&session.PoolScope,
		&status,
		&reason,
		&currentItem,
		&session.Estimate.Theta,
		&session.Estimate.StandardError,
		&model,
		&history,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Status = domain.SessionStatus(status)
	session.Reason = domain.TerminationReason(reason)
	session.Estimate.Model = domain.ModelVariant(model)

	if currentItem.Valid {
		id, err := uuid.Parse(currentItem.String)
		if err != nil {
			return nil, fmt.Errorf("invalid current item ID in session row: %w", err)
		}
		session.CurrentItemID = id
	}

	if err := json.Unmarshal(history, &session.History); err != nil {
		return nil, fmt.Errorf("failed to decode session history: %w", err)
	}

	return &session, nil
}

// nullableUUID converts a nil UUID to a SQL NULL.
func nullableUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}
