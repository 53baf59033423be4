package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
	"github.com/lumenlms/adapt-api/internal/store"
)

// ItemStore implements the store.ItemStore interface using a PostgreSQL
// database as the storage backend. Calibration parameters are treated as
// read-only; recalibration happens out-of-band between sessions.
type ItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewItemStore creates a new PostgreSQL implementation of the
// store.ItemStore interface. If logger is nil, a default logger is used.
func NewItemStore(db store.DBTX, logger *slog.Logger) *ItemStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// Ensure ItemStore implements store.ItemStore interface
var _ store.ItemStore = (*ItemStore)(nil)

const itemSelect = `
	SELECT id, difficulty, discrimination, guessing, competency_tag
	FROM items
`

// GetAvailableItems implements store.ItemStore.GetAvailableItems.
func (s *ItemStore) GetAvailableItems(ctx context.Context, scope string) ([]domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, itemSelect+`WHERE pool_scope = $1`, scope)
	if err != nil {
		log.Error("failed to query items",
			slog.String("error", err.Error()),
			slog.String("pool_scope", scope))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// GetUnusedItems implements store.ItemStore.GetUnusedItems. It returns the
// items in the session's pool scope whose ids appear neither in the
// session's response history nor as the in-flight item.
func (s *ItemStore) GetUnusedItems(ctx context.Context, sessionID uuid.UUID) ([]domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT i.id, i.difficulty, i.discrimination, i.guessing, i.competency_tag
		FROM items i
		JOIN sessions s ON s.id = $1 AND i.pool_scope = s.pool_scope
		WHERE NOT EXISTS (
			SELECT 1 FROM jsonb_array_elements(s.history) h
			WHERE (h->>'item_id')::uuid = i.id
		)
	`
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		log.Error("failed to query unused items",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

// GetAnswerKey implements store.ItemStore.GetAnswerKey.
func (s *ItemStore) GetAnswerKey(ctx context.Context, itemID uuid.UUID) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var answerKey string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT answer_key FROM items WHERE id = $1`,
		itemID,
	).Scan(&answerKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrItemNotFound
		}
		log.Error("failed to get answer key",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return "", MapError(err)
	}

	return answerKey, nil
}

func scanItems(rows *sql.Rows) ([]domain.Item, error) {
	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(
			&item.ID,
			&item.Difficulty,
			&item.Discrimination,
			&item.Guessing,
			&item.CompetencyTag,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item rows: %w", err)
	}
	return items, nil
}
