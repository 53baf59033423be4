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

// LearningRecordStore implements the store.LearningRecordStore interface
// using a PostgreSQL database as the storage backend.
type LearningRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewLearningRecordStore creates a new PostgreSQL implementation of the
// store.LearningRecordStore interface. It accepts a database connection
// or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewLearningRecordStore(db store.DBTX, logger *slog.Logger) *LearningRecordStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &LearningRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "learning_record_store")),
	}
}

// Ensure LearningRecordStore implements store.LearningRecordStore interface
var _ store.LearningRecordStore = (*LearningRecordStore)(nil)

// Create implements store.LearningRecordStore.Create.
func (s *LearningRecordStore) Create(ctx context.Context, record *domain.LearningRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("learning record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("examinee_id", record.ExamineeID.String()),
			slog.String("item_id", record.ItemID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO learning_records (examinee_id, item_id, ease_factor,
			interval_days, consecutive_correct, review_count,
			last_reviewed_at, next_review_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ExamineeID,
		record.ItemID,
		record.EaseFactor,
		record.IntervalDays,
		record.ConsecutiveCorrect,
		record.ReviewCount,
		record.LastReviewedAt,
		record.NextReviewAt,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create learning record",
			slog.String("error", err.Error()),
			slog.String("examinee_id", record.ExamineeID.String()),
			slog.String("item_id", record.ItemID.String()))
		return MapError(err)
	}

	log.Debug("learning record created",
		slog.String("examinee_id", record.ExamineeID.String()),
		slog.String("item_id", record.ItemID.String()))
	return nil
}

// Get implements store.LearningRecordStore.Get.
// Returns store.ErrLearningRecordNotFound if the record does not exist.
func (s *LearningRecordStore) Get(
	ctx context.Context,
	examineeID, itemID uuid.UUID,
) (*domain.LearningRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT examinee_id, item_id, ease_factor, interval_days,
			consecutive_correct, review_count, last_reviewed_at,
			next_review_at, created_at, updated_at
		FROM learning_records
		WHERE examinee_id = $1 AND item_id = $2
	`

	var record domain.LearningRecord
	err := s.db.QueryRowContext(ctx, query, examineeID, itemID).Scan(
		&record.ExamineeID,
		&record.ItemID,
		&record.EaseFactor,
		&record.IntervalDays,
		&record.ConsecutiveCorrect,
		&record.ReviewCount,
		&record.LastReviewedAt,
		&record.NextReviewAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLearningRecordNotFound
		}
		log.Error("failed to get learning record",
			slog.String("error", err.Error()),
			slog.String("examinee_id", examineeID.String()),
			slog.String("item_id", itemID.String()))
		return nil, MapError(err)
	}

	return &record, nil
}

// GetForExaminee implements store.LearningRecordStore.GetForExaminee.
func (s *LearningRecordStore) GetForExaminee(
	ctx context.Context,
	examineeID uuid.UUID,
) ([]*domain.LearningRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT examinee_id, item_id, ease_factor, interval_days,
			consecutive_correct, review_count, last_reviewed_at,
			next_review_at, created_at, updated_at
		FROM learning_records
		WHERE examinee_id = $1
		ORDER BY next_review_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, examineeID)
	if err != nil {
		log.Error("failed to list learning records",
			slog.String("error", err.Error()),
			slog.String("examinee_id", examineeID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	records := make([]*domain.LearningRecord, 0)
	for rows.Next() {
		var record domain.LearningRecord
		err := rows.Scan(
			&record.ExamineeID,
			&record.ItemID,
			&record.EaseFactor,
			&record.IntervalDays,
			&record.ConsecutiveCorrect,
			&record.ReviewCount,
			&record.LastReviewedAt,
			&record.NextReviewAt,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return records, nil
}

// Update implements store.LearningRecordStore.Update.
// Returns store.ErrLearningRecordNotFound if the record does not exist.
func (s *LearningRecordStore) Update(ctx context.Context, record *domain.LearningRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("learning record validation failed during update",
			slog.String("error", err.Error()),
			slog.String("examinee_id", record.ExamineeID.String()),
			slog.String("item_id", record.ItemID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE learning_records
		SET ease_factor = $1, interval_days = $2, consecutive_correct = $3,
			review_count = $4, last_reviewed_at = $5, next_review_at = $6,
			updated_at = $7
		WHERE examinee_id = $8 AND item_id = $9
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		record.EaseFactor,
		record.IntervalDays,
		record.ConsecutiveCorrect,
		record.ReviewCount,
		record.LastReviewedAt,
		record.NextReviewAt,
		record.UpdatedAt,
		record.ExamineeID,
		record.ItemID,
	)
	if err != nil {
		log.Error("failed to update learning record",
			slog.String("error", err.Error()),
			slog.String("examinee_id", record.ExamineeID.String()),
			slog.String("item_id", record.ItemID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "learning record"); err != nil {
		return store.ErrLearningRecordNotFound
	}

	return nil
}

// WithTx implements store.LearningRecordStore.WithTx.
func (s *LearningRecordStore) WithTx(tx *sql.Tx) store.LearningRecordStore {
	return &LearningRecordStore{
		db:     tx,
		logger: s.logger,
	}
}
