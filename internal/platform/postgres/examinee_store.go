package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
	"github.com/lumenlms/adapt-api/internal/store"
)

// ExamineeStore implements the store.ExamineeStore interface using a
// PostgreSQL database as the storage backend.
type ExamineeStore struct {
	db         store.DBTX
	logger     *slog.Logger
	bcryptCost int
}

// NewExamineeStore creates a new PostgreSQL implementation of the
// store.ExamineeStore interface. bcryptCost controls password hashing
// strength; 0 uses the bcrypt default.
func NewExamineeStore(db store.DBTX, logger *slog.Logger, bcryptCost int) *ExamineeStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &ExamineeStore{
		db:         db,
		logger:     logger.With(slog.String("component", "examinee_store")),
		bcryptCost: bcryptCost,
	}
}

// Ensure ExamineeStore implements store.ExamineeStore interface
var _ store.ExamineeStore = (*ExamineeStore)(nil)

// Create implements store.ExamineeStore.Create. The plaintext password is
// hashed before storage and cleared from the entity afterwards.
// Returns store.ErrEmailExists if the email is already registered.
func (s *ExamineeStore) Create(ctx context.Context, examinee *domain.Examinee) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := examinee.Validate(); err != nil {
		log.Warn("examinee validation failed during create",
			slog.String("error", err.Error()),
			slog.String("examinee_id", examinee.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if examinee.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(examinee.Password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		examinee.HashedPassword = string(hashed)
		examinee.Password = ""
	}

	query := `
		INSERT INTO examinees (id, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		examinee.ID,
		examinee.Email,
		examinee.HashedPassword,
		examinee.CreatedAt,
		examinee.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("examinee email already exists",
				slog.String("email", examinee.Email))
			return store.ErrEmailExists
		}
		log.Error("failed to create examinee",
			slog.String("error", err.Error()),
			slog.String("examinee_id", examinee.ID.String()))
		return MapError(err)
	}

	log.Info("examinee created successfully",
		slog.String("examinee_id", examinee.ID.String()))
	return nil
}

// GetByID implements store.ExamineeStore.GetByID.
// Returns store.ErrExamineeNotFound if the examinee does not exist.
func (s *ExamineeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Examinee, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

// GetByEmail implements store.ExamineeStore.GetByEmail.
// Returns store.ErrExamineeNotFound if the examinee does not exist.
func (s *ExamineeStore) GetByEmail(ctx context.Context, email string) (*domain.Examinee, error) {
	return s.getOne(ctx, `WHERE email = $1`, email)
}

// WithTx implements store.ExamineeStore.WithTx.
func (s *ExamineeStore) WithTx(tx *sql.Tx) store.ExamineeStore {
	return &ExamineeStore{
		db:         tx,
		logger:     s.logger,
		bcryptCost: s.bcryptCost,
	}
}

func (s *ExamineeStore) getOne(ctx context.Context, where string, arg interface{}) (*domain.Examinee, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM examinees ` + where

	var examinee domain.Examinee
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&examinee.ID,
		&examinee.Email,
		&examinee.HashedPassword,
		&examinee.CreatedAt,
		&examinee.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrExamineeNotFound
		}
		log.Error("failed to get examinee", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return &examinee, nil
}
