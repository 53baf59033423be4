package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// Common errors
var (
	ErrNilRecord    = errors.New("learning record cannot be nil")
	ErrInvalidDays  = errors.New("postpone days must be at least 1")
	ErrNegativeTime = errors.New("response time cannot be negative")
)

// Service defines the interface for spaced-repetition scheduling.
type Service interface {
	// NewRecord creates first-exposure scheduling state for an item,
	// seeded with the configured initial ease factor. The item is due
	// immediately.
	NewRecord(examineeID, itemID uuid.UUID) (*domain.LearningRecord, error)

	// RecordReview scores one review of an item and computes the updated
	// scheduling state. The returned record is a new value; the input is
	// never modified.
	RecordReview(
		record *domain.LearningRecord,
		isCorrect bool,
		responseTime time.Duration,
		itemDifficulty float64,
		now time.Time,
	) (*domain.LearningRecord, error)

	// ScoreQuality exposes the quality rating the scheduler would assign
	// to a review outcome without updating any state.
	ScoreQuality(isCorrect bool, responseTime time.Duration, itemDifficulty float64) Quality

	// PostponeReview pushes the next review time forward by a number of days.
	PostponeReview(record *domain.LearningRecord, days int, now time.Time) (*domain.LearningRecord, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
// Returns an error if the parameters are invalid.
func NewServiceWithParams(params *Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduling params: %w", err)
	}
	return &defaultService{params: params}, nil
}

// NewRecord implements the Service interface.
func (s *defaultService) NewRecord(examineeID, itemID uuid.UUID) (*domain.LearningRecord, error) {
	record, err := domain.NewLearningRecord(examineeID, itemID)
	if err != nil {
		return nil, err
	}

	record.EaseFactor = s.params.InitialEaseFactor
	return record, nil
}

// RecordReview implements the Service interface.
func (s *defaultService) RecordReview(
	record *domain.LearningRecord,
	isCorrect bool,
	responseTime time.Duration,
	itemDifficulty float64,
	now time.Time,
) (*domain.LearningRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}

	if responseTime < 0 {
		return nil, ErrNegativeTime
	}

	quality := scoreQuality(isCorrect, responseTime, itemDifficulty, s.params)
	return calculateNextRecord(record, quality, now, s.params), nil
}

// ScoreQuality implements the Service interface.
func (s *defaultService) ScoreQuality(isCorrect bool, responseTime time.Duration, itemDifficulty float64) Quality {
	return scoreQuality(isCorrect, responseTime, itemDifficulty, s.params)
}

// PostponeReview implements the Service interface.
func (s *defaultService) PostponeReview(record *domain.LearningRecord, days int, now time.Time) (*domain.LearningRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := *record
	next.NextReviewAt = next.NextReviewAt.AddDate(0, 0, days)
	next.UpdatedAt = now
	return &next, nil
}
