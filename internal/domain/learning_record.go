package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MinEaseFactor is the hard floor for the ease factor. No sequence of
// review outcomes may push the ease factor below this value.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease factor assigned to a brand-new record.
const DefaultEaseFactor = 2.5

// Learning record validation errors
var (
	ErrEmptyRecordExamineeID = errors.New("learning record examinee ID cannot be empty")
	ErrEmptyRecordItemID     = errors.New("learning record item ID cannot be empty")
	ErrInvalidRecordInterval = errors.New("interval must be a positive number of days")
	ErrInvalidEaseFactor     = errors.New("ease factor must be at least 1.3")
)

// LearningRecord tracks an examinee's spaced-repetition scheduling state
// for a single item. It is created on first exposure, updated on every
// subsequent review, and retained indefinitely as an audit trail.
type LearningRecord struct {
	ExamineeID         uuid.UUID `json:"examinee_id"`
	ItemID             uuid.UUID `json:"item_id"`
	EaseFactor         float64   `json:"ease_factor"`
	IntervalDays       int       `json:"interval_days"`
	ConsecutiveCorrect int       `json:"consecutive_correct"`
	ReviewCount        int       `json:"review_count"`
	LastReviewedAt     time.Time `json:"last_reviewed_at"`
	NextReviewAt       time.Time `json:"next_review_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewLearningRecord creates scheduling state for an examinee's first
// exposure to an item. The item is due immediately.
func NewLearningRecord(examineeID, itemID uuid.UUID) (*LearningRecord, error) {
	now := time.Now().UTC()
	record := &LearningRecord{
		ExamineeID:         examineeID,
		ItemID:             itemID,
		EaseFactor:         DefaultEaseFactor,
		IntervalDays:       1,
		ConsecutiveCorrect: 0,
		ReviewCount:        0,
		LastReviewedAt:     time.Time{}, // Zero time, never reviewed
		NextReviewAt:       now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the LearningRecord has valid data.
// Returns an error if any field fails validation.
func (r *LearningRecord) Validate() error {
	if r.ExamineeID == uuid.Nil {
		return ErrEmptyRecordExamineeID
	}

	if r.ItemID == uuid.Nil {
		return ErrEmptyRecordItemID
	}

	if r.IntervalDays < 1 {
		return ErrInvalidRecordInterval
	}

	if r.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	return nil
}

// IsDue reports whether the item is due for review at the given time.
func (r *LearningRecord) IsDue(now time.Time) bool {
	return !r.NextReviewAt.After(now)
}

// Overdue returns how far past its next-review time the record is.
// Negative values mean the record is not yet due.
func (r *LearningRecord) Overdue(now time.Time) time.Duration {
	return now.Sub(r.NextReviewAt)
}

// Serialize encodes the learning record as JSON for the persistence
// collaborator.
func (r *LearningRecord) Serialize() ([]byte, error) {
	return json.Marshal(r)
}

// DeserializeLearningRecord decodes a learning record previously produced
// by Serialize. The decoded record is validated before being returned.
func DeserializeLearningRecord(data []byte) (*LearningRecord, error) {
	var record LearningRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return &record, nil
}
