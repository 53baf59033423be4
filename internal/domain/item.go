package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Item-specific validation errors
var (
	// ErrItemIDEmpty is returned when an item ID is empty or nil.
	ErrItemIDEmpty = errors.New("item ID cannot be empty")

	// ErrItemDiscriminationInvalid is returned when an item's discrimination
	// parameter is zero or negative.
	ErrItemDiscriminationInvalid = errors.New("item discrimination must be positive")

	// ErrItemGuessingInvalid is returned when an item's guessing parameter
	// falls outside [0, 1).
	ErrItemGuessingInvalid = errors.New("item guessing parameter must be in [0, 1)")

	// ErrItemCompetencyEmpty is returned when an item has no competency tag.
	ErrItemCompetencyEmpty = errors.New("item competency tag cannot be empty")
)

// Item represents a calibrated assessment item in the pool.
// Its IRT parameters are read-only for the lifetime of any session;
// recalibration happens out-of-band between sessions.
type Item struct {
	ID             uuid.UUID `json:"id"`
	Difficulty     float64   `json:"difficulty"`     // b parameter, on the theta scale
	Discrimination float64   `json:"discrimination"` // a parameter, must be > 0
	Guessing       float64   `json:"guessing"`       // c parameter, used only by the 3PL model
	CompetencyTag  string    `json:"competency_tag"`
}

// Validate checks if the Item has valid IRT parameters.
// Returns an error if any field fails validation.
func (i *Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.Discrimination <= 0 {
		return ErrItemDiscriminationInvalid
	}

	if i.Guessing < 0 || i.Guessing >= 1 {
		return ErrItemGuessingInvalid
	}

	if i.CompetencyTag == "" {
		return ErrItemCompetencyEmpty
	}

	return nil
}
