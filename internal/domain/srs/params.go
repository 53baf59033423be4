package srs

import "errors"

// Parameter validation errors
var (
	ErrInvalidMinEase          = errors.New("minimum ease factor must be at least 1.0")
	ErrInvalidInitialEase      = errors.New("initial ease factor must be at least the minimum ease factor")
	ErrInvalidExpectedSeconds  = errors.New("expected seconds per difficulty unit must be positive")
	ErrInvalidSlowThreshold    = errors.New("slow incorrect threshold must be positive")
	ErrInvalidInitialIntervals = errors.New("initial intervals must be positive")
)

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// MinEaseFactor is the floor below which the ease factor never falls.
	MinEaseFactor float64

	// InitialEaseFactor is assigned to brand-new learning records.
	InitialEaseFactor float64

	// SecondsPerDifficultyUnit scales item difficulty into an expected
	// response time: expected = difficulty * SecondsPerDifficultyUnit.
	SecondsPerDifficultyUnit float64

	// MinExpectedSeconds bounds the expected response time from below so
	// easy (low or negative difficulty) items do not collapse the time
	// ratio computation.
	MinExpectedSeconds float64

	// SlowIncorrectSeconds separates quality 0 from quality 1 on an
	// incorrect response: slower than this is a complete blackout.
	SlowIncorrectSeconds float64

	// FirstInterval and SecondInterval are the fixed intervals, in days,
	// for the first and second successful reviews of a streak.
	FirstInterval  int
	SecondInterval int
}

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:            1.3,
		InitialEaseFactor:        2.5,
		SecondsPerDifficultyUnit: 10.0,
		MinExpectedSeconds:       5.0,
		SlowIncorrectSeconds:     30.0,
		FirstInterval:            1,
		SecondInterval:           6,
	}
}

// Validate checks that the parameters are internally consistent.
func (p *Params) Validate() error {
	if p.MinEaseFactor < 1.0 {
		return ErrInvalidMinEase
	}

	if p.InitialEaseFactor < p.MinEaseFactor {
		return ErrInvalidInitialEase
	}

	if p.SecondsPerDifficultyUnit <= 0 || p.MinExpectedSeconds <= 0 {
		return ErrInvalidExpectedSeconds
	}

	if p.SlowIncorrectSeconds <= 0 {
		return ErrInvalidSlowThreshold
	}

	if p.FirstInterval < 1 || p.SecondInterval < 1 {
		return ErrInvalidInitialIntervals
	}

	return nil
}
