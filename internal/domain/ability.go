package domain

import "errors"

// ModelVariant identifies which IRT model drives probability and
// information computations for a session. The variant is selected once
// at session initialization and never changes mid-session.
type ModelVariant string

// Supported IRT model variants
const (
	ModelRasch ModelVariant = "rasch" // a=1, c=0
	Model2PL   ModelVariant = "2pl"   // c=0
	Model3PL   ModelVariant = "3pl"   // full three-parameter logistic
)

// Ability-specific validation errors
var (
	// ErrInvalidModelVariant is returned when a model variant is not one of
	// the supported values.
	ErrInvalidModelVariant = errors.New("invalid IRT model variant")

	// ErrInvalidStandardError is returned when a standard error is zero or negative.
	ErrInvalidStandardError = errors.New("standard error must be positive")
)

// IsValidModelVariant reports whether the given variant is supported.
func IsValidModelVariant(v ModelVariant) bool {
	switch v {
	case ModelRasch, Model2PL, Model3PL:
		return true
	}
	return false
}

// AbilityEstimate holds an examinee's latent ability estimate and its
// uncertainty. It is a value object: updates produce a new estimate rather
// than mutating in place, and the only code path that replaces a session's
// estimate is the session controller's graded-response flow.
type AbilityEstimate struct {
	Theta         float64      `json:"theta"`
	StandardError float64      `json:"standard_error"`
	Model         ModelVariant `json:"model"`
}

// Validate checks if the AbilityEstimate has valid data.
// Returns an error if any field fails validation.
func (e *AbilityEstimate) Validate() error {
	if !IsValidModelVariant(e.Model) {
		return ErrInvalidModelVariant
	}

	if e.StandardError <= 0 {
		return ErrInvalidStandardError
	}

	return nil
}
