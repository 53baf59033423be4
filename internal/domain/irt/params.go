package irt

import "errors"

// Parameter validation errors
var (
	ErrInvalidThetaBounds  = errors.New("theta lower bound must be below upper bound")
	ErrInvalidErrorFloor   = errors.New("standard error floor must be positive")
	ErrInvalidInitialError = errors.New("initial standard error must be positive")
	ErrInvalidInfoEpsilon  = errors.New("information epsilon must be positive")
)

// Params defines the numeric bounds and guards for ability estimation.
// These are deployment configuration rather than constants: hard-coding
// them would silently bias results across different item banks.
type Params struct {
	// ThetaMin and ThetaMax bound the ability estimate. Every update
	// clamps theta back into this range.
	ThetaMin float64
	ThetaMax float64

	// StandardErrorFloor bounds the standard error from below. The
	// estimate can never claim more precision than this.
	StandardErrorFloor float64

	// InitialStandardError is the uncertainty assigned by Initialize.
	InitialStandardError float64

	// InformationEpsilon is the minimum Fisher information used in the
	// update divisor. Items uninformative at the current theta are
	// clamped to this value so the step size stays finite.
	InformationEpsilon float64
}

// NewDefaultParams returns the documented default estimation parameters:
// theta in [-4, 4], standard error floor 0.1, initial standard error 1.0,
// information epsilon 1e-6.
func NewDefaultParams() *Params {
	return &Params{
		ThetaMin:             -4.0,
		ThetaMax:             4.0,
		StandardErrorFloor:   0.1,
		InitialStandardError: 1.0,
		InformationEpsilon:   1e-6,
	}
}

// Validate checks that the parameters are internally consistent.
func (p *Params) Validate() error {
	if p.ThetaMin >= p.ThetaMax {
		return ErrInvalidThetaBounds
	}

	if p.StandardErrorFloor <= 0 {
		return ErrInvalidErrorFloor
	}

	if p.InitialStandardError <= 0 {
		return ErrInvalidInitialError
	}

	if p.InformationEpsilon <= 0 {
		return ErrInvalidInfoEpsilon
	}

	return nil
}
