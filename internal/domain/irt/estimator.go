package irt

import (
	"fmt"
	"math"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// Estimator performs ability estimation for one model variant. It holds
// no per-examinee state; every method is a pure function of its inputs.
type Estimator struct {
	model  Model
	params *Params
}

// NewEstimator creates an Estimator for the given model variant.
// If params is nil, the documented defaults are used.
func NewEstimator(variant domain.ModelVariant, params *Params) (*Estimator, error) {
	model, err := ModelFor(variant)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid estimation params: %w", err)
	}

	return &Estimator{model: model, params: params}, nil
}

// Model returns the response model used by this estimator.
func (e *Estimator) Model() Model {
	return e.model
}

// Initialize returns the starting ability estimate for a session.
// The starting ability is clamped into the configured theta bounds.
func (e *Estimator) Initialize(startingAbility float64) domain.AbilityEstimate {
	return domain.AbilityEstimate{
		Theta:         clamp(startingAbility, e.params.ThetaMin, e.params.ThetaMax),
		StandardError: e.params.InitialStandardError,
		Model:         e.model.Variant(),
	}
}

// Update applies a one-step maximum-likelihood correction for a single
// graded response and returns the new estimate. The input estimate is not
// modified.
//
// The step moves theta by gradient/information. When the item carries
// almost no information at the current theta, the information is clamped
// to the configured epsilon before dividing so the step stays finite;
// this recovery is local and never surfaces as an error.
func (e *Estimator) Update(estimate domain.AbilityEstimate, item domain.Item, isCorrect bool) domain.AbilityEstimate {
	score := 0.0
	if isCorrect {
		score = 1.0
	}

	info := e.model.Information(item, estimate.Theta)
	if info < e.params.InformationEpsilon {
		info = e.params.InformationEpsilon
	}

	gradient := e.model.ScoreGradient(item, estimate.Theta, score)
	theta := estimate.Theta + gradient/info

	// Accumulate precision: 1/SE'^2 = 1/SE^2 + I(theta).
	precision := 1.0/(estimate.StandardError*estimate.StandardError) + info
	stderr := 1.0 / math.Sqrt(precision)

	return domain.AbilityEstimate{
		Theta:         clamp(theta, e.params.ThetaMin, e.params.ThetaMax),
		StandardError: math.Max(stderr, e.params.StandardErrorFloor),
		Model:         e.model.Variant(),
	}
}

// Information returns the Fisher information an item would carry at the
// estimate's current theta. Selection strategies use this to rank
// candidate items.
func (e *Estimator) Information(estimate domain.AbilityEstimate, item domain.Item) float64 {
	return e.model.Information(item, estimate.Theta)
}

// PosteriorPoint is one quadrature node of the ability posterior.
type PosteriorPoint struct {
	Theta  float64
	Weight float64
}

// Posterior approximates the posterior distribution on theta as a normal
// centered on the current estimate, discretized over n equally spaced
// quadrature points spanning three standard errors each side. Weights are
// normalized to sum to one. The Bayesian selection strategy integrates
// item information over these points.
func (e *Estimator) Posterior(estimate domain.AbilityEstimate, n int) []PosteriorPoint {
	if n < 1 {
		n = 1
	}

	mean := estimate.Theta
	sd := estimate.StandardError

	points := make([]PosteriorPoint, n)
	if n == 1 {
		points[0] = PosteriorPoint{Theta: mean, Weight: 1.0}
		return points
	}

	lo := math.Max(mean-3*sd, e.params.ThetaMin)
	hi := math.Min(mean+3*sd, e.params.ThetaMax)
	step := (hi - lo) / float64(n-1)

	total := 0.0
	for i := 0; i < n; i++ {
		theta := lo + float64(i)*step
		z := (theta - mean) / sd
		w := math.Exp(-0.5 * z * z)
		points[i] = PosteriorPoint{Theta: theta, Weight: w}
		total += w
	}

	for i := range points {
		points[i].Weight /= total
	}

	return points
}

// clamp bounds v into [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
