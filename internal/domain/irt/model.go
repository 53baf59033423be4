package irt

import (
	"fmt"
	"math"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// Model computes response probabilities and Fisher information for a
// specific IRT model variant. The variant is chosen once at session
// initialization; the rest of the engine works against this interface
// and never inspects the variant again.
type Model interface {
	// Variant returns the model variant this implementation realizes.
	Variant() domain.ModelVariant

	// Probability returns P(correct | theta) for the given item.
	Probability(item domain.Item, theta float64) float64

	// Information returns the Fisher information the item carries about
	// theta at the given ability level.
	Information(item domain.Item, theta float64) float64

	// ScoreGradient returns the derivative term of the log-likelihood for
	// a single scored response (score is 1 for correct, 0 for incorrect).
	ScoreGradient(item domain.Item, theta float64, score float64) float64
}

// ModelFor returns the Model implementation for the given variant.
// Returns domain.ErrInvalidModelVariant for unsupported variants.
func ModelFor(variant domain.ModelVariant) (Model, error) {
	switch variant {
	case domain.ModelRasch:
		return raschModel{}, nil
	case domain.Model2PL:
		return twoParamModel{}, nil
	case domain.Model3PL:
		return threeParamModel{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidModelVariant, variant)
	}
}

// logistic is the standard logistic function.
func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// raschModel is the one-parameter logistic model: discrimination is fixed
// at 1 and there is no guessing floor.
type raschModel struct{}

func (raschModel) Variant() domain.ModelVariant { return domain.ModelRasch }

func (raschModel) Probability(item domain.Item, theta float64) float64 {
	return logistic(theta - item.Difficulty)
}

func (m raschModel) Information(item domain.Item, theta float64) float64 {
	p := m.Probability(item, theta)
	return p * (1 - p)
}

func (m raschModel) ScoreGradient(item domain.Item, theta float64, score float64) float64 {
	return score - m.Probability(item, theta)
}

// twoParamModel is the two-parameter logistic model: per-item
// discrimination, no guessing floor.
type twoParamModel struct{}

func (twoParamModel) Variant() domain.ModelVariant { return domain.Model2PL }

func (twoParamModel) Probability(item domain.Item, theta float64) float64 {
	return logistic(item.Discrimination * (theta - item.Difficulty))
}

func (m twoParamModel) Information(item domain.Item, theta float64) float64 {
	a := item.Discrimination
	p := m.Probability(item, theta)
	return a * a * p * (1 - p)
}

func (m twoParamModel) ScoreGradient(item domain.Item, theta float64, score float64) float64 {
	return item.Discrimination * (score - m.Probability(item, theta))
}

// threeParamModel is the three-parameter logistic model with a guessing
// floor c: P = c + (1-c) * logistic(a * (theta - b)).
//
// The update here is an approximate one-step MLE correction rather than an
// exact Newton-Raphson step; the information and gradient forms below
// degrade exactly to the two-parameter forms at c = 0.
type threeParamModel struct{}

func (threeParamModel) Variant() domain.ModelVariant { return domain.Model3PL }

func (threeParamModel) Probability(item domain.Item, theta float64) float64 {
	c := item.Guessing
	return c + (1-c)*logistic(item.Discrimination*(theta-item.Difficulty))
}

func (m threeParamModel) Information(item domain.Item, theta float64) float64 {
	a := item.Discrimination
	c := item.Guessing
	p := m.Probability(item, theta)
	if p <= 0 || p >= 1 {
		return 0
	}
	ratio := (p - c) / (1 - c)
	return a * a * ((1 - p) / p) * ratio * ratio
}

func (m threeParamModel) ScoreGradient(item domain.Item, theta float64, score float64) float64 {
	a := item.Discrimination
	c := item.Guessing
	p := m.Probability(item, theta)
	if p <= 0 {
		return 0
	}
	// Weight the residual by the share of the probability not explained
	// by guessing.
	return a * ((p - c) / (p * (1 - c))) * (score - p)
}
