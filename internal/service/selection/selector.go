// Package selection implements item selection for adaptive sessions:
// choosing the first item by difficulty and each subsequent item by one
// of the configured information-based strategies.
package selection

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/domain/irt"
)

// Strategy identifies how the next item is chosen.
type Strategy string

// Supported selection strategies
const (
	// StrategyMaxInformation picks the item with the highest Fisher
	// information at the current ability estimate.
	StrategyMaxInformation Strategy = "max_information"

	// StrategyBayesian picks the item with the highest information
	// integrated over the posterior distribution on theta.
	StrategyBayesian Strategy = "bayesian"

	// StrategyWeighted draws randomly with weights favoring, but not
	// limited to, the top-K most informative items. This spreads exposure
	// across the pool instead of over-using a single best item.
	StrategyWeighted Strategy = "weighted"
)

// IsValidStrategy reports whether the given strategy is supported.
func IsValidStrategy(s Strategy) bool {
	switch s {
	case StrategyMaxInformation, StrategyBayesian, StrategyWeighted:
		return true
	}
	return false
}

// Common errors
var (
	// ErrPoolExhausted is returned when no eligible candidate items remain.
	// Callers treat this as a graceful termination trigger, not a fault.
	ErrPoolExhausted = errors.New("item pool exhausted")

	// ErrInvalidStrategy is returned for an unsupported selection strategy.
	ErrInvalidStrategy = errors.New("invalid selection strategy")

	// ErrNilEstimator is returned when a Selector is built without an estimator.
	ErrNilEstimator = errors.New("estimator cannot be nil")
)

// Options configures a Selector.
type Options struct {
	// TopK is the number of leading items favored by the weighted
	// strategy. Defaults to 5.
	TopK int

	// PosteriorPoints is the number of quadrature points used by the
	// Bayesian strategy. Defaults to 21.
	PosteriorPoints int

	// Rand is the random source for the weighted strategy. Defaults to a
	// time-seeded source; tests inject a fixed seed for determinism.
	Rand *rand.Rand
}

// Selector chooses items for adaptive sessions. It is stateless across
// sessions: all session-specific inputs arrive as arguments.
type Selector struct {
	estimator       *irt.Estimator
	topK            int
	posteriorPoints int
	rng             *rand.Rand
}

// NewSelector creates a Selector using the given estimator for
// information computations.
func NewSelector(estimator *irt.Estimator, opts Options) (*Selector, error) {
	if estimator == nil {
		return nil, ErrNilEstimator
	}

	topK := opts.TopK
	if topK < 1 {
		topK = 5
	}

	points := opts.PosteriorPoints
	if points < 1 {
		points = 21
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	return &Selector{
		estimator:       estimator,
		topK:            topK,
		posteriorPoints: points,
		rng:             rng,
	}, nil
}

// SelectInitial returns the item whose difficulty is closest to the
// given starting difficulty. Ties break toward the lowest item ID so the
// choice is deterministic across runs.
func (s *Selector) SelectInitial(pool []domain.Item, startingDifficulty float64) (domain.Item, error) {
	if len(pool) == 0 {
		return domain.Item{}, ErrPoolExhausted
	}

	best := pool[0]
	bestDist := math.Abs(pool[0].Difficulty - startingDifficulty)

	for _, item := range pool[1:] {
		dist := math.Abs(item.Difficulty - startingDifficulty)
		if dist < bestDist || (dist == bestDist && item.ID.String() < best.ID.String()) {
			best = item
			bestDist = dist
		}
	}

	return best, nil
}

// SelectNext returns the next item to administer, excluding items already
// used in the session. Returns ErrPoolExhausted when no eligible
// candidates remain.
func (s *Selector) SelectNext(
	pool []domain.Item,
	usedItemIDs map[uuid.UUID]bool,
	estimate domain.AbilityEstimate,
	strategy Strategy,
) (domain.Item, error) {
	candidates := make([]domain.Item, 0, len(pool))
	for _, item := range pool {
		if !usedItemIDs[item.ID] {
			candidates = append(candidates, item)
		}
	}

	if len(candidates) == 0 {
		return domain.Item{}, ErrPoolExhausted
	}

	switch strategy {
	case StrategyMaxInformation:
		return s.selectMaxInformation(candidates, estimate), nil
	case StrategyBayesian:
		return s.selectBayesian(candidates, estimate), nil
	case StrategyWeighted:
		return s.selectWeighted(candidates, estimate), nil
	default:
		return domain.Item{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
	}
}

// selectMaxInformation picks the candidate maximizing Fisher information
// at the current theta, breaking ties toward the lowest item ID.
func (s *Selector) selectMaxInformation(candidates []domain.Item, estimate domain.AbilityEstimate) domain.Item {
	best := candidates[0]
	bestInfo := s.estimator.Information(estimate, best)

	for _, item := range candidates[1:] {
		info := s.estimator.Information(estimate, item)
		if info > bestInfo || (info == bestInfo && item.ID.String() < best.ID.String()) {
			best = item
			bestInfo = info
		}
	}

	return best
}

// selectBayesian integrates each candidate's information over the
// posterior quadrature supplied by the estimator and picks the maximum.
func (s *Selector) selectBayesian(candidates []domain.Item, estimate domain.AbilityEstimate) domain.Item {
	posterior := s.estimator.Posterior(estimate, s.posteriorPoints)
	model := s.estimator.Model()

	best := candidates[0]
	bestExpected := expectedInformation(model, best, posterior)

	for _, item := range candidates[1:] {
		expected := expectedInformation(model, item, posterior)
		if expected > bestExpected || (expected == bestExpected && item.ID.String() < best.ID.String()) {
			best = item
			bestExpected = expected
		}
	}

	return best
}

// expectedInformation is a candidate's information averaged over the
// posterior points.
func expectedInformation(model irt.Model, item domain.Item, posterior []irt.PosteriorPoint) float64 {
	total := 0.0
	for _, p := range posterior {
		total += p.Weight * model.Information(item, p.Theta)
	}
	return total
}

// selectWeighted ranks candidates by information and draws one at random
// with weights decaying by rank. Items inside the top-K carry most of the
// weight but every candidate keeps a non-zero chance, which curbs
// over-exposure of the single most informative item across many sessions.
func (s *Selector) selectWeighted(candidates []domain.Item, estimate domain.AbilityEstimate) domain.Item {
	ranked := make([]domain.Item, len(candidates))
	copy(ranked, candidates)

	sort.Slice(ranked, func(i, j int) bool {
		infoI := s.estimator.Information(estimate, ranked[i])
		infoJ := s.estimator.Information(estimate, ranked[j])
		if infoI != infoJ {
			return infoI > infoJ
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})

	weights := make([]float64, len(ranked))
	total := 0.0
	for i := range ranked {
		w := 1.0
		if i < s.topK {
			w = float64(s.topK - i + 1)
		}
		weights[i] = w
		total += w
	}

	draw := s.rng.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 {
			return ranked[i]
		}
	}

	return ranked[len(ranked)-1]
}
