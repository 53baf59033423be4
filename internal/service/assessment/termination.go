package assessment

import "github.com/lumenlms/adapt-api/internal/domain"

// TerminationPolicy decides, after each graded response, whether an
// adaptive session should stop and why.
type TerminationPolicy struct {
	MinQuestions       int
	MaxQuestions       int
	PrecisionThreshold float64
}

// ShouldTerminate evaluates the termination rules in fixed order:
//
//  1. fewer than MinQuestions administered: continue
//  2. MaxQuestions administered: MAX_REACHED
//  3. standard error at or below the threshold: PRECISION_REACHED
//  4. pool exhausted: POOL_EXHAUSTED
//
// The strict order avoids ambiguous states when several rules would
// trigger at once.
func (p TerminationPolicy) ShouldTerminate(
	administered int,
	estimate domain.AbilityEstimate,
	poolExhausted bool,
) (bool, domain.TerminationReason) {
	if administered < p.MinQuestions {
		return false, domain.TerminationNone
	}

	if administered >= p.MaxQuestions {
		return true, domain.TerminationMaxReached
	}

	if estimate.StandardError <= p.PrecisionThreshold {
		return true, domain.TerminationPrecisionReached
	}

	if poolExhausted {
		return true, domain.TerminationPoolExhausted
	}

	return false, domain.TerminationNone
}
