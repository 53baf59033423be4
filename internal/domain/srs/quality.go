package srs

import "time"

// Quality is a 0-5 rating of how well a review response demonstrated
// recall, derived from correctness and response speed relative to the
// item's difficulty. Quality 3 and above counts as a successful recall.
type Quality int

// SuccessThreshold is the lowest quality treated as a successful recall.
const SuccessThreshold Quality = 3

// IsSuccess reports whether the quality counts as a successful recall.
func (q Quality) IsSuccess() bool {
	return q >= SuccessThreshold
}

// scoreQuality derives the quality rating from the review outcome.
//
// Incorrect responses score 0 when slower than the slow-incorrect
// threshold (a complete blackout) and 1 otherwise. Correct responses are
// rated by how fast they came relative to the expected time for the
// item's difficulty: under half the expected time is a 5, under the
// expected time a 4, under twice a 3, anything slower a 2.
func scoreQuality(isCorrect bool, responseTime time.Duration, itemDifficulty float64, params *Params) Quality {
	seconds := responseTime.Seconds()

	if !isCorrect {
		if seconds > params.SlowIncorrectSeconds {
			return 0
		}
		return 1
	}

	expected := itemDifficulty * params.SecondsPerDifficultyUnit
	if expected < params.MinExpectedSeconds {
		expected = params.MinExpectedSeconds
	}

	timeRatio := seconds / expected
	switch {
	case timeRatio < 0.5:
		return 5
	case timeRatio < 1.0:
		return 4
	case timeRatio < 2.0:
		return 3
	default:
		return 2
	}
}
