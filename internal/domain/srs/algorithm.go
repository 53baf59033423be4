package srs

import (
	"math"
	"time"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease adjustment for the given
// quality and floors the result at params.MinEaseFactor. The adjustment
// applies on every review, successful or not.
func calculateNewEaseFactor(currentEF float64, quality Quality, params *Params) float64 {
	q := float64(quality)
	newEF := currentEF + (0.1 - (5-q)*(0.08+(5-q)*0.02))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next interval in days.
//
// A failed recall (quality below the success threshold) always resets the
// interval to the first interval. For successful recalls, the streak
// position decides: the first success of a streak uses the fixed first
// interval even if the multiplicative formula would produce more, the
// second uses the fixed second interval, and later successes grow the
// previous interval by the ease factor.
func calculateNewInterval(
	previousInterval int,
	streak int,
	easeFactor float64,
	quality Quality,
	params *Params,
) int {
	if !quality.IsSuccess() {
		return params.FirstInterval
	}

	switch streak {
	case 1:
		return params.FirstInterval
	case 2:
		return params.SecondInterval
	default:
		return int(math.Round(float64(previousInterval) * easeFactor))
	}
}

// calculateNextRecord creates a new LearningRecord with updated scheduling
// state for one review. The input record is not modified.
func calculateNextRecord(
	record *domain.LearningRecord,
	quality Quality,
	now time.Time,
	params *Params,
) *domain.LearningRecord {
	next := *record

	next.ReviewCount++
	next.EaseFactor = calculateNewEaseFactor(record.EaseFactor, quality, params)

	if quality.IsSuccess() {
		next.ConsecutiveCorrect = record.ConsecutiveCorrect + 1
	} else {
		next.ConsecutiveCorrect = 0
	}

	next.IntervalDays = calculateNewInterval(
		record.IntervalDays,
		next.ConsecutiveCorrect,
		next.EaseFactor,
		quality,
		params,
	)

	next.LastReviewedAt = now
	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)
	next.UpdatedAt = now

	return &next
}
