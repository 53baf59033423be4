package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlms/adapt-api/internal/domain"
)

func TestNewServiceWithParams(t *testing.T) {
	t.Parallel()

	t.Run("valid params", func(t *testing.T) {
		t.Parallel()

		service, err := NewServiceWithParams(NewDefaultParams())
		require.NoError(t, err)
		assert.NotNil(t, service)
	})

	t.Run("invalid min ease", func(t *testing.T) {
		t.Parallel()

		params := NewDefaultParams()
		params.MinEaseFactor = 0.5

		service, err := NewServiceWithParams(params)
		assert.ErrorIs(t, err, ErrInvalidMinEase)
		assert.Nil(t, service)
	})

	t.Run("initial ease below minimum", func(t *testing.T) {
		t.Parallel()

		params := NewDefaultParams()
		params.MinEaseFactor = 2.0
		params.InitialEaseFactor = 1.5

		service, err := NewServiceWithParams(params)
		assert.ErrorIs(t, err, ErrInvalidInitialEase)
		assert.Nil(t, service)
	})

	t.Run("invalid intervals", func(t *testing.T) {
		t.Parallel()

		params := NewDefaultParams()
		params.FirstInterval = 0

		service, err := NewServiceWithParams(params)
		assert.ErrorIs(t, err, ErrInvalidInitialIntervals)
		assert.Nil(t, service)
	})
}

func TestNewRecord(t *testing.T) {
	t.Parallel()

	t.Run("seeds the configured initial ease factor", func(t *testing.T) {
		t.Parallel()

		params := NewDefaultParams()
		params.InitialEaseFactor = 3.5

		service, err := NewServiceWithParams(params)
		require.NoError(t, err)

		record, err := service.NewRecord(uuid.New(), uuid.New())
		require.NoError(t, err)

		assert.InDelta(t, 3.5, record.EaseFactor, 1e-9)
		assert.Equal(t, 0, record.ReviewCount)
		assert.True(t, record.IsDue(time.Now().UTC().Add(time.Second)))
	})

	t.Run("rejects nil ids", func(t *testing.T) {
		t.Parallel()

		service := NewDefaultService()

		_, err := service.NewRecord(uuid.Nil, uuid.New())
		assert.Error(t, err)
	})
}

func TestRecordReview(t *testing.T) {
	t.Parallel()

	service := NewDefaultService()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("nil record", func(t *testing.T) {
		t.Parallel()

		updated, err := service.RecordReview(nil, true, 10*time.Second, 1.0, now)
		assert.ErrorIs(t, err, ErrNilRecord)
		assert.Nil(t, updated)
	})

	t.Run("negative response time", func(t *testing.T) {
		t.Parallel()

		record, err := domain.NewLearningRecord(uuid.New(), uuid.New())
		require.NoError(t, err)

		updated, err := service.RecordReview(record, true, -time.Second, 1.0, now)
		assert.ErrorIs(t, err, ErrNegativeTime)
		assert.Nil(t, updated)
	})

	t.Run("streak of successes grows the interval", func(t *testing.T) {
		t.Parallel()

		record, err := domain.NewLearningRecord(uuid.New(), uuid.New())
		require.NoError(t, err)

		reviewAt := now
		// Quality 5 lifts the ease to 2.6, 2.7, then 2.8; the third
		// interval is round(6 * 2.8).
		wantIntervals := []int{1, 6, 17}

		for i, want := range wantIntervals {
			// Each review is fast enough for quality 5 on a difficulty-1
			// item (expected 10 seconds).
			record, err = service.RecordReview(record, true, 3*time.Second, 1.0, reviewAt)
			require.NoError(t, err)

			assert.Equal(t, i+1, record.ConsecutiveCorrect)
			assert.Equal(t, want, record.IntervalDays, "interval after review %d", i+1)
			assert.Equal(t, reviewAt.AddDate(0, 0, want), record.NextReviewAt)

			reviewAt = record.NextReviewAt
		}
	})

	t.Run("failure resets the schedule", func(t *testing.T) {
		t.Parallel()

		record, err := domain.NewLearningRecord(uuid.New(), uuid.New())
		require.NoError(t, err)
		record.ConsecutiveCorrect = 3
		record.IntervalDays = 15

		updated, err := service.RecordReview(record, false, 10*time.Second, 1.0, now)
		require.NoError(t, err)

		assert.Equal(t, 0, updated.ConsecutiveCorrect)
		assert.Equal(t, 1, updated.IntervalDays)
		assert.Equal(t, now.AddDate(0, 0, 1), updated.NextReviewAt)
		assert.Less(t, updated.EaseFactor, record.EaseFactor)
	})

	t.Run("ease factor floor survives repeated blackouts", func(t *testing.T) {
		t.Parallel()

		record, err := domain.NewLearningRecord(uuid.New(), uuid.New())
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			record, err = service.RecordReview(record, false, time.Minute, 1.0, now)
			require.NoError(t, err)
		}

		assert.InDelta(t, 1.3, record.EaseFactor, 1e-9)
		assert.NoError(t, record.Validate())
	})
}

func TestScoreQualityViaService(t *testing.T) {
	t.Parallel()

	service := NewDefaultService()

	assert.Equal(t, Quality(5), service.ScoreQuality(true, 3*time.Second, 1.0))
	assert.Equal(t, Quality(0), service.ScoreQuality(false, time.Minute, 1.0))
}

func TestPostponeReview(t *testing.T) {
	t.Parallel()

	service := NewDefaultService()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("pushes the next review forward", func(t *testing.T) {
		t.Parallel()

		record, err := domain.NewLearningRecord(uuid.New(), uuid.New())
		require.NoError(t, err)
		originalNext := record.NextReviewAt

		updated, err := service.PostponeReview(record, 3, now)
		require.NoError(t, err)

		assert.Equal(t, originalNext.AddDate(0, 0, 3), updated.NextReviewAt)
		assert.Equal(t, now, updated.UpdatedAt)
		assert.Equal(t, record.IntervalDays, updated.IntervalDays, "postponing must not touch the schedule state")
		assert.Equal(t, record.EaseFactor, updated.EaseFactor)
		assert.Equal(t, originalNext, record.NextReviewAt, "input record must not be mutated")
	})

	t.Run("rejects non-positive day counts", func(t *testing.T) {
		t.Parallel()

		record, err := domain.NewLearningRecord(uuid.New(), uuid.New())
		require.NoError(t, err)

		for _, days := range []int{0, -1} {
			updated, err := service.PostponeReview(record, days, now)
			assert.ErrorIs(t, err, ErrInvalidDays)
			assert.Nil(t, updated)
		}
	})

	t.Run("nil record", func(t *testing.T) {
		t.Parallel()

		updated, err := service.PostponeReview(nil, 1, now)
		assert.ErrorIs(t, err, ErrNilRecord)
		assert.Nil(t, updated)
	})
}
