package srs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-app/deckhand-api/internal/domain"
	"github.com/deckhand-app/deckhand-api/internal/domain/srs"
)

func TestServiceNextReview(t *testing.T) {
	t.Parallel()
	service := srs.NewDefaultService()
	reviewedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("computes the scheduling update for a valid grade", func(t *testing.T) {
		result, err := service.NextReview(
			srs.State{EaseFactor: 2.5, Interval: 10},
			domain.GradeGood,
			reviewedAt,
		)
		require.NoError(t, err)
		assert.Equal(t, 25, result.Interval)
		assert.Equal(t, 2.5, result.EaseFactor)
		assert.Equal(t, time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC), result.NextReviewDate)
	})

	t.Run("rejects an unknown grade", func(t *testing.T) {
		_, err := service.NextReview(
			srs.State{EaseFactor: 2.5, Interval: 1},
			domain.Grade("perfect"),
			reviewedAt,
		)
		assert.ErrorIs(t, err, srs.ErrInvalidGrade)
	})

	t.Run("rejects out-of-bounds state", func(t *testing.T) {
		_, err := service.NextReview(
			srs.State{EaseFactor: 0.9, Interval: 1},
			domain.GradeGood,
			reviewedAt,
		)
		assert.ErrorIs(t, err, srs.ErrInvalidState)

		_, err = service.NextReview(
			srs.State{EaseFactor: 2.5, Interval: -1},
			domain.GradeGood,
			reviewedAt,
		)
		assert.ErrorIs(t, err, srs.ErrInvalidState)
	})

	t.Run("honors custom parameters", func(t *testing.T) {
		custom := srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
			HardIntervalMultiplier: 1.5,
		}))

		result, err := custom.NextReview(
			srs.State{EaseFactor: 2.5, Interval: 10},
			domain.GradeHard,
			reviewedAt,
		)
		require.NoError(t, err)
		assert.Equal(t, 15, result.Interval)
	})
}
