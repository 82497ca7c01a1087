package srs

import (
	"math"
	"time"

	"github.com/deckhand-app/deckhand-api/internal/domain"
)

// State is the scheduling input for a card: its current ease factor and
// interval in days.
type State struct {
	EaseFactor float64
	Interval   int
}

// Result is the scheduling output: the new ease factor, the new interval
// in days, and the calendar date the card is next due.
type Result struct {
	EaseFactor     float64
	Interval       int
	NextReviewDate time.Time
}

// calculateNewEaseFactor determines the new ease factor for a grade.
//
// The arithmetic is done on integer hundredths so that the result is
// identical on every platform regardless of the floating-point library:
// the current ease factor is converted to hundredths with round-half-up,
// the per-grade adjustment (itself an exact multiple of 0.05) is applied,
// and the result is clamped to [params.MinEaseFactor, params.MaxEaseFactor].
func calculateNewEaseFactor(currentEF float64, grade domain.Grade, params *Params) float64 {
	ef := toHundredths(currentEF) + toHundredths(params.EaseFactorAdjustment[grade])

	minEF := toHundredths(params.MinEaseFactor)
	maxEF := toHundredths(params.MaxEaseFactor)
	if ef < minEF {
		ef = minEF
	}
	if ef > maxEF {
		ef = maxEF
	}

	return float64(ef) / 100
}

// calculateNewInterval determines the new interval in days.
//
// Growth per grade, all rounded half-up to whole days with a 1-day
// minimum whenever the interval is not reset:
//   - again: reset to 0 (due immediately)
//   - hard:  interval x 1.2
//   - good:  1 on first review, otherwise interval x ease factor
//   - easy:  the good interval x 1.3 bonus
//
// The ease factor used is the card's current one, before the grade's
// adjustment is applied.
func calculateNewInterval(currentInterval int, easeFactor float64, grade domain.Grade, params *Params) int {
	switch grade {
	case domain.GradeAgain:
		return 0

	case domain.GradeHard:
		return atLeastOneDay(float64(currentInterval) * params.HardIntervalMultiplier)

	case domain.GradeEasy:
		return atLeastOneDay(goodInterval(currentInterval, easeFactor) * params.EasyIntervalBonus)

	default: // good
		return atLeastOneDay(goodInterval(currentInterval, easeFactor))
	}
}

// goodInterval is the base growth for a successful review: a first review
// (interval 0) graduates to 1 day, an established card grows by its ease
// factor.
func goodInterval(currentInterval int, easeFactor float64) float64 {
	if currentInterval == 0 {
		return 1
	}
	return float64(currentInterval) * easeFactor
}

// Apply computes the scheduling update for one graded review. It is pure
// and deterministic: the same state, grade, and review date always produce
// the same result, so it is safe to call concurrently without coordination.
//
// reviewedAt is truncated to its UTC calendar date; the next review date
// is that date plus the new interval (the review date itself for again,
// since interval 0 means "due immediately").
func Apply(state State, grade domain.Grade, reviewedAt time.Time, params *Params) Result {
	today := domain.DateOf(reviewedAt)

	newInterval := calculateNewInterval(state.Interval, state.EaseFactor, grade, params)

	return Result{
		EaseFactor:     calculateNewEaseFactor(state.EaseFactor, grade, params),
		Interval:       newInterval,
		NextReviewDate: today.AddDate(0, 0, newInterval),
	}
}

// atLeastOneDay rounds half-up to whole days, minimum 1.
func atLeastOneDay(days float64) int {
	rounded := int(math.Floor(days + 0.5))
	if rounded < 1 {
		return 1
	}
	return rounded
}

// toHundredths converts a decimal value to integer hundredths,
// rounding half-up.
func toHundredths(v float64) int {
	if v < 0 {
		return -int(math.Floor(-v*100 + 0.5))
	}
	return int(math.Floor(v*100 + 0.5))
}
