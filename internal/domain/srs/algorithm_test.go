package srs

import (
	"testing"
	"time"

	"github.com/deckhand-app/deckhand-api/internal/domain"
)

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  int
		ef       float64
		grade    domain.Grade
		expected int
	}{
		{
			name:     "Again grade should reset interval",
			current:  10,
			ef:       2.5,
			grade:    domain.GradeAgain,
			expected: 0,
		},
		{
			name:     "Good grade graduates a first review to one day",
			current:  0,
			ef:       2.5,
			grade:    domain.GradeGood,
			expected: 1,
		},
		{
			name:     "Good grade should grow interval by ease factor",
			current:  10,
			ef:       2.5,
			grade:    domain.GradeGood,
			expected: 25, // 10 * 2.5 = 25
		},
		{
			name:     "Good grade rounds half up",
			current:  1,
			ef:       2.5,
			grade:    domain.GradeGood,
			expected: 3, // 1 * 2.5 = 2.5 -> 3
		},
		{
			name:     "Hard grade should slightly increase interval",
			current:  10,
			ef:       2.5,
			grade:    domain.GradeHard,
			expected: 12, // 10 * 1.2 = 12
		},
		{
			name:     "Hard grade on a first review still yields one day",
			current:  0,
			ef:       2.5,
			grade:    domain.GradeHard,
			expected: 1, // max(1, 0 * 1.2)
		},
		{
			name:     "Hard grade rounds half up",
			current:  5,
			ef:       2.5,
			grade:    domain.GradeHard,
			expected: 6, // 5 * 1.2 = 6.0
		},
		{
			name:     "Easy grade should significantly increase interval",
			current:  10,
			ef:       2.5,
			grade:    domain.GradeEasy,
			expected: 33, // 10 * 2.5 * 1.3 = 32.5 -> 33 (half up)
		},
		{
			name:     "Easy grade on a first review",
			current:  0,
			ef:       2.5,
			grade:    domain.GradeEasy,
			expected: 1, // 1 * 1.3 = 1.3 -> 1
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			newInterval := calculateNewInterval(tc.current, tc.ef, tc.grade, params)

			if newInterval != tc.expected {
				t.Errorf("Expected interval %d, got %d", tc.expected, newInterval)
			}
		})
	}
}

func TestCalculateNewEaseFactor(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		grade    domain.Grade
		expected float64
	}{
		{
			name:     "Again grade should decrease ease factor",
			current:  2.5,
			grade:    domain.GradeAgain,
			expected: 2.3, // 2.5 - 0.2 = 2.3
		},
		{
			name:     "Hard grade should slightly decrease ease factor",
			current:  2.5,
			grade:    domain.GradeHard,
			expected: 2.35, // 2.5 - 0.15 = 2.35
		},
		{
			name:     "Good grade should not change ease factor",
			current:  2.5,
			grade:    domain.GradeGood,
			expected: 2.5,
		},
		{
			name:     "Easy grade should increase ease factor",
			current:  2.3,
			grade:    domain.GradeEasy,
			expected: 2.45, // 2.3 + 0.15 = 2.45
		},
		{
			name:     "Minimum ease factor should be enforced",
			current:  1.4,
			grade:    domain.GradeAgain,
			expected: 1.3, // 1.4 - 0.2 = 1.2, but min is 1.3
		},
		{
			name:     "Maximum ease factor should be enforced",
			current:  3.9,
			grade:    domain.GradeEasy,
			expected: 4.0, // 3.9 + 0.15 = 4.05, but max is 4.0
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			newEF := calculateNewEaseFactor(tc.current, tc.grade, params)

			// Hundredths arithmetic makes results exact; no epsilon needed
			if newEF != tc.expected {
				t.Errorf("Expected ease factor %v, got %v", tc.expected, newEF)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel() // Enable parallel execution
	params := NewDefaultParams()
	reviewedAt := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("Good on a fresh card schedules tomorrow", func(t *testing.T) {
		result := Apply(State{EaseFactor: 2.5, Interval: 0}, domain.GradeGood, reviewedAt, params)

		if result.Interval != 1 {
			t.Errorf("Expected interval 1, got %d", result.Interval)
		}
		if result.EaseFactor != 2.5 {
			t.Errorf("Expected ease factor 2.5, got %v", result.EaseFactor)
		}
		if !result.NextReviewDate.Equal(today.AddDate(0, 0, 1)) {
			t.Errorf("Expected next review %v, got %v", today.AddDate(0, 0, 1), result.NextReviewDate)
		}
	})

	t.Run("Good on interval 1 rounds 2.5 days half up to 3", func(t *testing.T) {
		result := Apply(State{EaseFactor: 2.5, Interval: 1}, domain.GradeGood, reviewedAt, params)

		if result.Interval != 3 {
			t.Errorf("Expected interval 3, got %d", result.Interval)
		}
		if !result.NextReviewDate.Equal(today.AddDate(0, 0, 3)) {
			t.Errorf("Expected next review %v, got %v", today.AddDate(0, 0, 3), result.NextReviewDate)
		}
	})

	t.Run("Again resets interval and schedules today", func(t *testing.T) {
		result := Apply(State{EaseFactor: 2.5, Interval: 30}, domain.GradeAgain, reviewedAt, params)

		if result.Interval != 0 {
			t.Errorf("Expected interval 0, got %d", result.Interval)
		}
		if !result.NextReviewDate.Equal(today) {
			t.Errorf("Expected next review %v, got %v", today, result.NextReviewDate)
		}
		if result.EaseFactor != 2.3 {
			t.Errorf("Expected ease factor 2.3, got %v", result.EaseFactor)
		}
	})

	t.Run("All-good sequence grows interval monotonically", func(t *testing.T) {
		state := State{EaseFactor: 2.5, Interval: 0}
		prev := 0
		for i := 0; i < 10; i++ {
			result := Apply(state, domain.GradeGood, reviewedAt, params)
			if result.Interval <= prev {
				t.Fatalf("Interval did not grow at step %d: %d -> %d", i, prev, result.Interval)
			}
			prev = result.Interval
			state = State{EaseFactor: result.EaseFactor, Interval: result.Interval}
		}
	})

	t.Run("Ease factor stays in bounds for any grade sequence", func(t *testing.T) {
		grades := []domain.Grade{
			domain.GradeAgain, domain.GradeAgain, domain.GradeAgain, domain.GradeAgain,
			domain.GradeAgain, domain.GradeAgain, domain.GradeAgain, domain.GradeAgain,
			domain.GradeEasy, domain.GradeEasy, domain.GradeEasy, domain.GradeEasy,
			domain.GradeEasy, domain.GradeEasy, domain.GradeEasy, domain.GradeEasy,
			domain.GradeEasy, domain.GradeEasy, domain.GradeEasy, domain.GradeEasy,
			domain.GradeHard, domain.GradeGood, domain.GradeAgain, domain.GradeEasy,
		}

		state := State{EaseFactor: 2.5, Interval: 0}
		for i, grade := range grades {
			result := Apply(state, grade, reviewedAt, params)
			if result.EaseFactor < params.MinEaseFactor || result.EaseFactor > params.MaxEaseFactor {
				t.Fatalf("Ease factor out of bounds at step %d (%s): %v", i, grade, result.EaseFactor)
			}
			if result.Interval < 0 {
				t.Fatalf("Negative interval at step %d (%s): %d", i, grade, result.Interval)
			}
			if result.NextReviewDate.Before(today) {
				t.Fatalf("Next review before review date at step %d (%s): %v", i, grade, result.NextReviewDate)
			}
			state = State{EaseFactor: result.EaseFactor, Interval: result.Interval}
		}
	})

	t.Run("Determinism across repeated applications", func(t *testing.T) {
		state := State{EaseFactor: 2.15, Interval: 7}
		first := Apply(state, domain.GradeEasy, reviewedAt, params)
		for i := 0; i < 100; i++ {
			if Apply(state, domain.GradeEasy, reviewedAt, params) != first {
				t.Fatal("Apply is not deterministic")
			}
		}
	})
}
