package srs

import (
	"errors"
	"time"

	"github.com/deckhand-app/deckhand-api/internal/domain"
)

// Common errors
var (
	ErrInvalidGrade = errors.New("invalid review grade")
	ErrInvalidState = errors.New("invalid scheduling state")
)

// Service defines the interface for scheduling operations. The review
// time is always supplied by the caller rather than read from the clock
// so that callers and tests can drive deterministic dates.
type Service interface {
	// NextReview computes the new scheduling values for a graded review.
	NextReview(state State, grade domain.Grade, reviewedAt time.Time) (Result, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// NextReview implements the Service interface.
func (s *defaultService) NextReview(state State, grade domain.Grade, reviewedAt time.Time) (Result, error) {
	if !grade.IsValid() {
		return Result{}, ErrInvalidGrade
	}

	if state.Interval < 0 || state.EaseFactor < s.params.MinEaseFactor || state.EaseFactor > s.params.MaxEaseFactor {
		return Result{}, ErrInvalidState
	}

	return Apply(state, grade, reviewedAt, s.params), nil
}
