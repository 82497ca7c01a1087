package srs

import (
	"github.com/deckhand-app/deckhand-api/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Additive ease factor adjustments per grade
	EaseFactorAdjustment map[domain.Grade]float64

	// Interval growth multipliers
	HardIntervalMultiplier float64
	EasyIntervalBonus      float64
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
type ParamsConfig struct {
	MinEaseFactor float64
	MaxEaseFactor float64

	AgainEaseFactorAdjustment float64
	HardEaseFactorAdjustment  float64
	EasyEaseFactorAdjustment  float64

	HardIntervalMultiplier float64
	EasyIntervalBonus      float64
}

// NewDefaultParams creates a new Params instance with the product's
// default scheduling values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,
		MaxEaseFactor: domain.MaxEaseFactor,

		EaseFactorAdjustment: map[domain.Grade]float64{
			domain.GradeAgain: -0.20,
			domain.GradeHard:  -0.15,
			domain.GradeGood:  0.0,
			domain.GradeEasy:  0.15,
		},

		// hard grows the interval slightly; easy adds a bonus on top of
		// the ease factor growth
		HardIntervalMultiplier: 1.2,
		EasyIntervalBonus:      1.3,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero-valued fields keep their defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	if config.AgainEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.GradeAgain] = config.AgainEaseFactorAdjustment
	}
	if config.HardEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.GradeHard] = config.HardEaseFactorAdjustment
	}
	if config.EasyEaseFactorAdjustment != 0 {
		params.EaseFactorAdjustment[domain.GradeEasy] = config.EasyEaseFactorAdjustment
	}

	if config.HardIntervalMultiplier > 0 {
		params.HardIntervalMultiplier = config.HardIntervalMultiplier
	}
	if config.EasyIntervalBonus > 0 {
		params.EasyIntervalBonus = config.EasyIntervalBonus
	}

	return params
}
