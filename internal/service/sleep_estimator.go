package service

import "time"

// SleepEstimator estimates total sleep when a provider reports no stage
// breakdown. The estimate is known-imprecise and surfaced to product as such;
// it is an interface so the strategy can be swapped without touching the
// normalizer.
type SleepEstimator interface {
	// EstimateTotal converts a sleep efficiency percentage (0-100) into an
	// estimated total sleep duration in minutes
	EstimateTotal(efficiencyPercent float64) int64
}

// ReferenceWindowEstimator scales the efficiency ratio over a fixed reference
// window, defaulting to eight hours in bed.
type ReferenceWindowEstimator struct {
	Window time.Duration
}

// NewReferenceWindowEstimator creates the default eight-hour estimator
func NewReferenceWindowEstimator() ReferenceWindowEstimator {
	return ReferenceWindowEstimator{Window: 8 * time.Hour}
}

// EstimateTotal applies efficiency over the reference window
func (e ReferenceWindowEstimator) EstimateTotal(efficiencyPercent float64) int64 {
	if efficiencyPercent < 0 {
		return 0
	}
	if efficiencyPercent > 100 {
		efficiencyPercent = 100
	}
	return int64(e.Window.Minutes() * efficiencyPercent / 100)
}
