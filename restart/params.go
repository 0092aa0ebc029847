// Package restart implements the adaptive restart controller: detecting
// stalled progress via weighted-KKT residual reduction, choosing between
// the current and averaged iterate, and recomputing the primal weight for
// the next epoch. FixedPointResidual computes the fixed-point residual,
// but the Controller's restart test does not use it.
package restart

import "fmt"

// Scheme selects which top-level restart trigger governs the solve.
type Scheme int

const (
	NoRestarts Scheme = iota
	FixedFrequency
	AdaptiveKKT
)

// ToCurrentMetric selects how the restart candidate is chosen in raPDHG.
type ToCurrentMetric int

const (
	// KKTGreedy restarts to whichever of the current/average iterate has
	// the smaller weighted KKT residual.
	KKTGreedy ToCurrentMetric = iota
	// AlwaysAverage always restarts to the average iterate.
	AlwaysAverage
)

// Parameters collects every tunable of the restart scheme: which trigger
// fires restarts, how a restart candidate is chosen, and the smoothing
// applied to the primal-weight update.
type Parameters struct {
	Scheme                      Scheme
	ToCurrentMetric             ToCurrentMetric
	RestartFrequencyIfFixed     int
	ArtificialRestartThreshold  float64 // in (0, 1]
	SufficientReduction         float64 // in (0, 1], <= NecessaryReduction
	NecessaryReduction          float64 // in (0, 1]
	PrimalWeightUpdateSmoothing float64 // in [0, 1]
}

// Validate checks that every tunable is in its valid range: monotone
// reduction thresholds, a restart frequency greater than one when the
// scheme is fixed-frequency, and smoothing/threshold fractions in bounds.
func (p Parameters) Validate() error {
	switch {
	case p.Scheme == FixedFrequency && p.RestartFrequencyIfFixed <= 1:
		return fmt.Errorf("restart: RestartFrequencyIfFixed must be > 1, got %d", p.RestartFrequencyIfFixed)
	case p.ArtificialRestartThreshold <= 0 || p.ArtificialRestartThreshold > 1:
		return fmt.Errorf("restart: ArtificialRestartThreshold must be in (0, 1], got %v", p.ArtificialRestartThreshold)
	case p.SufficientReduction <= 0 || p.SufficientReduction > p.NecessaryReduction || p.NecessaryReduction > 1:
		return fmt.Errorf("restart: need 0 < SufficientReduction <= NecessaryReduction <= 1, got %v, %v", p.SufficientReduction, p.NecessaryReduction)
	case p.PrimalWeightUpdateSmoothing < 0 || p.PrimalWeightUpdateSmoothing > 1:
		return fmt.Errorf("restart: PrimalWeightUpdateSmoothing must be in [0, 1], got %v", p.PrimalWeightUpdateSmoothing)
	}
	return nil
}
