package pdhg

import (
	"math"

	"github.com/firstorderlp/pdlp/problem"
)

// LineSearchParams controls the adaptive step-size schedule, mirroring
// solver.Config's adaptive_step_size_* fields.
type LineSearchParams struct {
	ReductionExponent float64
	GrowthExponent    float64
	LimitCoef         float64
	MaxTrials         int // bounded retry loop, e.g. capped at 60
}

// AdaptiveStep runs the bounded line-search retry loop: try
// st.StepSize, shrink and retry on rejection, accept and propose the next
// trial's initial step size on acceptance. It commits the accepted step
// into st.Current* and returns the accepted tau. iterationCount is the
// solver's total accepted-iteration counter (0 on the first iteration);
// the growth/reduction formulas use count = iterationCount + 1, the
// 1-based number of the iteration being taken, so the reduction factor
// 1 − (count+1)^−exponent is positive from the first iteration and the
// schedule decays over the whole solve rather than per retry.
func AdaptiveStep(p *problem.QuadraticProgrammingProblem, st *State, params LineSearchParams, iterationCount int) (tau float64, ok bool) {
	tau = st.StepSize
	count := float64(iterationCount + 1)

	for trial := 0; trial < params.MaxTrials; trial++ {
		result := trialStep(p, st, tau, st.PrimalWeight, 1.0)
		st.NumStepsTried++
		st.CumulativeKKTPasses += result.kktPasses

		if math.IsNaN(result.movement) || math.IsNaN(result.interaction) || math.IsInf(result.movement, 0) {
			st.NumericalError = true
			return tau, false
		}

		accepted := result.interaction == 0 || tau*tau*result.interaction <= result.movement
		if accepted {
			st.CumulativeKKTPasses += commitStep(p, st)
			grow := (1 + math.Pow(count+1, -params.GrowthExponent)) * tau
			reduce := scaledLimit(result.movement, result.interaction, params.ReductionExponent, count)
			st.StepSize = math.Min(grow, reduce)
			return tau, true
		}

		st.CumulativeRejectedSteps++
		reduce := scaledLimit(result.movement, result.interaction, params.ReductionExponent, count)
		tau = math.Min(reduce, tau*params.LimitCoef)
		if tau <= 0 || math.IsNaN(tau) {
			st.NumericalError = true
			return tau, false
		}
	}
	st.NumericalError = true
	return tau, false
}

// scaledLimit computes (1 − (count+1)^−exponent) · (movement/interaction),
// treating a zero interaction as an unconstrained (infinite) limit rather
// than letting a literal 0 · ∞ collapse to NaN — which happens exactly
// when count == 0, since (0+1)^−exponent == 1 and (1−1) · ∞ is
// indeterminate in IEEE 754 even though the intended limit is ∞.
func scaledLimit(movement, interaction, exponent, count float64) float64 {
	if interaction == 0 {
		return math.Inf(1)
	}
	limit := movement / interaction
	factor := 1 - math.Pow(count+1, -exponent)
	return factor * limit
}

// FixedStep takes a single, unconditionally accepted PDHG step at
// st.StepSize — the adaptive_step_size = false path through the driver.
func FixedStep(p *problem.QuadraticProgrammingProblem, st *State) (tau float64, ok bool) {
	tau = st.StepSize
	result := trialStep(p, st, tau, st.PrimalWeight, 1.0)
	st.NumStepsTried++
	st.CumulativeKKTPasses += result.kktPasses

	if math.IsNaN(result.movement) || math.IsNaN(result.interaction) {
		st.NumericalError = true
		return tau, false
	}
	st.CumulativeKKTPasses += commitStep(p, st)
	return tau, true
}
