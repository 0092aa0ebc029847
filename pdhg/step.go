package pdhg

import (
	"math"

	"github.com/firstorderlp/pdlp/problem"
	"gonum.org/v1/gonum/floats"
)

// trialResult summarizes one candidate step's movement/interaction
// quantities without committing it to state; the line search decides
// whether to keep or discard it.
type trialResult struct {
	movement    float64
	interaction float64
	kktPasses   float64
}

// trialStep computes a candidate (Δx, ΔAx, Δy) for step size tau and
// primal weight omega against the iterate currently in st.Current*,
// writing the result into st.Delta* (overwriting whatever a previous,
// rejected trial left there). It does not touch st.Current* or st.Avg*.
//
// extrapolation is the θ coefficient in the dual update; callers pass 1.0
// for the standard reflected update.
func trialStep(p *problem.QuadraticProgrammingProblem, st *State, tau, omega, extrapolation float64) trialResult {
	n := p.NumVariables
	grad := st.scratchGrad
	for j := 0; j < n; j++ {
		g := p.ObjectiveVector[j] - st.CurrentDualProduct[j]
		if st.IsQP() {
			g += st.CurrentPrimalObjProduct[j]
		}
		grad[j] = g
	}

	step := tau / omega
	for j := 0; j < n; j++ {
		candidate := st.CurrentPrimal[j] - step*grad[j]
		candidate = clamp(candidate, p.VariableLowerBound[j], p.VariableUpperBound[j])
		st.DeltaPrimal[j] = candidate - st.CurrentPrimal[j]
	}

	p.ConstraintMatrix.MulVec(st.DeltaPrimalProduct, st.DeltaPrimal)
	passes := 1.0

	var quadTerm float64
	if st.IsQP() {
		p.ObjectiveMatrix.MulVec(st.DeltaPrimalObjProduct, st.DeltaPrimal)
		passes++
		quadTerm = floats.Dot(st.DeltaPrimal, st.DeltaPrimalObjProduct) / 2
	}

	dualStep := tau * omega
	m := p.NumConstraints
	for i := 0; i < m; i++ {
		base := p.RightHandSide[i] - (st.CurrentPrimalProduct[i] + (1+extrapolation)*st.DeltaPrimalProduct[i])
		candidate := st.CurrentDual[i] + dualStep*base
		if !p.EqualitiesMask[i] {
			candidate = math.Max(candidate, 0)
		}
		st.DeltaDual[i] = candidate - st.CurrentDual[i]
	}

	movement := 0.5*omega*floats.Dot(st.DeltaPrimal, st.DeltaPrimal) + 0.5/omega*floats.Dot(st.DeltaDual, st.DeltaDual)
	interaction := math.Abs(floats.Dot(st.DeltaDual, st.DeltaPrimalProduct)) + quadTerm

	return trialResult{movement: movement, interaction: interaction, kktPasses: passes}
}

// commitStep folds an accepted trial's Delta* buffers into Current*,
// including the Aᵀ·Δy update needed to keep CurrentDualProduct in sync;
// that extra mat-vec is the one pass §4.2 doesn't name explicitly because
// it happens once per accepted step, not once per trial.
func commitStep(p *problem.QuadraticProgrammingProblem, st *State) float64 {
	for j := range st.CurrentPrimal {
		st.CurrentPrimal[j] += st.DeltaPrimal[j]
	}
	for i := range st.CurrentPrimalProduct {
		st.CurrentPrimalProduct[i] += st.DeltaPrimalProduct[i]
	}
	for i := range st.CurrentDual {
		st.CurrentDual[i] += st.DeltaDual[i]
	}
	if st.IsQP() {
		for j := range st.CurrentPrimalObjProduct {
			st.CurrentPrimalObjProduct[j] += st.DeltaPrimalObjProduct[j]
		}
	}

	p.ConstraintMatrix.MulVecTrans(st.DeltaDualProduct, st.DeltaDual)
	for j := range st.CurrentDualProduct {
		st.CurrentDualProduct[j] += st.DeltaDualProduct[j]
	}
	return 1.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

