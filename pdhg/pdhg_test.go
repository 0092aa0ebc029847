package pdhg

import (
	"testing"

	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/sparse"
	"gonum.org/v1/gonum/floats/scalar"
)

func simpleLP() *problem.QuadraticProgrammingProblem {
	// min x + y s.t. x + y >= 1, x,y >= 0.
	A := sparse.NewFromTriplets(1, 2, []sparse.Entry{
		{Row: 0, Col: 0, Value: 1},
		{Row: 0, Col: 1, Value: 1},
	})
	return &problem.QuadraticProgrammingProblem{
		NumVariables:       2,
		NumConstraints:     1,
		ObjectiveVector:    []float64{1, 1},
		IsLP:               true,
		ConstraintMatrix:   A,
		RightHandSide:      []float64{1},
		VariableLowerBound: []float64{0, 0},
		VariableUpperBound: []float64{10, 10},
		EqualitiesMask:     []bool{false},
	}
}

func defaultLineSearchParams() LineSearchParams {
	return LineSearchParams{
		ReductionExponent: 0.3,
		GrowthExponent:    0.6,
		LimitCoef:         0.5,
		MaxTrials:         60,
	}
}

func TestCommitStepMaintainsProductInvariant(t *testing.T) {
	p := simpleLP()
	st := NewState(p.NumVariables, p.NumConstraints, false)
	st.StepSize = 1.0
	st.PrimalWeight = 1.0

	_, ok := AdaptiveStep(p, st, defaultLineSearchParams(), 0)
	if !ok {
		t.Fatalf("AdaptiveStep rejected every trial")
	}

	gotAx := make([]float64, p.NumConstraints)
	p.ConstraintMatrix.MulVec(gotAx, st.CurrentPrimal)
	for i := range gotAx {
		if !scalar.EqualWithinAbsOrRel(gotAx[i], st.CurrentPrimalProduct[i], 1e-9, 1e-9) {
			t.Errorf("CurrentPrimalProduct[%d] = %v, want A·CurrentPrimal = %v", i, st.CurrentPrimalProduct[i], gotAx[i])
		}
	}

	gotAty := make([]float64, p.NumVariables)
	p.ConstraintMatrix.MulVecTrans(gotAty, st.CurrentDual)
	for j := range gotAty {
		if !scalar.EqualWithinAbsOrRel(gotAty[j], st.CurrentDualProduct[j], 1e-9, 1e-9) {
			t.Errorf("CurrentDualProduct[%d] = %v, want Aᵀ·CurrentDual = %v", j, st.CurrentDualProduct[j], gotAty[j])
		}
	}
}

func TestUpdateAverageIsWeightedMean(t *testing.T) {
	p := simpleLP()
	st := NewState(p.NumVariables, p.NumConstraints, false)
	st.StepSize = 0.5
	st.PrimalWeight = 1.0
	st.AnchorHere()

	params := defaultLineSearchParams()
	tau1, ok := AdaptiveStep(p, st, params, 0)
	if !ok {
		t.Fatalf("first AdaptiveStep rejected")
	}
	x1 := append([]float64(nil), st.CurrentPrimal...)
	UpdateAverage(st, tau1)

	tau2, ok := AdaptiveStep(p, st, params, 1)
	if !ok {
		t.Fatalf("second AdaptiveStep rejected")
	}
	x2 := append([]float64(nil), st.CurrentPrimal...)
	UpdateAverage(st, tau2)

	if st.SolutionsCount != 2 {
		t.Errorf("SolutionsCount = %d, want 2", st.SolutionsCount)
	}
	wantWeightsSum := tau1 + tau2
	if !scalar.EqualWithinAbsOrRel(st.WeightsSum, wantWeightsSum, 1e-9, 1e-9) {
		t.Errorf("WeightsSum = %v, want %v", st.WeightsSum, wantWeightsSum)
	}
	for j := range st.AvgPrimal {
		want := (tau1*x1[j] + tau2*x2[j]) / wantWeightsSum
		if !scalar.EqualWithinAbsOrRel(st.AvgPrimal[j], want, 1e-9, 1e-9) {
			t.Errorf("AvgPrimal[%d] = %v, want %v", j, st.AvgPrimal[j], want)
		}
	}
}

func TestAnchorHereResetsEpoch(t *testing.T) {
	p := simpleLP()
	st := NewState(p.NumVariables, p.NumConstraints, false)
	st.StepSize = 0.5
	st.PrimalWeight = 1.0

	tau, ok := AdaptiveStep(p, st, defaultLineSearchParams(), 0)
	if !ok {
		t.Fatalf("AdaptiveStep rejected")
	}
	UpdateAverage(st, tau)

	st.AnchorHere()

	if st.WeightsSum != 0 || st.SolutionsCount != 0 {
		t.Errorf("AnchorHere left WeightsSum=%v SolutionsCount=%v, want 0, 0", st.WeightsSum, st.SolutionsCount)
	}
	for _, v := range st.AvgPrimal {
		if v != 0 {
			t.Errorf("AnchorHere left a nonzero AvgPrimal entry: %v", v)
		}
	}
	for i, v := range st.InitialPrimal {
		if v != st.CurrentPrimal[i] {
			t.Errorf("InitialPrimal[%d] = %v, want CurrentPrimal %v", i, v, st.CurrentPrimal[i])
		}
	}
}

func TestAdaptiveStepCountsRejectedTrials(t *testing.T) {
	p := simpleLP()
	// Widen the lower bound so the primal step actually moves (at the
	// default lower bound of 0 the step clamps Δx to zero, the interaction
	// term is zero, and any step size is accepted on the first trial).
	p.VariableLowerBound = []float64{-10, -10}
	st := NewState(p.NumVariables, p.NumConstraints, false)
	// An absurdly large initial step forces the line search to shrink tau
	// at least once before the movement/interaction test accepts a trial.
	st.StepSize = 1e6
	st.PrimalWeight = 1.0

	_, ok := AdaptiveStep(p, st, defaultLineSearchParams(), 0)
	if !ok {
		t.Fatalf("AdaptiveStep rejected every trial")
	}
	if st.CumulativeRejectedSteps == 0 {
		t.Errorf("CumulativeRejectedSteps = 0, want at least one rejection from the oversized initial step")
	}
	if st.NumStepsTried != st.CumulativeRejectedSteps+1 {
		t.Errorf("NumStepsTried = %d, want CumulativeRejectedSteps+1 = %d", st.NumStepsTried, st.CumulativeRejectedSteps+1)
	}
}

func TestHalpernUpdateRoundTripsThroughReconstruct(t *testing.T) {
	p := simpleLP()
	// Widen the lower bound so the first primal step actually moves
	// (otherwise the projected gradient step clamps Δx to zero and the
	// round trip below would be checking an all-zero vector).
	p.VariableLowerBound = []float64{-10, -10}
	st := NewState(p.NumVariables, p.NumConstraints, false)
	st.StepSize = 0.5
	st.PrimalWeight = 1.0
	st.AnchorHere()

	tau, ok := AdaptiveStep(p, st, defaultLineSearchParams(), 0)
	if !ok {
		t.Fatalf("AdaptiveStep rejected")
	}
	plainNext := append([]float64(nil), st.CurrentPrimal...)

	UpdateHalpern(st, tau)
	ReconstructPreHalpern(st)

	for j := range plainNext {
		if !scalar.EqualWithinAbsOrRel(st.CurrentPrimal[j], plainNext[j], 1e-9, 1e-9) {
			t.Errorf("ReconstructPreHalpern()[%d] = %v, want %v", j, st.CurrentPrimal[j], plainNext[j])
		}
	}
}
