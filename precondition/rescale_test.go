package precondition

import (
	"math"
	"testing"

	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/sparse"
	"gonum.org/v1/gonum/floats/scalar"
)

func asymmetricLP() *problem.QuadraticProgrammingProblem {
	// min 2x + y s.t. 10x + y >= 5, x,y in [0, 8]; deliberately badly
	// scaled (row 0 has entries 10 and 1) so Ruiz actually does something.
	A := sparse.NewFromTriplets(1, 2, []sparse.Entry{
		{Row: 0, Col: 0, Value: 10},
		{Row: 0, Col: 1, Value: 1},
	})
	return &problem.QuadraticProgrammingProblem{
		NumVariables:       2,
		NumConstraints:     1,
		ObjectiveVector:    []float64{2, 1},
		IsLP:               true,
		ConstraintMatrix:   A,
		RightHandSide:      []float64{5},
		VariableLowerBound: []float64{0, 0},
		VariableUpperBound: []float64{8, 8},
		EqualitiesMask:     []bool{false},
	}
}

// primalObjective recomputes cᵀx + c0 directly against the given problem,
// independent of any solver machinery.
func primalObjective(p *problem.QuadraticProgrammingProblem, x []float64) float64 {
	sum := p.ObjectiveConstant
	for i, c := range p.ObjectiveVector {
		sum += c * x[i]
	}
	return sum
}

func TestRescaleRoundTripsObjectiveValue(t *testing.T) {
	p := asymmetricLP()
	sp := Rescale(p, Options{LInfRuizIterations: 10})

	x := []float64{0.3, 2.0}
	xScaled := make([]float64, 2)
	for i := range x {
		xScaled[i] = x[i] * sp.VariableRescaling[i]
	}

	origObj := primalObjective(p, x)
	scaledObj := primalObjective(sp.Scaled, xScaled)
	if !scalar.EqualWithinAbsOrRel(origObj, scaledObj, 1e-9, 1e-9) {
		t.Errorf("objective not invariant under rescaling: orig=%v scaled=%v", origObj, scaledObj)
	}

	unscaled := make([]float64, 2)
	sp.UnscalePrimal(unscaled, xScaled)
	for i := range x {
		if !scalar.EqualWithinAbsOrRel(unscaled[i], x[i], 1e-9, 1e-9) {
			t.Errorf("UnscalePrimal()[%d] = %v, want %v", i, unscaled[i], x[i])
		}
	}
}

func TestRescaleConstraintRoundTrips(t *testing.T) {
	p := asymmetricLP()
	sp := Rescale(p, Options{LInfRuizIterations: 10, L2NormRescaling: true, PockChambolleAlpha: 1})

	x := []float64{0.3, 2.0}
	xScaled := make([]float64, 2)
	for i := range x {
		xScaled[i] = x[i] * sp.VariableRescaling[i]
	}
	origAx := make([]float64, 1)
	p.ConstraintMatrix.MulVec(origAx, x)
	scaledAx := make([]float64, 1)
	sp.Scaled.ConstraintMatrix.MulVec(scaledAx, xScaled)

	recovered := make([]float64, 1)
	sp.UnscalePrimalProduct(recovered, scaledAx)
	if !scalar.EqualWithinAbsOrRel(recovered[0], origAx[0], 1e-9, 1e-9) {
		t.Errorf("UnscalePrimalProduct() = %v, want %v", recovered[0], origAx[0])
	}
}

func TestRescaleLeavesOriginalProblemUntouched(t *testing.T) {
	p := asymmetricLP()
	origRow0 := append([]float64(nil), p.ConstraintMatrix.Data...)
	_ = Rescale(p, Options{LInfRuizIterations: 10})
	for i, v := range p.ConstraintMatrix.Data {
		if v != origRow0[i] {
			t.Errorf("Rescale mutated the caller's problem at Data[%d]", i)
		}
	}
}

func TestRescaleRespectsInfiniteBounds(t *testing.T) {
	p := asymmetricLP()
	p.VariableUpperBound[0] = math.Inf(1)
	sp := Rescale(p, Options{LInfRuizIterations: 5})
	if !math.IsInf(sp.Scaled.VariableUpperBound[0], 1) {
		t.Errorf("infinite upper bound became finite after rescaling: %v", sp.Scaled.VariableUpperBound[0])
	}
}
