package convergence

import (
	"math"
	"testing"

	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/sparse"
	"gonum.org/v1/gonum/floats/scalar"
)

func simpleLP() *problem.QuadraticProgrammingProblem {
	// min x + y s.t. x + y >= 1, x,y in [0,10].
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

func TestEvaluateZeroResidualAtOptimum(t *testing.T) {
	p := simpleLP()
	cache := problem.NewCache(p)
	e := NewEvaluator(2, 1)

	primal := []float64{1, 0}
	dual := []float64{1}
	primalProduct := []float64{1} // A·primal
	dualProduct := []float64{1, 1} // Aᵀ·dual

	info := e.Evaluate(p, cache, primal, dual, primalProduct, dualProduct, nil, 0, AverageIterate)

	if info.LInfPrimalResidual != 0 {
		t.Errorf("LInfPrimalResidual = %v, want 0", info.LInfPrimalResidual)
	}
	if info.LInfDualResidual != 0 {
		t.Errorf("LInfDualResidual = %v, want 0", info.LInfDualResidual)
	}
	if !scalar.EqualWithinAbsOrRel(info.PrimalObjective, 1.0, 1e-9, 1e-9) {
		t.Errorf("PrimalObjective = %v, want 1", info.PrimalObjective)
	}
	if !scalar.EqualWithinAbsOrRel(info.DualObjective, 1.0, 1e-9, 1e-9) {
		t.Errorf("DualObjective = %v, want 1", info.DualObjective)
	}
	if info.CorrectedDualObjective != info.DualObjective {
		t.Errorf("CorrectedDualObjective = %v, want DualObjective %v since the dual residual is zero", info.CorrectedDualObjective, info.DualObjective)
	}
	if info.PointType != AverageIterate {
		t.Errorf("PointType = %v, want AverageIterate", info.PointType)
	}
}

func TestEvaluateCorrectedDualObjectiveIsNegInfWhenResidualNonzero(t *testing.T) {
	p := simpleLP()
	cache := problem.NewCache(p)
	e := NewEvaluator(2, 1)

	// Give the second variable no upper bound, so its reduced cost can't
	// always be absorbed by a finite bound. At dual = 5 the gradient
	// [1,1]-[5,5] = [-4,-4] is negative in both components: the first
	// variable absorbs it into its finite upper bound, but the second has
	// no upper bound to absorb into, leaving a nonzero reduced-cost violation.
	p.VariableUpperBound = []float64{10, math.Inf(1)}
	primal := []float64{1, 0}
	dual := []float64{5}
	primalProduct := []float64{1}
	dualProduct := []float64{5, 5}

	info := e.Evaluate(p, cache, primal, dual, primalProduct, dualProduct, nil, 0, CurrentIterate)

	if info.LInfDualResidual == 0 {
		t.Fatalf("expected a nonzero dual residual for this non-stationary point")
	}
	if !math.IsInf(info.CorrectedDualObjective, -1) {
		t.Errorf("CorrectedDualObjective = %v, want -Inf", info.CorrectedDualObjective)
	}
}

func TestEvaluateInfeasibilityZeroOnFeasibleRay(t *testing.T) {
	p := simpleLP()
	p.VariableUpperBound = []float64{math.Inf(1), math.Inf(1)}
	e := NewEvaluator(2, 1)

	primalRay := []float64{1, 1}
	primalRayProduct := []float64{2} // A·ray
	dualRay := []float64{0}
	dualRayProduct := []float64{0, 0}

	info := e.EvaluateInfeasibility(p, primalRay, dualRay, primalRayProduct, dualRayProduct, AverageIterate)

	if info.MaxPrimalRayInfeasibility != 0 {
		t.Errorf("MaxPrimalRayInfeasibility = %v, want 0 for a feasible unbounded direction", info.MaxPrimalRayInfeasibility)
	}
	want := 2.0 // dot(c, scaledRay) with scaledRay == ray since ‖ray‖∞ == 1
	if !scalar.EqualWithinAbsOrRel(info.PrimalRayLinearObjective, want, 1e-9, 1e-9) {
		t.Errorf("PrimalRayLinearObjective = %v, want %v", info.PrimalRayLinearObjective, want)
	}
}

func TestEvaluateInfeasibilityNonzeroWhenBoundedVariableMoves(t *testing.T) {
	p := simpleLP() // both variables have a finite upper bound of 10
	e := NewEvaluator(2, 1)

	primalRay := []float64{1, 0}
	primalRayProduct := []float64{1}
	dualRay := []float64{0}
	dualRayProduct := []float64{0, 0}

	info := e.EvaluateInfeasibility(p, primalRay, dualRay, primalRayProduct, dualRayProduct, AverageIterate)

	if info.MaxPrimalRayInfeasibility <= 0 {
		t.Errorf("MaxPrimalRayInfeasibility = %v, want > 0: a bounded variable cannot move along an unbounded ray", info.MaxPrimalRayInfeasibility)
	}
}

func TestEvaluateInfeasibilityHandlesZeroRay(t *testing.T) {
	p := simpleLP()
	e := NewEvaluator(2, 1)

	zero2 := []float64{0, 0}
	zero1 := []float64{0}

	info := e.EvaluateInfeasibility(p, zero2, zero1, zero1, zero2, AverageIterate)

	if info.MaxPrimalRayInfeasibility != 0 || info.MaxDualRayInfeasibility != 0 || info.DualRayObjective != 0 {
		t.Errorf("expected an all-zero InfeasibilityInformation for a zero ray, got %+v", info)
	}
}
