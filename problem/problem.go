// Package problem defines the immutable input to the solver — the
// quadratic program itself — plus the two derived value types the rest of
// the pipeline passes around: the rescaled problem produced by
// preconditioning, and the cached norms used in relative-residual formulas.
package problem

import (
	"fmt"
	"math"

	"github.com/firstorderlp/pdlp/sparse"
)

// QuadraticProgrammingProblem is the immutable input to the solver:
//
//	minimize   c₀ + cᵀx + ½xᵀQx
//	subject to Aᵢx = rhsᵢ       for i in equality rows
//	           Aᵢx ≥ rhsᵢ       for i in inequality rows
//	           lb ≤ x ≤ ub
//
// Q is nil (and IsLP true) for a pure linear program.
type QuadraticProgrammingProblem struct {
	NumVariables   int
	NumConstraints int

	ObjectiveVector   []float64
	ObjectiveConstant float64
	ObjectiveMatrix   *sparse.Matrix // symmetric PSD, nil if IsLP
	IsLP              bool

	ConstraintMatrix *sparse.Matrix // Rows = NumConstraints, Cols = NumVariables

	RightHandSide []float64

	VariableLowerBound []float64 // may contain math.Inf(-1)
	VariableUpperBound []float64 // may contain math.Inf(+1)

	EqualitiesMask []bool // length NumConstraints; true = equality row
}

// InequalitiesMask returns ¬EqualitiesMask, computed on demand rather than
// stored redundantly.
func (p *QuadraticProgrammingProblem) InequalitiesMask() []bool {
	out := make([]bool, len(p.EqualitiesMask))
	for i, eq := range p.EqualitiesMask {
		out[i] = !eq
	}
	return out
}

// IsFiniteLowerBound and IsFiniteUpperBound report, per variable, whether
// the corresponding bound is finite. The infeasibility routine in package
// convergence branches on these explicitly instead of dividing by a
// boolean-as-float mask (spec Open Question, see DESIGN.md).
func (p *QuadraticProgrammingProblem) IsFiniteLowerBound() []bool {
	return isFinite(p.VariableLowerBound)
}

func (p *QuadraticProgrammingProblem) IsFiniteUpperBound() []bool {
	return isFinite(p.VariableUpperBound)
}

func isFinite(v []float64) []bool {
	out := make([]bool, len(v))
	for i, x := range v {
		out[i] = !math.IsInf(x, 0)
	}
	return out
}

// Validate checks the structural invariants a caller-constructed problem
// must satisfy. Solve calls it once, before preconditioning; a malformed
// problem is a caller programming error and is reported as an error, not a
// panic, since problem construction is explicitly the caller's
// responsibility — rejected before the solver ever sees it, not partway
// through a solve.
func (p *QuadraticProgrammingProblem) Validate() error {
	n, m := p.NumVariables, p.NumConstraints
	switch {
	case len(p.ObjectiveVector) != n:
		return fmt.Errorf("problem: objective vector has length %d, want %d", len(p.ObjectiveVector), n)
	case len(p.RightHandSide) != m:
		return fmt.Errorf("problem: right_hand_side has length %d, want %d", len(p.RightHandSide), m)
	case len(p.VariableLowerBound) != n || len(p.VariableUpperBound) != n:
		return fmt.Errorf("problem: variable bounds must have length %d", n)
	case len(p.EqualitiesMask) != m:
		return fmt.Errorf("problem: equalities_mask has length %d, want %d", len(p.EqualitiesMask), m)
	case p.ConstraintMatrix == nil:
		return fmt.Errorf("problem: constraint matrix is required")
	case p.ConstraintMatrix.Rows != m || p.ConstraintMatrix.Cols != n:
		return fmt.Errorf("problem: constraint matrix is %dx%d, want %dx%d", p.ConstraintMatrix.Rows, p.ConstraintMatrix.Cols, m, n)
	case !p.IsLP && p.ObjectiveMatrix == nil:
		return fmt.Errorf("problem: IsLP is false but ObjectiveMatrix is nil")
	case !p.IsLP && (p.ObjectiveMatrix.Rows != n || p.ObjectiveMatrix.Cols != n):
		return fmt.Errorf("problem: objective matrix is %dx%d, want %dx%d", p.ObjectiveMatrix.Rows, p.ObjectiveMatrix.Cols, n, n)
	}
	for i := 0; i < n; i++ {
		if p.VariableLowerBound[i] > p.VariableUpperBound[i] {
			return fmt.Errorf("problem: variable %d has lower bound %v above upper bound %v", i, p.VariableLowerBound[i], p.VariableUpperBound[i])
		}
		if math.IsNaN(p.ObjectiveVector[i]) || math.IsNaN(p.VariableLowerBound[i]) || math.IsNaN(p.VariableUpperBound[i]) {
			return fmt.Errorf("problem: variable %d has a NaN coefficient or bound", i)
		}
	}
	for i := 0; i < m; i++ {
		if math.IsNaN(p.RightHandSide[i]) {
			return fmt.Errorf("problem: right_hand_side[%d] is NaN", i)
		}
	}
	return nil
}
