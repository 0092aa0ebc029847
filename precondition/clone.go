package precondition

import (
	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/sparse"
)

// cloneProblem makes a deep copy of the pieces of p that a rescaling pass
// mutates in place, leaving the caller's original problem untouched.
func cloneProblem(p *problem.QuadraticProgrammingProblem) *problem.QuadraticProgrammingProblem {
	out := *p
	out.ObjectiveVector = append([]float64(nil), p.ObjectiveVector...)
	out.RightHandSide = append([]float64(nil), p.RightHandSide...)
	out.VariableLowerBound = append([]float64(nil), p.VariableLowerBound...)
	out.VariableUpperBound = append([]float64(nil), p.VariableUpperBound...)
	out.EqualitiesMask = append([]bool(nil), p.EqualitiesMask...)
	out.ConstraintMatrix = cloneMatrix(p.ConstraintMatrix)
	if !p.IsLP && p.ObjectiveMatrix != nil {
		out.ObjectiveMatrix = cloneMatrix(p.ObjectiveMatrix)
	}
	return &out
}

func cloneMatrix(m *sparse.Matrix) *sparse.Matrix {
	clone := *m
	clone.RowPtr = append([]int(nil), m.RowPtr...)
	clone.ColIdx = append([]int(nil), m.ColIdx...)
	clone.Data = append([]float64(nil), m.Data...)
	clone.TRowPtr = append([]int(nil), m.TRowPtr...)
	clone.TColIdx = append([]int(nil), m.TColIdx...)
	clone.TData = append([]float64(nil), m.TData...)
	return &clone
}
