// Package precondition implements the preconditioning pipeline: Ruiz
// equilibration, optional L2 rescaling, and Pock-Chambolle rescaling. Each
// pass computes a diagonal row/column rescaling from the current matrix and
// folds it into the problem and into the running VariableRescaling /
// ConstraintRescaling vectors of the resulting problem.ScaledProblem.
package precondition

import (
	"math"

	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/sparse"
)

// Options controls which preconditioning passes Rescale runs.
type Options struct {
	LInfRuizIterations int
	L2NormRescaling    bool
	PockChambolleAlpha float64 // in [0, 2]; 0 disables the Pock-Chambolle pass
}

// Rescale runs the preconditioning pipeline over p and returns the derived
// ScaledProblem. p itself is not mutated; Rescale works on a copy of its
// mutable fields.
func Rescale(p *problem.QuadraticProgrammingProblem, opts Options) *problem.ScaledProblem {
	scaled := cloneProblem(p)
	n, m := scaled.NumVariables, scaled.NumConstraints
	varResc := ones(n)
	conResc := ones(m)

	for i := 0; i < opts.LInfRuizIterations; i++ {
		r := scaled.ConstraintMatrix.RowNorms(sparse.LInf)
		c := scaled.ConstraintMatrix.ColNorms(sparse.LInf)
		applyPass(scaled, varResc, conResc, r, c)
	}

	if opts.L2NormRescaling {
		r := scaled.ConstraintMatrix.RowNorms(sparse.L2)
		c := scaled.ConstraintMatrix.ColNorms(sparse.L2)
		applyPass(scaled, varResc, conResc, r, c)
	}

	if opts.PockChambolleAlpha > 0 {
		alpha := opts.PockChambolleAlpha
		r := scaled.ConstraintMatrix.RowPowerSums(2 - alpha)
		c := scaled.ConstraintMatrix.ColPowerSums(alpha)
		applyPass(scaled, varResc, conResc, r, c)
	}

	return &problem.ScaledProblem{
		Scaled:              scaled,
		VariableRescaling:   varResc,
		ConstraintRescaling: conResc,
	}
}

// applyPass folds one diagonal rescaling round (row factors r, column
// factors c, both pre-sqrt and possibly zero) into scaled, varResc, and
// conResc. See DESIGN.md for the derivation showing ConstraintRescaling
// accumulates 1/r while VariableRescaling accumulates c.
func applyPass(scaled *problem.QuadraticProgrammingProblem, varResc, conResc, rowFactor, colFactor []float64) {
	r := sqrtNonzero(rowFactor)
	c := sqrtNonzero(colFactor)

	invR := invert(r)
	invC := invert(c)

	scaled.ConstraintMatrix.ScaleRows(invR)
	scaled.ConstraintMatrix.ScaleCols(invC)

	for i := range scaled.RightHandSide {
		scaled.RightHandSide[i] /= r[i]
	}
	for j := range scaled.ObjectiveVector {
		scaled.ObjectiveVector[j] /= c[j]
	}
	for j := range scaled.VariableLowerBound {
		scaled.VariableLowerBound[j] = scaleBound(scaled.VariableLowerBound[j], c[j])
		scaled.VariableUpperBound[j] = scaleBound(scaled.VariableUpperBound[j], c[j])
	}
	if !scaled.IsLP && scaled.ObjectiveMatrix != nil {
		scaled.ObjectiveMatrix.ScaleRows(invC)
		scaled.ObjectiveMatrix.ScaleCols(invC)
	}

	for i := range conResc {
		conResc[i] /= r[i]
	}
	for j := range varResc {
		varResc[j] *= c[j]
	}
}

func scaleBound(bound, c float64) float64 {
	if math.IsInf(bound, 0) {
		return bound
	}
	return bound * c
}

func sqrtNonzero(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if x == 0 {
			out[i] = 1
			continue
		}
		out[i] = math.Sqrt(x)
	}
	return out
}

func invert(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = 1 / x
	}
	return out
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
