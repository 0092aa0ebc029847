package problem

import (
	"math"

	"github.com/firstorderlp/pdlp/sparse"
	"gonum.org/v1/gonum/floats"
)

// Cache holds norms of the scaled right-hand side and objective vector that
// are reused as denominators in every relative-residual computation, so
// they are computed once per solve rather than once per termination check.
type Cache struct {
	L2NormRightHandSide   float64
	LInfNormRightHandSide float64
	L2NormObjective       float64
	LInfNormObjective     float64
}

// NewCache computes the four norms from a (scaled) problem.
func NewCache(p *QuadraticProgrammingProblem) *Cache {
	return &Cache{
		L2NormRightHandSide:   floats.Norm(p.RightHandSide, 2),
		LInfNormRightHandSide: sparse.InfNorm(p.RightHandSide),
		L2NormObjective:       floats.Norm(p.ObjectiveVector, 2),
		LInfNormObjective:     sparse.InfNorm(p.ObjectiveVector),
	}
}

// EpsRatio returns epsAbs/epsRel, clamped to +Inf when epsRel is zero (so a
// caller that wants a purely absolute criterion can set epsRel = 0 without
// triggering a division by zero).
func EpsRatio(epsAbs, epsRel float64) float64 {
	if epsRel == 0 {
		return math.Inf(1)
	}
	return epsAbs / epsRel
}
