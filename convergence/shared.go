// Package convergence computes KKT residuals, the primal/dual objective,
// and ray-based infeasibility certificates from a solver iterate. Its
// exported functions operate on unscaled data; callers are responsible for
// applying problem.ScaledProblem's unscaling before calling in.
package convergence

// ReducedCosts computes, in place, the reduced costs and reduced-cost
// violation implied by primalGradient = c − Aᵀy (+ Qx): for each variable,
// the gradient is attributed to whichever finite bound can absorb it
// (positive gradient to the lower bound, negative to the upper bound);
// whatever remains is the violation. dst and violationDst must have the
// same length as primalGradient.
func ReducedCosts(dst, violationDst, primalGradient []float64, finiteLowerBound, finiteUpperBound []bool) {
	for j, g := range primalGradient {
		var rc float64
		switch {
		case g > 0 && finiteLowerBound[j]:
			rc = g
		case g < 0 && finiteUpperBound[j]:
			rc = g
		}
		dst[j] = rc
		violationDst[j] = g - rc
	}
}

// DualObjective computes c₀ + ⟨rhs, dual⟩ + Σⱼ boundContribution(rcⱼ),
// where boundContribution is lb·rc for rc > 0, ub·rc for rc < 0, and 0
// otherwise, plus qpCorrection (the caller passes −½⟨x, Qx⟩ for a QP and
// 0 for an LP).
func DualObjective(lowerBound, upperBound, reducedCosts, rightHandSide, dual []float64, objectiveConstant, qpCorrection float64) float64 {
	sum := objectiveConstant + qpCorrection
	for i := range rightHandSide {
		sum += rightHandSide[i] * dual[i]
	}
	for j, rc := range reducedCosts {
		switch {
		case rc > 0:
			sum += lowerBound[j] * rc
		case rc < 0:
			sum += upperBound[j] * rc
		}
	}
	return sum
}

// DualConeViolation computes, for each constraint row, max(−y_i, 0) for
// inequality rows and 0 for equality rows.
func DualConeViolation(dst, dual []float64, equalitiesMask []bool) {
	for i, y := range dual {
		if equalitiesMask[i] {
			dst[i] = 0
			continue
		}
		if y < 0 {
			dst[i] = -y
		} else {
			dst[i] = 0
		}
	}
}

// ConstraintViolation computes, per row, rhs − Ax for equality rows and
// max(rhs − Ax, 0) for inequality rows.
func ConstraintViolation(dst, rightHandSide, primalProduct []float64, equalitiesMask []bool) {
	for i := range dst {
		v := rightHandSide[i] - primalProduct[i]
		if !equalitiesMask[i] && v < 0 {
			v = 0
		}
		dst[i] = v
	}
}
