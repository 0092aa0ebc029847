package problem

// ScaledProblem wraps a rescaled QuadraticProgrammingProblem together with
// the per-variable and per-constraint rescaling vectors that map back to
// the original problem.
//
// Invariant: the scaled constraint matrix A' equals diag(ConstraintRescaling)
// · A · diag(1/VariableRescaling); the original primal solution equals the
// scaled primal solution divided elementwise by VariableRescaling, and the
// original dual solution equals the scaled dual solution multiplied
// elementwise by ConstraintRescaling.
type ScaledProblem struct {
	Scaled *QuadraticProgrammingProblem

	VariableRescaling   []float64 // length n, strictly positive
	ConstraintRescaling []float64 // length m, strictly positive
}

// UnscalePrimal maps a primal iterate of the scaled problem back to the
// original variable space.
func (s *ScaledProblem) UnscalePrimal(dst, scaledX []float64) {
	for i, x := range scaledX {
		dst[i] = x / s.VariableRescaling[i]
	}
}

// UnscaleDual maps a dual iterate of the scaled problem back to the
// original constraint space, i.e. multiplies elementwise by
// ConstraintRescaling (the dual counterpart of UnscaleDualProduct, not of
// UnscalePrimal: ConstraintRescaling accumulates the inverse row factors
// while VariableRescaling accumulates the column factors themselves, so
// the scaled dual y' equals y divided by ConstraintRescaling).
func (s *ScaledProblem) UnscaleDual(dst, scaledY []float64) {
	for i, y := range scaledY {
		dst[i] = y * s.ConstraintRescaling[i]
	}
}

// UnscalePrimalProduct maps A'·x' (scaled) back to an equivalent of A·x
// (original), i.e. divides elementwise by ConstraintRescaling.
func (s *ScaledProblem) UnscalePrimalProduct(dst, scaledAx []float64) {
	for i, v := range scaledAx {
		dst[i] = v / s.ConstraintRescaling[i]
	}
}

// UnscaleDualProduct maps Aᵀ'·y' (scaled) back to an equivalent of Aᵀ·y
// (original), i.e. multiplies elementwise by VariableRescaling.
func (s *ScaledProblem) UnscaleDualProduct(dst, scaledAty []float64) {
	for i, v := range scaledAty {
		dst[i] = v * s.VariableRescaling[i]
	}
}

// Identity returns a ScaledProblem whose rescaling vectors are all ones,
// i.e. preconditioning is a no-op. Useful for tests and for callers who
// want to disable preconditioning entirely.
func Identity(p *QuadraticProgrammingProblem) *ScaledProblem {
	ones := func(n int) []float64 {
		v := make([]float64, n)
		for i := range v {
			v[i] = 1
		}
		return v
	}
	return &ScaledProblem{
		Scaled:              p,
		VariableRescaling:   ones(p.NumVariables),
		ConstraintRescaling: ones(p.NumConstraints),
	}
}
