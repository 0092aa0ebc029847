package convergence

import (
	"math"

	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/sparse"
	"gonum.org/v1/gonum/floats"
)

// Evaluator owns the float scratch buffers needed to compute
// ConvergenceInformation and InfeasibilityInformation, so they are not
// reallocated on every termination check. The finite-bound masks returned
// by IsFiniteLowerBound/IsFiniteUpperBound are still allocated per call.
type Evaluator struct {
	lowerViolation, upperViolation      []float64
	constraintViolation                 []float64
	reducedCosts, reducedCostsViolation []float64
	grad                                []float64
	dualConeViolation                   []float64
	scaledRay, scaledRayProduct         []float64
	zerosM                              []float64
}

// NewEvaluator allocates an Evaluator for a problem with n variables and m
// constraints.
func NewEvaluator(n, m int) *Evaluator {
	return &Evaluator{
		lowerViolation:        make([]float64, n),
		upperViolation:        make([]float64, n),
		constraintViolation:   make([]float64, m),
		reducedCosts:          make([]float64, n),
		reducedCostsViolation: make([]float64, n),
		grad:                  make([]float64, n),
		dualConeViolation:     make([]float64, m),
		scaledRay:             make([]float64, n),
		scaledRayProduct:      make([]float64, m),
		zerosM:                make([]float64, m),
	}
}

// combinedInfNorm returns the L∞ norm of the (virtual) concatenation of
// parts, exploiting max(‖a‖∞, ‖b‖∞, ...) == ‖concat(a,b,...)‖∞ to avoid
// actually allocating a concatenated slice.
func combinedInfNorm(parts ...[]float64) float64 {
	m := 0.0
	for _, p := range parts {
		if n := sparse.InfNorm(p); n > m {
			m = n
		}
	}
	return m
}

// combinedL2Norm returns the L2 norm of the (virtual) concatenation of
// parts, via ‖concat(a,b,...)‖2 == sqrt(‖a‖2² + ‖b‖2² + ...).
func combinedL2Norm(parts ...[]float64) float64 {
	sumSq := 0.0
	for _, p := range parts {
		n := floats.Norm(p, 2)
		sumSq += n * n
	}
	return math.Sqrt(sumSq)
}

// Evaluate computes ConvergenceInformation at the given (unscaled) iterate:
// both norms of the primal/dual residuals, their relative forms, and the
// primal/dual/corrected-dual objective values.
func (e *Evaluator) Evaluate(p *problem.QuadraticProgrammingProblem, cache *problem.Cache, primal, dual, primalProduct, dualProduct, primalObjProduct []float64, epsRatio float64, pointType PointType) ConvergenceInformation {
	for j := range primal {
		e.lowerViolation[j] = math.Max(p.VariableLowerBound[j]-primal[j], 0)
		e.upperViolation[j] = math.Max(primal[j]-p.VariableUpperBound[j], 0)
	}
	ConstraintViolation(e.constraintViolation, p.RightHandSide, primalProduct, p.EqualitiesMask)

	primalObjective := p.ObjectiveConstant + floats.Dot(p.ObjectiveVector, primal)
	var qpCorrection float64
	if !p.IsLP {
		primalObjective += 0.5 * floats.Dot(primal, primalObjProduct)
		qpCorrection = -0.5 * floats.Dot(primal, primalObjProduct)
	}

	linfPrimalResidual := combinedInfNorm(e.constraintViolation, e.lowerViolation, e.upperViolation)
	l2PrimalResidual := combinedL2Norm(e.constraintViolation, e.lowerViolation, e.upperViolation)

	for j := range e.grad {
		e.grad[j] = p.ObjectiveVector[j] - dualProduct[j]
		if !p.IsLP {
			e.grad[j] += primalObjProduct[j]
		}
	}
	ReducedCosts(e.reducedCosts, e.reducedCostsViolation, e.grad, p.IsFiniteLowerBound(), p.IsFiniteUpperBound())
	dualObjective := DualObjective(p.VariableLowerBound, p.VariableUpperBound, e.reducedCosts, p.RightHandSide, dual, p.ObjectiveConstant, qpCorrection)

	DualConeViolation(e.dualConeViolation, dual, p.EqualitiesMask)
	linfDualResidual := combinedInfNorm(e.dualConeViolation, e.reducedCostsViolation)
	l2DualResidual := combinedL2Norm(e.dualConeViolation, e.reducedCostsViolation)

	relativeLInfPrimalResidual := linfPrimalResidual / (epsRatio + cache.LInfNormRightHandSide)
	relativeL2PrimalResidual := l2PrimalResidual / (epsRatio + cache.L2NormRightHandSide)
	relativeLInfDualResidual := linfDualResidual / (epsRatio + cache.LInfNormObjective)
	relativeL2DualResidual := l2DualResidual / (epsRatio + cache.L2NormObjective)

	correctedDualObjective := dualObjective
	if linfDualResidual != 0 {
		correctedDualObjective = math.Inf(-1)
	}

	gap := math.Abs(primalObjective - dualObjective)
	relativeGap := gap / (epsRatio + math.Abs(primalObjective) + math.Abs(dualObjective))

	return ConvergenceInformation{
		PointType: pointType,

		PrimalObjective:        primalObjective,
		DualObjective:          dualObjective,
		CorrectedDualObjective: correctedDualObjective,

		LInfPrimalResidual: linfPrimalResidual,
		L2PrimalResidual:   l2PrimalResidual,
		LInfDualResidual:   linfDualResidual,
		L2DualResidual:     l2DualResidual,

		RelativeLInfPrimalResidual: relativeLInfPrimalResidual,
		RelativeL2PrimalResidual:   relativeL2PrimalResidual,
		RelativeLInfDualResidual:   relativeLInfDualResidual,
		RelativeL2DualResidual:     relativeL2DualResidual,

		RelativeOptimalityGap: relativeGap,

		LInfPrimalVariable: sparse.InfNorm(primal),
		L2PrimalVariable:   floats.Norm(primal, 2),
		LInfDualVariable:   sparse.InfNorm(dual),
		L2DualVariable:     floats.Norm(dual, 2),
	}
}

// EvaluateInfeasibility computes InfeasibilityInformation from a candidate
// unbounded primal/dual ray, following compute_infeasibility_information.
// primalRay/dualRay need not be pre-normalized; the primal ray is scaled to
// unit L∞ norm internally (left unchanged if it is exactly zero).
func (e *Evaluator) EvaluateInfeasibility(p *problem.QuadraticProgrammingProblem, primalRay, dualRay, primalRayProduct, dualRayProduct []float64, pointType PointType) InfeasibilityInformation {
	rayNorm := sparse.InfNorm(primalRay)
	if rayNorm == 0 {
		copy(e.scaledRay, primalRay)
		copy(e.scaledRayProduct, primalRayProduct)
	} else {
		for j, v := range primalRay {
			e.scaledRay[j] = v / rayNorm
		}
		for i, v := range primalRayProduct {
			e.scaledRayProduct[i] = v / rayNorm
		}
	}

	finiteLB, finiteUB := p.IsFiniteLowerBound(), p.IsFiniteUpperBound()
	for j := range e.scaledRay {
		lb, ub := math.Inf(-1), math.Inf(1)
		if finiteLB[j] {
			lb = 0
		}
		if finiteUB[j] {
			ub = 0
		}
		e.lowerViolation[j] = math.Max(lb-e.scaledRay[j], 0)
		e.upperViolation[j] = math.Max(e.scaledRay[j]-ub, 0)
	}
	ConstraintViolation(e.constraintViolation, e.zerosM, e.scaledRayProduct, p.EqualitiesMask)

	maxPrimalRayInfeasibility := combinedInfNorm(e.constraintViolation, e.lowerViolation, e.upperViolation)
	primalRayLinearObjective := floats.Dot(p.ObjectiveVector, e.scaledRay)

	for j, v := range dualRayProduct {
		e.grad[j] = -v
	}
	ReducedCosts(e.reducedCosts, e.reducedCostsViolation, e.grad, finiteLB, finiteUB)
	dualObjective := DualObjective(p.VariableLowerBound, p.VariableUpperBound, e.reducedCosts, p.RightHandSide, dualRay, p.ObjectiveConstant, 0)

	DualConeViolation(e.dualConeViolation, dualRay, p.EqualitiesMask)
	linfDualResidual := combinedInfNorm(e.dualConeViolation, e.reducedCostsViolation)

	scalingFactor := math.Max(sparse.InfNorm(e.scaledRay), sparse.InfNorm(e.reducedCosts))

	var maxDualRayInfeasibility, dualRayObjective float64
	if scalingFactor != 0 {
		maxDualRayInfeasibility = linfDualResidual / scalingFactor
		dualRayObjective = dualObjective / scalingFactor
	}

	return InfeasibilityInformation{
		PointType: pointType,

		MaxPrimalRayInfeasibility: maxPrimalRayInfeasibility,
		PrimalRayLinearObjective:  primalRayLinearObjective,
		MaxDualRayInfeasibility:   maxDualRayInfeasibility,
		DualRayObjective:          dualRayObjective,
	}
}
