package restart

import (
	"math"

	"github.com/firstorderlp/pdlp/convergence"
	"github.com/firstorderlp/pdlp/pdhg"
	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/sparse"
	"gonum.org/v1/gonum/floats"
)

// Controller runs the restart tests and owns the float scratch buffers the
// KKT residual computation needs, so that an ADAPTIVE_KKT scheme — which
// evaluates this every iteration, not just at termination checks — reuses
// them instead of reallocating them. The finite-bound masks returned by
// IsFiniteLowerBound/IsFiniteUpperBound are still allocated on every
// residual evaluation.
type Controller struct {
	lowerViolation, upperViolation      []float64
	constraintViolation                 []float64
	reducedCosts, reducedCostsViolation []float64
	grad                                []float64
}

// NewController allocates a Controller's scratch buffers for a problem
// with n variables and m constraints.
func NewController(n, m int) *Controller {
	return &Controller{
		lowerViolation:        make([]float64, n),
		upperViolation:        make([]float64, n),
		constraintViolation:   make([]float64, m),
		reducedCosts:          make([]float64, n),
		reducedCostsViolation: make([]float64, n),
		grad:                  make([]float64, n),
	}
}

// weightedKKTResidual computes the weighted KKT residual used by the
// adaptive restart trigger: L∞ primal/dual residual norms weighted by the
// primal weight, combined
// with the absolute duality gap, using the absolute form for an LP and
// the relative (rhs/primal-product-normalized) form for a QP.
func (c *Controller) weightedKKTResidual(p *problem.QuadraticProgrammingProblem, primal, dual, primalProduct, dualProduct, primalObjProduct []float64, primalWeight float64) float64 {
	for j := range primal {
		c.lowerViolation[j] = math.Max(p.VariableLowerBound[j]-primal[j], 0)
		c.upperViolation[j] = math.Max(primal[j]-p.VariableUpperBound[j], 0)
	}
	convergence.ConstraintViolation(c.constraintViolation, p.RightHandSide, primalProduct, p.EqualitiesMask)

	primalResidualNorm := maxInfNorm3(c.constraintViolation, c.lowerViolation, c.upperViolation)
	rhsOrProductNorm := math.Max(sparse.InfNorm(p.RightHandSide), sparse.InfNorm(primalProduct))
	relativePrimalResidualNorm := primalResidualNorm / (1 + rhsOrProductNorm)

	primalObjective := p.ObjectiveConstant + floats.Dot(p.ObjectiveVector, primal)
	var qpCorrection float64
	if !p.IsLP {
		primalObjective += 0.5 * floats.Dot(primal, primalObjProduct)
		qpCorrection = -0.5 * floats.Dot(primal, primalObjProduct)
	}

	for j := range c.grad {
		c.grad[j] = p.ObjectiveVector[j] - dualProduct[j]
		if !p.IsLP {
			c.grad[j] += primalObjProduct[j]
		}
	}
	convergence.ReducedCosts(c.reducedCosts, c.reducedCostsViolation, c.grad, p.IsFiniteLowerBound(), p.IsFiniteUpperBound())
	dualObjective := convergence.DualObjective(p.VariableLowerBound, p.VariableUpperBound, c.reducedCosts, p.RightHandSide, dual, p.ObjectiveConstant, qpCorrection)

	dualResidualNorm := sparse.InfNorm(c.reducedCostsViolation)
	for i, y := range dual {
		if !p.EqualitiesMask[i] && y < 0 {
			if v := -y; v > dualResidualNorm {
				dualResidualNorm = v
			}
		}
	}
	relativeDualResidualNorm := dualResidualNorm / (1 + rhsOrProductNorm)

	absoluteGap := math.Abs(primalObjective - dualObjective)
	relativeGap := absoluteGap / (1 + math.Max(math.Abs(primalObjective), math.Abs(dualObjective)))

	weighted := math.Max(math.Max(primalWeight*primalResidualNorm, dualResidualNorm/primalWeight), absoluteGap)
	relativeWeighted := math.Max(math.Max(primalWeight*relativePrimalResidualNorm, relativeDualResidualNorm/primalWeight), relativeGap)

	if p.IsLP {
		return weighted
	}
	return relativeWeighted
}

func maxInfNorm3(a, b, c []float64) float64 {
	return math.Max(sparse.InfNorm(a), math.Max(sparse.InfNorm(b), sparse.InfNorm(c)))
}

// FixedPointResidual is the r2HPDHG restart residual: the weighted
// movement of the last accepted step plus its primal-dual interaction.
func FixedPointResidual(primalDiff, dualDiff, primalDiffProduct []float64, primalNormParams, dualNormParams float64) float64 {
	movement := 0.5*floats.Dot(primalDiff, primalDiff)*primalNormParams + 0.5*floats.Dot(dualDiff, dualDiff)*dualNormParams
	interaction := math.Abs(floats.Dot(primalDiffProduct, dualDiff))
	return movement + interaction
}

// adaptiveRestartTest implements the ρ-based trigger. Evaluate applies it
// to the weighted KKT residual for both solver variants; no caller applies
// it to FixedPointResidual.
func adaptiveRestartTest(candidateResidual, lastResidual float64, params Parameters, lastReductionRatio float64) (doRestart bool, reductionRatio float64) {
	ratio := 1.0
	if lastResidual > machineEps {
		ratio = candidateResidual / lastResidual
	}
	doRestart = ratio < params.NecessaryReduction && (ratio < params.SufficientReduction || ratio > lastReductionRatio)
	return doRestart, ratio
}

const machineEps = 2.220446049250313e-16

// topLevelShouldRestart is the top-level gate in front of the adaptive
// trigger: never on the first iterate, always once the restart length
// grows disproportionate to the total iteration count, and a fixed
// frequency or no-restart override otherwise.
func topLevelShouldRestart(solutionsCount, numIterations int, params Parameters, adaptiveTriggered bool) bool {
	if solutionsCount == 0 {
		return false
	}
	if float64(solutionsCount) >= params.ArtificialRestartThreshold*float64(numIterations) {
		return true
	}
	if params.Scheme == FixedFrequency && solutionsCount >= params.RestartFrequencyIfFixed {
		return true
	}
	return params.Scheme == AdaptiveKKT && adaptiveTriggered
}

// Evaluate runs the raPDHG restart test against st and, if a restart
// fires, resets st to the chosen candidate (current or average) and
// advances last in place. It returns whether a restart occurred.
func (c *Controller) Evaluate(p *problem.QuadraticProgrammingProblem, st *pdhg.State, params Parameters, last *Info) bool {
	if st.SolutionsCount == 0 {
		return false
	}

	currentKKT := c.weightedKKTResidual(p, st.CurrentPrimal, st.CurrentDual, st.CurrentPrimalProduct, st.CurrentDualProduct, st.CurrentPrimalObjProduct, st.PrimalWeight)
	avgKKT := c.weightedKKTResidual(p, st.AvgPrimal, st.AvgDual, st.AvgPrimalProduct, st.AvgDualProduct, st.AvgPrimalObjProduct, st.PrimalWeight)

	resetToAverage := true
	if params.ToCurrentMetric == KKTGreedy {
		resetToAverage = currentKKT >= avgKKT
	}
	candidateResidual := currentKKT
	if resetToAverage {
		candidateResidual = avgKKT
	}

	lastResidual := c.weightedKKTResidual(p, last.PrimalSolution, last.DualSolution, last.PrimalProduct, last.DualProduct, last.PrimalObjProduct, st.PrimalWeight)
	adaptiveTriggered, reductionRatio := adaptiveRestartTest(candidateResidual, lastResidual, params, last.ReductionRatioLastTrial)

	if !topLevelShouldRestart(st.SolutionsCount, st.NumIterations, params, adaptiveTriggered) {
		return false
	}

	c.performRestart(st, resetToAverage, last, reductionRatio, params)
	return true
}

// EvaluateAgainst applies the same restart test to a candidate probe
// state (e.g. a primal-only or dual-only surrogate built for feasibility
// polishing) rather than the main loop's iterate. If the probe's own
// restart criteria trigger, it is restarted in place exactly as Evaluate
// would restart the main state, and the caller is expected to adopt probe
// in its place.
func (c *Controller) EvaluateAgainst(p *problem.QuadraticProgrammingProblem, probe *pdhg.State, params Parameters, last *Info) bool {
	return c.Evaluate(p, probe, params, last)
}

func (c *Controller) performRestart(st *pdhg.State, resetToAverage bool, last *Info, reductionRatio float64, params Parameters) {
	restartLength := st.SolutionsCount

	primalNormParams := st.PrimalWeight / st.StepSize
	dualNormParams := 1 / (st.StepSize * st.PrimalWeight)
	primalDistance := weightedDistance(st.AvgPrimal, last.PrimalSolution, primalNormParams) / math.Sqrt(st.PrimalWeight)
	dualDistance := weightedDistance(st.AvgDual, last.DualSolution, dualNormParams) * math.Sqrt(st.PrimalWeight)

	var source, sourceDual, sourcePP, sourceDP, sourcePOP []float64
	if resetToAverage {
		source, sourceDual, sourcePP, sourceDP, sourcePOP = st.AvgPrimal, st.AvgDual, st.AvgPrimalProduct, st.AvgDualProduct, st.AvgPrimalObjProduct
	} else {
		source, sourceDual, sourcePP, sourceDP, sourcePOP = st.CurrentPrimal, st.CurrentDual, st.CurrentPrimalProduct, st.CurrentDualProduct, st.CurrentPrimalObjProduct
	}

	copy(last.PrimalSolution, source)
	copy(last.DualSolution, sourceDual)
	copy(last.PrimalProduct, sourcePP)
	copy(last.DualProduct, sourceDP)
	if last.PrimalObjProduct != nil {
		copy(last.PrimalObjProduct, sourcePOP)
	}
	copy(last.PrimalDiff, st.DeltaPrimal)
	copy(last.DualDiff, st.DeltaDual)
	copy(last.PrimalDiffProduct, st.DeltaPrimalProduct)
	last.LastRestartLength = restartLength
	last.PrimalDistanceMovedLastRestartPeriod = primalDistance
	last.DualDistanceMovedLastRestartPeriod = dualDistance
	last.ReductionRatioLastTrial = reductionRatio

	copy(st.CurrentPrimal, source)
	copy(st.CurrentDual, sourceDual)
	copy(st.CurrentPrimalProduct, sourcePP)
	copy(st.CurrentDualProduct, sourceDP)
	if st.CurrentPrimalObjProduct != nil {
		copy(st.CurrentPrimalObjProduct, sourcePOP)
	}

	st.AnchorHere()
	st.PrimalWeight = UpdatePrimalWeight(last, st.PrimalWeight, params.PrimalWeightUpdateSmoothing)
}

func weightedDistance(a, b []float64, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	sumSq := 0.0
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	if sumSq == 0 {
		return 0
	}
	return math.Sqrt(weight) * math.Sqrt(sumSq)
}

// UpdatePrimalWeight implements compute_new_primal_weight: a log-domain
// smoothed update toward the ratio of dual to primal distance moved over
// the epoch, left unchanged if either distance is too small to trust.
func UpdatePrimalWeight(last *Info, primalWeight, smoothing float64) float64 {
	dp, dd := last.PrimalDistanceMovedLastRestartPeriod, last.DualDistanceMovedLastRestartPeriod
	if dp <= machineEps || dd <= machineEps {
		return primalWeight
	}
	return math.Exp(smoothing*math.Log(dd/dp) + (1-smoothing)*math.Log(primalWeight))
}

// SelectInitialPrimalWeight implements select_initial_primal_weight: a
// scale-invariant ratio of weighted objective to weighted right-hand-side
// norms, falling back to primalImportance when either is degenerate.
func SelectInitialPrimalWeight(p *problem.QuadraticProgrammingProblem, primalNormParams, dualNormParams, primalImportance float64) float64 {
	rhsNorm := weightedNorm(p.RightHandSide, dualNormParams)
	objNorm := weightedNorm(p.ObjectiveVector, primalNormParams)
	if objNorm > 0 && rhsNorm > 0 {
		return primalImportance * (objNorm / rhsNorm)
	}
	return primalImportance
}

func weightedNorm(v []float64, weight float64) float64 {
	return math.Sqrt(weight) * floats.Norm(v, 2)
}
