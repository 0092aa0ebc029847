package solver

import (
	"fmt"
	"math"
	"time"

	"github.com/firstorderlp/pdlp/convergence"
	"github.com/firstorderlp/pdlp/pdhg"
	"github.com/firstorderlp/pdlp/precondition"
	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/restart"
	"github.com/firstorderlp/pdlp/sparse"
	"github.com/firstorderlp/pdlp/solverlog"
)

// Solve runs the driver loop against p and returns the unscaled result.
// p is left unmodified; preconditioning works on a private copy.
func Solve(p *problem.QuadraticProgrammingProblem, cfg Config) (*SaddlePointOutput, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("solver: invalid problem: %w", err)
	}

	log := cfg.Logger
	sp := precondition.Rescale(p, cfg.Preconditioning)
	qp := sp.Scaled
	n, m := qp.NumVariables, qp.NumConstraints

	st := pdhg.NewState(n, m, !qp.IsLP)
	if cfg.ScaleInvariantInitialPrimalWeight {
		st.PrimalWeight = restart.SelectInitialPrimalWeight(qp, 1.0, 1.0, cfg.PrimalImportance)
	} else {
		st.PrimalWeight = cfg.PrimalImportance
	}
	st.StepSize = estimateStepSize(qp)
	st.InitialStepSize = st.StepSize
	st.AnchorHere()

	ctrl := restart.NewController(n, m)
	last := restart.NewInfo(n, m, !qp.IsLP)

	originalCache := problem.NewCache(p)
	evaluator := convergence.NewEvaluator(n, m)
	scratch := newDriverScratch(n, m, !qp.IsLP)

	lsParams := pdhg.LineSearchParams{
		ReductionExponent: cfg.StepSizeReductionExp,
		GrowthExponent:    cfg.StepSizeGrowthExp,
		LimitCoef:         cfg.StepSizeLimitCoef,
		MaxTrials:         60,
	}

	log.Info("solve starting",
		solverlog.Int("variables", n), solverlog.Int("constraints", m),
		solverlog.Float64("initial_step_size", st.StepSize),
		solverlog.Float64("initial_primal_weight", st.PrimalWeight))

	start := time.Now()
	for iter := 0; ; iter++ {
		if iter%cfg.TerminationEvaluationFrequency == 0 {
			if status, out := checkTermination(p, sp, st, &cfg, originalCache, evaluator, scratch, iter); status != Unspecified {
				log.Info("solve finished", solverlog.String("status", status.String()), solverlog.Int("iterations", iter))
				return out, nil
			}
		}
		if cfg.TimeLimit > 0 && time.Since(start) > cfg.TimeLimit {
			return terminateNow(p, sp, st, scratch, iter, TimeLimit), nil
		}
		if st.CumulativeKKTPasses > cfg.KKTMatrixPassLimit {
			return terminateNow(p, sp, st, scratch, iter, KKTMatrixPassLimit), nil
		}
		if iter >= cfg.IterationLimit {
			return terminateNow(p, sp, st, scratch, iter, IterationLimit), nil
		}

		runRestartCheck(qp, st, ctrl, cfg.Restart, last, cfg.Variant, scratch)

		var tau float64
		var ok bool
		if cfg.AdaptiveStepSize {
			tau, ok = pdhg.AdaptiveStep(qp, st, lsParams, st.NumIterations)
		} else {
			tau, ok = pdhg.FixedStep(qp, st)
		}
		if !ok || st.NumericalError {
			log.Warn("numerical error in step", solverlog.Int("iteration", iter))
			return terminateNow(p, sp, st, scratch, iter, NumericalError), nil
		}
		st.NumIterations++

		switch cfg.Variant {
		case RaPDHG:
			pdhg.UpdateAverage(st, tau)
		case R2HPDHG:
			pdhg.UpdateHalpern(st, tau)
		}

		if iter%cfg.DisplayFrequency == 0 {
			log.Debug("iteration", solverlog.Int("iteration", iter),
				solverlog.Float64("step_size", st.StepSize),
				solverlog.Float64("primal_weight", st.PrimalWeight),
				solverlog.Float64("kkt_passes", st.CumulativeKKTPasses))
		}
	}
}

// driverScratch holds the buffers Solve needs for unscaling iterates and
// constructing infeasibility rays without allocating inside the loop.
type driverScratch struct {
	primal, dual, primalProduct, dualProduct, primalObjProduct []float64
	rayPrimal, rayDual, rayPrimalProduct, rayDualProduct       []float64
	halpernBackup, halpernBackupDual                           []float64
	halpernBackupPP, halpernBackupDP                           []float64
}

func newDriverScratch(n, m int, isQP bool) *driverScratch {
	s := &driverScratch{
		primal:             make([]float64, n),
		dual:               make([]float64, m),
		primalProduct:      make([]float64, m),
		dualProduct:        make([]float64, n),
		rayPrimal:          make([]float64, n),
		rayDual:            make([]float64, m),
		rayPrimalProduct:   make([]float64, m),
		rayDualProduct:     make([]float64, n),
		halpernBackup:      make([]float64, n),
		halpernBackupDual:  make([]float64, m),
		halpernBackupPP:    make([]float64, m),
		halpernBackupDP:    make([]float64, n),
	}
	if isQP {
		s.primalObjProduct = make([]float64, n)
	}
	return s
}

// estimateStepSize computes a cheap initial step size 1/‖A‖₂, bounding the
// operator 2-norm by the submultiplicative estimate ‖A‖₂ ≤ √(‖A‖₁·‖A‖∞)
// (max column L1 norm times max row L1 norm). This is not a value found in
// the retrieved reference sources — see DESIGN.md's Open Question entry on
// the initial step size for the reasoning.
func estimateStepSize(p *problem.QuadraticProgrammingProblem) float64 {
	maxRowL1 := maxOf(p.ConstraintMatrix.RowNorms(sparse.L1))
	maxColL1 := maxOf(p.ConstraintMatrix.ColNorms(sparse.L1))
	estimate := math.Sqrt(maxRowL1 * maxColL1)
	if estimate <= 0 {
		return 1.0
	}
	return 1.0 / estimate
}

func maxOf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

// runRestartCheck applies the restart controller to st. For r2HPDHG, the
// Halpern iterate is reconstructed to its pre-Halpern form first (per
// halpern.go's ReconstructPreHalpern contract: "the restart controller
// calls this before re-anchoring"), since the Controller's KKT residual is
// only meaningful on a plain PDHG iterate; the reconstructed value is also
// copied into the state's unused Avg* buffers so the KKT-greedy candidate
// comparison against the (otherwise zero) average is a no-op. If no
// restart fires, the Halpern iterate is restored.
func runRestartCheck(qp *problem.QuadraticProgrammingProblem, st *pdhg.State, ctrl *restart.Controller, params restart.Parameters, last *restart.Info, variant Variant, scratch *driverScratch) {
	if variant != R2HPDHG || st.SolutionsCount == 0 {
		ctrl.Evaluate(qp, st, params, last)
		return
	}

	copy(scratch.halpernBackup, st.CurrentPrimal)
	copy(scratch.halpernBackupDual, st.CurrentDual)
	copy(scratch.halpernBackupPP, st.CurrentPrimalProduct)
	copy(scratch.halpernBackupDP, st.CurrentDualProduct)

	pdhg.ReconstructPreHalpern(st)
	copy(st.AvgPrimal, st.CurrentPrimal)
	copy(st.AvgDual, st.CurrentDual)
	copy(st.AvgPrimalProduct, st.CurrentPrimalProduct)
	copy(st.AvgDualProduct, st.CurrentDualProduct)
	if st.IsQP() {
		copy(st.AvgPrimalObjProduct, st.CurrentPrimalObjProduct)
	}

	restarted := ctrl.Evaluate(qp, st, params, last)
	if !restarted {
		copy(st.CurrentPrimal, scratch.halpernBackup)
		copy(st.CurrentDual, scratch.halpernBackupDual)
		copy(st.CurrentPrimalProduct, scratch.halpernBackupPP)
		copy(st.CurrentDualProduct, scratch.halpernBackupDP)
	}
}

// checkTermination evaluates IterationStats on the representative iterate
// (the weighted average for raPDHG, the Halpern iterate for r2HPDHG),
// tests it for optimality, and failing that builds and tests an
// infeasibility ray from the anchor-to-current displacement.
func checkTermination(p *problem.QuadraticProgrammingProblem, sp *problem.ScaledProblem, st *pdhg.State, cfg *Config, cache *problem.Cache, evaluator *convergence.Evaluator, scratch *driverScratch, iter int) (TerminationStatus, *SaddlePointOutput) {
	primal, dual, primalProduct, dualProduct, primalObjProduct := st.CurrentPrimal, st.CurrentDual, st.CurrentPrimalProduct, st.CurrentDualProduct, st.CurrentPrimalObjProduct
	pointType := convergence.CurrentIterate
	if cfg.Variant == RaPDHG {
		primal, dual, primalProduct, dualProduct, primalObjProduct = st.AvgPrimal, st.AvgDual, st.AvgPrimalProduct, st.AvgDualProduct, st.AvgPrimalObjProduct
		pointType = convergence.AverageIterate
	}

	unscaleIterate(sp, scratch, primal, dual, primalProduct, dualProduct, primalObjProduct, st.IsQP())
	epsRatio := cfg.EpsRatio()
	info := evaluator.Evaluate(p, cache, scratch.primal, scratch.dual, scratch.primalProduct, scratch.dualProduct, scratch.primalObjProduct, epsRatio, pointType)

	stats := convergence.IterationStats{
		IterationNumber:     iter,
		CumulativeKKTPasses: st.CumulativeKKTPasses,
		Convergence:         info,
		MethodSpecificStats: map[string]float64{
			"step_size":                 st.StepSize,
			"primal_weight":             st.PrimalWeight,
			"cumulative_rejected_steps": float64(st.CumulativeRejectedSteps),
		},
	}
	cfg.Logger.Debug("iteration stats",
		solverlog.Int("iteration", stats.IterationNumber),
		solverlog.String("point_type", info.PointType.String()),
		solverlog.Float64("kkt_passes", stats.CumulativeKKTPasses),
		solverlog.Float64("rejected_steps", stats.MethodSpecificStats["cumulative_rejected_steps"]),
		solverlog.Float64("l2_primal_residual", info.L2PrimalResidual),
		solverlog.Float64("l2_dual_residual", info.L2DualResidual))

	if nonFinite(info) {
		return NumericalError, buildOutput(scratch.primal, scratch.dual, NumericalError, iter, info.PrimalObjective)
	}
	if isOptimal(info, *cfg) {
		return Optimal, buildOutput(scratch.primal, scratch.dual, Optimal, iter, info.PrimalObjective)
	}

	for i := range st.CurrentPrimal {
		scratch.rayPrimal[i] = st.CurrentPrimal[i] - st.InitialPrimal[i]
	}
	for i := range st.CurrentDual {
		scratch.rayDual[i] = st.CurrentDual[i] - st.InitialDual[i]
	}
	for i := range st.CurrentPrimalProduct {
		scratch.rayPrimalProduct[i] = st.CurrentPrimalProduct[i] - st.InitialPrimalProduct[i]
	}
	for i := range st.CurrentDualProduct {
		scratch.rayDualProduct[i] = st.CurrentDualProduct[i] - st.InitialDualProduct[i]
	}
	sp.UnscalePrimal(scratch.rayPrimal, scratch.rayPrimal)
	sp.UnscaleDual(scratch.rayDual, scratch.rayDual)
	sp.UnscalePrimalProduct(scratch.rayPrimalProduct, scratch.rayPrimalProduct)
	sp.UnscaleDualProduct(scratch.rayDualProduct, scratch.rayDualProduct)

	infeas := evaluator.EvaluateInfeasibility(p, scratch.rayPrimal, scratch.rayDual, scratch.rayPrimalProduct, scratch.rayDualProduct, pointType)

	if infeas.MaxDualRayInfeasibility <= cfg.EpsDualInfeasible && infeas.DualRayObjective > 0 {
		return PrimalInfeasible, &SaddlePointOutput{Primal: scratch.rayPrimal, Dual: scratch.rayDual, TerminationStatus: PrimalInfeasible, IterationCount: iter}
	}
	if infeas.MaxPrimalRayInfeasibility <= cfg.EpsPrimalInfeasible && infeas.PrimalRayLinearObjective < 0 {
		return DualInfeasible, &SaddlePointOutput{Primal: scratch.rayPrimal, Dual: scratch.rayDual, TerminationStatus: DualInfeasible, IterationCount: iter}
	}

	return Unspecified, nil
}

func unscaleIterate(sp *problem.ScaledProblem, scratch *driverScratch, primal, dual, primalProduct, dualProduct, primalObjProduct []float64, isQP bool) {
	sp.UnscalePrimal(scratch.primal, primal)
	sp.UnscaleDual(scratch.dual, dual)
	sp.UnscalePrimalProduct(scratch.primalProduct, primalProduct)
	sp.UnscaleDualProduct(scratch.dualProduct, dualProduct)
	if isQP {
		// Q' = D·Q·D with D = diag(1/VariableRescaling), so Q'x' = (Qx)/VariableRescaling:
		// the same elementwise transform UnscaleDualProduct already applies.
		sp.UnscaleDualProduct(scratch.primalObjProduct, primalObjProduct)
	}
}

func nonFinite(info convergence.ConvergenceInformation) bool {
	vals := []float64{
		info.PrimalObjective, info.DualObjective,
		info.LInfPrimalResidual, info.L2PrimalResidual, info.LInfDualResidual, info.L2DualResidual,
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func isOptimal(info convergence.ConvergenceInformation, cfg Config) bool {
	var relPrimal, relDual, absPrimal, absDual float64
	if cfg.OptimalityNorm == NormLInf {
		relPrimal, relDual = info.RelativeLInfPrimalResidual, info.RelativeLInfDualResidual
		absPrimal, absDual = info.LInfPrimalResidual, info.LInfDualResidual
	} else {
		relPrimal, relDual = info.RelativeL2PrimalResidual, info.RelativeL2DualResidual
		absPrimal, absDual = info.L2PrimalResidual, info.L2DualResidual
	}
	return relPrimal <= cfg.EpsRel && relDual <= cfg.EpsRel && info.RelativeOptimalityGap <= cfg.EpsRel &&
		absPrimal <= cfg.EpsAbs && absDual <= cfg.EpsAbs
}

func buildOutput(primal, dual []float64, status TerminationStatus, iter int, objective float64) *SaddlePointOutput {
	out := &SaddlePointOutput{
		Primal:            append([]float64(nil), primal...),
		Dual:              append([]float64(nil), dual...),
		TerminationStatus: status,
		IterationCount:    iter,
	}
	if status == Optimal {
		out.ObjectiveValue = objective
	}
	return out
}

// terminateNow builds a SaddlePointOutput from the current (unscaled)
// iterate for the non-convergence-test termination paths (time/iteration/
// KKT-pass limits, numerical error during a step).
func terminateNow(p *problem.QuadraticProgrammingProblem, sp *problem.ScaledProblem, st *pdhg.State, scratch *driverScratch, iter int, status TerminationStatus) *SaddlePointOutput {
	sp.UnscalePrimal(scratch.primal, st.CurrentPrimal)
	sp.UnscaleDual(scratch.dual, st.CurrentDual)
	return buildOutput(scratch.primal, scratch.dual, status, iter, 0)
}
