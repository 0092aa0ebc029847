// Package solver wires the preconditioner, the PDHG step kernel, the
// restart controller, and the convergence evaluator into the driver loop:
// initialize, then iterate
// step → (periodic termination check + restart) → step until a
// non-UNSPECIFIED termination status is reached.
package solver

import (
	"fmt"
	"time"

	"github.com/firstorderlp/pdlp/precondition"
	"github.com/firstorderlp/pdlp/problem"
	"github.com/firstorderlp/pdlp/restart"
	"github.com/firstorderlp/pdlp/solverlog"
)

// Variant selects which accumulation/restart regime the driver runs.
type Variant int

const (
	// RaPDHG runs the restarted averaging variant: a weighted average of
	// accepted iterates is maintained and is itself a restart candidate.
	RaPDHG Variant = iota
	// R2HPDHG runs the Halpern-accelerated variant: no averaging buffer,
	// restart anchors are reconstructed pre-Halpern iterates.
	R2HPDHG
)

// Config collects every solver tunable: tolerances, limits, cadence,
// preconditioning, step size, restart, and weighting. Zero-value fields are
// not valid defaults; use Default() and override from there.
type Config struct {
	Variant Variant

	// Tolerances.
	EpsAbs              float64
	EpsRel              float64
	EpsPrimalInfeasible float64
	EpsDualInfeasible   float64

	// Limits.
	IterationLimit     int
	KKTMatrixPassLimit float64
	TimeLimit          time.Duration

	// Cadence.
	TerminationEvaluationFrequency int
	DisplayFrequency               int

	// Preconditioning.
	Preconditioning precondition.Options

	// Step size.
	AdaptiveStepSize        bool
	StepSizeReductionExp    float64
	StepSizeGrowthExp       float64
	StepSizeLimitCoef       float64

	// Restart.
	Restart restart.Parameters

	// Weighting.
	PrimalImportance                  float64
	ScaleInvariantInitialPrimalWeight bool

	// Norm selection for the termination test.
	OptimalityNorm OptimalityNorm

	Logger solverlog.Logger
}

// OptimalityNorm selects which residual norm the termination test reads
// off ConvergenceInformation.
type OptimalityNorm int

const (
	NormL2 OptimalityNorm = iota
	NormLInf
)

// Default returns a Config with the tolerances and schedule constants a
// production PDHG solver ships as its published defaults.
func Default() Config {
	return Config{
		Variant: RaPDHG,

		EpsAbs:              1e-6,
		EpsRel:              1e-6,
		EpsPrimalInfeasible: 1e-8,
		EpsDualInfeasible:   1e-8,

		IterationLimit:     100000,
		KKTMatrixPassLimit: 1e9,
		TimeLimit:          0, // 0 disables the wall-clock cap

		TerminationEvaluationFrequency: 64,
		DisplayFrequency:               10,

		Preconditioning: precondition.Options{
			LInfRuizIterations: 10,
			L2NormRescaling:    true,
			PockChambolleAlpha: 1.0,
		},

		AdaptiveStepSize:     true,
		StepSizeReductionExp: 0.3,
		StepSizeGrowthExp:    0.6,
		StepSizeLimitCoef:    1.0,

		Restart: restart.Parameters{
			Scheme:                      restart.AdaptiveKKT,
			ToCurrentMetric:             restart.KKTGreedy,
			RestartFrequencyIfFixed:     1000,
			ArtificialRestartThreshold:  0.36,
			SufficientReduction:         0.1,
			NecessaryReduction:          0.9,
			PrimalWeightUpdateSmoothing: 0.5,
		},

		PrimalImportance:                  1.0,
		ScaleInvariantInitialPrimalWeight: true,

		OptimalityNorm: NormL2,

		Logger: solverlog.Nop(),
	}
}

// Validate rejects invalid tolerances, non-monotone reduction thresholds,
// and non-positive step bounds. It is checked before any iteration is
// performed.
func (c Config) Validate() error {
	switch {
	case c.EpsAbs < 0 || c.EpsRel < 0:
		return fmt.Errorf("solver: EpsAbs and EpsRel must be >= 0, got %v, %v", c.EpsAbs, c.EpsRel)
	case c.EpsPrimalInfeasible <= 0 || c.EpsDualInfeasible <= 0:
		return fmt.Errorf("solver: EpsPrimalInfeasible and EpsDualInfeasible must be > 0")
	case c.IterationLimit <= 0:
		return fmt.Errorf("solver: IterationLimit must be > 0, got %d", c.IterationLimit)
	case c.KKTMatrixPassLimit <= 0:
		return fmt.Errorf("solver: KKTMatrixPassLimit must be > 0, got %v", c.KKTMatrixPassLimit)
	case c.TerminationEvaluationFrequency <= 0:
		return fmt.Errorf("solver: TerminationEvaluationFrequency must be > 0, got %d", c.TerminationEvaluationFrequency)
	case c.AdaptiveStepSize && (c.StepSizeReductionExp <= 0 || c.StepSizeGrowthExp <= 0 || c.StepSizeLimitCoef <= 0):
		return fmt.Errorf("solver: adaptive step-size exponents and limit coefficient must be > 0")
	case c.PrimalImportance <= 0:
		return fmt.Errorf("solver: PrimalImportance must be > 0, got %v", c.PrimalImportance)
	}
	if err := c.Restart.Validate(); err != nil {
		return err
	}
	if c.Logger == nil {
		return fmt.Errorf("solver: Logger must not be nil (use solverlog.Nop())")
	}
	return nil
}

// EpsRatio returns EpsAbs/EpsRel, +Inf if EpsRel is zero.
func (c Config) EpsRatio() float64 {
	return problem.EpsRatio(c.EpsAbs, c.EpsRel)
}
