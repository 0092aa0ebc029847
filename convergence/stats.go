package convergence

// PointType tags which iterate a stats snapshot was computed from.
type PointType int

const (
	CurrentIterate PointType = iota
	AverageIterate
)

func (t PointType) String() string {
	if t == AverageIterate {
		return "average"
	}
	return "current"
}

// ConvergenceInformation holds both the L2 and L∞ forms of the primal/dual
// residuals and the scalar objective/gap quantities, computed at a single
// iterate. A caller picks the norm its termination criteria actually use;
// both are cheap to keep since they share the same per-row violation pass.
type ConvergenceInformation struct {
	PointType PointType

	PrimalObjective        float64
	DualObjective          float64
	CorrectedDualObjective float64 // DualObjective if the dual residual is exactly zero, else -Inf

	LInfPrimalResidual float64
	L2PrimalResidual   float64
	LInfDualResidual   float64
	L2DualResidual     float64

	RelativeLInfPrimalResidual float64
	RelativeL2PrimalResidual   float64
	RelativeLInfDualResidual   float64
	RelativeL2DualResidual     float64

	RelativeOptimalityGap float64

	LInfPrimalVariable float64
	L2PrimalVariable   float64
	LInfDualVariable   float64
	L2DualVariable     float64
}

// InfeasibilityInformation holds the primal/dual ray infeasibility
// certificates computed from a candidate unbounded direction.
type InfeasibilityInformation struct {
	PointType PointType

	MaxPrimalRayInfeasibility float64
	PrimalRayLinearObjective  float64
	MaxDualRayInfeasibility   float64
	DualRayObjective          float64
}

// IterationStats bundles everything the driver loop's termination check
// and progress log need for one evaluated iterate.
type IterationStats struct {
	IterationNumber     int
	CumulativeKKTPasses float64

	Convergence   ConvergenceInformation
	Infeasibility InfeasibilityInformation

	// MethodSpecificStats carries solver-variant-only diagnostics (e.g. the
	// current step size or primal weight) that don't belong on the shared
	// struct above but are useful in a progress log or a returned summary.
	MethodSpecificStats map[string]float64
}
