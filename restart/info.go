package restart

// Info is a snapshot taken at the last restart, against which the next
// epoch's residual reduction ratio is measured.
type Info struct {
	PrimalSolution    []float64
	DualSolution      []float64
	PrimalProduct     []float64
	DualProduct       []float64
	PrimalObjProduct  []float64 // nil for LP

	// PrimalDiff/DualDiff/PrimalDiffProduct are the last accepted raw
	// PDHG step's deltas, captured at restart time. No restart test in
	// this package reads them.
	PrimalDiff        []float64
	DualDiff          []float64
	PrimalDiffProduct []float64

	LastRestartLength int

	PrimalDistanceMovedLastRestartPeriod float64
	DualDistanceMovedLastRestartPeriod   float64

	ReductionRatioLastTrial float64
}

// NewInfo allocates an Info sized for a problem with n variables and m
// constraints, with ReductionRatioLastTrial at its neutral starting value
// (no restart has a "last trial" yet, so the adaptive test's "ratio worse
// than last trial" branch can never fire before the first restart).
func NewInfo(n, m int, isQP bool) *Info {
	info := &Info{
		PrimalSolution:    make([]float64, n),
		DualSolution:      make([]float64, m),
		PrimalProduct:     make([]float64, m),
		DualProduct:       make([]float64, n),
		PrimalDiff:        make([]float64, n),
		DualDiff:          make([]float64, m),
		PrimalDiffProduct: make([]float64, m),

		ReductionRatioLastTrial: 1.0,
	}
	if isQP {
		info.PrimalObjProduct = make([]float64, n)
	}
	return info
}
