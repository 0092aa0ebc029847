// Package pdhg implements the primal-dual hybrid gradient step kernel: one
// projected-gradient primal step, one extrapolated-ascent dual step, the
// adaptive step-size line search wrapped around them, and the two iterate
// accumulation modes (raPDHG's weighted average, r2HPDHG's Halpern anchor).
package pdhg

// State is the mutable iterate carried between steps. All slices are
// allocated once at solve start and reused in place; nothing in this
// package allocates inside the hot path.
type State struct {
	CurrentPrimal []float64
	CurrentDual   []float64

	CurrentPrimalProduct    []float64 // A · CurrentPrimal
	CurrentDualProduct      []float64 // Aᵀ · CurrentDual
	CurrentPrimalObjProduct []float64 // Q · CurrentPrimal, nil for LP

	AvgPrimal           []float64
	AvgDual             []float64
	AvgPrimalProduct    []float64
	AvgDualProduct      []float64
	AvgPrimalObjProduct []float64 // Q · AvgPrimal, nil for LP

	WeightsSum     float64
	SolutionsCount int

	InitialPrimal        []float64
	InitialDual          []float64
	InitialPrimalProduct []float64
	InitialDualProduct   []float64

	// DeltaPrimal, DeltaDual, DeltaPrimalProduct hold the most recent
	// accepted raw PDHG step; DeltaDualProduct and DeltaPrimalObjProduct
	// are the matching Aᵀ·Δy and Q·Δx used to keep CurrentDualProduct and
	// CurrentPrimalObjProduct in sync without a second full mat-vec.
	DeltaPrimal         []float64
	DeltaDual           []float64
	DeltaPrimalProduct  []float64
	DeltaDualProduct    []float64
	DeltaPrimalObjProduct []float64

	StepSize        float64
	PrimalWeight    float64
	InitialStepSize float64

	NumIterations           int
	NumStepsTried           int
	CumulativeRejectedSteps int
	CumulativeKKTPasses     float64
	NumericalError          bool

	scratchGrad []float64
}

// NewState allocates a State sized for a problem with n variables and m
// constraints. isQP controls whether the Q·x tracking buffers are
// allocated at all: an LP has no objective matrix, so its average/
// obj-product buffers would sit unused and are elided to save memory.
func NewState(n, m int, isQP bool) *State {
	st := &State{
		CurrentPrimal:        make([]float64, n),
		CurrentDual:          make([]float64, m),
		CurrentPrimalProduct: make([]float64, m),
		CurrentDualProduct:   make([]float64, n),

		AvgPrimal:        make([]float64, n),
		AvgDual:          make([]float64, m),
		AvgPrimalProduct: make([]float64, m),
		AvgDualProduct:   make([]float64, n),

		InitialPrimal:        make([]float64, n),
		InitialDual:          make([]float64, m),
		InitialPrimalProduct: make([]float64, m),
		InitialDualProduct:   make([]float64, n),

		DeltaPrimal:        make([]float64, n),
		DeltaDual:          make([]float64, m),
		DeltaPrimalProduct: make([]float64, m),
		DeltaDualProduct:   make([]float64, n),

		scratchGrad: make([]float64, n),
	}
	if isQP {
		st.CurrentPrimalObjProduct = make([]float64, n)
		st.DeltaPrimalObjProduct = make([]float64, n)
		st.AvgPrimalObjProduct = make([]float64, n)
	}
	return st
}

// AnchorHere copies the current iterate into the Initial* anchor buffers
// and resets the per-epoch accumulators. Called once before the first
// iteration and again by the restart controller every time it restarts.
func (st *State) AnchorHere() {
	copy(st.InitialPrimal, st.CurrentPrimal)
	copy(st.InitialDual, st.CurrentDual)
	copy(st.InitialPrimalProduct, st.CurrentPrimalProduct)
	copy(st.InitialDualProduct, st.CurrentDualProduct)

	for i := range st.AvgPrimal {
		st.AvgPrimal[i] = 0
	}
	for i := range st.AvgDual {
		st.AvgDual[i] = 0
	}
	for i := range st.AvgPrimalProduct {
		st.AvgPrimalProduct[i] = 0
	}
	for i := range st.AvgDualProduct {
		st.AvgDualProduct[i] = 0
	}
	for i := range st.AvgPrimalObjProduct {
		st.AvgPrimalObjProduct[i] = 0
	}
	st.WeightsSum = 0
	st.SolutionsCount = 0
}

// IsQP reports whether this state tracks an objective-matrix product,
// i.e. whether NewState was called with isQP = true.
func (st *State) IsQP() bool {
	return st.CurrentPrimalObjProduct != nil
}
