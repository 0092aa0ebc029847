package pdhg

// UpdateHalpern replaces the plain PDHG update already committed into
// st.Current* (current = pre-step + Δ) with the Halpern convex
// combination:
//
//	x_next = weight · (x_current + 2Δx) + (1 − weight) · x_initial
//
// commitStep has already written current = x_current + Δx into
// st.Current*, so x_current + 2Δx is simply st.Current* + st.Delta*; this
// function folds that in place and advances weights_sum/solutions_count.
// tau is the accepted step size, used (via weights_sum) to compute the
// blend weight; the anchor step size τ₀ is captured on the first call
// after a restart.
func UpdateHalpern(st *State, tau float64) {
	if st.SolutionsCount == 0 {
		st.InitialStepSize = tau
	}
	newWeightsSum := st.WeightsSum + tau
	weight := newWeightsSum / (newWeightsSum + st.InitialStepSize)

	blend := func(afterCommit, delta, anchor []float64) {
		for i := range afterCommit {
			afterCommit[i] = weight*(afterCommit[i]+delta[i]) + (1-weight)*anchor[i]
		}
	}
	blend(st.CurrentPrimal, st.DeltaPrimal, st.InitialPrimal)
	blend(st.CurrentDual, st.DeltaDual, st.InitialDual)
	blend(st.CurrentPrimalProduct, st.DeltaPrimalProduct, st.InitialPrimalProduct)
	blend(st.CurrentDualProduct, st.DeltaDualProduct, st.InitialDualProduct)

	st.WeightsSum = newWeightsSum
	st.SolutionsCount++
}

// ReconstructPreHalpern inverts the last UpdateHalpern call to recover the
// plain PDHG iterate (pre-step + Δ) that the Halpern blend was computed
// from, using the still-resident st.Delta* from that last accepted step.
// The restart controller calls this before re-anchoring: it reconstructs
// the last pure-PDHG iterate, then the driver runs one fresh PDHG step to
// re-anchor. A no-op if no step has been taken since the last restart
// (st.Current* is already the pure anchor).
func ReconstructPreHalpern(st *State) {
	if st.SolutionsCount == 0 {
		return
	}
	weight := st.WeightsSum / (st.WeightsSum + st.InitialStepSize)

	invert := func(halpernResult, delta, anchor []float64) {
		for i := range halpernResult {
			plainNext := (halpernResult[i]-(1-weight)*anchor[i])/weight - delta[i]
			halpernResult[i] = plainNext
		}
	}
	invert(st.CurrentPrimal, st.DeltaPrimal, st.InitialPrimal)
	invert(st.CurrentDual, st.DeltaDual, st.InitialDual)
	invert(st.CurrentPrimalProduct, st.DeltaPrimalProduct, st.InitialPrimalProduct)
	invert(st.CurrentDualProduct, st.DeltaDualProduct, st.InitialDualProduct)
}
