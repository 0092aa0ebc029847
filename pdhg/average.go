package pdhg

// UpdateAverage folds an accepted step of size tau into the raPDHG
// weighted average: avg ← (weights_sum·avg + τ·current) /
// (weights_sum + τ), for the primal, dual, and both products, then
// advances weights_sum and solutions_count.
func UpdateAverage(st *State, tau float64) {
	newWeightsSum := st.WeightsSum + tau

	blend := func(avg, current []float64) {
		for i := range avg {
			avg[i] = (st.WeightsSum*avg[i] + tau*current[i]) / newWeightsSum
		}
	}
	blend(st.AvgPrimal, st.CurrentPrimal)
	blend(st.AvgDual, st.CurrentDual)
	blend(st.AvgPrimalProduct, st.CurrentPrimalProduct)
	blend(st.AvgDualProduct, st.CurrentDualProduct)
	if st.IsQP() {
		blend(st.AvgPrimalObjProduct, st.CurrentPrimalObjProduct)
	}

	st.WeightsSum = newWeightsSum
	st.SolutionsCount++
}
