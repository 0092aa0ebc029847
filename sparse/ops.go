package sparse

// MulVec computes dst = A·x, overwriting dst. dst and x must have length
// Rows and Cols respectively. The loop walks each row's non-zeros once and
// never allocates, so it is safe to call in the solver's hot path.
func (m *Matrix) MulVec(dst, x []float64) {
	if len(x) != m.Cols {
		panic("sparse: x has wrong length")
	}
	if len(dst) != m.Rows {
		panic("sparse: dst has wrong length")
	}
	for i := 0; i < m.Rows; i++ {
		sum := 0.0
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			sum += m.Data[k] * x[m.ColIdx[k]]
		}
		dst[i] = sum
	}
}

// MulVecTrans computes dst = Aᵀ·y using the precomputed transposed CSR
// layout, so it is a row-walk over Aᵀ rather than a column-walk over A.
func (m *Matrix) MulVecTrans(dst, y []float64) {
	if len(y) != m.Rows {
		panic("sparse: y has wrong length")
	}
	if len(dst) != m.Cols {
		panic("sparse: dst has wrong length")
	}
	for j := 0; j < m.Cols; j++ {
		sum := 0.0
		for k := m.TRowPtr[j]; k < m.TRowPtr[j+1]; k++ {
			sum += m.TData[k] * y[m.TColIdx[k]]
		}
		dst[j] = sum
	}
}

// ScaleRows multiplies row i of A (and Aᵀ's matching column entries) by
// r[i], in place. Used by the preconditioner to apply constraint rescaling
// without rebuilding the CSR structure.
func (m *Matrix) ScaleRows(r []float64) {
	for i := 0; i < m.Rows; i++ {
		s := r[i]
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			m.Data[k] *= s
		}
	}
	for j := 0; j < m.Cols; j++ {
		for k := m.TRowPtr[j]; k < m.TRowPtr[j+1]; k++ {
			m.TData[k] *= r[m.TColIdx[k]]
		}
	}
}

// ScaleCols multiplies column j of A (and Aᵀ's matching rows) by c[j], in
// place.
func (m *Matrix) ScaleCols(c []float64) {
	for i := 0; i < m.Rows; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			m.Data[k] *= c[m.ColIdx[k]]
		}
	}
	for j := 0; j < m.Cols; j++ {
		s := c[j]
		for k := m.TRowPtr[j]; k < m.TRowPtr[j+1]; k++ {
			m.TData[k] *= s
		}
	}
}
