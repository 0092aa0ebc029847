package sparse

import "math"

// Norm selects which p-norm a row/column reduction uses.
type Norm int

const (
	L1 Norm = iota
	L2
	LInf
)

// RowNorms returns, for each row i, the Norm-kind norm of row_i(A). Each
// row's non-zeros are walked exactly once.
func (m *Matrix) RowNorms(kind Norm) []float64 {
	out := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		out[i] = reduceNorm(m.Data[m.RowPtr[i]:m.RowPtr[i+1]], kind)
	}
	return out
}

// ColNorms returns, for each column j, the Norm-kind norm of col_j(A),
// computed from the transposed CSR layout so it is also a single nnz walk.
func (m *Matrix) ColNorms(kind Norm) []float64 {
	out := make([]float64, m.Cols)
	for j := 0; j < m.Cols; j++ {
		out[j] = reduceNorm(m.TData[m.TRowPtr[j]:m.TRowPtr[j+1]], kind)
	}
	return out
}

func reduceNorm(vals []float64, kind Norm) float64 {
	switch kind {
	case L1:
		sum := 0.0
		for _, v := range vals {
			sum += math.Abs(v)
		}
		return sum
	case LInf:
		max := 0.0
		for _, v := range vals {
			if a := math.Abs(v); a > max {
				max = a
			}
		}
		return max
	default: // L2
		sum := 0.0
		for _, v := range vals {
			sum += v * v
		}
		return math.Sqrt(sum)
	}
}

// RowPowerSums returns, for each row i, sum_j |A_ij|^p — the building block
// for Pock-Chambolle rescaling, which mixes two different exponents for rows
// and columns.
func (m *Matrix) RowPowerSums(p float64) []float64 {
	out := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		sum := 0.0
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			sum += math.Pow(math.Abs(m.Data[k]), p)
		}
		out[i] = sum
	}
	return out
}

// ColPowerSums returns, for each column j, sum_i |A_ij|^p.
func (m *Matrix) ColPowerSums(p float64) []float64 {
	out := make([]float64, m.Cols)
	for j := 0; j < m.Cols; j++ {
		sum := 0.0
		for k := m.TRowPtr[j]; k < m.TRowPtr[j+1]; k++ {
			sum += math.Pow(math.Abs(m.TData[k]), p)
		}
		out[j] = sum
	}
	return out
}
