// Package sparse implements the compressed-sparse-row primitives the solver
// needs: matrix-vector products and row/column norms. It deliberately avoids
// any dense intermediate; every kernel walks non-zeros once.
package sparse

import "math"

// Matrix is an m-by-n matrix stored in compressed sparse row (CSR) format,
// together with its transpose stored the same way. Keeping both forms lets
// A·x and Aᵀ·y both walk contiguous, cache-friendly rows instead of one of
// them striding through columns.
//
// RowPtr has length Rows+1; for row i the non-zeros live in
// Data[RowPtr[i]:RowPtr[i+1]] with column indices ColIdx[RowPtr[i]:RowPtr[i+1]].
// TRowPtr/TColIdx/TData describe the same matrix transposed (an n-by-m CSR),
// so MulVecTrans walks it the same way MulVec walks A.
type Matrix struct {
	Rows, Cols int

	RowPtr []int
	ColIdx []int
	Data   []float64

	TRowPtr []int
	TColIdx []int
	TData   []float64
}

// Entry is one non-zero of a matrix under construction.
type Entry struct {
	Row, Col int
	Value    float64
}

// NewFromTriplets builds a Matrix from an unordered list of non-zero entries.
// Duplicate (row, col) pairs are summed, matching the usual triplet-to-CSR
// convention (e.g. gosl's la.Triplet or SciPy's coo_matrix).
func NewFromTriplets(rows, cols int, entries []Entry) *Matrix {
	m := &Matrix{Rows: rows, Cols: cols}
	m.RowPtr, m.ColIdx, m.Data = buildCSR(rows, cols, entries, func(e Entry) (int, int) { return e.Row, e.Col })
	m.TRowPtr, m.TColIdx, m.TData = buildCSR(cols, rows, entries, func(e Entry) (int, int) { return e.Col, e.Row })
	return m
}

func buildCSR(majorDim, minorDim int, entries []Entry, key func(Entry) (int, int)) ([]int, []int, []float64) {
	counts := make([]int, majorDim+1)
	for _, e := range entries {
		major, _ := key(e)
		counts[major+1]++
	}
	for i := 0; i < majorDim; i++ {
		counts[i+1] += counts[i]
	}
	rowPtr := counts
	colIdx := make([]int, len(entries))
	data := make([]float64, len(entries))

	cursor := make([]int, majorDim)
	copy(cursor, rowPtr[:majorDim])
	for _, e := range entries {
		major, minor := key(e)
		pos := cursor[major]
		colIdx[pos] = minor
		data[pos] = e.Value
		cursor[major]++
	}
	_ = minorDim
	return coalesce(majorDim, rowPtr, colIdx, data)
}

// coalesce sorts each row's entries by column and sums duplicates in place,
// shrinking colIdx/data to the deduplicated length and fixing up rowPtr.
func coalesce(majorDim int, rowPtr []int, colIdx []int, data []float64) ([]int, []int, []float64) {
	newColIdx := colIdx[:0]
	newData := data[:0]
	newRowPtr := make([]int, majorDim+1)
	for i := 0; i < majorDim; i++ {
		start, end := rowPtr[i], rowPtr[i+1]
		insertionSort(colIdx[start:end], data[start:end])
		writeStart := len(newColIdx)
		for j := start; j < end; j++ {
			c, v := colIdx[j], data[j]
			if n := len(newColIdx); n > writeStart && newColIdx[n-1] == c {
				newData[n-1] += v
				continue
			}
			newColIdx = append(newColIdx, c)
			newData = append(newData, v)
		}
		newRowPtr[i+1] = len(newColIdx)
	}
	return newRowPtr, newColIdx, newData
}

func insertionSort(cols []int, vals []float64) {
	for i := 1; i < len(cols); i++ {
		c, v := cols[i], vals[i]
		j := i - 1
		for j >= 0 && cols[j] > c {
			cols[j+1] = cols[j]
			vals[j+1] = vals[j]
			j--
		}
		cols[j+1] = c
		vals[j+1] = v
	}
}

// InfNorm returns the L∞ norm max_i |v[i]|, or 0 for an empty slice. This
// exists because some copies of floats.Norm(v, math.Inf(1)) compute max(v)
// rather than max(|v|); every call site in this module that needs an L∞
// norm over a signed vector uses this instead.
func InfNorm(v []float64) float64 {
	norm := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > norm {
			norm = a
		}
	}
	return norm
}
