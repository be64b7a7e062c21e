// Package affinity computes the input-space similarities of t-SNE.
// Each sample gets a Gaussian kernel whose bandwidth is calibrated to a
// target perplexity; the resulting conditional probabilities are then
// symmetrized into joint probabilities P.
package affinity

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CSRMatrix represents a sparse matrix in CSR format.
type CSRMatrix struct {
	Indptr  []int32   // Row pointers
	Indices []int32   // Column indices
	Data    []float64 // Values
	NRows   int       // Number of rows
	NCols   int       // Number of columns
	NNZ     int       // Number of non-zero elements
}

// cooToCSR converts COO format to CSR format, sorted by row then column.
func cooToCSR(rows, cols []int32, data []float64, nrows, ncols int) *CSRMatrix {
	nnz := len(rows)

	type entry struct {
		row, col int32
		val      float64
	}
	entries := make([]entry, nnz)
	for i := range entries {
		entries[i] = entry{rows[i], cols[i], data[i]}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].row != entries[j].row {
			return entries[i].row < entries[j].row
		}
		return entries[i].col < entries[j].col
	})

	indptr := make([]int32, nrows+1)
	indices := make([]int32, nnz)
	vals := make([]float64, nnz)

	for i, e := range entries {
		indices[i] = e.col
		vals[i] = e.val
		indptr[e.row+1]++
	}

	// Cumulative sum for indptr
	for i := 1; i <= nrows; i++ {
		indptr[i] += indptr[i-1]
	}

	return &CSRMatrix{
		Indptr:  indptr,
		Indices: indices,
		Data:    vals,
		NRows:   nrows,
		NCols:   ncols,
		NNZ:     nnz,
	}
}

// symmetrize returns A + A^T for a square CSR matrix.
func symmetrize(a *CSRMatrix) *CSRMatrix {
	type edgeKey struct {
		i, j int32
	}
	edges := make(map[edgeKey]float64, 2*a.NNZ)
	for i := range a.NRows {
		cols, vals := a.GetRow(i)
		for idx, j := range cols {
			edges[edgeKey{int32(i), j}] += vals[idx]
			edges[edgeKey{j, int32(i)}] += vals[idx]
		}
	}

	rows := make([]int32, 0, len(edges))
	cols := make([]int32, 0, len(edges))
	data := make([]float64, 0, len(edges))
	for key, val := range edges {
		rows = append(rows, key.i)
		cols = append(cols, key.j)
		data = append(data, val)
	}
	return cooToCSR(rows, cols, data, a.NRows, a.NCols)
}

// FromDense converts the off-diagonal non-zeros of a symmetric matrix to CSR.
func FromDense(p mat.Symmetric) *CSRMatrix {
	n := p.SymmetricDim()
	rows := make([]int32, 0, n*n)
	cols := make([]int32, 0, n*n)
	data := make([]float64, 0, n*n)
	for i := range n {
		for j := range n {
			if i == j {
				continue
			}
			if v := p.At(i, j); v != 0 {
				rows = append(rows, int32(i))
				cols = append(cols, int32(j))
				data = append(data, v)
			}
		}
	}
	return cooToCSR(rows, cols, data, n, n)
}

// Sum returns the sum of all stored values.
func (g *CSRMatrix) Sum() float64 {
	var s float64
	for _, v := range g.Data {
		s += v
	}
	return s
}

// Scale multiplies every stored value by f in place.
func (g *CSRMatrix) Scale(f float64) {
	for i := range g.Data {
		g.Data[i] *= f
	}
}

// At returns the value at (i, j), or 0 if it is not stored.
func (g *CSRMatrix) At(i, j int) float64 {
	cols, vals := g.GetRow(i)
	k := sort.Search(len(cols), func(k int) bool { return cols[k] >= int32(j) })
	if k < len(cols) && cols[k] == int32(j) {
		return vals[k]
	}
	return 0
}

// GetRow returns the column indices and values for a given row.
func (g *CSRMatrix) GetRow(row int) ([]int32, []float64) {
	start := g.Indptr[row]
	end := g.Indptr[row+1]
	return g.Indices[start:end], g.Data[start:end]
}
