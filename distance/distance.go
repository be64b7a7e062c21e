// Package distance provides distance metrics for t-SNE affinities.
package distance

import (
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/internal/parallel"
)

// Func is a distance function between two vectors.
type Func func(x, y []float64) float64

// Registry maps metric names to their implementations.
var Registry = map[string]Func{
	// Minkowski family
	"euclidean":   Euclidean,
	"l2":          Euclidean,
	"sqeuclidean": SquaredEuclidean,
	"manhattan":   Manhattan,
	"l1":          Manhattan,
	"cityblock":   Manhattan,
	"chebyshev":   Chebyshev,
	"linf":        Chebyshev,
	"minkowski":   Euclidean, // Default p=2

	// Angular metrics
	"cosine":      Cosine,
	"correlation": Correlation,

	// Other metrics
	"canberra":   Canberra,
	"braycurtis": BrayCurtis,
}

// Get returns the distance function for the given metric name.
func Get(name string) (Func, bool) {
	f, ok := Registry[name]
	return f, ok
}

// ForAffinity returns the function used to build t-SNE input affinities.
// Euclidean distances are squared, every other metric is used as is.
func ForAffinity(name string) (Func, bool) {
	switch name {
	case "euclidean", "l2", "minkowski":
		return SquaredEuclidean, true
	}
	return Get(name)
}

// Pairwise computes the symmetric matrix of distances between the rows of data.
func Pairwise(data [][]float64, fn Func, numWorkers int) *mat.SymDense {
	n := len(data)
	if n == 0 {
		return nil
	}
	out := mat.NewSymDense(n, nil)

	// Each worker fills the upper triangle of its own rows.
	rows := parallel.Map(0, n, parallel.Resolve(numWorkers), func(i int) []float64 {
		row := make([]float64, n-i)
		for j := i + 1; j < n; j++ {
			row[j-i] = fn(data[i], data[j])
		}
		return row
	})

	for i, row := range rows {
		for j := i + 1; j < n; j++ {
			out.SetSym(i, j, row[j-i])
		}
	}
	return out
}
