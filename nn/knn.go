// Package nn provides nearest neighbor search for t-SNE.
// Barnes-Hut t-SNE only needs the 3*perplexity nearest neighbors of every
// sample, found here by exact search.
package nn

import (
	"github.com/nozzle/tsne/distance"
	"github.com/nozzle/tsne/internal/heap"
	"github.com/nozzle/tsne/internal/parallel"
)

// KNNGraph represents a k-nearest neighbor graph.
// Self is never listed as a neighbor.
type KNNGraph struct {
	Indices   [][]int32   // [n_samples][k] neighbor indices
	Distances [][]float64 // [n_samples][k] neighbor distances, ascending
	N         int         // number of samples
	K         int         // number of neighbors per sample
}

// BruteForceKNN computes the exact k-NN graph using distFunc.
// k is capped at n-1.
func BruteForceKNN(data [][]float64, k int, distFunc distance.Func, numWorkers int) *KNNGraph {
	n := len(data)
	if k >= n {
		k = n - 1
	}
	if k < 0 {
		k = 0
	}

	indices := make([][]int32, n)
	distances := make([][]float64, n)

	parallel.For(0, n, parallel.Resolve(numWorkers), func(i int) {
		h := heap.New(k)

		// Compute distance to all other points
		for j := range n {
			if i == j {
				continue
			}
			h.Push(int32(j), distFunc(data[i], data[j]))
		}

		indices[i], distances[i] = h.Sorted()
	})

	return &KNNGraph{
		Indices:   indices,
		Distances: distances,
		N:         n,
		K:         k,
	}
}
