// Package init provides initial embeddings for t-SNE.
// This includes seeded random initialization and PCA initialization.
package init

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/internal/rand"
)

// InitMethod specifies the initialization method.
type InitMethod int

const (
	// Random draws every coordinate from N(0, 1e-4^2)
	Random InitMethod = iota
	// PCA projects the input onto its leading principal components
	PCA
)

// initialScale is the standard deviation of the initial embedding.
const initialScale = 1e-4

// ParseMethod maps a method name to an InitMethod.
func ParseMethod(name string) (InitMethod, error) {
	switch name {
	case "random", "":
		return Random, nil
	case "pca":
		return PCA, nil
	default:
		return Random, errors.NotValidf("init method %q", name)
	}
}

// String returns the method name.
func (m InitMethod) String() string {
	switch m {
	case Random:
		return "random"
	case PCA:
		return "pca"
	default:
		return "unknown"
	}
}

// RandomEmbedding generates an n×dim embedding of 1e-4 * N(0, 1) samples.
// Values are drawn row-major from a NumPy-compatible MT19937, so the result
// equals 1e-4 * RandomState(seed).standard_normal((n, dim)).
func RandomEmbedding(n, dim int, seed uint32) *mat.Dense {
	if n == 0 || dim == 0 {
		return &mat.Dense{}
	}
	rng := rand.NewMT19937(seed)

	data := make([]float64, n*dim)
	for i := range data {
		data[i] = initialScale * rng.StandardNormal()
	}
	return mat.NewDense(n, dim, data)
}

// InitializeEmbedding creates an initial embedding based on the method.
func InitializeEmbedding(x mat.Matrix, dim int, method InitMethod, seed uint32) (*mat.Dense, error) {
	n, _ := x.Dims()
	switch method {
	case Random:
		return RandomEmbedding(n, dim, seed), nil
	case PCA:
		embedding, err := PCAEmbedding(x, dim)
		return embedding, errors.Trace(err)
	default:
		return nil, errors.NotValidf("init method %d", method)
	}
}
