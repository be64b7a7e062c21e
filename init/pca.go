package init

import (
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCAEmbedding projects x onto its first dim principal components.
// The projection is rescaled so that its first column has standard
// deviation 1e-4, keeping the initial embedding as tight as the random one.
func PCAEmbedding(x mat.Matrix, dim int) (*mat.Dense, error) {
	n, d := x.Dims()
	if dim > min(n, d) {
		return nil, errors.NotValidf("pca init with %d components on %dx%d input", dim, n, d)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, errors.New("pca init: svd factorization failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	// Center the columns before projecting.
	centered := mat.DenseCopyOf(x)
	col := make([]float64, n)
	for j := range d {
		mat.Col(col, j, centered)
		mean := stat.Mean(col, nil)
		for i := range n {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var embedding mat.Dense
	embedding.Mul(centered, vecs.Slice(0, d, 0, dim))

	mat.Col(col, 0, &embedding)
	std := stat.PopStdDev(col, nil)
	if std > 0 {
		embedding.Scale(initialScale/std, &embedding)
	}
	return &embedding, nil
}
