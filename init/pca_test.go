package init

import (
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestPCAEmbeddingScale(t *testing.T) {
	// Points along a noisy line in 3-D.
	n := 50
	x := mat.NewDense(n, 3, nil)
	for i := range n {
		v := float64(i)
		x.Set(i, 0, v)
		x.Set(i, 1, 2*v+math.Sin(v))
		x.Set(i, 2, math.Cos(v))
	}

	embedding, err := PCAEmbedding(x, 2)
	require.NoError(t, err)

	r, c := embedding.Dims()
	require.Equal(t, n, r)
	require.Equal(t, 2, c)

	col0 := mat.Col(nil, 0, embedding)
	assert.InDelta(t, initialScale, stat.PopStdDev(col0, nil), 1e-12)
	assert.InDelta(t, 0, stat.Mean(col0, nil), 1e-12)

	// The first component carries the most variance.
	col1 := mat.Col(nil, 1, embedding)
	assert.Less(t, stat.PopStdDev(col1, nil), stat.PopStdDev(col0, nil))
}

func TestPCAEmbeddingTooManyComponents(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 9})
	_, err := PCAEmbedding(x, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestInitializeEmbedding(t *testing.T) {
	x := mat.NewDense(10, 3, nil)
	for i := range 10 {
		for j := range 3 {
			x.Set(i, j, float64(i*(j+1)%7))
		}
	}

	tests := []struct {
		name   string
		method InitMethod
	}{
		{"random", Random},
		{"pca", PCA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMethod(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.method, m)
			assert.Equal(t, tt.name, m.String())

			embedding, err := InitializeEmbedding(x, 2, m, 0)
			require.NoError(t, err)
			r, c := embedding.Dims()
			assert.Equal(t, 10, r)
			assert.Equal(t, 2, c)
		})
	}

	_, err := ParseMethod("spectral")
	assert.True(t, errors.Is(err, errors.NotValid))
}
