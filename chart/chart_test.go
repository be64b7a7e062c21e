package chart

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

func sample() (*mat.Dense, *mat.Dense) {
	original := mat.NewDense(4, 3, []float64{
		0, 0, 1,
		1, 1, 2,
		2, 4, 3,
		3, 9, 4,
	})
	embedding := mat.NewDense(4, 2, []float64{
		-1, 0.5,
		-0.5, 0.2,
		0.5, -0.2,
		1, -0.5,
	})
	return original, embedding
}

func TestComparison(t *testing.T) {
	original, embedding := sample()
	p, err := Comparison(original, embedding, "n_columns=3\n perplexity=5", DefaultStyle())
	require.NoError(t, err)

	assert.Equal(t, "n_columns=3\n perplexity=5", p.Title.Text)
	// Axes cover both series.
	assert.LessOrEqual(t, p.X.Min, -1.0)
	assert.GreaterOrEqual(t, p.X.Max, 3.0)
	assert.LessOrEqual(t, p.Y.Min, -0.5)
	assert.GreaterOrEqual(t, p.Y.Max, 9.0)
}

func TestComparisonShapeErrors(t *testing.T) {
	original, embedding := sample()

	tests := []struct {
		name      string
		original  mat.Matrix
		embedding mat.Matrix
	}{
		{"one column dataset", original.Slice(0, 4, 0, 1), embedding},
		{"one column embedding", original, embedding.Slice(0, 4, 0, 1)},
		{"row mismatch", original, embedding.Slice(0, 3, 0, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Comparison(tt.original, tt.embedding, "", DefaultStyle())
			assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
		})
	}
}

func TestWriteComparisonPNG(t *testing.T) {
	original, embedding := sample()
	style := DefaultStyle()
	style.Size = 2 * vg.Inch

	var buf bytes.Buffer
	require.NoError(t, WriteComparison(&buf, original, embedding, "t", style))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg.Width, cfg.Height)
	assert.Positive(t, cfg.Width)
}

func TestSaveComparison(t *testing.T) {
	original, embedding := sample()
	path := filepath.Join(t.TempDir(), "plot.png")
	require.NoError(t, SaveComparison(path, original, embedding, "t", DefaultStyle()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.DecodeConfig(f)
	assert.NoError(t, err)

	err = SaveComparison(filepath.Join(t.TempDir(), "missing", "plot.png"), original, embedding, "t", DefaultStyle())
	assert.Error(t, err)
}
