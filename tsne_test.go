package tsne

import (
	"context"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// generateBlobs generates n clusters of points for testing.
func generateBlobs(nSamples, nClusters, nFeatures int, seed int64) *mat.Dense {
	data := mat.NewDense(nSamples, nFeatures, nil)
	samplesPerCluster := nSamples / nClusters

	// Simple LCG for reproducibility
	rng := seed
	nextFloat := func() float64 {
		rng = (rng*6364136223846793005 + 1442695040888963407) & 0x7FFFFFFF
		return float64(rng) / float64(0x7FFFFFFF)
	}

	for i := range nSamples {
		cluster := min(i/samplesPerCluster, nClusters-1)

		// Cluster center
		centerOffset := float64(cluster * 10)

		for j := range nFeatures {
			u1 := max(nextFloat(), 0.001)
			u2 := nextFloat()
			noise := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
			data.Set(i, j, centerOffset+noise)
		}
	}

	return data
}

func rowDist(m mat.Matrix, i, j int) float64 {
	_, c := m.Dims()
	var s float64
	for d := range c {
		diff := m.At(i, d) - m.At(j, d)
		s += diff * diff
	}
	return math.Sqrt(s)
}

func assertFinite(t *testing.T, m mat.Matrix) {
	t.Helper()
	r, c := m.Dims()
	for i := range r {
		for j := range c {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("Non-finite value at [%d][%d]: %v", i, j, v)
			}
		}
	}
}

func TestFitTransform(t *testing.T) {
	// Generate simple test data: 3 clusters
	data := generateBlobs(150, 3, 10, 42)

	config := DefaultConfig()
	config.Perplexity = 10
	config.MaxIter = 500

	model := New(config)
	embedding, err := model.FitTransform(data)
	require.NoError(t, err)

	r, c := embedding.Dims()
	assert.Equal(t, 150, r)
	assert.Equal(t, 2, c)
	assertFinite(t, embedding)

	assert.Greater(t, model.KLDivergence(), 0.0)
	assert.LessOrEqual(t, model.NIter(), config.MaxIter-1)
	assert.Equal(t, 50.0, model.LearningRate())

	// Clusters separate: intra-cluster distances are smaller than inter-cluster ones.
	var intra, inter float64
	var intraCount, interCount int
	for i := range 150 {
		for j := i + 1; j < 150; j++ {
			if i/50 == j/50 {
				intra += rowDist(embedding, i, j)
				intraCount++
			} else {
				inter += rowDist(embedding, i, j)
				interCount++
			}
		}
	}
	avgIntra := intra / float64(intraCount)
	avgInter := inter / float64(interCount)
	t.Logf("Avg intra-cluster distance: %f", avgIntra)
	t.Logf("Avg inter-cluster distance: %f", avgInter)
	assert.Less(t, avgIntra, avgInter)
}

func TestExactMethod(t *testing.T) {
	data := generateBlobs(60, 2, 5, 7)

	config := DefaultConfig()
	config.Method = MethodExact
	config.Perplexity = 5
	config.MaxIter = 300

	embedding, err := New(config).FitTransform(data)
	require.NoError(t, err)
	r, c := embedding.Dims()
	assert.Equal(t, 60, r)
	assert.Equal(t, 2, c)
	assertFinite(t, embedding)
}

func TestExactMethodThreeComponents(t *testing.T) {
	data := generateBlobs(40, 2, 5, 3)

	config := DefaultConfig()
	config.Method = MethodExact
	config.NComponents = 3
	config.Perplexity = 5
	config.MaxIter = 250

	embedding, err := New(config).FitTransform(data)
	require.NoError(t, err)
	_, c := embedding.Dims()
	assert.Equal(t, 3, c)
	assertFinite(t, embedding)
}

func TestSameSeedSameEmbedding(t *testing.T) {
	data := generateBlobs(80, 2, 4, 1)

	config := DefaultConfig()
	config.Perplexity = 8
	config.MaxIter = 300
	config.NumWorkers = 3

	a, err := New(config).FitTransform(data)
	require.NoError(t, err)
	b, err := New(config).FitTransform(data)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestDifferentMetrics(t *testing.T) {
	data := generateBlobs(60, 2, 5, 42)

	for _, metric := range []string{"euclidean", "manhattan", "cosine"} {
		t.Run(metric, func(t *testing.T) {
			config := DefaultConfig()
			config.Metric = metric
			config.Perplexity = 5
			config.MaxIter = 250

			embedding, err := New(config).FitTransform(data)
			require.NoError(t, err)
			r, _ := embedding.Dims()
			assert.Equal(t, 60, r)
			assertFinite(t, embedding)
		})
	}
}

func TestPCAInit(t *testing.T) {
	data := generateBlobs(60, 3, 6, 5)

	config := DefaultConfig()
	config.Init = "pca"
	config.Perplexity = 5
	config.MaxIter = 250

	embedding, err := New(config).FitTransform(data)
	require.NoError(t, err)
	assertFinite(t, embedding)
}

func TestProgressCallback(t *testing.T) {
	data := generateBlobs(30, 2, 3, 9)

	var calls, last int
	config := DefaultConfig()
	config.Perplexity = 5
	config.MaxIter = 260
	config.ProgressCallback = func(iter, total int, _ float64) {
		assert.Equal(t, 260, total)
		assert.Greater(t, iter, last)
		last = iter
		calls++
	}

	model := New(config)
	_, err := model.FitTransform(data)
	require.NoError(t, err)
	assert.Equal(t, model.NIter()+1, calls)
}

func TestValidation(t *testing.T) {
	data := generateBlobs(10, 2, 3, 1)

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"perplexity not less than n_samples", func(c *Config) { c.Perplexity = 10 }},
		{"zero perplexity", func(c *Config) { c.Perplexity = 0 }},
		{"barnes hut three components", func(c *Config) { c.NComponents = 3 }},
		{"zero components", func(c *Config) { c.NComponents = 0; c.Method = MethodExact }},
		{"short max iter", func(c *Config) { c.MaxIter = 100 }},
		{"angle", func(c *Config) { c.Angle = 1.5 }},
		{"method", func(c *Config) { c.Method = "fft" }},
		{"metric", func(c *Config) { c.Metric = "hamming" }},
		{"init", func(c *Config) { c.Init = "spectral" }},
		{"seed", func(c *Config) { c.Seed = -1 }},
		{"exaggeration", func(c *Config) { c.EarlyExaggeration = 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.Perplexity = 3
			tt.modify(&config)

			_, err := New(config).FitTransform(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.NotValid), "got %v", err)
		})
	}
}

func TestNonFiniteInput(t *testing.T) {
	data := generateBlobs(10, 2, 3, 1)
	data.Set(4, 1, math.NaN())

	config := DefaultConfig()
	config.Perplexity = 3
	_, err := New(config).FitTransform(data)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	config := DefaultConfig()
	config.Perplexity = 3
	_, err := New(config).FitTransformContext(ctx, generateBlobs(20, 2, 3, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkTSNE(b *testing.B) {
	data := generateBlobs(1000, 5, 50, 42)

	config := DefaultConfig()
	config.MaxIter = 300

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		model := New(config)
		if _, err := model.FitTransform(data); err != nil {
			b.Fatal(err)
		}
	}
}
