package affinity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/distance"
	"github.com/nozzle/tsne/nn"
)

func gridData() [][]float64 {
	data := make([][]float64, 0, 36)
	for x := range 6 {
		for y := range 6 {
			data = append(data, []float64{float64(x), float64(y), float64(x*y) / 10})
		}
	}
	return data
}

func TestCalibrateRowReachesPerplexity(t *testing.T) {
	dist := []float64{0, 1, 2, 4, 8, 16, 32}
	p := make([]float64, len(dist))

	perplexity := 3.0
	beta := calibrateRow(dist, p, 0, math.Log(perplexity))
	require.Greater(t, beta, 0.0)

	assert.Zero(t, p[0])
	var sum, entropy float64
	for j, v := range p {
		if j == 0 || v == 0 {
			continue
		}
		sum += v
		entropy -= v * math.Log(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, perplexity, math.Exp(entropy), 1e-3)
}

func TestConditionalProbabilitiesRowsSumToOne(t *testing.T) {
	data := gridData()
	d := distance.Pairwise(data, distance.SquaredEuclidean, 2)
	n := len(data)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, d)
	}

	cond := ConditionalProbabilities(rows, true, Config{Perplexity: 5, NumWorkers: 2})
	for i, row := range cond {
		assert.Zero(t, row[i], "self probability of row %d", i)
		var sum float64
		for _, v := range row {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d", i)
	}
}

func TestJointProbabilitiesSymmetricAndNormalized(t *testing.T) {
	data := gridData()
	d := distance.Pairwise(data, distance.SquaredEuclidean, 0)

	p := JointProbabilities(d, Config{Perplexity: 5})
	n := p.SymmetricDim()
	require.Equal(t, len(data), n)

	var sum float64
	for i := range n {
		assert.Zero(t, p.At(i, i))
		for j := range n {
			sum += p.At(i, j)
			assert.Greater(t, p.At(i, j)+boolToFloat(i == j), 0.0)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestJointProbabilitiesNN(t *testing.T) {
	data := gridData()
	perplexity := 5.0
	k := int(3*perplexity + 1)
	knn := nn.BruteForceKNN(data, k, distance.SquaredEuclidean, 0)

	p := JointProbabilitiesNN(knn, Config{Perplexity: perplexity})
	assert.Equal(t, len(data), p.NRows)
	assert.InDelta(t, 1.0, p.Sum(), 1e-9)

	for i := range p.NRows {
		cols, vals := p.GetRow(i)
		for idx, j := range cols {
			assert.NotEqual(t, int32(i), j, "self edge at %d", i)
			assert.LessOrEqual(t, vals[idx], 1.0)
			assert.InDelta(t, vals[idx], p.At(int(j), i), 1e-15, "asymmetric edge (%d,%d)", i, j)
		}
	}
}

func TestSymmetrize(t *testing.T) {
	a := cooToCSR(
		[]int32{0, 0, 1},
		[]int32{1, 2, 2},
		[]float64{1, 2, 3},
		3, 3,
	)
	s := symmetrize(a)

	expected := [][]float64{
		{0, 1, 2},
		{1, 0, 3},
		{2, 3, 0},
	}
	for i := range expected {
		for j := range expected[i] {
			assert.Equal(t, expected[i][j], s.At(i, j), "(%d,%d)", i, j)
		}
	}
	assert.Equal(t, 6, s.NNZ)
}

func TestFromDense(t *testing.T) {
	p := mat.NewSymDense(3, []float64{
		9, 0.1, 0,
		0.1, 9, 0.2,
		0, 0.2, 9,
	})
	g := FromDense(p)

	assert.Equal(t, 4, g.NNZ)
	assert.Equal(t, 0.1, g.At(0, 1))
	assert.Equal(t, 0.2, g.At(2, 1))
	assert.Zero(t, g.At(0, 0))
	assert.Zero(t, g.At(0, 2))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
