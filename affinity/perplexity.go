package affinity

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/internal/parallel"
	"github.com/nozzle/tsne/nn"
)

const (
	// nSteps bounds the binary search iterations.
	nSteps = 100

	// perplexityTolerance is the accepted entropy error.
	perplexityTolerance = 1e-5

	// epsilonDbl replaces the sum of an all-zero kernel row.
	epsilonDbl = 1e-8

	machineEpsilon = 0x1p-52
)

// Config configures affinity computation.
type Config struct {
	// Perplexity is the target perplexity of every conditional distribution
	Perplexity float64
	// NumWorkers for parallel processing (0 = auto)
	NumWorkers int
	// Verbose enables progress output
	Verbose bool
}

// calibrateRow fills p with the conditional probabilities of one sample.
// dist holds the (squared) distances to the candidates; the entry at skip is
// the sample itself and is left at zero (skip < 0 means no self entry).
// Returns the precision beta = 1 / (2 sigma^2) that was found.
func calibrateRow(dist, p []float64, skip int, desiredEntropy float64) float64 {
	betaMin := math.Inf(-1)
	betaMax := math.Inf(1)
	beta := 1.0

	for range nSteps {
		sumP := 0.0
		for j, d := range dist {
			if j == skip {
				continue
			}
			p[j] = math.Exp(-d * beta)
			sumP += p[j]
		}
		if sumP == 0 {
			sumP = epsilonDbl
		}

		sumDistP := 0.0
		for j, d := range dist {
			if j == skip {
				continue
			}
			p[j] /= sumP
			sumDistP += d * p[j]
		}

		entropy := math.Log(sumP) + beta*sumDistP
		diff := entropy - desiredEntropy
		if math.Abs(diff) <= perplexityTolerance {
			break
		}

		if diff > 0 {
			betaMin = beta
			if math.IsInf(betaMax, 1) {
				beta *= 2
			} else {
				beta = (beta + betaMax) / 2
			}
		} else {
			betaMax = beta
			if math.IsInf(betaMin, -1) {
				beta /= 2
			} else {
				beta = (beta + betaMin) / 2
			}
		}
	}

	return beta
}

// ConditionalProbabilities calibrates every row of dist to the target perplexity.
// If selfIndexed is true, row i of dist contains the sample itself at column i.
func ConditionalProbabilities(dist [][]float64, selfIndexed bool, config Config) [][]float64 {
	n := len(dist)
	desiredEntropy := math.Log(config.Perplexity)
	numWorkers := parallel.Resolve(config.NumWorkers)

	p := make([][]float64, n)
	betas := parallel.Map(0, n, numWorkers, func(i int) float64 {
		p[i] = make([]float64, len(dist[i]))
		skip := -1
		if selfIndexed {
			skip = i
		}
		return calibrateRow(dist[i], p[i], skip, desiredEntropy)
	})

	if config.Verbose {
		log.Info().Msgf("[t-SNE] Computed conditional probabilities for sample %d / %d", n, n)
		log.Info().Msgf("[t-SNE] Mean sigma: %f", math.Sqrt(float64(n)/floats.Sum(betas)))
	}

	return p
}

// JointProbabilities computes the dense joint probability matrix used by exact t-SNE.
// dist is the full matrix of (squared) pairwise distances.
// Off-diagonal entries are floored at machine epsilon, the diagonal is zero.
func JointProbabilities(dist mat.Symmetric, config Config) *mat.SymDense {
	n := dist.SymmetricDim()
	rows := make([][]float64, n)
	for i := range n {
		rows[i] = make([]float64, n)
		for j := range n {
			rows[i][j] = dist.At(i, j)
		}
	}

	cond := ConditionalProbabilities(rows, true, config)

	var sum float64
	for i := range n {
		for j := range n {
			sum += cond[i][j]
		}
	}
	// P + P^T doubles the total.
	sum = math.Max(2*sum, machineEpsilon)

	p := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i + 1; j < n; j++ {
			v := (cond[i][j] + cond[j][i]) / sum
			p.SetSym(i, j, math.Max(v, machineEpsilon))
		}
	}
	return p
}

// JointProbabilitiesNN computes the sparse joint probabilities used by Barnes-Hut t-SNE.
// Only the k nearest neighbors of each sample carry probability mass.
func JointProbabilitiesNN(knn *nn.KNNGraph, config Config) *CSRMatrix {
	n := knn.N
	cond := ConditionalProbabilities(knn.Distances, false, config)

	rows := make([]int32, 0, n*knn.K)
	cols := make([]int32, 0, n*knn.K)
	data := make([]float64, 0, n*knn.K)
	for i := range n {
		for j, neighbor := range knn.Indices[i] {
			if neighbor < 0 {
				continue
			}
			rows = append(rows, int32(i))
			cols = append(cols, neighbor)
			data = append(data, cond[i][j])
		}
	}

	p := symmetrize(cooToCSR(rows, cols, data, n, n))
	p.Scale(1 / math.Max(p.Sum(), machineEpsilon))
	return p
}
