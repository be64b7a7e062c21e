package layout

import (
	"math"

	"github.com/nozzle/tsne/affinity"
	"github.com/nozzle/tsne/internal/parallel"
)

// float32Tiny floors probabilities in the Barnes-Hut error term.
const float32Tiny = 0x1p-126

// BarnesHutObjective returns the O(n log n) KL divergence objective over the
// sparse joint probabilities p of a 2-D embedding. Repulsive forces are
// approximated with a QuadTree; angle trades accuracy for speed.
func BarnesHutObjective(p *affinity.CSRMatrix, angle, dof float64, numWorkers int) Objective {
	n := p.NRows
	numWorkers = parallel.Resolve(numWorkers)
	c := gradientConstant(dof)
	squaredTheta := angle * angle
	neg := make([]float64, 2*n)

	return func(params, grad []float64, exaggeration float64, computeError bool) float64 {
		tree := BuildQuadTree(params, n)

		// Repulsive forces and the normalisation term.
		sumQ := parallel.Sum(0, n, numWorkers, func(i int) float64 {
			pt := [2]float64{params[2*i], params[2*i+1]}
			summaries := tree.Summarize(pt, squaredTheta, nil)

			var sumQ, fx, fy float64
			for _, s := range summaries {
				q := studentT(s.Dist2, dof)
				size := float64(s.Size)
				sumQ += size * q
				mult := size * q * q
				fx += mult * s.Delta[0]
				fy += mult * s.Delta[1]
			}
			neg[2*i] = fx
			neg[2*i+1] = fy
			return sumQ
		})

		// Attractive forces over the neighbor graph.
		kl := parallel.Sum(0, n, numWorkers, func(i int) float64 {
			var kl, fx, fy float64
			cols, vals := p.GetRow(i)
			for k, j := range cols {
				pij := exaggeration * vals[k]
				dx := params[2*i] - params[2*int(j)]
				dy := params[2*i+1] - params[2*int(j)+1]
				qij := studentT(dx*dx+dy*dy, dof)
				if computeError {
					kl += pij * math.Log(max(pij, float32Tiny)/max(qij/sumQ, float32Tiny))
				}
				fx += pij * qij * dx
				fy += pij * qij * dy
			}
			grad[2*i] = c * (fx - neg[2*i]/sumQ)
			grad[2*i+1] = c * (fy - neg[2*i+1]/sumQ)
			return kl
		})
		return kl
	}
}
