package layout

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nozzle/tsne/internal/parallel"
)

// machineEpsilon floors probabilities before taking logarithms.
const machineEpsilon = 0x1p-52

// gradientConstant returns 2(dof+1)/dof, the factor of the t-SNE gradient.
func gradientConstant(dof float64) float64 {
	return 2 * (dof + 1) / dof
}

// studentT returns the unnormalised Student-t kernel for squared distance d2.
func studentT(d2, dof float64) float64 {
	q := dof / (dof + d2)
	if dof != 1 {
		q = math.Pow(q, (dof+1)/2)
	}
	return q
}

// ExactObjective returns the O(n^2) KL divergence objective over the dense
// joint probabilities p of an embedding with dim components.
func ExactObjective(p mat.Symmetric, dim int, dof float64, numWorkers int) Objective {
	n := p.SymmetricDim()
	numWorkers = parallel.Resolve(numWorkers)
	c := gradientConstant(dof)
	q := make([]float64, n*n)

	return func(params, grad []float64, exaggeration float64, computeError bool) float64 {
		// Unnormalised kernel values, both triangles.
		sumQ := parallel.Sum(0, n, numWorkers, func(i int) float64 {
			var s float64
			yi := params[i*dim : (i+1)*dim]
			for j := range n {
				if i == j {
					q[i*n+j] = 0
					continue
				}
				yj := params[j*dim : (j+1)*dim]
				var d2 float64
				for d := range dim {
					diff := yi[d] - yj[d]
					d2 += diff * diff
				}
				q[i*n+j] = studentT(d2, dof)
				s += q[i*n+j]
			}
			return s
		})

		kl := parallel.Sum(0, n, numWorkers, func(i int) float64 {
			yi := params[i*dim : (i+1)*dim]
			gi := grad[i*dim : (i+1)*dim]
			for d := range gi {
				gi[d] = 0
			}
			var kl float64
			for j := range n {
				if i == j {
					continue
				}
				pij := exaggeration * p.At(i, j)
				qij := max(q[i*n+j]/sumQ, machineEpsilon)
				if computeError {
					kl += pij * math.Log(max(pij, machineEpsilon)/qij)
				}
				pqd := (pij - qij) * q[i*n+j]
				yj := params[j*dim : (j+1)*dim]
				for d := range dim {
					gi[d] += pqd * (yi[d] - yj[d])
				}
			}
			for d := range gi {
				gi[d] *= c
			}
			return kl
		})
		return kl
	}
}
