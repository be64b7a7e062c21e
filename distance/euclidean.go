package distance

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Euclidean computes the standard Euclidean (L2) distance.
// D(x, y) = sqrt(sum((x_i - y_i)^2))
func Euclidean(x, y []float64) float64 {
	return floats.Distance(x, y, 2)
}

// SquaredEuclidean computes the squared Euclidean distance (no sqrt).
// D(x, y) = sum((x_i - y_i)^2)
func SquaredEuclidean(x, y []float64) float64 {
	var sum float64
	for i := range x {
		d := x[i] - y[i]
		sum += d * d
	}
	return sum
}

// Manhattan computes the Manhattan (L1/taxicab) distance.
// D(x, y) = sum(|x_i - y_i|)
func Manhattan(x, y []float64) float64 {
	return floats.Distance(x, y, 1)
}

// Chebyshev computes the Chebyshev (L-infinity) distance.
// D(x, y) = max(|x_i - y_i|)
func Chebyshev(x, y []float64) float64 {
	return floats.Distance(x, y, math.Inf(1))
}

// Cosine computes the cosine distance.
// D(x, y) = 1 - (x . y) / (||x|| * ||y||)
func Cosine(x, y []float64) float64 {
	normX := floats.Norm(x, 2)
	normY := floats.Norm(y, 2)
	if normX == 0 || normY == 0 {
		return 1.0
	}
	similarity := floats.Dot(x, y) / (normX * normY)
	// Clamp to [-1, 1] to handle floating point errors
	return 1.0 - math.Max(-1, math.Min(1, similarity))
}

// Correlation computes the correlation distance.
// D(x, y) = 1 - pearson(x, y)
func Correlation(x, y []float64) float64 {
	if floats.Same(x, y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		// constant vector
		return 1.0
	}
	return 1.0 - r
}

// Canberra computes the Canberra distance.
// D(x, y) = sum(|x_i - y_i| / (|x_i| + |y_i|))
func Canberra(x, y []float64) float64 {
	var sum float64
	for i := range x {
		denom := math.Abs(x[i]) + math.Abs(y[i])
		if denom > 0 {
			sum += math.Abs(x[i]-y[i]) / denom
		}
	}
	return sum
}

// BrayCurtis computes the Bray-Curtis dissimilarity.
// D(x, y) = sum(|x_i - y_i|) / sum(|x_i + y_i|)
func BrayCurtis(x, y []float64) float64 {
	var num, denom float64
	for i := range x {
		num += math.Abs(x[i] - y[i])
		denom += math.Abs(x[i] + y[i])
	}
	if denom == 0 {
		return 0
	}
	return num / denom
}
