package distance

import (
	"math"
	"testing"
)

func TestEuclidean(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{3, 4, 0}

	dist := Euclidean(a, b)
	expected := 5.0

	if math.Abs(dist-expected) > 1e-9 {
		t.Errorf("Expected %f, got %f", expected, dist)
	}
}

func TestSquaredEuclidean(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{3, 4, 0}

	if dist := SquaredEuclidean(a, b); math.Abs(dist-25) > 1e-9 {
		t.Errorf("Expected 25, got %f", dist)
	}
}

func TestManhattan(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{3, 4, 5}

	if dist := Manhattan(a, b); math.Abs(dist-12) > 1e-9 {
		t.Errorf("Expected 12, got %f", dist)
	}
}

func TestChebyshev(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{3, -7, 5}

	if dist := Chebyshev(a, b); math.Abs(dist-7) > 1e-9 {
		t.Errorf("Expected 7, got %f", dist)
	}
}

func TestCosine(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}

	// Orthogonal vectors have cosine similarity 0, distance 1
	if dist := Cosine(a, b); math.Abs(dist-1) > 1e-9 {
		t.Errorf("Expected 1, got %f", dist)
	}

	// Same direction should have distance 0
	c := []float64{2, 0, 0}
	if dist := Cosine(a, c); math.Abs(dist) > 1e-9 {
		t.Errorf("Same direction should have distance 0, got %f", dist)
	}
}

func TestCorrelation(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{2, 4, 6}
	c := []float64{3, 2, 1}

	if dist := Correlation(a, b); math.Abs(dist) > 1e-9 {
		t.Errorf("Perfectly correlated vectors should have distance 0, got %f", dist)
	}
	if dist := Correlation(a, c); math.Abs(dist-2) > 1e-9 {
		t.Errorf("Anti-correlated vectors should have distance 2, got %f", dist)
	}
}

func TestRegistry(t *testing.T) {
	metrics := []string{"euclidean", "l2", "manhattan", "l1", "cosine", "chebyshev", "canberra", "braycurtis"}

	for _, name := range metrics {
		fn, ok := Get(name)
		if !ok {
			t.Errorf("Metric %s not found in registry", name)
			continue
		}

		dist := fn([]float64{1, 2, 3}, []float64{4, 5, 6})
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			t.Errorf("Metric %s returned non-finite value: %f", name, dist)
		}
	}
}

func TestForAffinitySquaresEuclidean(t *testing.T) {
	fn, ok := ForAffinity("euclidean")
	if !ok {
		t.Fatal("euclidean not found")
	}
	if dist := fn([]float64{0, 0}, []float64{3, 4}); math.Abs(dist-25) > 1e-9 {
		t.Errorf("Expected squared distance 25, got %f", dist)
	}

	fn, _ = ForAffinity("manhattan")
	if dist := fn([]float64{0, 0}, []float64{3, 4}); math.Abs(dist-7) > 1e-9 {
		t.Errorf("Expected manhattan distance 7, got %f", dist)
	}

	if _, ok := ForAffinity("nope"); ok {
		t.Error("unknown metric should not resolve")
	}
}

func TestPairwise(t *testing.T) {
	data := [][]float64{{0, 0}, {3, 4}, {6, 8}}
	for _, workers := range []int{1, 4} {
		d := Pairwise(data, Euclidean, workers)
		if n, _ := d.Dims(); n != 3 {
			t.Fatalf("Expected 3x3 matrix, got %d", n)
		}
		expected := [][]float64{{0, 5, 10}, {5, 0, 5}, {10, 5, 0}}
		for i := range expected {
			for j := range expected[i] {
				if math.Abs(d.At(i, j)-expected[i][j]) > 1e-9 {
					t.Errorf("workers=%d: D[%d][%d] = %f, expected %f", workers, i, j, d.At(i, j), expected[i][j])
				}
			}
		}
	}
}

func BenchmarkEuclidean(b *testing.B) {
	x := make([]float64, 100)
	y := make([]float64, 100)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i + 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Euclidean(x, y)
	}
}
