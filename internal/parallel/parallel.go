// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// NumWorkers returns the default number of workers, GOMAXPROCS.
func NumWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Resolve returns n if positive, otherwise NumWorkers.
func Resolve(n int) int {
	if n <= 0 {
		return NumWorkers()
	}
	return n
}

// For calls fn for every index in [start, end) using up to n goroutines.
// Each goroutine owns one contiguous chunk, so fn may write to
// index-addressed storage without locking.
func For(start, end, n int, fn func(i int)) {
	total := end - start
	if total <= 0 {
		return
	}
	if n <= 1 || total == 1 {
		for i := start; i < end; i++ {
			fn(i)
		}
		return
	}

	n = min(n, total)
	chunk := (total + n - 1) / n
	var g errgroup.Group
	for lo := start; lo < end; lo += chunk {
		hi := min(lo+chunk, end)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Map applies fn to every index in [start, end) and returns the results
// in index order.
func Map[T any](start, end, n int, fn func(i int) T) []T {
	if end <= start {
		return nil
	}
	results := make([]T, end-start)
	For(start, end, n, func(i int) {
		results[i-start] = fn(i)
	})
	return results
}

// Sum adds the results of fn over [start, end) in index order, so the
// total does not depend on n.
func Sum(start, end, n int, fn func(i int) float64) float64 {
	var total float64
	for _, v := range Map(start, end, n, fn) {
		total += v
	}
	return total
}
