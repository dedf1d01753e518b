// Package sequential provides sequential implementations of the
// functions provided by the parallel package. This is useful for
// testing and debugging.
//
// The batches are formed and combined exactly as in the parallel
// package, so for equal batch counts both packages compute bit-identical
// floating point reductions.
package sequential

import (
	"fmt"

	"github.com/exascience/fhn/internal"
)

func split(
	low, high, n int,
	leaf func(low, high int) (float64, error),
	join func(x, y float64) (float64, error),
) (float64, error) {
	var recur func(int, int, int) (float64, error)
	recur = func(low, high, n int) (result float64, err error) {
		switch {
		case n == 1:
			return leaf(low, high)
		case n > 1:
			batchSize := ((high - low - 1) / n) + 1
			half := n / 2
			mid := low + batchSize*half
			if mid >= high {
				return leaf(low, high)
			}
			left, err0 := recur(low, mid, half)
			right, err1 := recur(mid, high, n-half)
			if err0 != nil {
				err = err0
			} else if err1 != nil {
				err = err1
			} else {
				result, err = join(left, right)
			}
			return
		default:
			panic(fmt.Sprintf("invalid number of batches: %v", n))
		}
	}
	return recur(low, high, internal.ComputeNofBatches(low, high, n))
}

// Range receives a range, a batch count n, and a range function f,
// divides the range into batches, and invokes the range function for
// each of these batches sequentially, covering the half-open interval
// from low to high, including low but excluding high.
//
// Range returns the left-most error value that is different from
// nil.
//
// Range panics if high < low, or if n < 0.
func Range(
	low, high, n int,
	f func(low, high int) error,
) error {
	_, err := split(low, high, n,
		func(low, high int) (float64, error) {
			return 0, f(low, high)
		},
		func(_, _ float64) (float64, error) {
			return 0, nil
		},
	)
	return err
}

// Float64RangeSum receives a range, a batch count n, and a range
// reducer reduce, divides the range into batches, invokes the range
// reducer for each of these batches sequentially, and sums the results.
//
// Float64RangeSum panics if high < low, or if n < 0.
func Float64RangeSum(
	low, high, n int,
	reduce func(low, high int) (float64, error),
) (float64, error) {
	return split(low, high, n, reduce, func(x, y float64) (float64, error) {
		return x + y, nil
	})
}

// An Executor runs range loops sequentially with a fixed batch count.
type Executor struct {
	Batches int
}

// Range invokes Range with the batch count of this executor.
func (e Executor) Range(low, high int, f func(low, high int) error) error {
	return Range(low, high, e.Batches, f)
}

// Float64RangeSum invokes Float64RangeSum with the batch count of this
// executor.
func (e Executor) Float64RangeSum(low, high int, reduce func(low, high int) (float64, error)) (float64, error) {
	return Float64RangeSum(low, high, e.Batches, reduce)
}
