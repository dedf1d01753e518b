// Package parallel provides functions for expressing data-parallel loops
// over the rows of a grid.
//
// A range of rows is divided into batches that are executed in separate
// goroutines. Each function returns only when all batches have terminated,
// so consecutive calls are separated by a barrier: no batch of a later call
// starts before every batch of an earlier call has finished.
package parallel

import (
	"fmt"
	"sync"

	"github.com/exascience/fhn/internal"
)

// Do receives zero or more thunks and executes them in parallel.
//
// Each thunk is invoked in its own goroutine, and Do returns only
// when all thunks have terminated, returning the left-most error
// value that is different from nil.
//
// If one or more thunks panic, the corresponding goroutines recover
// the panics, and Do eventually panics with the left-most
// recovered panic value.
func Do(thunks ...func() error) (err error) {
	switch len(thunks) {
	case 0:
		return nil
	case 1:
		return thunks[0]()
	}
	half := len(thunks) / 2
	var err0, err1 error
	var p interface{}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer func() {
			p = recover()
			wg.Done()
		}()
		err1 = Do(thunks[half:]...)
	}()
	err0 = Do(thunks[:half]...)
	wg.Wait()
	if p != nil {
		panic(internal.WrapPanic(p))
	}
	if err0 != nil {
		return err0
	}
	return err1
}

// split divides the range from low to high into n batches and invokes leaf
// for each batch, combining the results of two halves with join. The second
// half is executed in a new goroutine.
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
			var left, right float64
			var err0, err1 error
			var p interface{}
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer func() {
					p = recover()
					wg.Done()
				}()
				right, err1 = recur(mid, high, n-half)
			}()
			left, err0 = recur(low, mid, half)
			wg.Wait()
			if p != nil {
				panic(internal.WrapPanic(p))
			}
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
// each of these batches in parallel, covering the half-open interval
// from low to high, including low but excluding high.
//
// The range is specified by a low and high integer, with low <=
// high. The batches are determined by dividing up the size of the
// range (high - low) by n. If n is 0, a reasonable default is used
// that takes runtime.GOMAXPROCS(0) into account.
//
// The range function is invoked for each batch in its own goroutine,
// with 0 <= low <= high, and Range returns only when all range
// functions have terminated, returning the left-most error value
// that is different from nil.
//
// Range panics if high < low, or if n < 0.
//
// If one or more range function invocations panic, the corresponding
// goroutines recover the panics, and Range eventually panics with
// the left-most recovered panic value.
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

// Float64RangeReduce receives a range, a batch count n, a range
// reducer reduce, and a pair reducer pair, divides the range into
// batches, and invokes the range reducer for each of these batches
// in parallel, covering the half-open interval from low to high,
// including low but excluding high. The results of the range reducer
// invocations are then combined by repeated invocations of the pair
// reducer.
//
// The batches and the order in which their results are combined depend
// only on low, high, and n, so for a fixed batch count the result is
// reproducible from run to run, even for non-associative floating point
// operations.
//
// Float64RangeReduce panics if high < low, or if n < 0.
//
// If one or more reducer invocations panic, the corresponding
// goroutines recover the panics, and Float64RangeReduce eventually
// panics with the left-most recovered panic value.
func Float64RangeReduce(
	low, high, n int,
	reduce func(low, high int) (float64, error),
	pair func(x, y float64) (float64, error),
) (float64, error) {
	return split(low, high, n, reduce, pair)
}

// Float64RangeSum receives a range, a batch count n, and a range
// reducer reduce, and sums the results of the range reducer
// invocations. See Float64RangeReduce.
func Float64RangeSum(
	low, high, n int,
	reduce func(low, high int) (float64, error),
) (float64, error) {
	return split(low, high, n, reduce, func(x, y float64) (float64, error) {
		return x + y, nil
	})
}

// An Executor runs range loops in parallel with a fixed batch count.
//
// The zero Executor uses the default batch count of Range.
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
