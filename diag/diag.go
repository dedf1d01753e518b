// Package diag provides the diagnostic records of a simulation, their
// reduction across workers, and sinks that consume them.
package diag

import (
	"fmt"

	"github.com/exascience/fhn/grid"
)

// A Record holds the sum-of-squares norms of u and v at simulated time T.
type Record struct {
	T, NormU, NormV float64
}

// A Reducer combines per-worker partial sums into global sums. Both
// comm.Local and *comm.Endpoint implement it.
type Reducer interface {
	AllReduceSum(local []float64) ([]float64, error)
}

// Norms returns the sum of squares of the owned cells of u and v.
func Norms(u, v *grid.Field, exec grid.Executor) (normU, normV float64, err error) {
	if normU, err = u.SumSquares(exec); err != nil {
		return
	}
	normV, err = v.SumSquares(exec)
	return
}

// Reduce computes the global record at time t from the local blocks of u
// and v. Every worker of a group must call Reduce for the same step, and
// every worker receives the same record.
func Reduce(r Reducer, t float64, u, v *grid.Field, exec grid.Executor) (Record, error) {
	normU, normV, err := Norms(u, v, exec)
	if err != nil {
		return Record{}, err
	}
	global, err := r.AllReduceSum([]float64{normU, normV})
	if err != nil {
		return Record{}, fmt.Errorf("diag: reducing norms at t = %v: %w", t, err)
	}
	return Record{T: t, NormU: global[0], NormV: global[1]}, nil
}
