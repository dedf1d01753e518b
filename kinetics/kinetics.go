// Package kinetics evaluates the FitzHugh-Nagumo reaction-diffusion law on a
// block of grid rows and advances the fields by explicit Euler steps.
//
// Both operations are data-parallel over rows. Evaluate only reads u and v
// and only writes du and dv; Step only reads du and dv. Evaluate must have
// returned for the whole block before Step is called for the same step.
package kinetics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/exascience/fhn"
	"github.com/exascience/fhn/grid"
	"github.com/exascience/fhn/internal"
)

// Laplacian returns the five-point Laplacian at column j of the row mid,
// given the rows above and below it. Columns wrap around periodically.
func Laplacian(above, mid, below []float64, j int) float64 {
	n := len(mid)
	return above[j] + below[j] + mid[internal.Wrap(j-1, n)] + mid[internal.Wrap(j+1, n)] - 4.0*mid[j]
}

/*
Evaluate computes the time derivatives of u and v for every owned cell:

	du = DD·lap(u) + u·(1-u)·(u-b) - v
	dv = d·DD·lap(v) + c·(a·u - v)

The rows preceding and following the block are taken from the ghost rows of
u and v, which must be up to date.
*/
func Evaluate(p *fhn.Parameters, du, dv, u, v *grid.Field, exec grid.Executor) error {
	a, b, c, d, dd := p.A, p.B, p.C, p.D, p.DD
	return exec.Range(0, u.Rows(), func(low, high int) error {
		for i := low; i < high; i++ {
			uAbove, uRow, uBelow := u.Row(i-1), u.Row(i), u.Row(i+1)
			vAbove, vRow, vBelow := v.Row(i-1), v.Row(i), v.Row(i+1)
			duRow, dvRow := du.Row(i), dv.Row(i)
			for j, uij := range uRow {
				vij := vRow[j]
				lapU := Laplacian(uAbove, uRow, uBelow, j)
				lapV := Laplacian(vAbove, vRow, vBelow, j)
				duRow[j] = dd*lapU + uij*(1.0-uij)*(uij-b) - vij
				dvRow[j] = d*dd*lapV + c*(a*uij-vij)
			}
		}
		return nil
	})
}

// Step advances u and v in place by one explicit Euler step of size dt,
// using the derivatives du and dv.
func Step(dt float64, u, v, du, dv *grid.Field, exec grid.Executor) error {
	return exec.Range(0, u.Rows(), func(low, high int) error {
		for i := low; i < high; i++ {
			floats.AddScaled(u.Row(i), dt, du.Row(i))
			floats.AddScaled(v.Row(i), dt, dv.Row(i))
		}
		return nil
	})
}
