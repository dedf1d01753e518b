/*
Package grid provides the periodic grid fields of the simulation.

A Field holds a block of consecutive rows of an N×N periodic grid, together
with two ghost rows: a copy of the row preceding the block and a copy of the
row following it. The ghost rows are refreshed by the halo package before
each stencil evaluation; they are never part of the authoritative state.

The rows of a Field are addressed with local row indices. Row 0 is the first
owned row and Rows()-1 the last one. Row(-1) and Row(Rows()) return the
leading and trailing ghost rows.
*/
package grid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// An Executor runs loops over ranges of rows. Both parallel.Executor and
// sequential.Executor implement it.
//
// Range and Float64RangeSum must return only when the range function has
// been invoked for the whole range.
type Executor interface {
	Range(low, high int, f func(low, high int) error) error
	Float64RangeSum(low, high int, reduce func(low, high int) (float64, error)) (float64, error)
}

/*
A Field is a block of rows of a periodic N×N grid of float64 values,
padded with one ghost row on each side.

The storage is a single (rows+2)×N dense matrix. A Field is created once
and then modified in place; it is never reallocated.
*/
type Field struct {
	n, start, rows int
	data           *mat.Dense
}

// New returns a zero Field for the rows from start to start+rows of an n×n
// grid.
func New(start, rows, n int) *Field {
	if n < 1 || rows < 1 || start < 0 || start+rows > n {
		panic(fmt.Sprintf("invalid block: rows %v:%v of %v", start, start+rows, n))
	}
	return &Field{
		n:     n,
		start: start,
		rows:  rows,
		data:  mat.NewDense(rows+2, n, nil),
	}
}

// N returns the side length of the global grid.
func (f *Field) N() int { return f.n }

// Start returns the global index of the first owned row.
func (f *Field) Start() int { return f.start }

// Rows returns the number of owned rows.
func (f *Field) Rows() int { return f.rows }

// Row returns the storage of local row i, for -1 <= i <= Rows(). The
// result aliases the field.
func (f *Field) Row(i int) []float64 {
	return f.data.RawRowView(i + 1)
}

// At returns the value of the owned cell at local row i and column j.
func (f *Field) At(i, j int) float64 {
	return f.data.At(i+1, j)
}

// Set sets the value of the owned cell at local row i and column j.
func (f *Field) Set(i, j int, v float64) {
	f.data.Set(i+1, j, v)
}

// Owned returns a view of the owned rows, without the ghost rows.
func (f *Field) Owned() *mat.Dense {
	return f.data.Slice(1, f.rows+1, 0, f.n).(*mat.Dense)
}

// Fill sets every owned cell to v.
func (f *Field) Fill(v float64) {
	for i := 0; i < f.rows; i++ {
		row := f.Row(i)
		for j := range row {
			row[j] = v
		}
	}
}

// SumSquares returns the sum of the squares of all owned cells. Ghost rows
// do not contribute.
func (f *Field) SumSquares(exec Executor) (float64, error) {
	return exec.Float64RangeSum(0, f.rows, func(low, high int) (sum float64, _ error) {
		for i := low; i < high; i++ {
			row := f.Row(i)
			sum += floats.Dot(row, row)
		}
		return
	})
}

// Pack appends the owned rows to dst in row-major order.
func (f *Field) Pack(dst []float64) []float64 {
	for i := 0; i < f.rows; i++ {
		dst = append(dst, f.Row(i)...)
	}
	return dst
}
