/*
Package halo refreshes the ghost rows of grid fields before a stencil
evaluation.

After Exchange returns, the leading ghost row of each field holds the row
preceding its block on the periodic grid, and the trailing ghost row holds
the row following it. Exchange must be called once per step, before the
stencil is evaluated, by every worker of a group.
*/
package halo

import (
	"fmt"

	"github.com/exascience/fhn/comm"
	"github.com/exascience/fhn/grid"
)

// An Exchanger refreshes the ghost rows of fields that share one block.
type Exchanger interface {
	Exchange(fields ...*grid.Field) error
}

// Periodic refreshes the ghost rows of fields that cover the whole grid by
// wrapping around: the last row becomes the leading ghost and the first row
// the trailing ghost.
type Periodic struct{}

// Exchange implements Exchanger.
func (Periodic) Exchange(fields ...*grid.Field) error {
	for _, f := range fields {
		if f.Rows() != f.N() {
			return fmt.Errorf("halo: periodic exchange on a block of %v of %v rows", f.Rows(), f.N())
		}
		copy(f.Row(-1), f.Row(f.Rows()-1))
		copy(f.Row(f.Rows()), f.Row(0))
	}
	return nil
}

/*
A Ring exchanges boundary rows with the neighbours of a worker in a comm
group. Each worker sends its first row to its predecessor and its last row to
its successor, and receives their last and first rows in return. The rows of
all fields passed to one Exchange call travel in a single message per
direction.

A Ring with a group of size 1 sends to itself, which amounts to the same
wrap-around as Periodic.
*/
type Ring struct {
	ep                  *comm.Endpoint
	first, last, ghosts []float64
}

// NewRing returns a Ring for the given endpoint.
func NewRing(ep *comm.Endpoint) *Ring {
	return &Ring{ep: ep}
}

func (r *Ring) buffers(size int) {
	if cap(r.first) < size {
		r.first = make([]float64, size)
		r.last = make([]float64, size)
		r.ghosts = make([]float64, size)
	}
	r.first, r.last, r.ghosts = r.first[:size], r.last[:size], r.ghosts[:size]
}

// Exchange implements Exchanger.
func (r *Ring) Exchange(fields ...*grid.Field) error {
	if len(fields) == 0 {
		return nil
	}
	n := fields[0].N()
	r.buffers(len(fields) * n)
	for k, f := range fields {
		copy(r.first[k*n:], f.Row(0))
		copy(r.last[k*n:], f.Row(f.Rows()-1))
	}
	if err := r.ep.SendPrev(r.first); err != nil {
		return fmt.Errorf("halo: rank %v: %w", r.ep.Rank(), err)
	}
	if err := r.ep.SendNext(r.last); err != nil {
		return fmt.Errorf("halo: rank %v: %w", r.ep.Rank(), err)
	}
	if err := r.ep.RecvNext(r.ghosts); err != nil {
		return fmt.Errorf("halo: rank %v: %w", r.ep.Rank(), err)
	}
	for k, f := range fields {
		copy(f.Row(f.Rows()), r.ghosts[k*n:(k+1)*n])
	}
	if err := r.ep.RecvPrev(r.ghosts); err != nil {
		return fmt.Errorf("halo: rank %v: %w", r.ep.Rank(), err)
	}
	for k, f := range fields {
		copy(f.Row(-1), r.ghosts[k*n:(k+1)*n])
	}
	return nil
}
