/*
Package comm provides an in-process group of workers that communicate only by
message passing.

The workers of a Group are arranged in a ring. Each worker can send rows to
its predecessor and its successor, and all workers take part in collective
operations: an all-reduce sum and a gather to rank 0. Message payloads are
always copied, so workers never share mutable memory.

All operations block until they complete. There are no timeouts; a worker
that fails must call Abort, which makes every pending and future operation
of the group return an error wrapping ErrAborted.
*/
package comm

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAborted is returned, wrapped, by operations of an aborted group.
var ErrAborted = errors.New("comm: group aborted")

type contribution struct {
	rank   int
	values []float64
}

/*
A Group connects size workers.

Each directed ring link has a buffer of one message per direction, so a
worker can send to both neighbours before receiving from either of them.

A Group must not be copied after first use.
*/
type Group struct {
	size int

	// fromPrev[r] carries messages from the predecessor of r to r,
	// fromNext[r] messages from the successor of r to r.
	fromPrev, fromNext []chan []float64

	reduce  chan contribution
	gather  chan contribution
	results []chan []float64

	done  chan struct{}
	once  sync.Once
	cause error
}

// NewGroup returns a group of size workers.
func NewGroup(size int) *Group {
	if size < 1 {
		panic(fmt.Sprintf("invalid group size: %v", size))
	}
	g := &Group{
		size:     size,
		fromPrev: make([]chan []float64, size),
		fromNext: make([]chan []float64, size),
		reduce:   make(chan contribution, size),
		gather:   make(chan contribution, size),
		results:  make([]chan []float64, size),
		done:     make(chan struct{}),
	}
	for r := 0; r < size; r++ {
		g.fromPrev[r] = make(chan []float64, 1)
		g.fromNext[r] = make(chan []float64, 1)
		g.results[r] = make(chan []float64, 1)
	}
	return g
}

// Size returns the number of workers in the group.
func (g *Group) Size() int { return g.size }

// Endpoint returns the endpoint of the worker with the given rank.
func (g *Group) Endpoint(rank int) *Endpoint {
	if rank < 0 || rank >= g.size {
		panic(fmt.Sprintf("invalid rank %v in group of size %v", rank, g.size))
	}
	return &Endpoint{g: g, rank: rank}
}

/*
Abort aborts the group with the given cause. Only the first call has an
effect. Err returns the cause of the first call afterwards.
*/
func (g *Group) Abort(cause error) {
	if cause == nil {
		cause = errors.New("unknown cause")
	}
	g.once.Do(func() {
		g.cause = cause
		close(g.done)
	})
}

// Err returns the cause the group was aborted with, or nil.
func (g *Group) Err() error {
	select {
	case <-g.done:
		return g.cause
	default:
		return nil
	}
}

func (g *Group) aborted() error {
	return fmt.Errorf("%w: %v", ErrAborted, g.cause)
}

func (g *Group) send(ch chan<- []float64, values []float64) error {
	msg := make([]float64, len(values))
	copy(msg, values)
	select {
	case <-g.done:
		return g.aborted()
	default:
	}
	select {
	case ch <- msg:
		return nil
	case <-g.done:
		return g.aborted()
	}
}

func (g *Group) recv(ch <-chan []float64, dst []float64) error {
	select {
	case msg := <-ch:
		if len(msg) != len(dst) {
			return fmt.Errorf("comm: received %v values, expected %v", len(msg), len(dst))
		}
		copy(dst, msg)
		return nil
	case <-g.done:
		return g.aborted()
	}
}

func (g *Group) contribute(ch chan<- contribution, c contribution) error {
	select {
	case ch <- c:
		return nil
	case <-g.done:
		return g.aborted()
	}
}

func (g *Group) collect(ch <-chan contribution, slots [][]float64) error {
	for k := 1; k < g.size; k++ {
		select {
		case c := <-ch:
			slots[c.rank] = c.values
		case <-g.done:
			return g.aborted()
		}
	}
	return nil
}

// An Endpoint is the view of one worker on its group.
type Endpoint struct {
	g    *Group
	rank int
}

// Rank returns the rank of this endpoint.
func (e *Endpoint) Rank() int { return e.rank }

// Size returns the size of the group.
func (e *Endpoint) Size() int { return e.g.size }

// Prev returns the rank of the predecessor on the ring.
func (e *Endpoint) Prev() int { return (e.rank - 1 + e.g.size) % e.g.size }

// Next returns the rank of the successor on the ring.
func (e *Endpoint) Next() int { return (e.rank + 1) % e.g.size }

// Abort aborts the group of this endpoint.
func (e *Endpoint) Abort(cause error) { e.g.Abort(cause) }

// SendPrev sends a copy of values to the predecessor.
func (e *Endpoint) SendPrev(values []float64) error {
	return e.g.send(e.g.fromNext[e.Prev()], values)
}

// SendNext sends a copy of values to the successor.
func (e *Endpoint) SendNext(values []float64) error {
	return e.g.send(e.g.fromPrev[e.Next()], values)
}

// RecvPrev receives the next message from the predecessor into dst, which
// must have the length of the message.
func (e *Endpoint) RecvPrev(dst []float64) error {
	return e.g.recv(e.g.fromPrev[e.rank], dst)
}

// RecvNext receives the next message from the successor into dst.
func (e *Endpoint) RecvNext(dst []float64) error {
	return e.g.recv(e.g.fromNext[e.rank], dst)
}

/*
AllReduceSum returns the element-wise sum of the local slices of all
workers. Every worker must call AllReduceSum with slices of the same length,
and every worker receives the same result in a newly allocated slice; local
is not modified.

The contributions are added in rank order, so the result does not depend on
the order in which the workers arrive.
*/
func (e *Endpoint) AllReduceSum(local []float64) ([]float64, error) {
	g := e.g
	own := make([]float64, len(local))
	copy(own, local)
	if e.rank != 0 {
		if err := g.contribute(g.reduce, contribution{e.rank, own}); err != nil {
			return nil, err
		}
		result := make([]float64, len(local))
		if err := g.recv(g.results[e.rank], result); err != nil {
			return nil, err
		}
		return result, nil
	}
	slots := make([][]float64, g.size)
	slots[0] = own
	if err := g.collect(g.reduce, slots); err != nil {
		return nil, err
	}
	result := make([]float64, len(local))
	for r, values := range slots {
		if len(values) != len(result) {
			err := fmt.Errorf("comm: rank %v contributed %v values, expected %v", r, len(values), len(result))
			g.Abort(err)
			return nil, err
		}
		for i, x := range values {
			result[i] += x
		}
	}
	for r := 1; r < g.size; r++ {
		if err := g.send(g.results[r], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Gather collects copies of the local slices of all workers at rank 0, which
// receives them indexed by rank. The other workers receive nil.
func (e *Endpoint) Gather(local []float64) ([][]float64, error) {
	g := e.g
	own := make([]float64, len(local))
	copy(own, local)
	if e.rank != 0 {
		return nil, g.contribute(g.gather, contribution{e.rank, own})
	}
	slots := make([][]float64, g.size)
	slots[0] = own
	if err := g.collect(g.gather, slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// Local is the collective of a single worker that owns the whole grid.
type Local struct{}

// AllReduceSum returns a copy of local.
func (Local) AllReduceSum(local []float64) ([]float64, error) {
	result := make([]float64, len(local))
	copy(result, local)
	return result, nil
}

// Gather returns a copy of local as the only slice.
func (Local) Gather(local []float64) ([][]float64, error) {
	result := make([]float64, len(local))
	copy(result, local)
	return [][]float64{result}, nil
}
