package comm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/exascience/fhn/parallel"
)

// spmd runs f on every rank of a new group of the given size.
func spmd(size int, f func(e *Endpoint) error) (*Group, error) {
	g := NewGroup(size)
	thunks := make([]func() error, size)
	for r := range thunks {
		e := g.Endpoint(r)
		thunks[r] = func() error {
			err := f(e)
			if err != nil {
				e.Abort(err)
			}
			return err
		}
	}
	return g, parallel.Do(thunks...)
}

func TestRingExchange(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5} {
		_, err := spmd(size, func(e *Endpoint) error {
			for step := 0; step < 10; step++ {
				mine := []float64{float64(e.Rank()), float64(step)}
				if err := e.SendPrev(mine); err != nil {
					return err
				}
				if err := e.SendNext(mine); err != nil {
					return err
				}
				// the sent slice may be reused right away
				mine[0], mine[1] = -1, -1
				fromPrev, fromNext := make([]float64, 2), make([]float64, 2)
				if err := e.RecvNext(fromNext); err != nil {
					return err
				}
				if err := e.RecvPrev(fromPrev); err != nil {
					return err
				}
				if fromPrev[0] != float64(e.Prev()) || fromNext[0] != float64(e.Next()) {
					return fmt.Errorf("rank %v step %v: got %v from prev, %v from next", e.Rank(), step, fromPrev, fromNext)
				}
				if fromPrev[1] != float64(step) || fromNext[1] != float64(step) {
					return fmt.Errorf("rank %v step %v: messages overtook each other", e.Rank(), step)
				}
			}
			return nil
		})
		if err != nil {
			t.Errorf("size %v: %v", size, err)
		}
	}
}

func TestAllReduceSum(t *testing.T) {
	const size = 6
	results := make([][]float64, size)
	_, err := spmd(size, func(e *Endpoint) error {
		for round := 0; round < 3; round++ {
			local := []float64{float64(e.Rank()), 1, float64(round)}
			sum, err := e.AllReduceSum(local)
			if err != nil {
				return err
			}
			if local[0] != float64(e.Rank()) || local[1] != 1 {
				return fmt.Errorf("rank %v: input modified to %v", e.Rank(), local)
			}
			results[e.Rank()] = sum
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for r, sum := range results {
		if sum[0] != 15 || sum[1] != size || sum[2] != 2*size {
			t.Errorf("rank %v: got %v", r, sum)
		}
	}
}

func TestGather(t *testing.T) {
	var gathered [][]float64
	_, err := spmd(4, func(e *Endpoint) error {
		slots, err := e.Gather([]float64{float64(e.Rank()), float64(e.Rank() * e.Rank())})
		if e.Rank() == 0 {
			gathered = slots
		} else if slots != nil {
			return fmt.Errorf("rank %v received gathered slots", e.Rank())
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	for r, slot := range gathered {
		if slot[0] != float64(r) || slot[1] != float64(r*r) {
			t.Errorf("slot %v: %v", r, slot)
		}
	}
}

func TestAbortReleasesBlockedWorkers(t *testing.T) {
	boom := errors.New("boom")
	g, err := spmd(4, func(e *Endpoint) error {
		if e.Rank() == 2 {
			return boom
		}
		_, err := e.AllReduceSum([]float64{1})
		if err == nil {
			err = e.RecvPrev(make([]float64, 1))
		}
		return err
	})
	if !errors.Is(err, ErrAborted) && !errors.Is(err, boom) {
		t.Fatalf("unexpected error %v", err)
	}
	if g.Err() != boom {
		t.Errorf("group cause is %v", g.Err())
	}
}

func TestLocal(t *testing.T) {
	in := []float64{1, 2}
	out, err := Local{}.AllReduceSum(in)
	if err != nil || out[0] != 1 || out[1] != 2 {
		t.Fatalf("got %v %v", out, err)
	}
	out[0] = 5
	if in[0] != 1 {
		t.Errorf("output aliases input")
	}
	slots, err := Local{}.Gather(in)
	if err != nil || len(slots) != 1 || slots[0][1] != 2 {
		t.Fatalf("got %v %v", slots, err)
	}
	slots[0][1] = 7
	if in[1] != 2 {
		t.Errorf("gathered slot aliases input")
	}
}
