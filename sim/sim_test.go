package sim

import (
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/exascience/fhn"
	"github.com/exascience/fhn/comm"
	"github.com/exascience/fhn/diag"
	"github.com/exascience/fhn/parallel"
	"github.com/exascience/fhn/sequential"
)

func record(t *testing.T, run func(diag.Sink) (Result, error)) ([]diag.Record, Result) {
	t.Helper()
	var rec diag.Recorder
	res, err := run(&rec)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Flushed {
		t.Error("sink was not flushed")
	}
	return rec.Records, res
}

func TestEndToEnd(t *testing.T) {
	p := fhn.Default()
	records, res := record(t, func(s diag.Sink) (Result, error) {
		return Run(p, Options{Sink: s})
	})
	if len(records) != 10 || res.Records != 10 {
		t.Fatalf("got %v records, result reports %v", len(records), res.Records)
	}
	cells := float64(p.N * p.N)
	for i, r := range records {
		if want := p.Dt * float64(10*i); r.T != want {
			t.Errorf("record %v: t = %v, want %v", i, r.T, want)
		}
		if i > 0 && r.T <= records[i-1].T {
			t.Errorf("record %v: time does not increase", i)
		}
		// |u| <= 1 and |v| <= 1 keep the norms below the number of cells
		for _, norm := range []float64{r.NormU, r.NormV} {
			if math.IsNaN(norm) || norm < 0 || norm > cells {
				t.Errorf("record %v: norm %v outside [0, %v]", i, norm, cells)
			}
		}
	}
	if res.T != p.Time(p.Steps-1) {
		t.Errorf("final time %v", res.T)
	}
	if r, c := res.U.Dims(); r != p.N || c != p.N {
		t.Errorf("final field is %v×%v", r, c)
	}
}

func TestInitialNorms(t *testing.T) {
	// a negligible step leaves the initial profile unchanged
	p := fhn.Parameters{N: 64, Dt: 1e-300, Steps: 1, Interval: 1}
	records, _ := record(t, func(s diag.Sink) (Result, error) {
		return Run(p, Options{Sink: s})
	})
	var wantU, wantV float64
	for k := 0; k < p.N; k++ {
		u := -0.5 + 0.5*(1+math.Tanh(float64(k-p.N/2)/16))
		v := -0.1 + 0.1*(1+math.Tanh(float64(k-p.N/2)/16))
		wantU += float64(p.N) * u * u
		wantV += float64(p.N) * v * v
	}
	if len(records) != 1 {
		t.Fatalf("got %v records", len(records))
	}
	r := records[0]
	if !scalar.EqualWithinRel(r.NormU, wantU, 1e-12) || !scalar.EqualWithinRel(r.NormV, wantV, 1e-12) {
		t.Errorf("got %+v, want norms %v %v", r, wantU, wantV)
	}
}

func TestDeterminism(t *testing.T) {
	p := fhn.Default()
	p.Steps, p.Interval = 50, 5
	first, _ := record(t, func(s diag.Sink) (Result, error) {
		return Run(p, Options{Sink: s, Executor: parallel.Executor{Batches: 4}})
	})
	second, _ := record(t, func(s diag.Sink) (Result, error) {
		return Run(p, Options{Sink: s, Executor: parallel.Executor{Batches: 4}})
	})
	third, _ := record(t, func(s diag.Sink) (Result, error) {
		return Run(p, Options{Sink: s, Executor: sequential.Executor{Batches: 4}})
	})
	if !reflect.DeepEqual(first, second) || !reflect.DeepEqual(first, third) {
		t.Errorf("runs differ:\n%v\n%v\n%v", first, second, third)
	}
}

func TestDecompositionInvariance(t *testing.T) {
	p := fhn.Default()
	p.N, p.Steps, p.Interval = 32, 60, 7
	p.DD = 0.05
	want, single := record(t, func(s diag.Sink) (Result, error) {
		return Run(p, Options{Sink: s})
	})
	for _, workers := range []int{1, 2, 4, 8, 16, 32} {
		got, res := record(t, func(s diag.Sink) (Result, error) {
			return RunDistributed(p, workers, Options{Sink: s, Executor: parallel.Executor{Batches: 2}})
		})
		if len(got) != len(want) {
			t.Fatalf("workers %v: %v records, want %v", workers, len(got), len(want))
		}
		for i := range got {
			if got[i].T != want[i].T ||
				!scalar.EqualWithinRel(got[i].NormU, want[i].NormU, 1e-9) ||
				!scalar.EqualWithinRel(got[i].NormV, want[i].NormV, 1e-9) {
				t.Errorf("workers %v record %v: got %+v, want %+v", workers, i, got[i], want[i])
			}
		}
		// cell updates do not depend on the decomposition
		if !mat.Equal(res.U, single.U) || !mat.Equal(res.V, single.V) {
			t.Errorf("workers %v: final fields differ", workers)
		}
	}
}

func TestStates(t *testing.T) {
	p := fhn.Parameters{N: 4, A: 1, Dt: 0.1, Steps: 4, Interval: 2}
	want := []State{
		Initializing,
		Stepping, Emitting,
		Stepping,
		Stepping, Emitting,
		Stepping,
		Finalizing, Finalized,
	}
	for _, workers := range []int{0, 2} {
		var got []State
		opts := Options{Observer: func(s State) { got = append(got, s) }}
		var err error
		if workers == 0 {
			_, err = Run(p, opts)
		} else {
			_, err = RunDistributed(p, workers, opts)
		}
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers %v: got %v, want %v", workers, got, want)
		}
	}
	if s := State(42).String(); s != "State(42)" {
		t.Errorf("got %v", s)
	}
}

func TestConfigErrors(t *testing.T) {
	var rec diag.Recorder
	p := fhn.Default()
	p.N = 30
	if _, err := RunDistributed(p, 4, Options{Sink: &rec}); !errors.Is(err, fhn.ErrConfig) {
		t.Errorf("indivisible grid: got %v", err)
	}
	p = fhn.Default()
	p.Steps = 0
	if _, err := Run(p, Options{Sink: &rec}); !errors.Is(err, fhn.ErrConfig) {
		t.Errorf("zero steps: got %v", err)
	}
	if len(rec.Records) != 0 || rec.Flushed {
		t.Errorf("invalid runs produced output")
	}
}

type failingSink struct {
	after int
	err   error
}

func (s *failingSink) Emit(diag.Record) error {
	if s.after == 0 {
		return s.err
	}
	s.after--
	return nil
}

func (s *failingSink) Flush() error { return nil }

func TestSinkFailure(t *testing.T) {
	boom := errors.New("disk full")
	p := fhn.Default()
	if _, err := Run(p, Options{Sink: &failingSink{after: 3, err: boom}}); !errors.Is(err, boom) {
		t.Errorf("shared memory: got %v", err)
	}
	_, err := RunDistributed(p, 4, Options{Sink: &failingSink{after: 3, err: boom}})
	if !errors.Is(err, boom) {
		t.Errorf("distributed: got %v", err)
	}
	if errors.Is(err, comm.ErrAborted) {
		t.Errorf("distributed: reported the abort instead of its cause: %v", err)
	}
}

// panicky fails on the n-th call to Range.
type panicky struct {
	parallel.Executor
	n int32
}

func (e *panicky) Range(low, high int, f func(low, high int) error) error {
	if atomic.AddInt32(&e.n, -1) == 0 {
		panic("worker crashed")
	}
	return e.Executor.Range(low, high, f)
}

func TestWorkerPanic(t *testing.T) {
	p := fhn.Default()
	_, err := RunDistributed(p, 4, Options{Executor: &panicky{n: 20}})
	if err == nil {
		t.Fatal("expected an error")
	}
}
