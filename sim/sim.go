/*
Package sim drives the time loop of a FitzHugh-Nagumo simulation.

Run integrates the whole grid as a single block whose cells are processed by
a data-parallel executor. RunDistributed splits the grid into row blocks,
one per worker, and runs the workers in lock-step: every step they exchange
halo rows with their ring neighbours, and every emitting step they all-reduce
the norms, after which rank 0 passes the record to the sink.

Both modes share one worker loop. For fixed parameters, the records of a
distributed run agree with those of a shared-memory run up to the rounding
differences of the norm summation.
*/
package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/exascience/fhn"
	"github.com/exascience/fhn/comm"
	"github.com/exascience/fhn/decomp"
	"github.com/exascience/fhn/diag"
	"github.com/exascience/fhn/grid"
	"github.com/exascience/fhn/halo"
	"github.com/exascience/fhn/internal"
	"github.com/exascience/fhn/kinetics"
	"github.com/exascience/fhn/parallel"
)

// Options configure a run. The zero Options are valid.
type Options struct {
	// Sink receives the diagnostic records. Only the coordinating worker
	// writes to it. Nil discards the records.
	Sink diag.Sink

	// Executor runs the loops over the rows of a block. Nil selects a
	// parallel.Executor with the default batch count.
	Executor grid.Executor

	// Observer, if not nil, is called by the coordinating worker on each
	// state transition.
	Observer func(State)
}

func (o Options) executor() grid.Executor {
	if o.Executor == nil {
		return parallel.Executor{}
	}
	return o.Executor
}

func (o Options) sink() diag.Sink {
	if o.Sink == nil {
		return diag.Discard
	}
	return o.Sink
}

// Result summarizes a completed run.
type Result struct {
	// Records is the number of emitted diagnostic records.
	Records int

	// T is the simulated time of the last step.
	T float64

	// U and V are the final N×N fields.
	U, V *mat.Dense
}

// collective is implemented by comm.Local and *comm.Endpoint.
type collective interface {
	diag.Reducer
	Gather(local []float64) ([][]float64, error)
}

type worker struct {
	p        *fhn.Parameters
	part     decomp.Partition
	exec     grid.Executor
	halo     halo.Exchanger
	coll     collective
	sink     diag.Sink
	observer func(State)

	u, v, du, dv   *grid.Field
	t              float64
	records        int
	finalU, finalV *mat.Dense
}

func (w *worker) enter(s State) {
	if w.observer != nil {
		w.observer(s)
	}
}

func (w *worker) coordinator() bool {
	return w.part.Rank == 0
}

func (w *worker) initialize() error {
	w.enter(Initializing)
	start, rows, n := w.part.Start, w.part.Rows(), w.p.N
	w.u, w.v = grid.New(start, rows, n), grid.New(start, rows, n)
	w.du, w.dv = grid.New(start, rows, n), grid.New(start, rows, n)
	return grid.Init(w.u, w.v, w.exec)
}

func (w *worker) step(k int) error {
	w.enter(Stepping)
	if err := w.halo.Exchange(w.u, w.v); err != nil {
		return err
	}
	if err := kinetics.Evaluate(w.p, w.du, w.dv, w.u, w.v, w.exec); err != nil {
		return err
	}
	if err := kinetics.Step(w.p.Dt, w.u, w.v, w.du, w.dv, w.exec); err != nil {
		return err
	}
	w.t = w.p.Time(k)
	if w.p.Emits(k) {
		return w.emit()
	}
	return nil
}

func (w *worker) emit() error {
	w.enter(Emitting)
	r, err := diag.Reduce(w.coll, w.t, w.u, w.v, w.exec)
	if err != nil {
		return err
	}
	w.records++
	if w.coordinator() {
		if err := w.sink.Emit(r); err != nil {
			return fmt.Errorf("sim: emitting record at t = %v: %w", r.T, err)
		}
	}
	return nil
}

func (w *worker) finalize() error {
	w.enter(Finalizing)
	w.du, w.dv = nil, nil
	local := w.v.Pack(w.u.Pack(make([]float64, 0, 2*w.part.Rows()*w.p.N)))
	blocks, err := w.coll.Gather(local)
	if err != nil {
		return err
	}
	if w.coordinator() {
		w.finalU, w.finalV = assemble(w.p.N, blocks)
		if err := w.sink.Flush(); err != nil {
			return fmt.Errorf("sim: flushing diagnostics: %w", err)
		}
	}
	w.enter(Finalized)
	return nil
}

// assemble stacks the gathered blocks, each holding the rows of u followed
// by the rows of v, into N×N matrices.
func assemble(n int, blocks [][]float64) (u, v *mat.Dense) {
	u, v = mat.NewDense(n, n, nil), mat.NewDense(n, n, nil)
	row := 0
	for _, block := range blocks {
		rows := len(block) / (2 * n)
		for i := 0; i < rows; i++ {
			u.SetRow(row+i, block[i*n:(i+1)*n])
			v.SetRow(row+i, block[(rows+i)*n:(rows+i+1)*n])
		}
		row += rows
	}
	return
}

func (w *worker) run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = internal.PanicError(p)
		}
	}()
	if err = w.initialize(); err != nil {
		return
	}
	for k := 0; k < w.p.Steps; k++ {
		if err = w.step(k); err != nil {
			return
		}
	}
	return w.finalize()
}

func (w *worker) result() Result {
	return Result{Records: w.records, T: w.t, U: w.finalU, V: w.finalV}
}

// Run integrates the whole grid as a single block in this process.
//
// Run returns an error wrapping fhn.ErrConfig, without emitting anything,
// if the parameters are invalid.
func Run(p fhn.Parameters, opts Options) (Result, error) {
	if err := p.Validate(1); err != nil {
		return Result{}, err
	}
	w := &worker{
		p:        &p,
		part:     decomp.Partition{Rank: 0, Size: 1, Start: 0, End: p.N},
		exec:     opts.executor(),
		halo:     halo.Periodic{},
		coll:     comm.Local{},
		sink:     opts.sink(),
		observer: opts.Observer,
	}
	if err := w.run(); err != nil {
		return w.result(), err
	}
	return w.result(), nil
}

/*
RunDistributed integrates the grid with the given number of workers, each
owning a block of p.N/workers rows and running in its own goroutine.

The workers communicate only through a comm.Group. If any worker fails, the
group is aborted, the remaining workers stop at their next synchronization
point, and RunDistributed returns the error of the failing worker.

RunDistributed returns an error wrapping fhn.ErrConfig, without emitting
anything, if the parameters are invalid or p.N is not divisible by workers.
*/
func RunDistributed(p fhn.Parameters, workers int, opts Options) (Result, error) {
	if err := p.Validate(workers); err != nil {
		return Result{}, err
	}
	parts, err := decomp.Decompose(p.N, workers)
	if err != nil {
		return Result{}, err
	}
	g := comm.NewGroup(workers)
	ws := make([]*worker, workers)
	thunks := make([]func() error, workers)
	for r, part := range parts {
		ep := g.Endpoint(r)
		w := &worker{
			p:    &p,
			part: part,
			exec: opts.executor(),
			halo: halo.NewRing(ep),
			coll: ep,
		}
		if w.coordinator() {
			w.sink, w.observer = opts.sink(), opts.Observer
		}
		ws[r] = w
		thunks[r] = func() error {
			err := w.run()
			if err != nil {
				ep.Abort(fmt.Errorf("worker %v: %w", w.part.Rank, err))
			}
			return err
		}
	}
	err = parallel.Do(thunks...)
	if cause := g.Err(); cause != nil {
		err = cause
	}
	return ws[0].result(), err
}
