// Command fhn runs a FitzHugh-Nagumo reaction-diffusion simulation and writes
// the norms of both fields to a text file.
//
// Usage:
//
//	fhn [flags]
//
// With -workers 0 the grid is integrated as a single block by a
// data-parallel loop; with -workers P it is split into P row blocks
// integrated by P workers that exchange halo rows.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/exascience/fhn"
	"github.com/exascience/fhn/diag"
	"github.com/exascience/fhn/grid"
	"github.com/exascience/fhn/parallel"
	"github.com/exascience/fhn/render"
	"github.com/exascience/fhn/sequential"
	"github.com/exascience/fhn/sim"
)

type config struct {
	params     fhn.Parameters
	workers    int
	batches    int
	sequential bool
	out        string
	quiet      bool
	snapshot   string
	cpuprofile string
}

func parseFlags(fs *flag.FlagSet, args []string) (*config, error) {
	c := &config{params: fhn.Default()}
	p := &c.params
	fs.IntVar(&p.N, "n", p.N, "grid side length")
	fs.Float64Var(&p.A, "a", p.A, "reaction coefficient a")
	fs.Float64Var(&p.B, "b", p.B, "reaction coefficient b")
	fs.Float64Var(&p.C, "c", p.C, "reaction coefficient c")
	fs.Float64Var(&p.D, "d", p.D, "diffusion ratio of v")
	fs.Float64Var(&p.DD, "dd", p.DD, "diffusion coefficient")
	fs.Float64Var(&p.Dt, "dt", p.Dt, "time step")
	fs.IntVar(&p.Steps, "steps", p.Steps, "number of time steps")
	fs.IntVar(&p.Interval, "interval", p.Interval, "steps between two records")
	fs.IntVar(&c.workers, "workers", 0, "number of row-block workers (0: single shared-memory block)")
	fs.IntVar(&c.batches, "batches", 0, "batches per parallel loop (0: based on GOMAXPROCS)")
	fs.BoolVar(&c.sequential, "sequential", false, "run the loops of each block sequentially")
	fs.StringVar(&c.out, "out", "nrms.txt", "`file` receiving the norms")
	fs.BoolVar(&c.quiet, "quiet", false, "do not print progress")
	fs.StringVar(&c.snapshot, "snapshot", "", "write heat maps of the final fields to `prefix`-u.png and prefix-v.png")
	fs.StringVar(&c.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.workers < 0 || c.batches < 0 {
		return nil, fmt.Errorf("%w: negative -workers or -batches", fhn.ErrConfig)
	}
	if err := p.Validate(max(c.workers, 1)); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *config) executor() grid.Executor {
	if c.sequential {
		return sequential.Executor{Batches: c.batches}
	}
	return parallel.Executor{Batches: c.batches}
}

func run(c *config, stdout io.Writer) (err error) {
	if c.cpuprofile != "" {
		f, err := os.Create(c.cpuprofile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	text, err := diag.CreateTextSink(c.out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := text.Close(); err == nil {
			err = cerr
		}
	}()
	var sink diag.Sink = text
	if !c.quiet {
		sink = diag.Tee(text, diag.ConsoleSink{W: stdout})
	}

	opts := sim.Options{Sink: sink, Executor: c.executor()}
	var res sim.Result
	if c.workers == 0 {
		res, err = sim.Run(c.params, opts)
	} else {
		res, err = sim.RunDistributed(c.params, c.workers, opts)
	}
	if err != nil {
		return err
	}

	if c.snapshot != "" {
		if err := render.Snapshot(res.U, fmt.Sprintf("u at t = %.2f", res.T), c.snapshot+"-u.png"); err != nil {
			return err
		}
		if err := render.Snapshot(res.V, fmt.Sprintf("v at t = %.2f", res.T), c.snapshot+"-v.png"); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("fhn: ")
	c, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := run(c, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
