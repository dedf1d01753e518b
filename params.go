package fhn

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfig is returned, wrapped, for parameter sets that cannot be run.
var ErrConfig = errors.New("fhn: invalid configuration")

// Parameters holds the constants of a simulation run. A Parameters value is
// set once at startup and not modified afterwards.
type Parameters struct {
	// N is the side length of the grid.
	N int

	// A, B, C, and D are the reaction coefficients.
	A, B, C, D float64

	// DD is the diffusion coefficient of u; v diffuses with D*DD.
	DD float64

	// Dt is the time step.
	Dt float64

	// Steps is the total number of time steps.
	Steps int

	// Interval is the number of steps between two diagnostic records.
	Interval int
}

// Default returns the parameters of the reference run.
func Default() Parameters {
	return Parameters{
		N:        64,
		A:        1,
		B:        0.1,
		C:        0.1,
		D:        1,
		DD:       4e-4,
		Dt:       0.01,
		Steps:    100,
		Interval: 10,
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

/*
Validate checks whether the parameters can be run by the given number of
workers. Use 1 for a shared-memory run.

The grid must have at least 3 rows and columns, and its side length must be
divisible by the number of workers. All coefficients must be finite, Dt must
be positive, Steps must be positive, and Interval must be between 1 and
Steps.
*/
func (p *Parameters) Validate(workers int) error {
	switch {
	case p.N < 3:
		return fmt.Errorf("%w: grid side %v is smaller than 3", ErrConfig, p.N)
	case workers < 1:
		return fmt.Errorf("%w: invalid number of workers: %v", ErrConfig, workers)
	case workers > p.N:
		return fmt.Errorf("%w: %v workers for %v rows", ErrConfig, workers, p.N)
	case p.N%workers != 0:
		return fmt.Errorf("%w: grid side %v is not divisible by %v workers", ErrConfig, p.N, workers)
	}
	for _, c := range []struct {
		name  string
		value float64
	}{{"a", p.A}, {"b", p.B}, {"c", p.C}, {"d", p.D}, {"DD", p.DD}, {"dt", p.Dt}} {
		if !finite(c.value) {
			return fmt.Errorf("%w: coefficient %v is not finite: %v", ErrConfig, c.name, c.value)
		}
	}
	switch {
	case p.Dt <= 0:
		return fmt.Errorf("%w: non-positive time step %v", ErrConfig, p.Dt)
	case p.Steps <= 0:
		return fmt.Errorf("%w: non-positive step count %v", ErrConfig, p.Steps)
	case p.Interval <= 0:
		return fmt.Errorf("%w: non-positive emission interval %v", ErrConfig, p.Interval)
	case p.Interval > p.Steps:
		return fmt.Errorf("%w: emission interval %v exceeds step count %v", ErrConfig, p.Interval, p.Steps)
	}
	return nil
}

// Time returns the simulated time of step k.
func (p *Parameters) Time(k int) float64 {
	return p.Dt * float64(k)
}

// Emits reports whether step k produces a diagnostic record.
func (p *Parameters) Emits(k int) bool {
	return k%p.Interval == 0
}

// Records returns the number of diagnostic records a complete run emits.
func (p *Parameters) Records() int {
	return (p.Steps-1)/p.Interval + 1
}
