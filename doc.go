// Package fhn integrates a two-field FitzHugh-Nagumo reaction-diffusion
// system on a periodic two-dimensional grid, using explicit Euler steps over a
// five-point Laplacian stencil, and periodically reports the sum-of-squares
// norm of each field.
//
// The numerical core can be executed in two ways: as a single block whose
// cells are processed by a data-parallel loop, or as a group of workers that
// each own a contiguous band of rows, exchange halo rows with their ring
// neighbours every step, and jointly reduce the diagnostics.
//
// fhn provides the following subpackages:
//
// fhn/parallel provides parallel range loops and reductions that split a
// range of rows into batches executed in separate goroutines.
//
// fhn/sequential provides sequential implementations of the functions from
// fhn/parallel, for testing and debugging purposes.
//
// fhn/grid provides the periodic grid fields with ghost rows and their
// initial profile.
//
// fhn/kinetics provides the stencil evaluator and the Euler integrator.
//
// fhn/decomp partitions the grid into row blocks.
//
// fhn/comm provides an in-process group of workers with point-to-point links
// along a ring and collective operations.
//
// fhn/halo refreshes ghost rows before each stencil evaluation.
//
// fhn/diag provides diagnostic records, their reduction, and sinks.
//
// fhn/sim drives the time loop in shared-memory and distributed mode.
//
// fhn/render draws heat maps of fields.
package fhn
