// Package decomp partitions the rows of a periodic grid into contiguous
// blocks, one per worker.
package decomp

import (
	"fmt"

	"github.com/exascience/fhn"
)

// A Partition is the block of rows owned by one worker: the half-open
// range from Start to End of the global grid.
type Partition struct {
	Rank, Size int
	Start, End int
}

// Rows returns the number of rows in the partition.
func (p Partition) Rows() int {
	return p.End - p.Start
}

// Prev returns the rank owning the row before Start. The ranks form a ring,
// so worker 0 precedes worker Size-1 and vice versa.
func (p Partition) Prev() int {
	return (p.Rank - 1 + p.Size) % p.Size
}

// Next returns the rank owning the row after End-1.
func (p Partition) Next() int {
	return (p.Rank + 1) % p.Size
}

func (p Partition) String() string {
	return fmt.Sprintf("rank %v/%v rows [%v, %v)", p.Rank, p.Size, p.Start, p.End)
}

// Decompose assigns each of the size workers the rows from rank·(n/size)
// to (rank+1)·(n/size). n must be divisible by size.
func Decompose(n, size int) ([]Partition, error) {
	switch {
	case size < 1:
		return nil, fmt.Errorf("%w: invalid number of workers: %v", fhn.ErrConfig, size)
	case n < size:
		return nil, fmt.Errorf("%w: %v workers for %v rows", fhn.ErrConfig, size, n)
	case n%size != 0:
		return nil, fmt.Errorf("%w: %v rows are not divisible by %v workers", fhn.ErrConfig, n, size)
	}
	rows := n / size
	parts := make([]Partition, size)
	for r := range parts {
		parts[r] = Partition{
			Rank:  r,
			Size:  size,
			Start: r * rows,
			End:   (r + 1) * rows,
		}
	}
	return parts, nil
}
