package problem

import (
	"fmt"

	"relax/internal/grid"
)

// Problem couples a boundary condition with the stencil that relaxes the
// interior. Implementations are immutable after construction and safe for
// concurrent Relax calls on disjoint column ranges.
type Problem interface {
	// Name identifies the problem in logs and file names.
	Name() string
	// N returns the grid dimension.
	N() int
	// Init seeds both slots of p with the boundary values and the initial
	// interior guess.
	Init(p *grid.Pair)
	// Columns returns the half-open column range a sweep covers.
	Columns() (lo, hi int)
	// Relax updates columns [lo, hi) reading src and writing dst and returns
	// the largest |dst-src| over the cells it wrote.
	Relax(src, dst []float32, lo, hi int) float32
	// IsBoundary reports whether (row, col) is fixed for the whole run.
	IsBoundary(row, col int) bool
}

// Kind names a supported problem.
type Kind string

const (
	KindLaplace Kind = "laplace"
	KindDisk    Kind = "disk"
)

// Options carries the construction parameters shared by all problems.
type Options struct {
	N         int
	DomainMin float64
	DomainMax float64
}

// New builds the problem identified by kind.
func New(kind Kind, opts Options) (Problem, error) {
	switch kind {
	case KindLaplace:
		return NewLaplace(opts.N)
	case KindDisk:
		return NewDisk(opts.N, opts.DomainMin, opts.DomainMax)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// interiorColumns is the column range shared by both stencils. Grids without
// an interior yield an empty range.
func interiorColumns(n int) (int, int) {
	if !grid.Interior(n) {
		return 1, 1
	}
	return 1, n - 1
}

func absDiff(a, b float32) float32 {
	if a > b {
		return a - b
	}
	return b - a
}
