package problem

import (
	"fmt"
	"math"

	"relax/internal/grid"
)

// Laplace is the rectangular Dirichlet problem relaxed by a 5-point Jacobi
// stencil.
//
// Rows 0 and n-1 are held at 0. Column 0 carries sin(π·row/(n-1)) and column
// n-1 the same profile scaled by exp(-π), the decay of the separable solution
// across the unit square.
type Laplace struct {
	n       int
	profile []float32
	decay   float32
}

// NewLaplace builds the Laplace problem on an n×n grid.
func NewLaplace(n int) (*Laplace, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", grid.ErrInvalidSize, n)
	}
	l := &Laplace{n: n, profile: make([]float32, n), decay: float32(math.Exp(-math.Pi))}
	if n > 1 {
		for row := range l.profile {
			l.profile[row] = float32(math.Sin(math.Pi * float64(row) / float64(n-1)))
		}
	}
	return l, nil
}

// Name returns "laplace".
func (l *Laplace) Name() string { return string(KindLaplace) }

// N returns the grid dimension.
func (l *Laplace) N() int { return l.n }

// Profile returns the left-edge value for row.
func (l *Laplace) Profile(row int) float32 { return l.profile[row] }

// Decay returns the factor applied to the profile on the right edge.
func (l *Laplace) Decay() float32 { return l.decay }

// BoundaryValue returns the fixed value of a perimeter cell. The top and
// bottom rows take precedence so the four corners are exactly 0.
func (l *Laplace) BoundaryValue(row, col int) float32 {
	switch {
	case row == 0 || row == l.n-1:
		return 0
	case col == 0:
		return l.profile[row]
	case col == l.n-1:
		return l.profile[row] * l.decay
	}
	return 0
}

// Init zeroes both slots and then writes the boundary ring into each.
func (l *Laplace) Init(p *grid.Pair) {
	p.Seed(func(int, int) float32 { return 0 })
	for _, c := range grid.Perimeter(l.n) {
		p.SetBoth(c.Row, c.Col, l.BoundaryValue(c.Row, c.Col))
	}
}

// Columns returns the interior column range [1, n-1).
func (l *Laplace) Columns() (int, int) { return interiorColumns(l.n) }

// IsBoundary reports whether (row, col) is on the fixed outer ring.
func (l *Laplace) IsBoundary(row, col int) bool { return grid.OnPerimeter(l.n, row, col) }

// Relax applies the 5-point average to every interior row of columns
// [lo, hi). Only interior cells of dst are written.
func (l *Laplace) Relax(src, dst []float32, lo, hi int) float32 {
	n := l.n
	last := n - 2
	var residual float32
	for col := lo; col < hi; col++ {
		base := col * n
		center := src[base : base+n]
		left := src[base-n : base]
		right := src[base+n : base+2*n]
		out := dst[base : base+n]

		row := 1
		for ; row+3 <= last; row += 4 {
			v0 := 0.25 * (right[row] + left[row] + center[row-1] + center[row+1])
			out[row] = v0
			residual = max(residual, absDiff(v0, center[row]))

			r1 := row + 1
			v1 := 0.25 * (right[r1] + left[r1] + center[r1-1] + center[r1+1])
			out[r1] = v1
			residual = max(residual, absDiff(v1, center[r1]))

			r2 := row + 2
			v2 := 0.25 * (right[r2] + left[r2] + center[r2-1] + center[r2+1])
			out[r2] = v2
			residual = max(residual, absDiff(v2, center[r2]))

			r3 := row + 3
			v3 := 0.25 * (right[r3] + left[r3] + center[r3-1] + center[r3+1])
			out[r3] = v3
			residual = max(residual, absDiff(v3, center[r3]))
		}
		for ; row <= last; row++ {
			v := 0.25 * (right[row] + left[row] + center[row-1] + center[row+1])
			out[row] = v
			residual = max(residual, absDiff(v, center[row]))
		}
	}
	return residual
}
