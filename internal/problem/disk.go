package problem

import (
	"math"

	"relax/internal/grid"
)

const (
	// DefaultDomainMin and DefaultDomainMax bound the square mapped onto the
	// grid for the disk problem.
	DefaultDomainMin = -1.2
	DefaultDomainMax = 1.2

	axisWeight     = 0.8
	diagonalWeight = 0.2
)

// Disk is the potential problem constrained outside the unit circle.
//
// Cells with x²+y² ≥ 1 are fixed to +1 when cos(atan2(x, y)) > 0 and -1
// otherwise; cells inside the circle start at 0 and are relaxed with an 80/20
// blend of the 4 axis neighbours and the 4 diagonal neighbours.
type Disk struct {
	n      int
	coords *grid.Coords
	spans  *grid.Spans
}

// NewDisk builds the disk problem on an n×n grid covering [min, max]².
func NewDisk(n int, min, max float64) (*Disk, error) {
	coords, err := grid.NewCoords(n, min, max)
	if err != nil {
		return nil, err
	}
	d := &Disk{n: n, coords: coords}
	d.spans = grid.BuildSpans(n, d.Exterior)
	return d, nil
}

// Name returns "disk".
func (d *Disk) Name() string { return string(KindDisk) }

// N returns the grid dimension.
func (d *Disk) N() int { return d.n }

// Coords returns the read-only coordinate fields.
func (d *Disk) Coords() *grid.Coords { return d.coords }

// Spans returns the interior runs the stencil updates.
func (d *Disk) Spans() *grid.Spans { return d.spans }

// Exterior reports whether (row, col) lies on or outside the unit circle.
func (d *Disk) Exterior(row, col int) bool {
	x, y := d.coords.At(row, col)
	return exterior(float64(x), float64(y))
}

func exterior(x, y float64) bool { return x*x+y*y >= 1 }

// ExteriorValue returns the fixed potential of an exterior point.
func ExteriorValue(x, y float64) float32 {
	if math.Cos(math.Atan2(x, y)) > 0 {
		return 1
	}
	return -1
}

// Init fixes every exterior cell in both slots and zeroes the disk interior.
func (d *Disk) Init(p *grid.Pair) {
	p.Seed(func(row, col int) float32 {
		x, y := d.coords.At(row, col)
		if exterior(float64(x), float64(y)) {
			return ExteriorValue(float64(x), float64(y))
		}
		return 0
	})
}

// Columns returns the interior column range [1, n-1).
func (d *Disk) Columns() (int, int) { return interiorColumns(d.n) }

// IsBoundary treats every exterior cell as fixed, not only the outer ring.
func (d *Disk) IsBoundary(row, col int) bool {
	return grid.OnPerimeter(d.n, row, col) || d.Exterior(row, col)
}

// blend mixes the axis and diagonal means in float64 and rounds to float32
// once. The conversion on each product keeps the sum from being fused.
func blend(pc, ps float32) float32 {
	return float32(float64(axisWeight*float64(pc)) + float64(diagonalWeight*float64(ps)))
}

// Relax updates the interior spans of columns [lo, hi). Exterior cells are
// skipped and do not contribute to the residual.
func (d *Disk) Relax(src, dst []float32, lo, hi int) float32 {
	n := d.n
	var residual float32
	for col := lo; col < hi; col++ {
		spans := d.spans.Column(col)
		if len(spans) == 0 {
			continue
		}
		base := col * n
		center := src[base : base+n]
		left := src[base-n : base]
		right := src[base+n : base+2*n]
		out := dst[base : base+n]
		for _, sp := range spans {
			for row := sp.Start; row <= sp.End; row++ {
				pc := 0.25 * (center[row+1] + center[row-1] + right[row] + left[row])
				ps := 0.25 * (right[row+1] + right[row-1] + left[row+1] + left[row-1])
				v := blend(pc, ps)
				out[row] = v
				residual = max(residual, absDiff(v, center[row]))
			}
		}
	}
	return residual
}
