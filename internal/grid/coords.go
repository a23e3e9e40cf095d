package grid

import "fmt"

// Coords holds the physical x and y coordinate of every cell of a square
// domain. Both fields are written once by NewCoords and only read afterwards.
type Coords struct {
	X, Y     *Field
	Min, Max float64
	H        float64
}

// NewCoords maps an n×n grid onto [min, max]² with x = min + row·h and
// y = min + col·h, h = (max-min)/(n-1).
func NewCoords(n int, min, max float64) (*Coords, error) {
	if max <= min {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidDomain, min, max)
	}
	x, err := NewField(n)
	if err != nil {
		return nil, err
	}
	y, _ := NewField(n)
	h := 0.0
	if n > 1 {
		h = (max - min) / float64(n-1)
	}
	axis := make([]float32, n)
	for i := range axis {
		axis[i] = lerp(min, max, i, n)
	}
	for col := 0; col < n; col++ {
		for row := 0; row < n; row++ {
			x.Set(row, col, axis[row])
			y.Set(row, col, axis[col])
		}
	}
	return &Coords{X: x, Y: y, Min: min, Max: max, H: h}, nil
}

// lerp evaluates min + i·h in the weighted form so both end points are exact
// and a symmetric domain puts the centre cell of an odd grid at exactly 0.
func lerp(min, max float64, i, n int) float32 {
	if n == 1 {
		return float32(min)
	}
	k := float64(n - 1)
	return float32((min*(k-float64(i)) + max*float64(i)) / k)
}

// At returns the coordinates of (row, col).
func (c *Coords) At(row, col int) (x, y float32) {
	return c.X.At(row, col), c.Y.At(row, col)
}
