package grid

import "fmt"

// Field is a dense N×N grid of float32 values stored in one flat slice.
//
// Cells are addressed as row + n*col, so a column is a contiguous strip of n
// values and the four axis neighbours of index i sit at i±1 (rows) and i±n
// (columns).
type Field struct {
	n    int
	data []float32
}

// NewField allocates a zeroed n×n field.
func NewField(n int) (*Field, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	return &Field{n: n, data: make([]float32, n*n)}, nil
}

// fieldOver wraps an existing n*n slice without copying.
func fieldOver(n int, data []float32) *Field {
	return &Field{n: n, data: data[:n*n:n*n]}
}

// N returns the grid dimension.
func (f *Field) N() int { return f.n }

// Index returns the flat offset of (row, col).
func (f *Field) Index(row, col int) int { return row + f.n*col }

// At returns the value at (row, col).
func (f *Field) At(row, col int) float32 { return f.data[row+f.n*col] }

// Set writes a value at (row, col).
func (f *Field) Set(row, col int, v float32) { f.data[row+f.n*col] = v }

// Data exposes the flat backing slice.
func (f *Field) Data() []float32 { return f.data }

// Column returns the contiguous strip holding every row of col.
func (f *Field) Column(col int) []float32 {
	base := f.n * col
	return f.data[base : base+f.n]
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	out := &Field{n: f.n, data: make([]float32, len(f.data))}
	copy(out.data, f.data)
	return out
}

// Equal reports whether both fields have the same size and identical values.
func (f *Field) Equal(other *Field) bool {
	if other == nil || other.n != f.n {
		return false
	}
	for i, v := range f.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}

// Range returns the smallest and largest values stored in the field.
func (f *Field) Range() (lo, hi float32) {
	if len(f.data) == 0 {
		return 0, 0
	}
	lo, hi = f.data[0], f.data[0]
	for _, v := range f.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
