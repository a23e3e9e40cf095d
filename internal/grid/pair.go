package grid

import "fmt"

// Pair stores the two buffers required by a Jacobi-style sweep. For a given
// selector the slot at sel plays the read role and the other slot the write
// role; flipping the selector swaps the roles without copying any data.
type Pair struct {
	n     int
	slots [2]*Field
}

// NewPair allocates two independent n×n buffers.
func NewPair(n int) (*Pair, error) {
	a, err := NewField(n)
	if err != nil {
		return nil, err
	}
	b, _ := NewField(n)
	return &Pair{n: n, slots: [2]*Field{a, b}}, nil
}

// NewPackedPair allocates one 2·n² buffer and exposes its halves as the two
// slots. Slot s starts at offset s·n².
func NewPackedPair(n int) (*Pair, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	size := n * n
	backing := make([]float32, 2*size)
	return &Pair{
		n:     n,
		slots: [2]*Field{fieldOver(n, backing[:size]), fieldOver(n, backing[size:])},
	}, nil
}

// N returns the grid dimension shared by both slots.
func (p *Pair) N() int { return p.n }

// Slot returns buffer i (0 or 1).
func (p *Pair) Slot(i int) *Field { return p.slots[i&1] }

// Read returns the buffer playing the read role for selector sel.
func (p *Pair) Read(sel int) *Field { return p.slots[sel&1] }

// Write returns the buffer playing the write role for selector sel.
func (p *Pair) Write(sel int) *Field { return p.slots[(sel+1)&1] }

// Seed evaluates fn for every cell and stores the result in both slots so the
// first sweep reads consistent edge data whichever slot it starts from.
func (p *Pair) Seed(fn func(row, col int) float32) {
	for col := 0; col < p.n; col++ {
		for row := 0; row < p.n; row++ {
			v := fn(row, col)
			p.slots[0].Set(row, col, v)
			p.slots[1].Set(row, col, v)
		}
	}
}

// SetBoth writes v at (row, col) in both slots.
func (p *Pair) SetBoth(row, col int, v float32) {
	p.slots[0].Set(row, col, v)
	p.slots[1].Set(row, col, v)
}

// Interior reports whether an n×n grid has any interior cell.
func Interior(n int) bool { return n >= 3 }
