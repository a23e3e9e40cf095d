package grid

// Cell is an integer (row, col) position on the grid.
type Cell struct {
	Row int
	Col int
}

// Perimeter lists every edge cell of an n×n grid exactly once: rows 0 and n-1
// first, then the remaining cells of columns 0 and n-1.
func Perimeter(n int) []Cell {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []Cell{{0, 0}}
	}
	cells := make([]Cell, 0, 4*(n-1))
	for col := 0; col < n; col++ {
		cells = append(cells, Cell{Row: 0, Col: col})
		cells = append(cells, Cell{Row: n - 1, Col: col})
	}
	for row := 1; row < n-1; row++ {
		cells = append(cells, Cell{Row: row, Col: 0})
		cells = append(cells, Cell{Row: row, Col: n - 1})
	}
	return cells
}

// OnPerimeter reports whether (row, col) lies on the outer ring.
func OnPerimeter(n, row, col int) bool {
	return row == 0 || col == 0 || row == n-1 || col == n-1
}
