package grid

// Span is an inclusive row range inside one column.
type Span struct{ Start, End int }

// Spans indexes the column masks of a grid by column so any contiguous column
// range can be swept without searching.
type Spans struct {
	n     int
	byCol [][]Span
	cells int
}

// BuildSpans scans the interior of an n×n grid column by column and records
// the runs of rows for which blocked returns false. Only rows and columns in
// [1, n-2] are considered.
func BuildSpans(n int, blocked func(row, col int) bool) *Spans {
	s := &Spans{n: n, byCol: make([][]Span, n)}
	if !Interior(n) {
		return s
	}
	for col := 1; col < n-1; col++ {
		var spans []Span
		in := false
		start := 0
		for row := 1; row < n-1; row++ {
			if blocked(row, col) {
				if in {
					spans = append(spans, Span{Start: start, End: row - 1})
					in = false
				}
				continue
			}
			if !in {
				in = true
				start = row
			}
		}
		if in {
			spans = append(spans, Span{Start: start, End: n - 2})
		}
		for _, sp := range spans {
			s.cells += sp.End - sp.Start + 1
		}
		s.byCol[col] = spans
	}
	return s
}

// Column returns the spans recorded for col.
func (s *Spans) Column(col int) []Span { return s.byCol[col] }

// Cells returns the number of cells covered by all spans.
func (s *Spans) Cells() int { return s.cells }
