package parallel

import (
	"context"
	"math"

	pargo "github.com/exascience/pargo/parallel"
)

// ForkJoin delegates the split to pargo, which recursively halves the range
// into batches and combines the halves with math.Max.
type ForkJoin struct {
	batches int
}

// NewForkJoin returns a ForkJoin using workers batches.
func NewForkJoin(workers int) *ForkJoin {
	return &ForkJoin{batches: DefaultWorkers(workers)}
}

// Name returns NameForkJoin.
func (f *ForkJoin) Name() string { return NameForkJoin }

// ReduceMax lets pargo split the range and combine the halves with math.Max.
func (f *ForkJoin) ReduceMax(ctx context.Context, lo, hi int, body Body) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if hi <= lo {
		return 0, nil
	}
	batches := min(f.batches, hi-lo)
	r := pargo.RangeReduceFloat64(lo, hi, batches,
		func(lo, hi int) float64 { return float64(body(lo, hi)) },
		math.Max,
	)
	return float32(r), nil
}

// Close is a no-op; pargo owns no goroutines between calls.
func (f *ForkJoin) Close() error { return nil }
