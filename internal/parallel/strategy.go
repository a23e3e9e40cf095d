package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sys/cpu"
)

// Body processes the half-open index range [lo, hi) and returns the largest
// value it observed. Bodies handed to a Strategy must only touch state owned
// by their range.
type Body func(lo, hi int) float32

// Strategy runs a Body over a range, possibly split across goroutines, and
// combines the partial results with max. Because max is associative and
// commutative the result does not depend on how the range is partitioned.
type Strategy interface {
	Name() string
	// ReduceMax returns max(body(a, b)) over a partition of [lo, hi). An empty
	// range yields 0. ctx is checked before the body runs; once started a
	// reduction always completes.
	ReduceMax(ctx context.Context, lo, hi int, body Body) (float32, error)
	// Close releases any goroutines owned by the strategy.
	Close() error
}

// Strategy names accepted by New.
const (
	NameSequential = "sequential"
	NamePool       = "pool"
	NameGroup      = "group"
	NameForkJoin   = "forkjoin"
)

var constructors = map[string]func(workers int) Strategy{
	NameSequential: func(int) Strategy { return Sequential{} },
	NamePool:       func(w int) Strategy { return NewPool(w) },
	NameGroup:      func(w int) Strategy { return NewGroup(w) },
	NameForkJoin:   func(w int) Strategy { return NewForkJoin(w) },
}

// New returns the strategy registered under name. workers <= 0 selects
// runtime.GOMAXPROCS(0).
func New(name string, workers int) (Strategy, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return ctor(workers), nil
}

// Names lists the registered strategies in lexical order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultWorkers resolves a requested worker count.
func DefaultWorkers(workers int) int {
	if workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

// band is a contiguous sub-range assigned to one worker.
type band struct{ lo, hi int }

// splitBands cuts [lo, hi) into at most k contiguous bands of near-equal size.
func splitBands(lo, hi, k int) []band {
	total := hi - lo
	if total <= 0 {
		return nil
	}
	if k > total {
		k = total
	}
	if k < 1 {
		k = 1
	}
	per := (total + k - 1) / k
	bands := make([]band, 0, k)
	for start := lo; start < hi; start += per {
		end := min(start+per, hi)
		bands = append(bands, band{lo: start, hi: end})
	}
	return bands
}

// partial is one worker's maximum, padded to its own cache line so workers
// writing neighbouring slots do not contend.
type partial struct {
	v float32
	_ cpu.CacheLinePad
}

func maxOf(parts []partial) float32 {
	var out float32
	for i := range parts {
		out = max(out, parts[i].v)
	}
	return out
}

// Sequential runs the whole range on the calling goroutine.
type Sequential struct{}

// Name returns NameSequential.
func (Sequential) Name() string { return NameSequential }

// ReduceMax runs body over the whole range on the calling goroutine.
func (Sequential) ReduceMax(ctx context.Context, lo, hi int, body Body) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if hi <= lo {
		return 0, nil
	}
	return body(lo, hi), nil
}

// Close is a no-op.
func (Sequential) Close() error { return nil }
