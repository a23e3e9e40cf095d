package parallel

import (
	"context"
	"sync"
)

// Pool keeps a fixed set of worker goroutines alive across reductions. Each
// ReduceMax call publishes a new step, wakes every worker, and waits until all
// of them have reported back, so consecutive sweeps never overlap.
type Pool struct {
	workers int

	run sync.Mutex // serializes ReduceMax and Close

	mu      sync.Mutex
	cond    *sync.Cond
	step    int
	pending int
	closed  bool
	bands   []band
	body    Body
	parts   []partial

	wg sync.WaitGroup
}

// NewPool starts workers goroutines (GOMAXPROCS when workers <= 0).
func NewPool(workers int) *Pool {
	p := &Pool{workers: DefaultWorkers(workers)}
	p.cond = sync.NewCond(&p.mu)
	p.parts = make([]partial, p.workers)
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.workerLoop(i)
	}
	return p
}

// Name returns NamePool.
func (p *Pool) Name() string { return NamePool }

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.workers }

// workerLoop executes the band assigned to index for every published step.
func (p *Pool) workerLoop(index int) {
	defer p.wg.Done()
	lastStep := 0
	p.mu.Lock()
	for {
		for p.step == lastStep && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		lastStep = p.step
		var b band
		if index < len(p.bands) {
			b = p.bands[index]
		}
		body := p.body
		p.mu.Unlock()

		var v float32
		if b.hi > b.lo {
			v = body(b.lo, b.hi)
		}
		p.parts[index].v = v

		p.mu.Lock()
		p.pending--
		if p.pending == 0 {
			p.cond.Broadcast()
		}
	}
}

// ReduceMax hands one band to each worker and waits at the barrier for all
// of them.
func (p *Pool) ReduceMax(ctx context.Context, lo, hi int, body Body) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.run.Lock()
	defer p.run.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	if hi <= lo {
		p.mu.Unlock()
		return 0, nil
	}
	p.bands = splitBands(lo, hi, p.workers)
	p.body = body
	p.pending = p.workers
	p.step++
	p.cond.Broadcast()
	for p.pending > 0 {
		p.cond.Wait()
	}
	p.body = nil
	p.mu.Unlock()

	return maxOf(p.parts), nil
}

// Close stops every worker and waits for them to exit. It is safe to call more
// than once.
func (p *Pool) Close() error {
	p.run.Lock()
	defer p.run.Unlock()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}
