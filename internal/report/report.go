// Package report renders solver progress for people and for logs.
package report

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"relax/internal/solver"
)

// Console writes the plain progress format:
//
//	<iteration>, <residual>
//
// followed by a summary line once the run ends.
type Console struct {
	mu       sync.Mutex
	w        io.Writer
	decimals int
	err      error
}

// NewConsole returns a Console writing to w with 10 residual decimals.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w, decimals: 10}
}

// WithDecimals sets the number of residual decimals (clamped to 6..10).
func (c *Console) WithDecimals(d int) *Console {
	c.decimals = min(max(d, 6), 10)
	return c
}

// Progress prints one "iteration, residual" line.
func (c *Console) Progress(iteration int, residual float32) {
	c.printf("%d, %.*f\n", iteration, c.decimals, residual)
}

// Done prints the summary line, plus a status line when the run did not
// converge.
func (c *Console) Done(r solver.Result) {
	c.printf("Iteration Complete. Total Iterations: %d, Time Elapsed: %f (s)\n", r.Iterations, r.Elapsed.Seconds())
	if r.Status != solver.Converged {
		c.printf("Status: %s (last residual %.*f)\n", r.Status, c.decimals, r.Residual)
	}
}

// Err returns the first write error, if any.
func (c *Console) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	if _, err := fmt.Fprintf(c.w, format, args...); err != nil {
		c.err = err
	}
}

// Log reports progress as structured zap entries.
type Log struct {
	logger *zap.Logger
}

// NewLog returns a Log reporter; a nil logger discards everything.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Progress logs the sweep at debug level.
func (l *Log) Progress(iteration int, residual float32) {
	l.logger.Debug("sweep", zap.Int("iteration", iteration), zap.Float32("residual", residual))
}

// Done logs the result at debug level; the solver logs the summary itself.
func (l *Log) Done(r solver.Result) {
	l.logger.Debug("done",
		zap.Stringer("status", r.Status),
		zap.Int("iterations", r.Iterations),
		zap.Float32("residual", r.Residual),
		zap.Duration("elapsed", r.Elapsed),
		zap.Int("slot", r.Slot),
	)
}

// Multi fans callbacks out to several reporters in order.
type Multi []solver.Reporter

// Progress forwards to every reporter in order.
func (m Multi) Progress(iteration int, residual float32) {
	for _, r := range m {
		r.Progress(iteration, residual)
	}
}

// Done forwards to every reporter in order.
func (m Multi) Done(res solver.Result) {
	for _, r := range m {
		r.Done(res)
	}
}
