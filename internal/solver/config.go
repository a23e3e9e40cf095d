package solver

import (
	"fmt"
	"math"
)

// Config holds the immutable termination and reporting settings of a run.
type Config struct {
	// Tolerance is the residual at or below which the run has converged.
	Tolerance float32
	// MaxIterations caps the number of sweeps.
	MaxIterations int
	// ReportEvery triggers a progress report on every iteration index that
	// is a multiple of it.
	ReportEvery int
}

// Validate checks every field and returns the first violation.
func (c Config) Validate() error {
	tol := float64(c.Tolerance)
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidTolerance, tol)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidIterationCap, c.MaxIterations)
	}
	if c.ReportEvery < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidReportInterval, c.ReportEvery)
	}
	return nil
}
