package solver

import "errors"

var (
	ErrInvalidTolerance      = errors.New("solver: tolerance must be a finite value >= 0")
	ErrInvalidIterationCap   = errors.New("solver: iteration cap must be >= 1")
	ErrInvalidReportInterval = errors.New("solver: report interval must be >= 1")
	ErrSizeMismatch          = errors.New("solver: problem and buffers differ in size")
)
