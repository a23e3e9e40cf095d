package grid

import "errors"

var (
	// ErrInvalidSize indicates a non-positive grid dimension.
	ErrInvalidSize = errors.New("grid: size must be positive")
	// ErrSizeMismatch indicates two grids with different dimensions.
	ErrSizeMismatch = errors.New("grid: size mismatch")
	// ErrInvalidDomain indicates a coordinate domain with max <= min.
	ErrInvalidDomain = errors.New("grid: domain max must exceed min")
)
