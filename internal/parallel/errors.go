package parallel

import "errors"

var (
	// ErrUnknownStrategy is returned by New for an unregistered name.
	ErrUnknownStrategy = errors.New("parallel: unknown strategy")
	// ErrClosed is returned when a closed Pool is asked to run.
	ErrClosed = errors.New("parallel: strategy closed")
)
