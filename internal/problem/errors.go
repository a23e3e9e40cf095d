package problem

import "errors"

// ErrUnknownKind is returned by New for an unsupported problem name.
var ErrUnknownKind = errors.New("problem: unknown kind")
