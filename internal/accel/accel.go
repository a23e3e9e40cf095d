// Package accel runs the relaxation stencils on an OpenCL device.
//
// The device engine is compiled in with -tags opencl; without it NewEngine
// and Probe report ErrUnavailable and the host strategies are used instead.
package accel

import "errors"

// ErrUnavailable is returned when no OpenCL engine can be created, either
// because the binary was built without OpenCL or no device was found.
var ErrUnavailable = errors.New("accel: OpenCL engine unavailable")

// ErrUnsupportedProblem is returned for problems without a device kernel.
var ErrUnsupportedProblem = errors.New("accel: no kernel for problem")
