//go:build opencl

package accel

import (
	"context"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"relax/internal/grid"
	"relax/internal/problem"
)

// Each work item owns one interior column, walks its rows with unit stride
// and records the column's largest change. Contraction is disabled so the
// device rounds like the host stencils. Devices without fp64 blend the disk
// stencil in float and may differ from the host in the last place.
const kernelSource = `#pragma OPENCL FP_CONTRACT OFF
#ifdef cl_khr_fp64
#pragma OPENCL EXTENSION cl_khr_fp64 : enable
#endif

__kernel void laplace5(
    const int n,
    __global const float* src,
    __global float* dst,
    __global const uchar* fixed_cells,
    __global float* colmax)
{
    int col = get_global_id(0) + 1;
    if (col >= n - 1) {
        return;
    }
    int base = col * n;
    float m = 0.0f;
    for (int row = 1; row < n - 1; row++) {
        int i = base + row;
        float v = 0.25f * (src[i + n] + src[i - n] + src[i - 1] + src[i + 1]);
        dst[i] = v;
        m = fmax(m, fabs(v - src[i]));
    }
    colmax[col] = m;
}

__kernel void disk9(
    const int n,
    __global const float* src,
    __global float* dst,
    __global const uchar* fixed_cells,
    __global float* colmax)
{
    int col = get_global_id(0) + 1;
    if (col >= n - 1) {
        return;
    }
    int base = col * n;
    float m = 0.0f;
    for (int row = 1; row < n - 1; row++) {
        int i = base + row;
        if (fixed_cells[i]) {
            continue;
        }
        float pc = 0.25f * (src[i + 1] + src[i - 1] + src[i + n] + src[i - n]);
        float ps = 0.25f * (src[i + n + 1] + src[i + n - 1] + src[i - n + 1] + src[i - n - 1]);
#ifdef cl_khr_fp64
        float v = (float)(0.8 * (double)pc + 0.2 * (double)ps);
#else
        float v = 0.8f * pc + 0.2f * ps;
#endif
        dst[i] = v;
        m = fmax(m, fabs(v - src[i]));
    }
    colmax[col] = m;
}`

// Engine keeps both slots of a Pair resident on the device and swaps their
// roles by rebinding kernel arguments.
type Engine struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	slots     [2]*cl.MemObject
	fixedBuf  *cl.MemObject
	colmaxBuf *cl.MemObject

	pair       *grid.Pair
	n          int
	colmax     []float32
	boundSel   int
	deviceName string
}

// Probe reports the device NewEngine would use.
func Probe() (string, error) {
	device, err := pickDevice()
	if err != nil {
		return "", err
	}
	return device.Name(), nil
}

func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, msg, err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no OpenCL platforms available", ErrUnavailable)
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no suitable OpenCL devices found", ErrUnavailable)
}

// NewEngine uploads the initialised pair to the first GPU (or CPU) device and
// prepares the kernel for prob.
func NewEngine(prob problem.Problem, pair *grid.Pair) (*Engine, error) {
	var kernelName string
	switch prob.(type) {
	case *problem.Laplace:
		kernelName = "laplace5"
	case *problem.Disk:
		kernelName = "disk9"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProblem, prob.Name())
	}
	if prob.N() != pair.N() {
		return nil, fmt.Errorf("accel: problem size %d does not match pair size %d", prob.N(), pair.N())
	}
	device, err := pickDevice()
	if err != nil {
		return nil, err
	}

	n := pair.N()
	e := &Engine{pair: pair, n: n, colmax: make([]float32, n), boundSel: -1, deviceName: device.Name()}
	if e.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	if e.queue, err = e.context.CreateCommandQueue(device, 0); err != nil {
		e.Close()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if e.program, err = e.context.CreateProgramWithSource([]string{kernelSource}); err != nil {
		e.Close()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := e.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		e.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	if e.kernel, err = e.program.CreateKernel(kernelName); err != nil {
		e.Close()
		return nil, fmt.Errorf("creating OpenCL kernel %s: %w", kernelName, err)
	}

	size := n * n
	byteSize := size * int(unsafe.Sizeof(float32(0)))
	for i := range e.slots {
		if e.slots[i], err = e.context.CreateEmptyBuffer(cl.MemReadWrite, byteSize); err != nil {
			e.Close()
			return nil, fmt.Errorf("allocating slot %d: %w", i, err)
		}
	}
	if e.fixedBuf, err = e.context.CreateEmptyBuffer(cl.MemReadOnly, size); err != nil {
		e.Close()
		return nil, fmt.Errorf("allocating fixed-cell mask: %w", err)
	}
	if e.colmaxBuf, err = e.context.CreateEmptyBuffer(cl.MemReadWrite, n*int(unsafe.Sizeof(float32(0)))); err != nil {
		e.Close()
		return nil, fmt.Errorf("allocating column maxima: %w", err)
	}

	if err := e.upload(prob); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.kernel.SetArgs(int32(n), e.slots[0], e.slots[1], e.fixedBuf, e.colmaxBuf); err != nil {
		e.Close()
		return nil, fmt.Errorf("setting kernel arguments: %w", err)
	}
	e.boundSel = 0
	return e, nil
}

func (e *Engine) upload(prob problem.Problem) error {
	for i := range e.slots {
		if _, err := e.queue.EnqueueWriteBufferFloat32(e.slots[i], true, 0, e.pair.Slot(i).Data(), nil); err != nil {
			return fmt.Errorf("writing slot %d: %w", i, err)
		}
	}
	fixed := make([]byte, e.n*e.n)
	for col := 0; col < e.n; col++ {
		for row := 0; row < e.n; row++ {
			if prob.IsBoundary(row, col) {
				fixed[row+e.n*col] = 1
			}
		}
	}
	if _, err := e.queue.EnqueueWriteBuffer(e.fixedBuf, true, 0, len(fixed), unsafe.Pointer(&fixed[0]), nil); err != nil {
		return fmt.Errorf("writing fixed-cell mask: %w", err)
	}
	if _, err := e.queue.EnqueueWriteBufferFloat32(e.colmaxBuf, true, 0, e.colmax, nil); err != nil {
		return fmt.Errorf("clearing column maxima: %w", err)
	}
	return nil
}

func (e *Engine) bind(sel int) error {
	if e.boundSel == sel {
		return nil
	}
	if err := e.kernel.SetArgBuffer(1, e.slots[sel]); err != nil {
		return err
	}
	if err := e.kernel.SetArgBuffer(2, e.slots[1-sel]); err != nil {
		return err
	}
	e.boundSel = sel
	return nil
}

// Name reports the device, e.g. "opencl/<device>".
func (e *Engine) Name() string { return "opencl/" + e.deviceName }

// Sweep relaxes slot sel into slot 1-sel on the device and reads back only
// the per-column maxima.
func (e *Engine) Sweep(ctx context.Context, sel int) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if e.n < 3 {
		return 0, nil
	}
	sel &= 1
	if err := e.bind(sel); err != nil {
		return 0, fmt.Errorf("binding buffers: %w", err)
	}
	if _, err := e.queue.EnqueueNDRangeKernel(e.kernel, nil, []int{e.n - 2}, nil, nil); err != nil {
		return 0, fmt.Errorf("enqueueing kernel: %w", err)
	}
	if _, err := e.queue.EnqueueReadBufferFloat32(e.colmaxBuf, true, 0, e.colmax, nil); err != nil {
		return 0, fmt.Errorf("reading column maxima: %w", err)
	}
	var residual float32
	for _, v := range e.colmax {
		residual = max(residual, v)
	}
	return residual, nil
}

// Sync copies both device slots back into the host pair.
func (e *Engine) Sync(context.Context) error {
	for i := range e.slots {
		if _, err := e.queue.EnqueueReadBufferFloat32(e.slots[i], true, 0, e.pair.Slot(i).Data(), nil); err != nil {
			return fmt.Errorf("reading slot %d: %w", i, err)
		}
	}
	return nil
}

// Close releases every device object. It is safe to call more than once.
func (e *Engine) Close() error {
	for _, buf := range []**cl.MemObject{&e.colmaxBuf, &e.fixedBuf, &e.slots[1], &e.slots[0]} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	if e.kernel != nil {
		e.kernel.Release()
		e.kernel = nil
	}
	if e.program != nil {
		e.program.Release()
		e.program = nil
	}
	if e.queue != nil {
		e.queue.Release()
		e.queue = nil
	}
	if e.context != nil {
		e.context.Release()
		e.context = nil
	}
	return nil
}
