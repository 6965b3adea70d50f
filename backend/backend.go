// Package backend defines the compute capabilities the simulation needs from
// a device: storage buffers, mapped staging buffers, kernel dispatch, buffer
// copies and a single in-order submission queue.
//
// Devices live in subpackages. cpu runs the kernels on a goroutine pool and
// rlgl runs them as OpenGL 4.3 compute shaders through raylib.
package backend

import (
	"errors"
	"fmt"
)

// Usage is a bit set describing how a buffer may be used.
type Usage uint32

const (
	UsageStorage Usage = 1 << iota
	UsageUniform
	UsageCopySrc
	UsageCopyDst
	UsageMapWrite
)

// Has reports whether all bits of f are set.
func (u Usage) Has(f Usage) bool { return u&f == f }

// Kernel names a compute kernel known to a device.
type Kernel string

const (
	KernelSimulate Kernel = "simulate"
	KernelDiffuse  Kernel = "diffuse"
)

// Buffer is a device allocation. Its size and usage are fixed at creation.
type Buffer interface {
	Label() string
	Size() int
	Usage() Usage
}

// Device is a compute device with one submission queue. Commands from
// successive Submit calls execute in submission order.
type Device interface {
	// Name identifies the device in logs.
	Name() string

	// CreateBuffer allocates size bytes. If contents is non-nil it is copied
	// into the buffer and must not be longer than size.
	CreateBuffer(label string, size int, usage Usage, contents []byte) (Buffer, error)

	// CreateMappedBuffer allocates a buffer that starts mapped for host
	// writes. The returned slice is valid until Unmap.
	CreateMappedBuffer(label string, size int, usage Usage) (Buffer, []byte, error)

	// Unmap makes host writes to a mapped buffer visible to the device.
	Unmap(b Buffer)

	// ReleaseBuffer frees the buffer once previously submitted work that
	// references it has finished.
	ReleaseBuffer(b Buffer)

	// Submit enqueues command buffers for in-order execution.
	Submit(cmds ...*CommandBuffer) error

	// Poll processes completed work. With wait set it blocks until every
	// submitted command has finished.
	Poll(wait bool)

	// Read waits for the queue to drain and copies the buffer contents into dst.
	Read(b Buffer, dst []byte) error

	Close() error
}

// Sentinel errors shared by devices and presenters.
var (
	ErrSurfaceLost        = errors.New("surface lost")
	ErrSurfaceOutOfMemory = errors.New("surface out of memory")
	ErrSurfaceOutdated    = errors.New("surface outdated")
	ErrSurfaceTimeout     = errors.New("surface timeout")

	ErrDeviceUnavailable = errors.New("no suitable compute device")
	ErrDeviceLost        = errors.New("device lost")
	ErrInvalidConfig     = errors.New("invalid device configuration")
)

// CheckSize validates a buffer allocation request.
func CheckSize(label string, size int, contents []byte) error {
	if size <= 0 {
		return fmt.Errorf("%w: buffer %q has size %d", ErrInvalidConfig, label, size)
	}
	if len(contents) > size {
		return fmt.Errorf("%w: buffer %q contents (%d bytes) exceed size %d",
			ErrInvalidConfig, label, len(contents), size)
	}
	return nil
}
