// Package cpu implements backend.Device on the host. Submitted command
// buffers run in order on one queue goroutine, which fans each dispatch out
// to a persistent worker pool.
package cpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pthm-cable/slime/backend"
)

// Kernel is a host implementation of a compute kernel. Prepare receives the
// bound buffers in slot order and returns the per-workgroup function.
// Prepare runs on the queue goroutine; the returned function runs on the
// workers, concurrently for distinct workgroups.
type Kernel interface {
	Prepare(bindings [][]byte) (func(gx, gy int), error)
}

// Options configures a Device.
type Options struct {
	Workers    int // worker goroutines (0 = GOMAXPROCS)
	QueueDepth int // command buffers buffered before Submit blocks
}

type job struct {
	cmds    []*backend.CommandBuffer
	release *buffer
	fence   chan struct{}
}

// Device is a host compute device. Its methods other than Poll may only be
// called from one goroutine.
type Device struct {
	kernels map[backend.Kernel]Kernel
	pool    *pool

	queue  chan job
	done   chan struct{}
	closed atomic.Bool

	mu  sync.Mutex
	err error // first execution failure, sticky
}

var _ backend.Device = (*Device)(nil)

// New starts a device with the given kernels.
func New(kernels map[backend.Kernel]Kernel, opts Options) *Device {
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = 16
	}
	d := &Device{
		kernels: kernels,
		pool:    newPool(opts.Workers),
		queue:   make(chan job, depth),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Name implements backend.Device.
func (d *Device) Name() string { return "cpu" }

// Workers returns the size of the worker pool.
func (d *Device) Workers() int { return d.pool.numWorkers }

// CreateBuffer implements backend.Device.
func (d *Device) CreateBuffer(label string, size int, usage backend.Usage, contents []byte) (backend.Buffer, error) {
	if err := backend.CheckSize(label, size, contents); err != nil {
		return nil, err
	}
	b := newBuffer(label, size, usage)
	copy(b.data, contents)
	return b, nil
}

// CreateMappedBuffer implements backend.Device.
func (d *Device) CreateMappedBuffer(label string, size int, usage backend.Usage) (backend.Buffer, []byte, error) {
	if !usage.Has(backend.UsageMapWrite) {
		return nil, nil, fmt.Errorf("%w: mapped buffer %q lacks MapWrite", backend.ErrInvalidConfig, label)
	}
	if err := backend.CheckSize(label, size, nil); err != nil {
		return nil, nil, err
	}
	b := newBuffer(label, size, usage)
	b.mapped = true
	return b, b.data, nil
}

// Unmap implements backend.Device.
func (d *Device) Unmap(b backend.Buffer) {
	if buf, ok := b.(*buffer); ok {
		buf.mapped = false
	}
}

// ReleaseBuffer implements backend.Device. The memory is dropped after all
// previously submitted work.
func (d *Device) ReleaseBuffer(b backend.Buffer) {
	buf, ok := b.(*buffer)
	if !ok || buf.released {
		return
	}
	buf.released = true
	if d.closed.Load() {
		buf.free()
		return
	}
	d.queue <- job{release: buf}
}

// Submit implements backend.Device.
func (d *Device) Submit(cmds ...*backend.CommandBuffer) error {
	if d.closed.Load() {
		return fmt.Errorf("submit: %w", backend.ErrDeviceLost)
	}
	if err := d.Err(); err != nil {
		return err
	}
	for _, cb := range cmds {
		if err := d.validate(cb); err != nil {
			return err
		}
	}
	d.queue <- job{cmds: cmds}
	return nil
}

// Poll implements backend.Device. Work completes on its own, so only a
// waiting poll does anything.
func (d *Device) Poll(wait bool) {
	if !wait || d.closed.Load() {
		return
	}
	fence := make(chan struct{})
	d.queue <- job{fence: fence}
	<-fence
}

// Read implements backend.Device.
func (d *Device) Read(b backend.Buffer, dst []byte) error {
	buf, ok := b.(*buffer)
	if !ok {
		return fmt.Errorf("%w: buffer %s belongs to another device", backend.ErrInvalidConfig, b.Label())
	}
	if buf.released {
		return fmt.Errorf("%w: read of released buffer %s", backend.ErrInvalidConfig, buf.label)
	}
	d.Poll(true)
	if err := d.Err(); err != nil {
		return err
	}
	copy(dst, buf.data)
	return nil
}

// Err returns the first execution failure, wrapped in backend.ErrDeviceLost.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close drains the queue and stops the workers.
func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	close(d.queue)
	<-d.done
	d.pool.stop()
	return d.Err()
}

func (d *Device) validate(cb *backend.CommandBuffer) error {
	check := func(b backend.Buffer) error {
		buf, ok := b.(*buffer)
		switch {
		case !ok:
			return fmt.Errorf("%w: buffer %s belongs to another device", backend.ErrInvalidConfig, b.Label())
		case buf.released:
			return fmt.Errorf("%w: buffer %s used after release", backend.ErrInvalidConfig, buf.label)
		case buf.mapped:
			return fmt.Errorf("%w: buffer %s used while mapped", backend.ErrInvalidConfig, buf.label)
		}
		return nil
	}

	for _, c := range cb.Commands {
		switch c.Op {
		case backend.OpDispatch:
			if _, ok := d.kernels[c.Kernel]; !ok {
				return fmt.Errorf("%w: unknown kernel %q", backend.ErrInvalidConfig, c.Kernel)
			}
			for _, b := range c.Bindings {
				if err := check(b); err != nil {
					return err
				}
			}
		case backend.OpCopyBuffer:
			if err := check(c.Src); err != nil {
				return err
			}
			if err := check(c.Dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// run is the queue goroutine.
func (d *Device) run() {
	defer close(d.done)

	for j := range d.queue {
		switch {
		case j.fence != nil:
			close(j.fence)
		case j.release != nil:
			j.release.free()
		default:
			for _, cb := range j.cmds {
				if err := d.execute(cb); err != nil {
					d.fail(err)
					break
				}
			}
		}
	}
}

func (d *Device) execute(cb *backend.CommandBuffer) error {
	if d.Err() != nil {
		return nil
	}
	for i, c := range cb.Commands {
		switch c.Op {
		case backend.OpDispatch:
			bindings := make([][]byte, len(c.Bindings))
			for slot, b := range c.Bindings {
				bindings[slot] = b.(*buffer).data
			}
			fn, err := d.kernels[c.Kernel].Prepare(bindings)
			if err != nil {
				return fmt.Errorf("%s[%d] %s: %w", cb.Label, i, c.Kernel, err)
			}
			d.pool.run(fn, c.GroupsX, c.GroupsY)
		case backend.OpCopyBuffer:
			copy(c.Dst.(*buffer).data[:c.Size], c.Src.(*buffer).data[:c.Size])
		default:
			return fmt.Errorf("%s[%d]: unsupported %s", cb.Label, i, c.Op)
		}
	}
	return nil
}

func (d *Device) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = errors.Join(backend.ErrDeviceLost, err)
	}
}
