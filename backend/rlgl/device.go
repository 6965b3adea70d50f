// Package rlgl implements backend.Device with OpenGL 4.3 compute shaders and
// shader storage buffers through raylib's rlgl layer. raylib must be built
// with -tags opengl43 and every method must run on the thread that owns the
// GL context.
package rlgl

import (
	"fmt"
	"log/slog"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/backend"
)

type buffer struct {
	id     uint32
	label  string
	size   int
	usage  backend.Usage
	shadow []byte // host copy while mapped

	released bool
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int { return b.size }
func (b *buffer) Usage() backend.Usage { return b.usage }

// Device dispatches compute programs on the GL context. GL executes
// commands in issue order, so Submit runs command buffers immediately.
type Device struct {
	programs map[backend.Kernel]uint32
	buffers  map[uint32]*buffer
}

var _ backend.Device = (*Device)(nil)

// New compiles one compute program per kernel source. It fails with
// backend.ErrDeviceUnavailable when the context is older than GL 4.3.
func New(sources map[backend.Kernel]string) (*Device, error) {
	if v := rl.GetVersion(); v < rl.Opengl43 {
		return nil, fmt.Errorf("%w: GL version id %d, compute needs OpenGL 4.3 (build with -tags opengl43)",
			backend.ErrDeviceUnavailable, v)
	}

	d := &Device{
		programs: make(map[backend.Kernel]uint32, len(sources)),
		buffers:  make(map[uint32]*buffer),
	}
	for k, src := range sources {
		shader := rl.CompileShader(src, rl.ComputeShader)
		if shader == 0 {
			d.Close()
			return nil, fmt.Errorf("%w: compiling %s kernel", backend.ErrDeviceUnavailable, k)
		}
		prog := rl.LoadComputeShaderProgram(shader)
		if prog == 0 {
			d.Close()
			return nil, fmt.Errorf("%w: linking %s kernel", backend.ErrDeviceUnavailable, k)
		}
		d.programs[k] = prog
		slog.Debug("compute program loaded", "kernel", string(k), "program", prog)
	}
	return d, nil
}

// Name implements backend.Device.
func (d *Device) Name() string { return "gl" }

// CreateBuffer implements backend.Device.
func (d *Device) CreateBuffer(label string, size int, usage backend.Usage, contents []byte) (backend.Buffer, error) {
	if err := backend.CheckSize(label, size, contents); err != nil {
		return nil, err
	}
	// Short contents are padded so the SSBO starts zeroed.
	data := contents
	if len(data) < size {
		data = make([]byte, size)
		copy(data, contents)
	}
	id := rl.LoadShaderBuffer(uint32(size), unsafe.Pointer(&data[0]), rl.DynamicCopy)
	if id == 0 {
		return nil, fmt.Errorf("creating buffer %q (%d bytes): %w", label, size, backend.ErrDeviceLost)
	}
	b := &buffer{id: id, label: label, size: size, usage: usage}
	d.buffers[id] = b
	return b, nil
}

// CreateMappedBuffer implements backend.Device. GL buffers are not mapped
// persistently; host writes go to a shadow slice uploaded by Unmap.
func (d *Device) CreateMappedBuffer(label string, size int, usage backend.Usage) (backend.Buffer, []byte, error) {
	if !usage.Has(backend.UsageMapWrite) {
		return nil, nil, fmt.Errorf("%w: mapped buffer %q lacks MapWrite", backend.ErrInvalidConfig, label)
	}
	buf, err := d.CreateBuffer(label, size, usage, nil)
	if err != nil {
		return nil, nil, err
	}
	b := buf.(*buffer)
	b.shadow = make([]byte, size)
	return b, b.shadow, nil
}

// Unmap implements backend.Device.
func (d *Device) Unmap(b backend.Buffer) {
	buf, ok := b.(*buffer)
	if !ok || buf.shadow == nil {
		return
	}
	rl.UpdateShaderBuffer(buf.id, unsafe.Pointer(&buf.shadow[0]), uint32(buf.size), 0)
	buf.shadow = nil
}

// ReleaseBuffer implements backend.Device. GL defers the deletion until
// pending commands referencing the buffer complete.
func (d *Device) ReleaseBuffer(b backend.Buffer) {
	buf, ok := b.(*buffer)
	if !ok || buf.released {
		return
	}
	buf.released = true
	rl.UnloadShaderBuffer(buf.id)
	delete(d.buffers, buf.id)
}

// Submit implements backend.Device.
func (d *Device) Submit(cmds ...*backend.CommandBuffer) error {
	for _, cb := range cmds {
		if err := d.validate(cb); err != nil {
			return err
		}
	}
	for _, cb := range cmds {
		for _, c := range cb.Commands {
			switch c.Op {
			case backend.OpDispatch:
				rl.EnableShader(d.programs[c.Kernel])
				for slot, b := range c.Bindings {
					rl.BindShaderBuffer(b.(*buffer).id, uint32(slot))
				}
				rl.ComputeShaderDispatch(uint32(c.GroupsX), uint32(c.GroupsY), 1)
				rl.DisableShader()
			case backend.OpCopyBuffer:
				rl.CopyShaderBuffer(c.Dst.(*buffer).id, c.Src.(*buffer).id, 0, 0, uint32(c.Size))
			}
		}
	}
	return nil
}

// Poll implements backend.Device. GL commands are issued in order and a
// read synchronises implicitly, so there is nothing to wait on.
//
// No memory barrier is issued between dependent dispatches, before buffer
// copies, or before the field pass reads the trail SSBO. Shader writes are
// not guaranteed visible to those later reads.
// TODO: call glMemoryBarrier(GL_SHADER_STORAGE_BARRIER_BIT) after each
// dispatch once raylib-go binds it.
func (d *Device) Poll(wait bool) {}

// Read implements backend.Device.
func (d *Device) Read(b backend.Buffer, dst []byte) error {
	buf, ok := b.(*buffer)
	if !ok || buf.released {
		return fmt.Errorf("%w: read of unknown or released buffer %s", backend.ErrInvalidConfig, b.Label())
	}
	n := min(len(dst), buf.size)
	if n == 0 {
		return nil
	}
	rl.ReadShaderBuffer(buf.id, unsafe.Pointer(&dst[0]), uint32(n), 0)
	return nil
}

// SSBO returns the GL buffer object of b, for binding in render shaders.
func (d *Device) SSBO(b backend.Buffer) (uint32, bool) {
	buf, ok := b.(*buffer)
	if !ok || buf.released {
		return 0, false
	}
	return buf.id, true
}

// Close unloads all programs and buffers.
func (d *Device) Close() error {
	for k, prog := range d.programs {
		rl.UnloadShaderProgram(prog)
		delete(d.programs, k)
	}
	for id, b := range d.buffers {
		b.released = true
		rl.UnloadShaderBuffer(id)
		delete(d.buffers, id)
	}
	return nil
}

func (d *Device) validate(cb *backend.CommandBuffer) error {
	check := func(b backend.Buffer) error {
		buf, ok := b.(*buffer)
		switch {
		case !ok:
			return fmt.Errorf("%w: buffer %s belongs to another device", backend.ErrInvalidConfig, b.Label())
		case buf.released:
			return fmt.Errorf("%w: buffer %s used after release", backend.ErrInvalidConfig, buf.label)
		case buf.shadow != nil:
			return fmt.Errorf("%w: buffer %s used while mapped", backend.ErrInvalidConfig, buf.label)
		}
		return nil
	}
	for _, c := range cb.Commands {
		switch c.Op {
		case backend.OpDispatch:
			if _, ok := d.programs[c.Kernel]; !ok {
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
