package cpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"unsafe"

	"github.com/pthm-cable/slime/backend"
)

// addKernel adds 1 to every float of binding 0, one float per workgroup.
type addKernel struct{}

func (addKernel) Prepare(bindings [][]byte) (func(gx, gy int), error) {
	if len(bindings) != 1 {
		return nil, errors.New("add: expected one binding")
	}
	b := bindings[0]
	vals := unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
	return func(gx, _ int) { vals[gx]++ }, nil
}

// failKernel always fails to prepare.
type failKernel struct{}

func (failKernel) Prepare([][]byte) (func(gx, gy int), error) {
	return nil, errors.New("boom")
}

const storage = backend.UsageStorage | backend.UsageCopySrc | backend.UsageCopyDst

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := New(map[backend.Kernel]Kernel{
		backend.KernelSimulate: addKernel{},
		backend.KernelDiffuse:  failKernel{},
	}, Options{Workers: 4})
	t.Cleanup(func() { d.Close() })
	return d
}

func readFloats(t *testing.T, d *Device, b backend.Buffer) []float32 {
	t.Helper()
	raw := make([]byte, b.Size())
	if err := d.Read(b, raw); err != nil {
		t.Fatalf("read %s: %v", b.Label(), err)
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func TestSubmitOrdering(t *testing.T) {
	d := newTestDevice(t)
	const n = 64

	a, err := d.CreateBuffer("a", n*4, storage, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.CreateBuffer("b", n*4, storage, nil)
	if err != nil {
		t.Fatal(err)
	}

	// a += 1, b = a, a += 1: b must observe the first dispatch only.
	enc := backend.NewEncoder("ordering")
	enc.Dispatch(backend.KernelSimulate, n, 1, a)
	enc.CopyBuffer(b, a, n*4)
	enc.Dispatch(backend.KernelSimulate, n, 1, a)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := d.Submit(cb); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	av := readFloats(t, d, a)
	bv := readFloats(t, d, b)
	for i := 0; i < n; i++ {
		if av[i] != 6 {
			t.Fatalf("a[%d] = %f, expected 6", i, av[i])
		}
		if bv[i] != 5 {
			t.Fatalf("b[%d] = %f, expected 5", i, bv[i])
		}
	}
}

func TestStagingUpload(t *testing.T) {
	d := newTestDevice(t)

	live, err := d.CreateBuffer("live", 8, storage, nil)
	if err != nil {
		t.Fatal(err)
	}
	staging, mapped, err := d.CreateMappedBuffer("staging", 8, backend.UsageMapWrite|backend.UsageCopySrc)
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint32(mapped[0:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(mapped[4:], math.Float32bits(-3))

	enc := backend.NewEncoder("upload")
	enc.CopyBuffer(live, staging, 8)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Submit(cb); err == nil {
		t.Fatal("expected submit with a mapped buffer to fail")
	}
	d.Unmap(staging)
	if err := d.Submit(cb); err != nil {
		t.Fatal(err)
	}
	d.ReleaseBuffer(staging)

	got := readFloats(t, d, live)
	if got[0] != 1.5 || got[1] != -3 {
		t.Errorf("expected [1.5 -3], got %v", got)
	}
	if err := d.Submit(cb); err == nil {
		t.Error("expected submit referencing a released buffer to fail")
	}
}

func TestInvalidCommands(t *testing.T) {
	d := newTestDevice(t)
	a, _ := d.CreateBuffer("a", 16, storage, nil)
	ro, _ := d.CreateBuffer("ro", 16, backend.UsageStorage, nil)

	enc := backend.NewEncoder("bad copy")
	enc.CopyBuffer(a, ro, 16)
	if _, err := enc.Finish(); !errors.Is(err, backend.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for copy without CopySrc, got %v", err)
	}

	enc = backend.NewEncoder("unknown kernel")
	enc.Dispatch("blur", 1, 1, a)
	cb, err := enc.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Submit(cb); !errors.Is(err, backend.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for unknown kernel, got %v", err)
	}

	if _, err := d.CreateBuffer("big", 2, storage, make([]byte, 4)); !errors.Is(err, backend.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for oversized contents, got %v", err)
	}
}

func TestExecutionFailureIsSticky(t *testing.T) {
	d := newTestDevice(t)
	a, _ := d.CreateBuffer("a", 16, storage, nil)

	enc := backend.NewEncoder("failing")
	enc.Dispatch(backend.KernelDiffuse, 1, 1, a)
	cb, _ := enc.Finish()
	if err := d.Submit(cb); err != nil {
		t.Fatalf("validation should pass, got %v", err)
	}
	d.Poll(true)

	if err := d.Err(); !errors.Is(err, backend.ErrDeviceLost) {
		t.Fatalf("expected ErrDeviceLost, got %v", err)
	}
	if err := d.Submit(cb); !errors.Is(err, backend.ErrDeviceLost) {
		t.Errorf("expected later submits to fail with ErrDeviceLost, got %v", err)
	}
}

func TestPoolCoversGrid(t *testing.T) {
	p := newPool(3)
	defer p.stop()

	const gx, gy = 7, 5
	var hits [gx * gy]int32
	p.run(func(x, y int) { hits[y*gx+x]++ }, gx, gy)

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("group %d ran %d times", i, h)
		}
	}
}
