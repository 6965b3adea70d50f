package sim

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/backend/cpu"
	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/kernels"
)

var testDefaults = components.SpeciesSettings{
	MoveSpeed:          50,
	TurnSpeed:          -2,
	SensorAngleDegrees: 112,
	SensorOffsetDst:    50,
	Colour:             components.Colour{G: 1, A: 1},
}

var testSteps = TuningSteps{MoveSpeed: 5, TurnSpeed: 1, SensorOffset: 5, SensorAngle: 5}

func testOptions(mode ReconcileMode) Options {
	return Options{
		FieldWidth:    64,
		FieldHeight:   32,
		TileSize:      8,
		AgentCount:    300,
		WorkgroupSize: 128,
		SpawnRadius:   10,
		TrailWeight:   0.5,
		DiffuseRate:   3,
		DecayRate:     0.2,
		Reconcile:     mode,
		Tuning:        Tuning{Steps: testSteps, Defaults: testDefaults},
		MaxDelta:      100 * time.Millisecond,
		Seed:          7,
	}
}

// newTestDevice returns a recording CPU device running the real kernels.
func newTestDevice(t *testing.T, workgroup, tile int) *backend.Recorder {
	t.Helper()
	dev := cpu.New(map[backend.Kernel]cpu.Kernel{
		backend.KernelSimulate: kernels.Simulate{WorkgroupSize: workgroup},
		backend.KernelDiffuse:  kernels.Diffuse{TileSize: tile},
	}, cpu.Options{Workers: 2})
	t.Cleanup(func() { dev.Close() })
	return backend.NewRecorder(dev, nil)
}

func newTestContext(t *testing.T, mode ReconcileMode) (*Context, *backend.Recorder) {
	t.Helper()
	opts := testOptions(mode)
	rec := newTestDevice(t, opts.WorkgroupSize, opts.TileSize)
	ctx, err := New(rec, opts)
	if err != nil {
		t.Fatalf("creating context: %v", err)
	}
	t.Cleanup(ctx.Release)
	return ctx, rec
}

// readField returns the current plane of the field.
func readField(t *testing.T, dev backend.Device, f *TrailField) []float32 {
	t.Helper()
	raw := make([]byte, f.Bytes())
	if err := dev.Read(f.Current(), raw); err != nil {
		t.Fatalf("reading field: %v", err)
	}
	vals := make([]float32, len(raw)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vals
}
