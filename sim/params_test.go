package sim

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/components"
)

func readBuffer(t *testing.T, dev backend.Device, b backend.Buffer) []byte {
	t.Helper()
	out := make([]byte, b.Size())
	if err := dev.Read(b, out); err != nil {
		t.Fatalf("reading %s: %v", b.Label(), err)
	}
	return out
}

func TestStagingIsIdempotent(t *testing.T) {
	rec := newTestDevice(t, 128, 8)
	store, err := NewParameterStore(rec, Tuning{Steps: testSteps, Defaults: testDefaults}, components.FrameParameters{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Release()

	p := components.FrameParameters{NumAgents: 10, Width: 64, Height: 32, TrailWeight: 0.5, DeltaTime: 0.016, Time: 1}
	if err := store.SetFrame(p); err != nil {
		t.Fatal(err)
	}
	first := readBuffer(t, rec, store.FrameBuffer())
	if err := store.SetFrame(p); err != nil {
		t.Fatal(err)
	}
	second := readBuffer(t, rec, store.FrameBuffer())

	if !bytes.Equal(first, second) || !bytes.Equal(first, p.Bytes()) {
		t.Errorf("repeated upload changed the buffer: %x vs %x", first, second)
	}

	released := rec.Released()
	if len(released) != 2 || released[0] != "staging" || released[1] != "staging" {
		t.Errorf("expected both staging buffers released, got %v", released)
	}
}

func TestSpeciesStagingIsIdempotent(t *testing.T) {
	rec := newTestDevice(t, 128, 8)
	store, err := NewParameterStore(rec, Tuning{Steps: testSteps, Defaults: testDefaults}, components.FrameParameters{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Release()

	initial := readBuffer(t, rec, store.SpeciesBuffer())
	// CmdNone leaves the settings unchanged but still stages them.
	first := store.Apply(CmdNone)
	afterFirst := readBuffer(t, rec, store.SpeciesBuffer())
	second := store.Apply(CmdNone)
	afterSecond := readBuffer(t, rec, store.SpeciesBuffer())

	if first != testDefaults || second != testDefaults {
		t.Errorf("expected unchanged defaults, got %+v then %+v", first, second)
	}
	if !bytes.Equal(initial, afterFirst) || !bytes.Equal(afterFirst, afterSecond) {
		t.Errorf("repeated species upload changed the buffer: %x, %x, %x", initial, afterFirst, afterSecond)
	}
	if !bytes.Equal(afterSecond, testDefaults.Bytes()) {
		t.Errorf("buffer %x does not hold the defaults %x", afterSecond, testDefaults.Bytes())
	}
}

func TestApplyUploadsSpecies(t *testing.T) {
	rec := newTestDevice(t, 128, 8)
	store, err := NewParameterStore(rec, Tuning{Steps: testSteps, Defaults: testDefaults}, components.FrameParameters{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Release()

	got := store.Apply(CmdIncreaseSensorOffset)
	if got.SensorOffsetDst != 55 {
		t.Errorf("expected offset 55, got %f", got.SensorOffsetDst)
	}
	dev := components.DecodeSpeciesSettings(readBuffer(t, rec, store.SpeciesBuffer()))
	if dev != got {
		t.Errorf("device copy %+v differs from host %+v", dev, got)
	}

	entries := rec.Entries()
	if len(entries) != 1 || entries[0].Src != "staging" || entries[0].Dst != "species settings" {
		t.Errorf("expected one staging copy into species settings, got %+v", entries)
	}
}

func TestFrameClock(t *testing.T) {
	c := FrameClock{MaxDelta: 100 * time.Millisecond}
	start := time.Unix(0, 0)
	c.Start(start)

	dt, elapsed := c.Tick(start.Add(16 * time.Millisecond))
	if math.Abs(dt-0.016) > 1e-9 || math.Abs(elapsed-0.016) > 1e-9 {
		t.Errorf("expected dt 0.016, got dt=%f elapsed=%f", dt, elapsed)
	}

	dt, elapsed = c.Tick(start.Add(2 * time.Second))
	if math.Abs(dt-0.1) > 1e-9 {
		t.Errorf("expected clamped dt 0.1, got %f", dt)
	}
	if math.Abs(elapsed-0.116) > 1e-9 {
		t.Errorf("expected elapsed 0.116, got %f", elapsed)
	}
}
