package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/components"
)

const stagingUsage = backend.UsageMapWrite | backend.UsageCopySrc

// liveUsage is shared by the species and frame parameter buffers. They are
// bound as read-only storage so both devices can use one binding model.
const liveUsage = backend.UsageStorage | backend.UsageUniform | backend.UsageCopyDst

// ParameterStore owns the device copies of the species settings and the
// per-frame parameters, and keeps them in sync with the host values.
type ParameterStore struct {
	dev    backend.Device
	tuning Tuning

	species components.SpeciesSettings
	frame   components.FrameParameters

	speciesBuf backend.Buffer
	frameBuf   backend.Buffer
}

// NewParameterStore creates both device buffers with their initial contents.
func NewParameterStore(dev backend.Device, tuning Tuning, frame components.FrameParameters) (*ParameterStore, error) {
	s := &ParameterStore{
		dev:     dev,
		tuning:  tuning,
		species: tuning.Defaults,
		frame:   frame,
	}

	var err error
	s.speciesBuf, err = dev.CreateBuffer("species settings", components.SpeciesSettingsSize, liveUsage, s.species.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating species buffer: %w", err)
	}
	s.frameBuf, err = dev.CreateBuffer("frame parameters", components.FrameParametersSize, liveUsage, frame.Bytes())
	if err != nil {
		dev.ReleaseBuffer(s.speciesBuf)
		return nil, fmt.Errorf("creating frame buffer: %w", err)
	}
	return s, nil
}

// Species returns the host copy of the species settings.
func (s *ParameterStore) Species() components.SpeciesSettings { return s.species }

// Frame returns the host copy of the last frame parameters.
func (s *ParameterStore) Frame() components.FrameParameters { return s.frame }

// SpeciesBuffer is bound to the simulate kernel.
func (s *ParameterStore) SpeciesBuffer() backend.Buffer { return s.speciesBuf }

// FrameBuffer is bound to both kernels.
func (s *ParameterStore) FrameBuffer() backend.Buffer { return s.frameBuf }

// Apply runs a tuning command and uploads the result. Device failures are
// logged; the host value is updated regardless.
func (s *ParameterStore) Apply(c Command) components.SpeciesSettings {
	s.species = s.tuning.Apply(s.species, c)
	if err := s.stage(s.speciesBuf, s.species.Bytes()); err != nil {
		slog.Error("uploading species settings", "command", c.String(), "error", err)
	}
	return s.species
}

// SetFrame uploads new frame parameters.
func (s *ParameterStore) SetFrame(p components.FrameParameters) error {
	s.frame = p
	if err := s.stage(s.frameBuf, p.Bytes()); err != nil {
		return fmt.Errorf("uploading frame parameters: %w", err)
	}
	return nil
}

// stage uploads data through a temporary mapped buffer: wait for the queue,
// fill the staging buffer, copy it into dst on the device, then release it.
func (s *ParameterStore) stage(dst backend.Buffer, data []byte) error {
	s.dev.Poll(true)

	staging, mapped, err := s.dev.CreateMappedBuffer("staging", len(data), stagingUsage)
	if err != nil {
		return err
	}
	defer s.dev.ReleaseBuffer(staging)

	copy(mapped, data)
	s.dev.Unmap(staging)

	enc := backend.NewEncoder("parameter upload")
	enc.CopyBuffer(dst, staging, len(data))
	cb, err := enc.Finish()
	if err != nil {
		return err
	}
	return s.dev.Submit(cb)
}

// Release frees the device buffers.
func (s *ParameterStore) Release() {
	s.dev.ReleaseBuffer(s.speciesBuf)
	s.dev.ReleaseBuffer(s.frameBuf)
}

// FrameClock measures wall-clock frame deltas and accumulates elapsed
// simulation time.
type FrameClock struct {
	MaxDelta time.Duration

	last    time.Time
	elapsed float64
}

// Start resets the clock at now.
func (c *FrameClock) Start(now time.Time) {
	c.last = now
	c.elapsed = 0
}

// Tick returns the seconds since the previous tick, clamped to MaxDelta,
// and the elapsed total including this tick.
func (c *FrameClock) Tick(now time.Time) (dt, elapsed float64) {
	if c.last.IsZero() {
		c.last = now
	}
	d := now.Sub(c.last)
	c.last = now
	if d < 0 {
		d = 0
	}
	if c.MaxDelta > 0 && d > c.MaxDelta {
		d = c.MaxDelta
	}
	dt = d.Seconds()
	c.elapsed += dt
	return dt, c.elapsed
}

// Elapsed returns the accumulated simulation time in seconds.
func (c *FrameClock) Elapsed() float64 { return c.elapsed }
