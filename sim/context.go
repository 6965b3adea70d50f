// Package sim owns the simulation state: the agent store, the trail field,
// the parameter store and the frame scheduler that drives them on a
// backend.Device.
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/config"
)

// Options configures a simulation Context.
type Options struct {
	FieldWidth    int
	FieldHeight   int
	TileSize      int
	AgentCount    int
	WorkgroupSize int
	SpawnRadius   float64
	TrailWeight   float32
	DiffuseRate   float32
	DecayRate     float32
	Reconcile     ReconcileMode
	Tuning        Tuning
	MaxDelta      time.Duration
	Seed          int64 // 0 = time based
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config, seed int64) Options {
	return Options{
		FieldWidth:    cfg.Field.Width,
		FieldHeight:   cfg.Field.Height,
		TileSize:      cfg.Field.TileSize,
		AgentCount:    cfg.Agents.Count,
		WorkgroupSize: cfg.Agents.WorkgroupSize,
		SpawnRadius:   cfg.Agents.SpawnRadius,
		TrailWeight:   float32(cfg.Field.TrailWeight),
		DiffuseRate:   float32(cfg.Field.DiffuseRate),
		DecayRate:     float32(cfg.Field.DecayRate),
		Reconcile:     ReconcileMode(cfg.Field.Reconcile),
		Tuning: Tuning{
			Steps: TuningSteps{
				MoveSpeed:    float32(cfg.Tuning.MoveSpeedStep),
				TurnSpeed:    float32(cfg.Tuning.TurnSpeedStep),
				SensorOffset: float32(cfg.Tuning.SensorOffsetStep),
				SensorAngle:  float32(cfg.Tuning.SensorAngleStep),
			},
			Defaults: cfg.Derived.SpeciesParams,
		},
		MaxDelta: time.Duration(cfg.Timing.MaxDeltaTime * float64(time.Second)),
		Seed:     seed,
	}
}

// Context is the simulation owned by the control goroutine.
type Context struct {
	dev  backend.Device
	opts Options

	agents      backend.Buffer
	agentGroups int
	field       *TrailField
	params      *ParameterStore
	clock       FrameClock
	frame       uint64
}

// New initialises the agent store, uploads it, and allocates the trail field
// and parameter buffers.
func New(dev backend.Device, opts Options) (*Context, error) {
	if opts.AgentCount <= 0 || opts.AgentCount > config.MaxAgents || opts.WorkgroupSize <= 0 {
		return nil, fmt.Errorf("%w: %d agents in groups of %d",
			backend.ErrInvalidConfig, opts.AgentCount, opts.WorkgroupSize)
	}

	field, err := NewTrailField(dev, opts.FieldWidth, opts.FieldHeight, opts.TileSize, opts.Reconcile)
	if err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	start := time.Now()
	agents := make([]components.Agent, opts.AgentCount)
	InitAgents(agents, opts.FieldWidth, opts.FieldHeight, opts.SpawnRadius, rand.New(rand.NewSource(seed)))
	slog.Info("generated agents",
		"count", opts.AgentCount,
		"seed", seed,
		"ms", time.Since(start).Milliseconds(),
	)

	agentBuf, err := dev.CreateBuffer("agents", len(agents)*components.AgentSize,
		backend.UsageStorage|backend.UsageCopySrc, components.AgentBytes(agents))
	if err != nil {
		field.Release(dev)
		return nil, fmt.Errorf("uploading agents: %w", err)
	}

	c := &Context{
		dev:         dev,
		opts:        opts,
		agents:      agentBuf,
		agentGroups: (opts.AgentCount + opts.WorkgroupSize - 1) / opts.WorkgroupSize,
		field:       field,
		clock:       FrameClock{MaxDelta: opts.MaxDelta},
	}
	c.params, err = NewParameterStore(dev, opts.Tuning, c.frameParameters(0, 0))
	if err != nil {
		dev.ReleaseBuffer(agentBuf)
		field.Release(dev)
		return nil, err
	}
	return c, nil
}

func (c *Context) frameParameters(dt, elapsed float64) components.FrameParameters {
	return components.FrameParameters{
		NumAgents:   float32(c.opts.AgentCount),
		Width:       float32(c.opts.FieldWidth),
		Height:      float32(c.opts.FieldHeight),
		TrailWeight: c.opts.TrailWeight,
		DeltaTime:   float32(dt),
		Time:        float32(elapsed),
		DiffuseRate: c.opts.DiffuseRate,
		DecayRate:   c.opts.DecayRate,
	}
}

// Start anchors the frame clock so the first delta is measured from now.
func (c *Context) Start(now time.Time) { c.clock.Start(now) }

// UpdateParameters advances the clock and uploads the frame parameters.
func (c *Context) UpdateParameters(now time.Time) error {
	dt, elapsed := c.clock.Tick(now)
	return c.params.SetFrame(c.frameParameters(dt, elapsed))
}

// Dispatch records simulate, diffuse and the field reconciliation into one
// command buffer and submits it.
func (c *Context) Dispatch() error {
	enc := backend.NewEncoder(fmt.Sprintf("frame %d", c.frame))
	enc.Dispatch(backend.KernelSimulate, c.agentGroups, 1,
		c.params.FrameBuffer(), c.params.SpeciesBuffer(), c.agents, c.field.Current())
	tx, ty := c.field.Tiles()
	enc.Dispatch(backend.KernelDiffuse, tx, ty,
		c.params.FrameBuffer(), c.field.Current(), c.field.Next())
	c.field.EncodeReconcile(enc)

	cb, err := enc.Finish()
	if err != nil {
		return err
	}
	if err := c.dev.Submit(cb); err != nil {
		return fmt.Errorf("submitting frame %d: %w", c.frame, err)
	}
	c.frame++
	return nil
}

// Apply runs a live tuning command.
func (c *Context) Apply(cmd Command) components.SpeciesSettings {
	s := c.params.Apply(cmd)
	slog.Info("species tuned",
		"command", cmd.String(),
		"move_speed", s.MoveSpeed,
		"turn_speed", s.TurnSpeed,
		"sensor_angle", s.SensorAngleDegrees,
		"sensor_offset", s.SensorOffsetDst,
	)
	return s
}

// Species returns the current species settings.
func (c *Context) Species() components.SpeciesSettings { return c.params.Species() }

// FrameParams returns the parameters of the last update.
func (c *Context) FrameParams() components.FrameParameters { return c.params.Frame() }

// Field returns the trail field.
func (c *Context) Field() *TrailField { return c.field }

// Agents returns the device agent buffer.
func (c *Context) Agents() backend.Buffer { return c.agents }

// AgentGroups returns the simulate workgroup count.
func (c *Context) AgentGroups() int { return c.agentGroups }

// Frame returns the number of submitted frames.
func (c *Context) Frame() uint64 { return c.frame }

// Elapsed returns the simulation time in seconds.
func (c *Context) Elapsed() float64 { return c.clock.Elapsed() }

// Device returns the device the context runs on.
func (c *Context) Device() backend.Device { return c.dev }

// Release frees all device buffers. The device itself is not closed.
func (c *Context) Release() {
	c.params.Release()
	c.dev.ReleaseBuffer(c.agents)
	c.field.Release(c.dev)
}
