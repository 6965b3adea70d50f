// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/slime/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Load and Validate for configurations the
// simulation cannot run with.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen       ScreenConfig       `yaml:"screen"`
	Backend      BackendConfig      `yaml:"backend"`
	Field        FieldConfig        `yaml:"field"`
	Agents       AgentsConfig       `yaml:"agents"`
	Species      SpeciesConfig      `yaml:"species"`
	Tuning       TuningConfig       `yaml:"tuning"`
	Timing       TimingConfig       `yaml:"timing"`
	Presentation PresentationConfig `yaml:"presentation"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	TargetFPS  int    `yaml:"target_fps"` // 0 = uncapped
	VSync      bool   `yaml:"vsync"`
	Fullscreen bool   `yaml:"fullscreen"` // borderless fullscreen at startup
	Title      string `yaml:"title"`
}

// Backend kinds.
const (
	BackendCPU = "cpu"
	BackendGL  = "gl"
)

// BackendConfig selects the compute device.
type BackendConfig struct {
	Kind    string `yaml:"kind"`    // cpu or gl
	Workers int    `yaml:"workers"` // CPU worker goroutines (0 = GOMAXPROCS)
}

// Reconciliation strategies for the trail field.
const (
	ReconcileCopy = "copy"
	ReconcileSwap = "swap"
)

// FieldConfig holds trail field dimensions and evolution rates.
type FieldConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	TileSize    int     `yaml:"tile_size"`    // diffusion workgroup edge; width and height must be multiples
	TrailWeight float64 `yaml:"trail_weight"` // deposit per agent per frame
	DiffuseRate float64 `yaml:"diffuse_rate"` // blur weight per second
	DecayRate   float64 `yaml:"decay_rate"`   // evaporation per second
	Reconcile   string  `yaml:"reconcile"`    // copy or swap
}

// MaxAgents is the largest agent count a float32 NumAgents holds exactly.
const MaxAgents = 1 << 24

// AgentsConfig holds agent store parameters.
type AgentsConfig struct {
	Count         int     `yaml:"count"`
	WorkgroupSize int     `yaml:"workgroup_size"`
	SpawnRadius   float64 `yaml:"spawn_radius"`
}

// SpeciesConfig holds the species defaults restored by reset-species.
type SpeciesConfig struct {
	MoveSpeed          float64   `yaml:"move_speed"`
	TurnSpeed          float64   `yaml:"turn_speed"`
	SensorAngleDegrees float64   `yaml:"sensor_angle_degrees"`
	SensorOffsetDst    float64   `yaml:"sensor_offset_dst"`
	SensorSize         float64   `yaml:"sensor_size"`
	Colour             []float64 `yaml:"colour"` // RGBA in [0, 1]
}

// TuningConfig holds the step sizes of the live tuning commands.
type TuningConfig struct {
	MoveSpeedStep    float64 `yaml:"move_speed_step"`
	TurnSpeedStep    float64 `yaml:"turn_speed_step"`
	SensorOffsetStep float64 `yaml:"sensor_offset_step"`
	SensorAngleStep  float64 `yaml:"sensor_angle_step"`
}

// TimingConfig holds frame timing parameters.
type TimingConfig struct {
	MaxDeltaTime float64 `yaml:"max_delta_time"` // seconds; longer frames are clamped
}

// Projection policies.
const (
	PolicyCenterCrop = "center_crop"
	PolicyLetterbox  = "letterbox"
)

// PresentationConfig holds display scaling parameters.
type PresentationConfig struct {
	Policy string `yaml:"policy"` // center_crop or letterbox
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow        int     `yaml:"perf_window"`         // ticks in the rolling perf window
	StatsInterval     float64 `yaml:"stats_interval"`      // seconds between stats log lines
	FieldSampleStride int     `yaml:"field_sample_stride"` // every Nth cell is sampled for field stats
	CoverageThreshold float64 `yaml:"coverage_threshold"`  // cells above this count as covered
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SpeciesParams components.SpeciesSettings // Species in device layout
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks the configuration for values the simulation rejects at
// setup time. Every failure wraps ErrInvalid.
func (c *Config) Validate() error {
	f := c.Field
	switch {
	case f.Width <= 0 || f.Height <= 0:
		return fmt.Errorf("%w: field size %dx%d", ErrInvalid, f.Width, f.Height)
	case f.TileSize <= 0:
		return fmt.Errorf("%w: tile size %d", ErrInvalid, f.TileSize)
	case f.Width%f.TileSize != 0 || f.Height%f.TileSize != 0:
		return fmt.Errorf("%w: field %dx%d is not a multiple of tile size %d",
			ErrInvalid, f.Width, f.Height, f.TileSize)
	case f.TrailWeight < 0 || f.DiffuseRate < 0 || f.DecayRate < 0:
		return fmt.Errorf("%w: field rates must be non-negative", ErrInvalid)
	}
	switch f.Reconcile {
	case ReconcileCopy, ReconcileSwap:
	default:
		return fmt.Errorf("%w: unknown reconcile strategy %q", ErrInvalid, f.Reconcile)
	}

	if c.Agents.Count <= 0 || c.Agents.Count > MaxAgents {
		return fmt.Errorf("%w: agent count %d outside [1, %d]", ErrInvalid, c.Agents.Count, MaxAgents)
	}
	if c.Agents.WorkgroupSize <= 0 {
		return fmt.Errorf("%w: workgroup size %d", ErrInvalid, c.Agents.WorkgroupSize)
	}
	if c.Agents.SpawnRadius < 0 {
		return fmt.Errorf("%w: spawn radius %g", ErrInvalid, c.Agents.SpawnRadius)
	}

	switch c.Backend.Kind {
	case BackendCPU, BackendGL:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend.Kind)
	}
	switch c.Presentation.Policy {
	case PolicyCenterCrop, PolicyLetterbox:
	default:
		return fmt.Errorf("%w: unknown projection policy %q", ErrInvalid, c.Presentation.Policy)
	}

	if n := len(c.Species.Colour); n != 0 && n != 4 {
		return fmt.Errorf("%w: species colour needs 4 components, got %d", ErrInvalid, n)
	}
	if c.Species.SensorAngleDegrees < 0 || c.Species.SensorAngleDegrees > 180 {
		return fmt.Errorf("%w: sensor angle %g outside [0, 180]", ErrInvalid, c.Species.SensorAngleDegrees)
	}
	t := c.Tuning
	if t.MoveSpeedStep < 0 || t.TurnSpeedStep < 0 || t.SensorOffsetStep < 0 || t.SensorAngleStep < 0 {
		return fmt.Errorf("%w: tuning steps must be non-negative", ErrInvalid)
	}
	if c.Timing.MaxDeltaTime <= 0 {
		return fmt.Errorf("%w: max delta time %g", ErrInvalid, c.Timing.MaxDeltaTime)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	col := components.Colour{R: 0, G: 1, B: 0, A: 1}
	if len(c.Species.Colour) == 4 {
		col = components.Colour{
			R: float32(c.Species.Colour[0]),
			G: float32(c.Species.Colour[1]),
			B: float32(c.Species.Colour[2]),
			A: float32(c.Species.Colour[3]),
		}
	}
	c.Derived.SpeciesParams = components.SpeciesSettings{
		MoveSpeed:          float32(c.Species.MoveSpeed),
		TurnSpeed:          float32(c.Species.TurnSpeed),
		SensorAngleDegrees: float32(c.Species.SensorAngleDegrees),
		SensorOffsetDst:    float32(c.Species.SensorOffsetDst),
		SensorSize:         float32(c.Species.SensorSize),
		Colour:             col,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
