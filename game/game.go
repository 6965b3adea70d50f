// Package game wires the configuration, compute device, simulation,
// presentation pipeline and UI into a runnable application.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/sim"
	"github.com/pthm-cable/slime/telemetry"
	"github.com/pthm-cable/slime/ui"
	"github.com/pthm-cable/slime/viewport"
)

// Options configures a Game beyond the loaded configuration.
type Options struct {
	Seed      int64  // 0 = time based
	Headless  bool   // no window; CPU backend only
	MaxFrames int    // 0 = unlimited
	LogStats  bool   // log perf and field stats every stats interval
	OutputDir string // CSV logs and config snapshot (empty = disabled)
	Backend   string // overrides backend.kind when set
	Trace     bool   // record and debug-log every submitted command
}

// Game holds the complete application state.
type Game struct {
	cfg  *config.Config
	opts Options

	dev      backend.Device
	recorder *backend.Recorder
	sim      *sim.Context
	sched    *sim.Scheduler

	// Presentation and UI (nil when headless)
	pipeline  *renderer.Pipeline
	hud       *ui.HUD
	tuning    *ui.TuningPanel
	perfPanel *ui.PerfPanel
	overlays  *ui.OverlayRegistry
	legend    string
	pending   []sim.Command // from panel buttons, applied with the next input pass

	// Telemetry
	output       *telemetry.OutputManager
	nextStats    float64
	fieldCells   []float32
	statsScratch []float64
}

// New creates the device and simulation, and the presentation pipeline
// unless running headless. A window must already be open when not headless.
func New(cfg *config.Config, opts Options) (*Game, error) {
	kind := cfg.Backend.Kind
	if opts.Backend != "" {
		kind = opts.Backend
	}
	if opts.Headless && kind != config.BackendCPU {
		return nil, fmt.Errorf("%w: the %s backend needs a window", backend.ErrDeviceUnavailable, kind)
	}

	g := &Game{
		cfg:       cfg,
		opts:      opts,
		nextStats: cfg.Telemetry.StatsInterval,
	}

	var err error
	g.dev, g.recorder, err = newDevice(cfg, kind, opts.Trace)
	if err != nil {
		return nil, fmt.Errorf("creating %s device: %w", kind, err)
	}

	g.sim, err = sim.New(g.dev, sim.OptionsFromConfig(cfg, opts.Seed))
	if err != nil {
		g.dev.Close()
		return nil, fmt.Errorf("initialising simulation: %w", err)
	}

	var presenter sim.Presenter
	if !opts.Headless {
		if err := g.initPresentation(); err != nil {
			g.Unload()
			return nil, err
		}
		presenter = g.pipeline
	}
	g.sched = sim.NewScheduler(g.sim, presenter, telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow))

	g.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.Unload()
		return nil, err
	}
	if err := g.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	slog.Info("simulation ready",
		"backend", g.dev.Name(),
		"agents", cfg.Agents.Count,
		"field", fmt.Sprintf("%dx%d", cfg.Field.Width, cfg.Field.Height),
		"reconcile", cfg.Field.Reconcile,
		"headless", opts.Headless,
	)
	return g, nil
}

func (g *Game) initPresentation() error {
	policy, err := viewport.ParsePolicy(g.cfg.Presentation.Policy)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrInvalidConfig, err)
	}
	g.pipeline, err = renderer.NewPipeline(g.dev, g.cfg.Field.Width, g.cfg.Field.Height, policy)
	if err != nil {
		return fmt.Errorf("creating presentation pipeline: %w", err)
	}
	g.pipeline.SetOverlay(g.drawOverlay)

	g.hud = ui.NewHUD()
	g.overlays = ui.NewOverlayRegistry()
	g.legend = ui.ControlsLegend(g.overlays)
	g.tuning = ui.NewTuningPanel(10, 80, 260)
	g.perfPanel = ui.NewPerfPanel(0, 10)
	g.layoutPanels(rl.GetScreenWidth(), rl.GetScreenHeight())
	return nil
}

// Run drives the scheduler until ctx is cancelled, the window closes, the
// frame limit is reached or a fatal error occurs.
func (g *Game) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := g.sched.Run(ctx, g.opts.MaxFrames, func() {
		if g.pipeline != nil {
			g.afterFrame(cancel)
		}
		g.flushTelemetry(false)
	})
	g.flushTelemetry(true)

	slog.Info("simulation stopped",
		"frames", g.sim.Frame(),
		"skipped", g.sched.Skipped(),
		"sim_time", g.sim.Elapsed(),
	)
	return err
}

// afterFrame handles window events between ticks.
func (g *Game) afterFrame(cancel context.CancelFunc) {
	if g.sched.Presented() {
		g.sched.Perf().RecordFrame()
	} else {
		// EndDrawing did not run, so nothing polled input. Don't spin while
		// the window is minimised.
		rl.PollInputEvents()
		time.Sleep(10 * time.Millisecond)
	}
	if rl.WindowShouldClose() {
		cancel()
		return
	}
	g.handleInput()
}

// Resize propagates a new display size. It takes effect before the next draw.
func (g *Game) Resize(width, height int) {
	if g.pipeline == nil || width <= 0 || height <= 0 {
		return
	}
	g.pipeline.Resize(width, height)
	g.layoutPanels(width, height)
	slog.Debug("display resized", "width", width, "height", height)
}

func (g *Game) layoutPanels(width, _ int) {
	g.perfPanel.SetPosition(int32(width)-260, 10)
}

// drawOverlay runs inside the presentation pass, over the scaled field.
func (g *Game) drawOverlay() {
	screenH := int32(rl.GetScreenHeight())

	if g.overlays.IsEnabled(ui.OverlayHUD) {
		var visible [4]float32
		visible[0], visible[1], visible[2], visible[3] = g.pipeline.Viewport().VisibleFieldBounds()
		g.hud.Draw(ui.HUDData{
			Title:   g.cfg.Screen.Title,
			Backend: g.dev.Name(),
			Policy:  g.pipeline.Viewport().Policy.String(),
			Agents:  g.cfg.Agents.Count,
			FieldW:  g.cfg.Field.Width,
			FieldH:  g.cfg.Field.Height,
			Frame:   g.sim.Frame(),
			Elapsed: g.sim.Elapsed(),
			FPS:     rl.GetFPS(),
			Skipped: g.sched.Skipped(),
			Visible: visible,
		})
		g.hud.DrawControls(screenH, g.legend)
	}
	if g.overlays.IsEnabled(ui.OverlayTuning) {
		g.pending = append(g.pending, g.tuning.Draw(g.sim.Species())...)
	}
	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.sched.Perf().Stats())
	}
	if g.overlays.IsEnabled(ui.OverlayProbe) {
		g.drawProbe()
	}
}

func (g *Game) drawProbe() {
	mouse := rl.GetMousePosition()
	fx, fy, ok := g.pipeline.Viewport().ScreenToField(mouse.X, mouse.Y)
	probe := ui.ProbeData{FieldX: fx, FieldY: fy, OnField: ok}
	if cells, host := g.pipeline.HostCells(); host && ok {
		probe.Value = cells[int(fy)*g.cfg.Field.Width+int(fx)]
		probe.HasValue = true
	}
	g.hud.DrawProbe(int32(mouse.X), int32(mouse.Y), probe)
}

// Sim returns the simulation context.
func (g *Game) Sim() *sim.Context { return g.sim }

// Frame returns the number of dispatched frames.
func (g *Game) Frame() uint64 { return g.sim.Frame() }

// Unload releases the simulation, presentation and device.
func (g *Game) Unload() {
	if g.pipeline != nil {
		g.pipeline.Unload()
		g.pipeline = nil
	}
	if g.sim != nil {
		g.sim.Release()
		g.sim = nil
	}
	if g.output != nil {
		if err := g.output.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
		g.output = nil
	}
	if g.dev != nil {
		if err := g.dev.Close(); err != nil {
			slog.Error("device closed with error", "error", err)
		}
		g.dev = nil
	}
}
