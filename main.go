package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	vsync := flag.String("vsync", "", "Override screen.vsync (true or false)")
	headless := flag.Bool("headless", false, "Run without graphics on the CPU backend")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output perf and field stats via slog")
	backendKind := flag.String("backend", "", "Compute backend: cpu or gl (empty = use config)")
	trace := flag.Bool("trace", false, "Log every submitted device command at debug level")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	switch *vsync {
	case "":
	case "true", "1":
		cfg.Screen.VSync = true
	case "false", "0":
		cfg.Screen.VSync = false
	default:
		slog.Error("invalid vsync value", "vsync", *vsync)
		os.Exit(2)
	}

	opts := game.Options{
		Seed:      *seed,
		Headless:  *headless,
		MaxFrames: *maxFrames,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Backend:   *backendKind,
		Trace:     *trace,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts game.Options) error {
	if opts.Headless {
		// Headless mode - CPU device only, no raylib needed
		slog.Info("starting headless simulation", "seed", opts.Seed, "max_frames", opts.MaxFrames)
		g, err := game.New(cfg, opts)
		if err != nil {
			return err
		}
		defer g.Unload()
		return g.Run(ctx)
	}

	// Graphical mode
	game.ForwardRaylibLogs(slog.Default())
	flags := uint32(rl.FlagWindowResizable)
	if cfg.Screen.VSync {
		flags |= rl.FlagVsyncHint
	}
	rl.SetConfigFlags(flags)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetWindowMinSize(320, 180)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	if cfg.Screen.Fullscreen {
		rl.ToggleBorderlessWindowed()
	}

	g, err := game.New(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()
	return g.Run(ctx)
}
