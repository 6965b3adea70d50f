// Field snapshot tool - runs the simulation headless on the CPU backend and
// writes the coloured trail field to a PNG file for inspection.
//
// Usage: go run ./cmd/fieldsnap -config configs/letterbox.yaml -frames 600 -out field.png
//
// -tune applies tuning commands before the first frame, for example
// -tune increase-sensor-offset,increase-sensor-offset,decrease-turn-rate
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/backend/cpu"
	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/kernels"
	"github.com/pthm-cable/slime/renderer"
	"github.com/pthm-cable/slime/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	frames := flag.Int("frames", 600, "Frames to simulate before the snapshot")
	step := flag.Duration("step", time.Second/60, "Simulated time per frame")
	seed := flag.Int64("seed", 1, "RNG seed (0 = time-based)")
	outPath := flag.String("out", "field.png", "Output PNG path")
	tune := flag.String("tune", "", "Comma-separated tuning commands: "+commandList())
	flag.Parse()

	cmds, err := parseCommands(*tune)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := snapshot(cfg, cmds, *frames, *step, *seed, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Snapshot failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Field after %d frames saved to: %s\n", *frames, *outPath)
}

func commandList() string {
	names := make([]string, 0, len(sim.Commands()))
	for _, c := range sim.Commands() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

func parseCommands(s string) ([]sim.Command, error) {
	if s == "" {
		return nil, nil
	}
	var cmds []sim.Command
	for _, name := range strings.Split(s, ",") {
		c, err := sim.ParseCommand(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func snapshot(cfg *config.Config, cmds []sim.Command, frames int, step time.Duration, seed int64, outPath string) error {
	dev := cpu.New(map[backend.Kernel]cpu.Kernel{
		backend.KernelSimulate: kernels.Simulate{WorkgroupSize: cfg.Agents.WorkgroupSize},
		backend.KernelDiffuse:  kernels.Diffuse{TileSize: cfg.Field.TileSize},
	}, cpu.Options{Workers: cfg.Backend.Workers})
	defer dev.Close()

	ctx, err := sim.New(dev, sim.OptionsFromConfig(cfg, seed))
	if err != nil {
		return err
	}
	defer ctx.Release()

	for _, c := range cmds {
		ctx.Apply(c)
	}

	// Fixed steps keep the result independent of how fast the host runs.
	now := time.Unix(0, 0)
	ctx.Start(now)
	for i := 0; i < frames; i++ {
		now = now.Add(step)
		if err := ctx.UpdateParameters(now); err != nil {
			return err
		}
		if err := ctx.Dispatch(); err != nil {
			return err
		}
	}

	field := ctx.Field()
	cells := make([]float32, field.Width()*field.Height())
	if err := field.ReadCells(dev, cells); err != nil {
		return err
	}
	pixels := make([]color.RGBA, len(cells))
	renderer.Colorize(pixels, cells, ctx.Species().Colour)

	data := make([]byte, 0, len(pixels)*4)
	for _, p := range pixels {
		data = append(data, p.R, p.G, p.B, p.A)
	}
	img := rl.NewImage(data, int32(field.Width()), int32(field.Height()), 1, rl.UncompressedR8g8b8a8)
	if !rl.ExportImage(*img, outPath) {
		return fmt.Errorf("exporting %s", outPath)
	}
	return nil
}
