package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/slime/telemetry"
)

// flushTelemetry logs and records perf and field statistics once per stats
// interval of simulated time, or immediately when force is set.
func (g *Game) flushTelemetry(force bool) {
	if !g.opts.LogStats && g.output == nil && g.recorder == nil {
		return
	}
	elapsed := g.sim.Elapsed()
	if !force && elapsed < g.nextStats {
		return
	}
	g.nextStats = elapsed + g.cfg.Telemetry.StatsInterval

	frame := g.sim.Frame()
	perfStats := g.sched.Perf().Stats()
	fieldStats, err := g.sampleField()
	if err != nil {
		slog.Error("failed to sample trail field", "error", err)
	}
	fieldStats.Frame = frame
	fieldStats.SimTimeSec = elapsed

	// Log stats if enabled (console output)
	if g.opts.LogStats {
		perfStats.LogStats()
		if err == nil {
			fieldStats.LogStats()
		}
	}

	// Write to CSV if output manager is enabled
	if g.output != nil {
		if err := g.output.WritePerf(perfStats, frame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err == nil {
			if err := g.output.WriteField(fieldStats); err != nil {
				slog.Error("failed to write field stats", "error", err)
			}
		}
	}

	if g.recorder != nil {
		slog.Debug("device commands", "frame", frame, "commands", len(g.recorder.Entries()))
		g.recorder.Reset()
	}
}

// sampleField computes statistics over the current trail plane. It reuses
// the presenter's host copy when there is one.
func (g *Game) sampleField() (telemetry.FieldStats, error) {
	var cells []float32
	if g.pipeline != nil {
		cells, _ = g.pipeline.HostCells()
	}
	if cells == nil {
		field := g.sim.Field()
		if len(g.fieldCells) != field.Width()*field.Height() {
			g.fieldCells = make([]float32, field.Width()*field.Height())
		}
		if err := field.ReadCells(g.sim.Device(), g.fieldCells); err != nil {
			return telemetry.FieldStats{}, fmt.Errorf("reading trail field: %w", err)
		}
		cells = g.fieldCells
	}

	var stats telemetry.FieldStats
	stats, g.statsScratch = telemetry.ComputeFieldStats(cells,
		g.cfg.Telemetry.FieldSampleStride, g.cfg.Telemetry.CoverageThreshold, g.statsScratch)
	return stats, nil
}
