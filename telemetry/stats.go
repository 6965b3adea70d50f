package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldStats summarises the trail field at one frame.
type FieldStats struct {
	Frame      uint64  `csv:"frame"`
	SimTimeSec float64 `csv:"sim_time"`

	// Intensity distribution over the sampled cells
	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	Max  float64 `csv:"max"`
	P50  float64 `csv:"p50"`
	P90  float64 `csv:"p90"`
	P99  float64 `csv:"p99"`

	Coverage float64 `csv:"coverage"` // fraction of sampled cells above the threshold
	Samples  int     `csv:"samples"`
}

// ComputeFieldStats samples every stride-th cell of a field plane.
// scratch is reused when large enough and may be nil.
func ComputeFieldStats(cells []float32, stride int, threshold float64, scratch []float64) (FieldStats, []float64) {
	if stride < 1 {
		stride = 1
	}
	n := (len(cells) + stride - 1) / stride
	if n == 0 {
		return FieldStats{}, scratch
	}
	if cap(scratch) < n {
		scratch = make([]float64, n)
	}
	vals := scratch[:n]

	covered := 0
	for i := range vals {
		v := float64(cells[i*stride])
		vals[i] = v
		if v > threshold {
			covered++
		}
	}

	mean, std := stat.MeanStdDev(vals, nil)
	sort.Float64s(vals)

	return FieldStats{
		Mean:     mean,
		Std:      std,
		Max:      floats.Max(vals),
		P50:      stat.Quantile(0.5, stat.Empirical, vals, nil),
		P90:      stat.Quantile(0.9, stat.Empirical, vals, nil),
		P99:      stat.Quantile(0.99, stat.Empirical, vals, nil),
		Coverage: float64(covered) / float64(n),
		Samples:  n,
	}, scratch
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frame", s.Frame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("max", s.Max),
		slog.Float64("p90", s.P90),
		slog.Float64("coverage", s.Coverage),
	)
}

// LogStats logs the field statistics.
func (s FieldStats) LogStats() {
	slog.Info("field", "stats", s)
}
