package telemetry

import (
	"fmt"
	"log/slog"
	"time"
)

// Phase is one stage of a frame.
type Phase uint8

const (
	PhaseDraw     Phase = iota // field pass and scaling pass
	PhaseParams                // frame parameter upload
	PhaseDispatch              // simulate, diffuse, reconcile submission
	numPhases
)

var phaseNames = [numPhases]string{"draw", "params", "dispatch"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Phases lists the frame phases in execution order.
var Phases = []Phase{PhaseDraw, PhaseParams, PhaseDispatch}

// PhaseTimes holds one duration per phase.
type PhaseTimes [numPhases]time.Duration

type tickSample struct {
	total  time.Duration
	phases PhaseTimes
}

func (s *tickSample) add(o tickSample, sign time.Duration) {
	s.total += sign * o.total
	for i := range s.phases {
		s.phases[i] += sign * o.phases[i]
	}
}

// PerfCollector times frames phase by phase and keeps running sums over a
// ring of the last N ticks.
type PerfCollector struct {
	ring  []tickSample
	next  int
	count int
	sum   tickSample

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frameDur  time.Duration
}

// NewPerfCollector averages over window ticks (60 when window < 1).
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickSample, window)}
}

// StartTick begins timing a new frame.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = ph, now, true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick records the frame, evicting the oldest once the ring is full.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false
	p.cur.total = now.Sub(p.tickStart)

	if p.count == len(p.ring) {
		p.sum.add(p.ring[p.next], -1)
	} else {
		p.count++
	}
	p.ring[p.next] = p.cur
	p.sum.add(p.cur, 1)
	p.next = (p.next + 1) % len(p.ring)
}

// RecordFrame marks a presented frame for FPS.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDur = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats is the window average.
type PerfStats struct {
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration

	PhaseAvg PhaseTimes
	PhasePct [numPhases]float64 // share of the average tick

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frameDur}
	if p.frameDur > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDur)
	}
	if p.count == 0 {
		return s
	}

	n := time.Duration(p.count)
	s.AvgTick = p.sum.total / n
	s.MinTick = p.ring[0].total
	for _, t := range p.ring[:p.count] {
		s.MinTick = min(s.MinTick, t.total)
		s.MaxTick = max(s.MaxTick, t.total)
	}
	for i, d := range p.sum.phases {
		s.PhaseAvg[i] = d / n
		if s.AvgTick > 0 {
			s.PhasePct[i] = float64(s.PhaseAvg[i]) / float64(s.AvgTick) * 100
		}
	}
	return s
}

// LogStats logs the window average.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("min_tick_us", s.MinTick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, ph := range Phases {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	Frame       uint64  `csv:"frame"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	MinTickUS   int64   `csv:"min_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	FPS         float64 `csv:"fps"`
	DrawPct     float64 `csv:"draw_pct"`
	ParamsPct   float64 `csv:"params_pct"`
	DispatchPct float64 `csv:"dispatch_pct"`
}

// ToCSV flattens s for gocsv.
func (s PerfStats) ToCSV(frame uint64) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:       frame,
		AvgTickUS:   s.AvgTick.Microseconds(),
		MinTickUS:   s.MinTick.Microseconds(),
		MaxTickUS:   s.MaxTick.Microseconds(),
		FPS:         s.FPS,
		DrawPct:     s.PhasePct[PhaseDraw],
		ParamsPct:   s.PhasePct[PhaseParams],
		DispatchPct: s.PhasePct[PhaseDispatch],
	}
}
