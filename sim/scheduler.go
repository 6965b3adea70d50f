package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/telemetry"
)

// Presenter draws the current trail field. Draw reports surface problems
// with the backend.ErrSurface* sentinels.
type Presenter interface {
	Draw(field *TrailField, species components.SpeciesSettings) error
	// Reconfigure recreates the display surface at its last known size.
	Reconfigure() error
}

// Scheduler runs one frame per tick: draw, update parameters, dispatch.
// What is drawn is the field produced by the previous tick's dispatch.
type Scheduler struct {
	sim       *Context
	presenter Presenter
	perf      *telemetry.PerfCollector
	now       func() time.Time

	presented bool
	skipped   uint64
}

// NewScheduler creates a scheduler. presenter may be nil for headless runs.
func NewScheduler(sim *Context, presenter Presenter, perf *telemetry.PerfCollector) *Scheduler {
	if perf == nil {
		perf = telemetry.NewPerfCollector(60)
	}
	return &Scheduler{
		sim:       sim,
		presenter: presenter,
		perf:      perf,
		now:       time.Now,
	}
}

// Tick runs one frame. It returns an error only for fatal conditions.
func (s *Scheduler) Tick() error {
	s.perf.StartTick()
	defer s.perf.EndTick()

	s.perf.StartPhase(telemetry.PhaseDraw)
	if err := s.draw(); err != nil {
		return err
	}

	s.perf.StartPhase(telemetry.PhaseParams)
	if err := s.sim.UpdateParameters(s.now()); err != nil {
		return err
	}

	s.perf.StartPhase(telemetry.PhaseDispatch)
	return s.sim.Dispatch()
}

func (s *Scheduler) draw() error {
	s.presented = false
	if s.presenter == nil {
		return nil
	}

	err := s.presenter.Draw(s.sim.Field(), s.sim.Species())
	switch {
	case err == nil:
		s.presented = true
		return nil
	case errors.Is(err, backend.ErrSurfaceLost):
		slog.Warn("surface lost, reconfiguring", "frame", s.sim.Frame())
		if rerr := s.presenter.Reconfigure(); rerr != nil {
			return fmt.Errorf("reconfiguring surface: %w", rerr)
		}
		return nil
	case errors.Is(err, backend.ErrSurfaceOutdated), errors.Is(err, backend.ErrSurfaceTimeout):
		s.skipped++
		slog.Debug("frame skipped", "frame", s.sim.Frame(), "reason", err.Error())
		return nil
	default:
		// Out of memory and anything unrecognised end the loop.
		return fmt.Errorf("presenting frame %d: %w", s.sim.Frame(), err)
	}
}

// Presented reports whether the last tick drew to the display.
func (s *Scheduler) Presented() bool { return s.presented }

// Skipped returns the number of frames skipped for surface reasons.
func (s *Scheduler) Skipped() uint64 { return s.skipped }

// Perf returns the scheduler's performance collector.
func (s *Scheduler) Perf() *telemetry.PerfCollector { return s.perf }

// Run ticks until ctx is cancelled, maxFrames ticks have run (0 = no limit)
// or a fatal error occurs. afterTick, if set, runs after every tick.
func (s *Scheduler) Run(ctx context.Context, maxFrames int, afterTick func()) error {
	s.sim.Start(s.now())
	for n := 0; maxFrames == 0 || n < maxFrames; n++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := s.Tick(); err != nil {
			return err
		}
		if afterTick != nil {
			afterTick()
		}
	}
	return nil
}
