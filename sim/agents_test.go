package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/config"
)

func TestInitAgentsDistribution(t *testing.T) {
	const (
		n      = 20000
		w, h   = 1920, 1080
		radius = 300.0
	)
	agents := make([]components.Agent, n)
	InitAgents(agents, w, h, radius, rand.New(rand.NewSource(42)))

	areaFrac := make([]float64, n)
	headings := make([]float64, n)
	for i, a := range agents {
		dx := float64(a.PosX) - w/2
		dy := float64(a.PosY) - h/2
		d := math.Hypot(dx, dy)
		if d > radius+1e-3 {
			t.Fatalf("agent %d at distance %f outside radius %f", i, d, radius)
		}
		if a.Angle < 0 || a.Angle >= 360 {
			t.Fatalf("agent %d heading %f outside [0, 360)", i, a.Angle)
		}
		areaFrac[i] = (d / radius) * (d / radius)
		headings[i] = float64(a.Angle)
	}

	// Uniform by area means (d/R)^2 is uniform on [0, 1].
	mean, variance := stat.MeanVariance(areaFrac, nil)
	if math.Abs(mean-0.5) > 0.01 {
		t.Errorf("expected (d/R)^2 mean near 0.5, got %f", mean)
	}
	if math.Abs(variance-1.0/12) > 0.005 {
		t.Errorf("expected (d/R)^2 variance near 1/12, got %f", variance)
	}

	if m := stat.Mean(headings, nil); math.Abs(m-180) > 5 {
		t.Errorf("expected heading mean near 180, got %f", m)
	}
}

func TestInitAgentsWrapsAndIsDeterministic(t *testing.T) {
	a := make([]components.Agent, 500)
	b := make([]components.Agent, 500)
	InitAgents(a, 64, 32, 100, rand.New(rand.NewSource(3)))
	InitAgents(b, 64, 32, 100, rand.New(rand.NewSource(3)))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d differs between runs with the same seed", i)
		}
		if a[i].PosX < 0 || a[i].PosX >= 64 || a[i].PosY < 0 || a[i].PosY >= 32 {
			t.Fatalf("agent %d at (%f, %f) outside the field", i, a[i].PosX, a[i].PosY)
		}
	}
}

// fixedSource replays Int63 values in order.
type fixedSource struct {
	vals []int64
	i    int
}

func (s *fixedSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *fixedSource) Seed(int64) {}

func TestInitAgentsHeadingBelow360(t *testing.T) {
	// Float64 is Int63 / 2^63, so the third draw is U3 = 0.5 - 2^-30. The
	// heading is then 360 - 3.4e-7 degrees, which float32 rounds to 360.
	src := &fixedSource{vals: []int64{1 << 62, 1 << 62, 1<<62 - 1<<33}}
	agents := make([]components.Agent, 1)
	InitAgents(agents, 64, 32, 10, rand.New(src))

	if a := agents[0].Angle; a < 0 || a >= 360 {
		t.Fatalf("heading %f outside [0, 360)", a)
	}
}

func TestNewRejectsAgentCount(t *testing.T) {
	rec := newTestDevice(t, 128, 8)
	for _, n := range []int{0, config.MaxAgents + 1} {
		opts := testOptions(ReconcileCopy)
		opts.AgentCount = n
		if _, err := New(rec, opts); !errors.Is(err, backend.ErrInvalidConfig) {
			t.Errorf("%d agents: expected ErrInvalidConfig, got %v", n, err)
		}
	}
}
