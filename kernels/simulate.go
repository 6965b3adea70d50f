package kernels

import (
	"fmt"
	"math"

	"github.com/pthm-cable/slime/components"
)

// Binding slots of the simulate kernel.
const (
	SimulateParams = iota
	SimulateSpecies
	SimulateAgents
	SimulateTrail
	simulateBindings
)

const degToRad = math.Pi / 180

// Simulate advances every agent by one step: sense, steer, move, deposit.
// Each workgroup covers WorkgroupSize consecutive agents.
type Simulate struct {
	WorkgroupSize int
}

// Prepare implements cpu.Kernel.
func (k Simulate) Prepare(bindings [][]byte) (func(gx, gy int), error) {
	if len(bindings) != simulateBindings {
		return nil, fmt.Errorf("simulate: expected %d bindings, got %d", simulateBindings, len(bindings))
	}
	if k.WorkgroupSize <= 0 {
		return nil, fmt.Errorf("simulate: workgroup size %d", k.WorkgroupSize)
	}
	if len(bindings[SimulateParams]) < components.FrameParametersSize ||
		len(bindings[SimulateSpecies]) < components.SpeciesSettingsSize {
		return nil, fmt.Errorf("simulate: parameter buffers too small")
	}

	params := components.DecodeFrameParameters(bindings[SimulateParams])
	st := &stepper{
		params:  params,
		species: components.DecodeSpeciesSettings(bindings[SimulateSpecies]),
		agents:  components.AgentsFromBytes(bindings[SimulateAgents]),
		trail:   floats(bindings[SimulateTrail]),
		width:   int(params.Width),
		height:  int(params.Height),
	}
	if st.width <= 0 || st.height <= 0 || len(st.trail) < st.width*st.height {
		return nil, fmt.Errorf("simulate: trail buffer holds %d cells, need %dx%d",
			len(st.trail), st.width, st.height)
	}
	count := min(int(params.NumAgents), len(st.agents))

	size := k.WorkgroupSize
	return func(gx, _ int) {
		start := gx * size
		end := min(start+size, count)
		for i := start; i < end; i++ {
			st.step(i)
		}
	}, nil
}

// stepper holds the decoded state shared by all lanes of one dispatch.
type stepper struct {
	params  components.FrameParameters
	species components.SpeciesSettings
	agents  []components.Agent
	trail   []float32
	width   int
	height  int
}

func (s *stepper) step(i int) {
	a := s.agents[i]
	p := s.params
	sp := s.species

	h := jitterSeed(uint32(i), p.Time, uint32(int(a.PosX)), uint32(int(a.PosY)), uint32(s.width))
	u := Unit(h)

	forward := s.sense(a, 0)
	left := s.sense(a, sp.SensorAngleDegrees)
	right := s.sense(a, -sp.SensorAngleDegrees)

	turn := sp.TurnSpeed * p.DeltaTime * 360
	a.Angle = Steer(a.Angle, forward, left, right, u, turn)

	rad := float64(a.Angle) * degToRad
	dist := sp.MoveSpeed * p.DeltaTime
	a.PosX = wrapf(a.PosX+float32(math.Cos(rad))*dist, float32(s.width))
	a.PosY = wrapf(a.PosY+float32(math.Sin(rad))*dist, float32(s.height))

	cx := min(int(a.PosX), s.width-1)
	cy := min(int(a.PosY), s.height-1)
	addFloat(&s.trail[cy*s.width+cx], p.TrailWeight)

	s.agents[i] = a
}

// sense sums the trail over the sensor square placed sensorOffsetDst ahead
// of the agent at heading angle+offset.
func (s *stepper) sense(a components.Agent, offsetDegrees float32) float32 {
	rad := float64(a.Angle+offsetDegrees) * degToRad
	cx := float64(a.PosX) + math.Cos(rad)*float64(s.species.SensorOffsetDst)
	cy := float64(a.PosY) + math.Sin(rad)*float64(s.species.SensorOffsetDst)
	ix := int(math.Floor(cx))
	iy := int(math.Floor(cy))
	size := int(s.species.SensorSize)

	var sum float32
	for dy := -size; dy <= size; dy++ {
		row := wrap(iy+dy, s.height) * s.width
		for dx := -size; dx <= size; dx++ {
			sum += loadFloat(&s.trail[row+wrap(ix+dx, s.width)])
		}
	}
	return sum
}

// Steer returns the new heading in [0, 360) given the three sensor readings,
// a uniform sample u in [0, 1) and the maximum turn in degrees.
func Steer(angle, forward, left, right, u, turn float32) float32 {
	switch {
	case forward > left && forward > right:
	case forward < left && forward < right:
		angle += (u - 0.5) * 2 * turn
	case right > left:
		angle -= u * turn
	case left > right:
		angle += u * turn
	default:
		angle += (u - 0.5) * turn
	}
	return wrapf(angle, 360)
}
