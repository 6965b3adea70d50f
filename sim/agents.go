package sim

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/slime/components"
)

// InitAgents places every agent uniformly by area inside a disk of the given
// radius centred on the field, with a uniformly random heading. Positions
// outside the field wrap around.
func InitAgents(agents []components.Agent, width, height int, radius float64, rng *rand.Rand) {
	cx := float64(width) / 2
	cy := float64(height) / 2

	for i := range agents {
		r := radius * math.Sqrt(rng.Float64())
		theta := 2 * math.Pi * rng.Float64()
		phi := 2 * math.Pi * rng.Float64()

		agents[i] = components.Agent{
			PosX:  wrapCoord(cx+r*math.Cos(theta), float64(width)),
			PosY:  wrapCoord(cy+r*math.Sin(theta), float64(height)),
			Angle: wrapCoord((phi+math.Pi)*180/math.Pi, 360),
		}
	}
}

// wrapCoord reduces v into [0, n) after the float32 conversion, which can
// round values just below n up to n.
func wrapCoord(v, n float64) float32 {
	v = math.Mod(v, n)
	if v < 0 {
		v += n
	}
	f := float32(v)
	if f >= float32(n) {
		f = 0
	}
	return f
}
