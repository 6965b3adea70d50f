package kernels

import (
	"fmt"

	"github.com/pthm-cable/slime/components"
)

// Binding slots of the diffuse kernel.
const (
	DiffuseParams = iota
	DiffuseCurrent
	DiffuseNext
	diffuseBindings
)

// Diffuse blurs and evaporates the current trail plane into the next one.
// Each workgroup covers one TileSize by TileSize tile.
type Diffuse struct {
	TileSize int
}

// Prepare implements cpu.Kernel.
func (k Diffuse) Prepare(bindings [][]byte) (func(gx, gy int), error) {
	if len(bindings) != diffuseBindings {
		return nil, fmt.Errorf("diffuse: expected %d bindings, got %d", diffuseBindings, len(bindings))
	}
	if k.TileSize <= 0 {
		return nil, fmt.Errorf("diffuse: tile size %d", k.TileSize)
	}
	if len(bindings[DiffuseParams]) < components.FrameParametersSize {
		return nil, fmt.Errorf("diffuse: parameter buffer too small")
	}

	p := components.DecodeFrameParameters(bindings[DiffuseParams])
	w, h := int(p.Width), int(p.Height)
	cur := floats(bindings[DiffuseCurrent])
	next := floats(bindings[DiffuseNext])
	if w <= 0 || h <= 0 || len(cur) < w*h || len(next) < w*h {
		return nil, fmt.Errorf("diffuse: planes hold %d and %d cells, need %dx%d", len(cur), len(next), w, h)
	}

	weight := min(max(p.DiffuseRate*p.DeltaTime, 0), 1)
	decay := p.DecayRate * p.DeltaTime
	tile := k.TileSize

	return func(gx, gy int) {
		x0, y0 := gx*tile, gy*tile
		for y := y0; y < min(y0+tile, h); y++ {
			for x := x0; x < min(x0+tile, w); x++ {
				var sum float32
				for dy := -1; dy <= 1; dy++ {
					row := wrap(y+dy, h) * w
					for dx := -1; dx <= 1; dx++ {
						sum += cur[row+wrap(x+dx, w)]
					}
				}
				c := cur[y*w+x]
				v := c*(1-weight) + sum/9*weight
				next[y*w+x] = max(0, v-decay)
			}
		}
	}, nil
}
