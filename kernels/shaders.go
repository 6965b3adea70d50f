// Package kernels holds the two compute kernels of the simulation. Each has a
// host implementation for the cpu device and a GLSL source for the rlgl
// device; both follow the same binding layout.
package kernels

import (
	_ "embed"
	"fmt"

	"github.com/pthm-cable/slime/backend"
)

//go:embed shaders/simulate.comp
var simulateSource string

//go:embed shaders/diffuse.comp
var diffuseSource string

// Sources returns the GLSL 4.30 compute sources of both kernels with the
// workgroup dimensions baked in.
func Sources(workgroupSize, tileSize int) map[backend.Kernel]string {
	header := fmt.Sprintf("#version 430\n#define WORKGROUP_SIZE %d\n#define TILE_SIZE %d\n", workgroupSize, tileSize)
	return map[backend.Kernel]string{
		backend.KernelSimulate: header + simulateSource,
		backend.KernelDiffuse:  header + diffuseSource,
	}
}
