// Package renderer presents the trail field: a field pass colorizes the
// simulation plane into a render target at field resolution, and a scaling
// pass projects that target onto the display.
package renderer

import _ "embed"

var (
	//go:embed shaders/scale.vs
	scaleVS string
	//go:embed shaders/scale.fs
	scaleFS string
	//go:embed shaders/field.vs
	fieldVS string
	//go:embed shaders/field.fs
	fieldFS string
)
