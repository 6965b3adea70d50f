package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/viewport"
)

// ScalingPass draws the internal render target onto the display through
// the viewport's orthographic projection, with bilinear filtering.
type ScalingPass struct {
	shader        rl.Shader
	projectionLoc int32
	screenSizeLoc int32
}

// NewScalingPass compiles the scaling shader.
func NewScalingPass() (*ScalingPass, error) {
	shader := rl.LoadShaderFromMemory(scaleVS, scaleFS)
	if !rl.IsShaderValid(shader) {
		return nil, fmt.Errorf("scaling shader failed to compile")
	}
	return &ScalingPass{
		shader:        shader,
		projectionLoc: rl.GetShaderLocation(shader, "projection"),
		screenSizeLoc: rl.GetShaderLocation(shader, "screenSize"),
	}, nil
}

// Draw renders src over the whole display. Must be called between
// BeginDrawing and EndDrawing.
func (s *ScalingPass) Draw(src rl.Texture2D, proj viewport.Projection, screenW, screenH int32) {
	rl.SetShaderValueMatrix(s.shader, s.projectionLoc, toMatrix(proj.Ortho()))
	rl.SetShaderValue(s.shader, s.screenSizeLoc, []float32{float32(screenW), float32(screenH)}, rl.ShaderUniformVec2)

	w, h := float32(src.Width), float32(src.Height)
	// The texture is upside down (OpenGL convention), so we flip it
	source := rl.Rectangle{X: 0, Y: h, Width: w, Height: -h}
	dest := rl.Rectangle{X: 0, Y: 0, Width: float32(screenW), Height: float32(screenH)}

	rl.BeginShaderMode(s.shader)
	rl.DrawTexturePro(src, source, dest, rl.Vector2{}, 0, rl.White)
	rl.EndShaderMode()
}

// Unload releases the shader.
func (s *ScalingPass) Unload() {
	rl.UnloadShader(s.shader)
}

// toMatrix converts a column-major array to raylib's matrix layout.
func toMatrix(m [16]float32) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}
