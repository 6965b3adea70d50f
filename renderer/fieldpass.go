package renderer

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/sim"
)

// fieldPass colorizes the current trail plane into the internal render
// target, one texel per cell.
type fieldPass interface {
	render(target rl.RenderTexture2D, field *sim.TrailField, colour components.Colour) error
	unload()
}

// ssboDevice is implemented by devices whose buffers live in GL storage
// buffers. The field can then be sampled without a readback.
type ssboDevice interface {
	SSBO(b backend.Buffer) (uint32, bool)
}

func newFieldPass(dev backend.Device, width, height int) (fieldPass, error) {
	inner := dev
	for {
		if sd, ok := inner.(ssboDevice); ok {
			return newStorageFieldPass(sd, width, height)
		}
		w, ok := inner.(interface{ Unwrap() backend.Device })
		if !ok {
			break
		}
		inner = w.Unwrap()
	}
	return newHostFieldPass(dev, width, height), nil
}

// hostFieldPass reads the plane back to host memory and uploads it as a
// texture. It serves devices without GL buffers.
type hostFieldPass struct {
	dev     backend.Device
	cells   []float32
	pixels  []color.RGBA
	texture rl.Texture2D
}

func newHostFieldPass(dev backend.Device, width, height int) *hostFieldPass {
	img := rl.GenImageColor(width, height, rl.Black)
	defer rl.UnloadImage(img)

	return &hostFieldPass{
		dev:     dev,
		cells:   make([]float32, width*height),
		pixels:  make([]color.RGBA, width*height),
		texture: rl.LoadTextureFromImage(img),
	}
}

func (p *hostFieldPass) render(target rl.RenderTexture2D, field *sim.TrailField, colour components.Colour) error {
	if err := field.ReadCells(p.dev, p.cells); err != nil {
		return fmt.Errorf("reading trail field: %w", err)
	}
	Colorize(p.pixels, p.cells, colour)
	rl.UpdateTexture(p.texture, p.pixels)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	rl.DrawTexture(p.texture, 0, 0, rl.White)
	rl.EndTextureMode()
	return nil
}

// Cells returns the host copy of the plane from the last render.
func (p *hostFieldPass) Cells() []float32 { return p.cells }

func (p *hostFieldPass) unload() {
	rl.UnloadTexture(p.texture)
}

// Colorize maps trail intensities to the species colour, clamping each
// cell to [0, 1].
func Colorize(dst []color.RGBA, cells []float32, c components.Colour) {
	a := unit8(c.A)
	for i, v := range cells[:min(len(cells), len(dst))] {
		v = min(max(v, 0), 1)
		dst[i] = color.RGBA{R: unit8(c.R * v), G: unit8(c.G * v), B: unit8(c.B * v), A: a}
	}
}

func unit8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*255 + 0.5)
}

// storageFieldPass samples the plane's storage buffer directly in a
// fragment shader.
type storageFieldPass struct {
	dev          ssboDevice
	shader       rl.Shader
	fieldSizeLoc int32
	colourLoc    int32
	width        int32
	height       int32
}

func newStorageFieldPass(dev ssboDevice, width, height int) (*storageFieldPass, error) {
	shader := rl.LoadShaderFromMemory(fieldVS, fieldFS)
	if !rl.IsShaderValid(shader) {
		return nil, fmt.Errorf("%w: field shader failed to compile", backend.ErrDeviceUnavailable)
	}
	p := &storageFieldPass{
		dev:          dev,
		shader:       shader,
		fieldSizeLoc: rl.GetShaderLocation(shader, "fieldSize"),
		colourLoc:    rl.GetShaderLocation(shader, "colour"),
		width:        int32(width),
		height:       int32(height),
	}
	rl.SetShaderValue(shader, p.fieldSizeLoc, []float32{float32(width), float32(height)}, rl.ShaderUniformVec2)
	return p, nil
}

func (p *storageFieldPass) render(target rl.RenderTexture2D, field *sim.TrailField, colour components.Colour) error {
	id, ok := p.dev.SSBO(field.Current())
	if !ok {
		return fmt.Errorf("%w: trail plane has no storage buffer", backend.ErrInvalidConfig)
	}
	rl.SetShaderValue(p.shader, p.colourLoc, []float32{colour.R, colour.G, colour.B, colour.A}, rl.ShaderUniformVec4)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	rl.BindShaderBuffer(id, 0)
	rl.BeginShaderMode(p.shader)
	rl.DrawRectangle(0, 0, p.width, p.height, rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()
	return nil
}

func (p *storageFieldPass) unload() {
	rl.UnloadShader(p.shader)
}
