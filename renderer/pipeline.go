package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/backend"
	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/sim"
	"github.com/pthm-cable/slime/viewport"
)

// Pipeline is the two-pass presenter. It implements sim.Presenter and must
// be used on the thread that owns the window.
type Pipeline struct {
	field   fieldPass
	scaling *ScalingPass
	view    *viewport.Viewport
	target  rl.RenderTexture2D

	fieldW, fieldH int32
	width, height  int32 // configured display size

	overlay func()
	frames  uint64
}

var _ sim.Presenter = (*Pipeline)(nil)

// NewPipeline creates the render target and both passes for a field of the
// given size, presented on the current window.
func NewPipeline(dev backend.Device, fieldW, fieldH int, policy viewport.Policy) (*Pipeline, error) {
	fp, err := newFieldPass(dev, fieldW, fieldH)
	if err != nil {
		return nil, err
	}
	sp, err := NewScalingPass()
	if err != nil {
		fp.unload()
		return nil, err
	}

	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	p := &Pipeline{
		field:   fp,
		scaling: sp,
		view:    viewport.New(float32(w), float32(h), float32(fieldW), float32(fieldH), policy),
		fieldW:  int32(fieldW),
		fieldH:  int32(fieldH),
		width:   w,
		height:  h,
	}
	if err := p.loadTarget(); err != nil {
		p.Unload()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) loadTarget() error {
	p.target = rl.LoadRenderTexture(p.fieldW, p.fieldH)
	if !rl.IsRenderTextureValid(p.target) {
		return fmt.Errorf("%w: render target %dx%d", backend.ErrSurfaceOutOfMemory, p.fieldW, p.fieldH)
	}
	rl.SetTextureFilter(p.target.Texture, rl.FilterBilinear)
	return nil
}

// acquire checks the display is ready for a frame.
func (p *Pipeline) acquire() error {
	if rl.IsWindowMinimized() {
		return backend.ErrSurfaceTimeout
	}
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if w != p.width || h != p.height {
		return fmt.Errorf("%w: configured %dx%d, window %dx%d", backend.ErrSurfaceOutdated, p.width, p.height, w, h)
	}
	if !rl.IsRenderTextureValid(p.target) {
		return backend.ErrSurfaceLost
	}
	return nil
}

// Draw implements sim.Presenter.
func (p *Pipeline) Draw(field *sim.TrailField, species components.SpeciesSettings) error {
	if err := p.acquire(); err != nil {
		return err
	}
	if err := p.field.render(p.target, field, species.Colour); err != nil {
		return err
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	p.scaling.Draw(p.target.Texture, p.view.Projection(), p.width, p.height)
	if p.overlay != nil {
		p.overlay()
	}
	rl.EndDrawing()

	p.frames++
	return nil
}

// Reconfigure implements sim.Presenter. It recreates the render target and
// adopts the window's current size.
func (p *Pipeline) Reconfigure() error {
	if rl.IsRenderTextureValid(p.target) {
		rl.UnloadRenderTexture(p.target)
	}
	if err := p.loadTarget(); err != nil {
		return err
	}
	p.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	return nil
}

// Resize records a new display size and recomputes the projection. Zero
// sizes are ignored.
func (p *Pipeline) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.width, p.height = int32(width), int32(height)
	p.view.Resize(float32(width), float32(height))
}

// SetPolicy switches the projection policy.
func (p *Pipeline) SetPolicy(policy viewport.Policy) { p.view.SetPolicy(policy) }

// SetOverlay sets a function drawn over the field each presented frame.
func (p *Pipeline) SetOverlay(fn func()) { p.overlay = fn }

// Viewport returns the display viewport.
func (p *Pipeline) Viewport() *viewport.Viewport { return p.view }

// Presented returns the number of frames drawn.
func (p *Pipeline) Presented() uint64 { return p.frames }

// HostCells returns the field cells read back for the last frame, when the
// field pass works from a host copy.
func (p *Pipeline) HostCells() ([]float32, bool) {
	if hp, ok := p.field.(*hostFieldPass); ok && p.frames > 0 {
		return hp.Cells(), true
	}
	return nil, false
}

// Unload releases all GPU resources.
func (p *Pipeline) Unload() {
	if rl.IsRenderTextureValid(p.target) {
		rl.UnloadRenderTexture(p.target)
	}
	p.scaling.Unload()
	p.field.unload()
}
