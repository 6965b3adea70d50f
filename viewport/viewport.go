// Package viewport maps the fixed-size simulation surface onto a resizable
// display. It computes the orthographic half-extents that keep the field's
// aspect ratio and converts between screen and field coordinates.
package viewport

import "fmt"

// Policy decides what happens when display and field aspect ratios differ.
type Policy uint8

const (
	// CenterCrop fills the display and clips the field at the edges.
	CenterCrop Policy = iota
	// Letterbox shows the whole field with bars on two sides.
	Letterbox
)

func (p Policy) String() string {
	switch p {
	case CenterCrop:
		return "center_crop"
	case Letterbox:
		return "letterbox"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParsePolicy accepts the names returned by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "center_crop", "":
		return CenterCrop, nil
	case "letterbox":
		return Letterbox, nil
	}
	return CenterCrop, fmt.Errorf("unknown projection policy %q", s)
}

// Projection holds the orthographic half-extents applied to the unit
// full-screen quad. A half-extent below 1 enlarges the quad past the
// display edge on that axis; above 1 shrinks it.
type Projection struct {
	HalfWidth  float32
	HalfHeight float32
}

// Fit computes the projection for a display of windowW by windowH showing a
// field of fieldW by fieldH.
func Fit(windowW, windowH, fieldW, fieldH float32, policy Policy) Projection {
	if windowW <= 0 || windowH <= 0 || fieldW <= 0 || fieldH <= 0 {
		return Projection{HalfWidth: 1, HalfHeight: 1}
	}
	windowAspect := windowW / windowH
	simAspect := fieldW / fieldH

	if windowAspect > simAspect {
		if policy == Letterbox {
			return Projection{HalfWidth: windowAspect / simAspect, HalfHeight: 1}
		}
		return Projection{HalfWidth: 1, HalfHeight: simAspect / windowAspect}
	}
	if policy == Letterbox {
		return Projection{HalfWidth: 1, HalfHeight: simAspect / windowAspect}
	}
	return Projection{HalfWidth: windowAspect / simAspect, HalfHeight: 1}
}

// Ortho returns ortho(-w, w, -h, h, -1, 1) as a column-major 4x4 matrix.
func (p Projection) Ortho() [16]float32 {
	var m [16]float32
	m[0] = 1 / p.HalfWidth
	m[5] = 1 / p.HalfHeight
	m[10] = -1
	m[15] = 1
	return m
}

// Viewport tracks the display size and the projection derived from it.
type Viewport struct {
	ScreenW, ScreenH float32
	FieldW, FieldH   float32
	Policy           Policy

	proj Projection
}

// New creates a viewport for the given display and field sizes.
func New(screenW, screenH, fieldW, fieldH float32, policy Policy) *Viewport {
	v := &Viewport{
		ScreenW: screenW,
		ScreenH: screenH,
		FieldW:  fieldW,
		FieldH:  fieldH,
		Policy:  policy,
	}
	v.proj = Fit(screenW, screenH, fieldW, fieldH, policy)
	return v
}

// Resize updates the display size and recomputes the projection. Zero sizes
// (a minimised window) are ignored. Reports whether anything changed.
func (v *Viewport) Resize(screenW, screenH float32) bool {
	if screenW <= 0 || screenH <= 0 {
		return false
	}
	if screenW == v.ScreenW && screenH == v.ScreenH {
		return false
	}
	v.ScreenW = screenW
	v.ScreenH = screenH
	v.proj = Fit(screenW, screenH, v.FieldW, v.FieldH, v.Policy)
	return true
}

// SetPolicy switches the policy and recomputes the projection.
func (v *Viewport) SetPolicy(p Policy) {
	v.Policy = p
	v.proj = Fit(v.ScreenW, v.ScreenH, v.FieldW, v.FieldH, p)
}

// Projection returns the current projection.
func (v *Viewport) Projection() Projection { return v.proj }

// ScreenToField converts a screen pixel to field coordinates. ok is false
// when the pixel lies on a letterbox bar.
func (v *Viewport) ScreenToField(sx, sy float32) (fx, fy float32, ok bool) {
	ndcX := sx/v.ScreenW*2 - 1
	ndcY := 1 - sy/v.ScreenH*2

	// Undo the projection, then map quad [-1, 1] to texture [0, 1] with y down.
	u := (ndcX*v.proj.HalfWidth + 1) / 2
	t := (1 - ndcY*v.proj.HalfHeight) / 2

	fx, fy = u*v.FieldW, t*v.FieldH
	ok = u >= 0 && u < 1 && t >= 0 && t < 1
	return fx, fy, ok
}

// VisibleFieldBounds returns the part of the field on screen, in field
// coordinates.
func (v *Viewport) VisibleFieldBounds() (minX, minY, maxX, maxY float32) {
	fracX := clamp01((1 - v.proj.HalfWidth) / 2)
	fracY := clamp01((1 - v.proj.HalfHeight) / 2)
	return fracX * v.FieldW, fracY * v.FieldH, (1 - fracX) * v.FieldW, (1 - fracY) * v.FieldH
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
