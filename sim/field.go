package sim

import (
	"fmt"
	"unsafe"

	"github.com/pthm-cable/slime/backend"
)

// ReconcileMode selects how "next" becomes "current" after diffusion.
type ReconcileMode string

const (
	// ReconcileCopy copies next over current on the device.
	ReconcileCopy ReconcileMode = "copy"
	// ReconcileSwap exchanges the plane roles without copying.
	ReconcileSwap ReconcileMode = "swap"
)

const planeUsage = backend.UsageStorage | backend.UsageCopySrc | backend.UsageCopyDst

// ValidateTiling checks that the field divides into whole tiles and returns
// the tile grid.
func ValidateTiling(width, height, tile int) (tilesX, tilesY int, err error) {
	if width <= 0 || height <= 0 || tile <= 0 {
		return 0, 0, fmt.Errorf("%w: field %dx%d with tile %d", backend.ErrInvalidConfig, width, height, tile)
	}
	if width%tile != 0 || height%tile != 0 {
		return 0, 0, fmt.Errorf("%w: field %dx%d is not a multiple of tile %d",
			backend.ErrInvalidConfig, width, height, tile)
	}
	return width / tile, height / tile, nil
}

// TrailField is the double-buffered scalar trail field: one float32 per
// cell in two device planes. Dimensions are fixed at construction.
type TrailField struct {
	width, height  int
	tile           int
	tilesX, tilesY int
	mode           ReconcileMode

	planes  [2]backend.Buffer
	current int // index of the current plane
}

// NewTrailField allocates both planes zeroed.
func NewTrailField(dev backend.Device, width, height, tile int, mode ReconcileMode) (*TrailField, error) {
	tx, ty, err := ValidateTiling(width, height, tile)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ReconcileCopy, ReconcileSwap:
	default:
		return nil, fmt.Errorf("%w: unknown reconcile mode %q", backend.ErrInvalidConfig, mode)
	}

	f := &TrailField{
		width:  width,
		height: height,
		tile:   tile,
		tilesX: tx,
		tilesY: ty,
		mode:   mode,
	}
	for i, label := range []string{"trail ping", "trail pong"} {
		b, err := dev.CreateBuffer(label, f.Bytes(), planeUsage, nil)
		if err != nil {
			f.Release(dev)
			return nil, fmt.Errorf("allocating %s: %w", label, err)
		}
		f.planes[i] = b
	}
	return f, nil
}

// Width returns the field width in cells.
func (f *TrailField) Width() int { return f.width }

// Height returns the field height in cells.
func (f *TrailField) Height() int { return f.height }

// Tiles returns the diffusion workgroup grid.
func (f *TrailField) Tiles() (x, y int) { return f.tilesX, f.tilesY }

// Bytes returns the size of one plane.
func (f *TrailField) Bytes() int { return f.width * f.height * 4 }

// Mode returns the reconciliation strategy.
func (f *TrailField) Mode() ReconcileMode { return f.mode }

// Current is the plane agents sense and deposit into and the renderer draws.
func (f *TrailField) Current() backend.Buffer { return f.planes[f.current] }

// Next is the plane diffusion writes.
func (f *TrailField) Next() backend.Buffer { return f.planes[1-f.current] }

// EncodeReconcile records the step that makes next the new current. It must
// follow the diffusion dispatch in the same command buffer.
func (f *TrailField) EncodeReconcile(enc *backend.Encoder) {
	switch f.mode {
	case ReconcileSwap:
		f.current = 1 - f.current
	default:
		enc.CopyBuffer(f.Current(), f.Next(), f.Bytes())
	}
}

// ReadCells copies the current plane into dst, which must hold at least
// Width*Height cells. Cells are in host byte order, as the kernels write them.
func (f *TrailField) ReadCells(dev backend.Device, dst []float32) error {
	n := f.width * f.height
	if len(dst) < n {
		return fmt.Errorf("%w: %d cells cannot hold a %dx%d field",
			backend.ErrInvalidConfig, len(dst), f.width, f.height)
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&dst[0])), n*4)
	return dev.Read(f.Current(), raw)
}

// Release frees both planes.
func (f *TrailField) Release(dev backend.Device) {
	for i, b := range f.planes {
		if b != nil {
			dev.ReleaseBuffer(b)
			f.planes[i] = nil
		}
	}
}
