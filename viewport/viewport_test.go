package viewport

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		winW, winH   float32
		policy       Policy
		wantW, wantH float32
	}{
		{"equal aspect", 1920, 1080, CenterCrop, 1, 1},
		{"equal aspect letterbox", 1920, 1080, Letterbox, 1, 1},
		{"square crop", 1000, 1000, CenterCrop, 0.5625, 1},
		{"square letterbox", 1000, 1000, Letterbox, 1, 1.7777778},
		{"ultrawide crop", 2560, 1080, CenterCrop, 1, 0.75},
		{"ultrawide letterbox", 2560, 1080, Letterbox, 1.3333333, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Fit(tc.winW, tc.winH, 3840, 2160, tc.policy)
			if !near(p.HalfWidth, tc.wantW) || !near(p.HalfHeight, tc.wantH) {
				t.Errorf("expected (%f, %f), got (%f, %f)", tc.wantW, tc.wantH, p.HalfWidth, p.HalfHeight)
			}
		})
	}
}

func TestCenterCropFillsDisplay(t *testing.T) {
	for _, size := range [][2]float32{{1000, 1000}, {2560, 1080}, {800, 1200}} {
		p := Fit(size[0], size[1], 3840, 2160, CenterCrop)
		// The quad corner lands at (1/w, 1/h) in NDC, on or outside the
		// display corner.
		if p.HalfWidth > 1+1e-5 || p.HalfHeight > 1+1e-5 {
			t.Errorf("%vx%v: half-extents %+v leave the display uncovered", size[0], size[1], p)
		}
	}
}

func TestOrtho(t *testing.T) {
	m := Projection{HalfWidth: 0.5625, HalfHeight: 1}.Ortho()
	if !near(m[0], 1/0.5625) || m[5] != 1 || m[10] != -1 || m[15] != 1 {
		t.Errorf("unexpected diagonal %v", m)
	}
	for _, i := range []int{12, 13, 14} {
		if m[i] != 0 {
			t.Errorf("symmetric ortho should have no translation, m[%d]=%f", i, m[i])
		}
	}
}

func TestResize(t *testing.T) {
	v := New(1920, 1080, 3840, 2160, CenterCrop)
	if v.Resize(1920, 1080) {
		t.Error("same size should not report a change")
	}
	if v.Resize(0, 0) {
		t.Error("zero size should be ignored")
	}
	if !v.Resize(1000, 1000) {
		t.Fatal("expected resize to report a change")
	}
	if p := v.Projection(); !near(p.HalfWidth, 0.5625) || p.HalfHeight != 1 {
		t.Errorf("expected (0.5625, 1) after resize, got %+v", p)
	}
}

func TestScreenToField(t *testing.T) {
	v := New(1920, 1080, 3840, 2160, CenterCrop)

	fx, fy, ok := v.ScreenToField(960, 540)
	if !ok || !near(fx, 1920) || !near(fy, 1080) {
		t.Errorf("screen centre should map to field centre, got (%f, %f, %v)", fx, fy, ok)
	}
	fx, fy, ok = v.ScreenToField(0, 0)
	if !ok || !near(fx, 0) || !near(fy, 0) {
		t.Errorf("top-left should map to field origin, got (%f, %f, %v)", fx, fy, ok)
	}

	// Letterboxed square window: the top bar is outside the field.
	v = New(1000, 1000, 3840, 2160, Letterbox)
	if _, _, ok := v.ScreenToField(500, 10); ok {
		t.Error("expected a letterbox bar pixel to be outside the field")
	}
	if _, _, ok := v.ScreenToField(500, 500); !ok {
		t.Error("expected the centre to be inside the field")
	}
}

func TestVisibleFieldBounds(t *testing.T) {
	v := New(1000, 1000, 3840, 2160, CenterCrop)
	minX, minY, maxX, maxY := v.VisibleFieldBounds()
	if !near(maxX-minX, 0.5625*3840) || minY != 0 || maxY != 2160 {
		t.Errorf("unexpected visible bounds (%f, %f)-(%f, %f)", minX, minY, maxX, maxY)
	}
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []Policy{CenterCrop, Letterbox} {
		got, err := ParsePolicy(p.String())
		if err != nil || got != p {
			t.Errorf("roundtrip %s: got %v, %v", p, got, err)
		}
	}
	if _, err := ParsePolicy("stretch"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
