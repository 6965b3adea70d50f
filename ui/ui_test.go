package ui

import (
	"strings"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/components"
)

func TestOverlayDefaultsAndLinkedToggle(t *testing.T) {
	reg := NewOverlayRegistry()

	if !reg.IsEnabled(OverlayHUD) || !reg.IsEnabled(OverlayTuning) {
		t.Fatal("HUD and tuning panel should start enabled")
	}
	if reg.IsEnabled(OverlayPerf) {
		t.Error("perf panel should start disabled")
	}

	id, state, ok := reg.HandleKeyPress(rl.KeyH)
	if !ok || id != OverlayHUD || state {
		t.Fatalf("expected H to hide the HUD, got %q %v %v", id, state, ok)
	}
	if reg.IsEnabled(OverlayTuning) {
		t.Error("hiding the HUD should hide the tuning panel")
	}

	reg.Toggle(OverlayHUD)
	if !reg.IsEnabled(OverlayTuning) {
		t.Error("showing the HUD should show the tuning panel")
	}
}

func TestOverlayUnboundKeys(t *testing.T) {
	reg := NewOverlayRegistry()
	if _, _, ok := reg.HandleKeyPress(0); ok {
		t.Error("key 0 must not toggle the unbound tuning overlay")
	}
	if _, _, ok := reg.HandleKeyPress(rl.KeyZ); ok {
		t.Error("unregistered key should not toggle anything")
	}
	if reg.Toggle("missing") {
		t.Error("unknown overlay should report disabled")
	}
}

func TestEnabledOverlaysOrder(t *testing.T) {
	reg := NewOverlayRegistry()
	reg.SetEnabled(OverlayProbe, true)

	got := reg.EnabledOverlays()
	want := []OverlayID{OverlayHUD, OverlayTuning, OverlayProbe}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestControlsLegend(t *testing.T) {
	legend := ControlsLegend(NewOverlayRegistry())
	for _, want := range []string{"[H] HUD", "[P] Performance", "[I] Trail Probe", "[Esc] Quit"} {
		if !strings.Contains(legend, want) {
			t.Errorf("legend %q missing %q", legend, want)
		}
	}
	if strings.Contains(legend, "Tuning]") {
		t.Error("overlays without a key should not be listed")
	}
}

func TestSpeciesSectionReadsSettings(t *testing.T) {
	s := components.SpeciesSettings{
		MoveSpeed:          50,
		TurnSpeed:          -2,
		SensorAngleDegrees: 112,
		SensorOffsetDst:    50,
		SensorSize:         1,
		Colour:             components.Colour{G: 1, A: 1},
	}

	want := map[string]string{
		"move_speed":    "50",
		"turn_speed":    "-2",
		"sensor_offset": "50",
		"sensor_size":   "1",
	}
	for _, fd := range SpeciesSection().Fields {
		switch fd.Widget {
		case WidgetText:
			if got := fieldText(fd, s); got != want[fd.ID] {
				t.Errorf("%s: expected %q, got %q", fd.ID, want[fd.ID], got)
			}
		case WidgetBar:
			if got := fd.Range.Normalize(fd.Getter(s)); got < 0.62 || got > 0.63 {
				t.Errorf("%s: expected 112/180, got %f", fd.ID, got)
			}
		case WidgetColorSwatch:
			if got := fd.ColorGetter(s); got != (rl.Color{G: 255, A: 255}) {
				t.Errorf("%s: expected green, got %v", fd.ID, got)
			}
		}
	}

	if got := fieldText(SpeciesSection().Fields[0], "not species"); got != "0" {
		t.Errorf("unexpected data should read as zero, got %q", got)
	}
}

func TestFieldRangeNormalize(t *testing.T) {
	r := FieldRange{Min: 10, Max: 20}
	cases := map[float32]float32{5: 0, 10: 0, 15: 0.5, 20: 1, 30: 1}
	for in, want := range cases {
		if got := r.Normalize(in); got != want {
			t.Errorf("Normalize(%v) = %v, expected %v", in, got, want)
		}
	}
	if got := (FieldRange{}).Normalize(5); got != 0 {
		t.Errorf("empty range should normalize to 0, got %v", got)
	}
}

func TestSectionHeight(t *testing.T) {
	r := NewRenderer()
	sd := SectionDescriptor{
		Title: "T",
		Fields: []FieldDescriptor{
			{Widget: WidgetText},
			{Widget: WidgetBar},
			{Widget: WidgetSpacer},
		},
	}
	lh := r.Theme.LineHeight
	want := 4 + lh + lh + (lh + 2) + 6
	if got := r.SectionHeight(sd); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestColourRGBAClamps(t *testing.T) {
	got := ColourRGBA(components.Colour{R: 2, G: -1, B: 0.5, A: 1})
	if got != (rl.Color{R: 255, G: 0, B: 128, A: 255}) {
		t.Errorf("unexpected colour %v", got)
	}
}

func TestVisibleText(t *testing.T) {
	if got := VisibleText([4]float32{840, 0, 3000, 2160}); got != "View: 840,0-3000,2160" {
		t.Errorf("unexpected view text %q", got)
	}
}
