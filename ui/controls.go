package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/components"
	"github.com/pthm-cable/slime/sim"
)

// speciesValue adapts a SpeciesSettings accessor to a descriptor getter.
func speciesValue(f func(components.SpeciesSettings) float32) func(any) float32 {
	return func(data any) float32 {
		s, ok := data.(components.SpeciesSettings)
		if !ok {
			return 0
		}
		return f(s)
	}
}

// SpeciesSection describes the species readout. Its getters expect a
// components.SpeciesSettings.
func SpeciesSection() SectionDescriptor {
	return SectionDescriptor{
		ID:    "species",
		Title: "Species",
		Fields: []FieldDescriptor{
			{
				ID: "move_speed", Label: "Move speed", Widget: WidgetText, Format: "%.0f",
				Getter: speciesValue(func(s components.SpeciesSettings) float32 { return s.MoveSpeed }),
			},
			{
				ID: "turn_speed", Label: "Turn rate", Widget: WidgetText, Format: "%+.0f",
				Getter: speciesValue(func(s components.SpeciesSettings) float32 { return s.TurnSpeed }),
			},
			{
				ID: "sensor_offset", Label: "Sensor dist", Widget: WidgetText, Format: "%.0f",
				Getter: speciesValue(func(s components.SpeciesSettings) float32 { return s.SensorOffsetDst }),
			},
			{
				ID: "sensor_angle", Label: "Sensor angle", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 180},
				Getter: speciesValue(func(s components.SpeciesSettings) float32 { return s.SensorAngleDegrees }),
			},
			{
				ID: "sensor_size", Label: "Sensor size", Widget: WidgetText, Format: "%.0f",
				Getter: speciesValue(func(s components.SpeciesSettings) float32 { return s.SensorSize }),
			},
			{
				ID: "colour", Label: "Colour", Widget: WidgetColorSwatch,
				ColorGetter: func(data any) rl.Color {
					s, _ := data.(components.SpeciesSettings)
					return ColourRGBA(s.Colour)
				},
			},
		},
	}
}

// ColourRGBA converts a species colour to 8-bit channels.
func ColourRGBA(c components.Colour) rl.Color {
	to8 := func(v float32) uint8 { return uint8(min(max(v, 0), 1)*255 + 0.5) }
	return rl.Color{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

// tuningRow is one decrease/increase button pair.
type tuningRow struct {
	label    string
	keys     string
	dec, inc sim.Command
}

var tuningRows = []tuningRow{
	{"Move speed", "A/D", sim.CmdDecreaseMoveSpeed, sim.CmdIncreaseMoveSpeed},
	{"Turn rate", "Q/E", sim.CmdDecreaseTurnRate, sim.CmdIncreaseTurnRate},
	{"Sensor dist", "S/W", sim.CmdDecreaseSensorOffset, sim.CmdIncreaseSensorOffset},
	{"Sensor angle", "F/R", sim.CmdDecreaseSensorAngle, sim.CmdIncreaseSensorAngle},
}

// TuningPanel shows the species settings with buttons for the live tuning
// commands.
type TuningPanel struct {
	renderer *Renderer
	species  SectionDescriptor
	x, y     int32
	width    int32
}

// NewTuningPanel creates a tuning panel.
func NewTuningPanel(x, y, width int32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		species:  SpeciesSection(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (t *TuningPanel) SetPosition(x, y int32) {
	t.x = x
	t.y = y
}

// Height returns the panel height.
func (t *TuningPanel) Height() int32 {
	th := t.renderer.Theme
	rows := int32(len(tuningRows) + 1) // +1 for reset
	return th.Padding*2 + th.LineHeight + 4 + t.renderer.SectionHeight(t.species) + rows*(th.ButtonHeight+4)
}

// Draw renders the panel and returns the commands of the buttons pressed
// this frame.
func (t *TuningPanel) Draw(species components.SpeciesSettings) []sim.Command {
	r := t.renderer
	th := r.Theme
	inner := t.width - th.Padding*2

	r.DrawPanel(t.x, t.y, t.width, t.Height())

	x := t.x + th.Padding
	y := t.y + th.Padding
	rl.DrawText("Tuning", x, y, 16, rl.White)
	y += th.LineHeight + 4

	y = r.DrawSection(x, y, t.species, species, inner)

	var cmds []sim.Command
	btnW := float32(th.ButtonHeight + 8)
	for _, row := range tuningRows {
		rl.DrawText(row.label, x, y+4, th.FontSize, th.LabelColor)
		rl.DrawText(row.keys, x+th.LabelWidth, y+4, th.FontSize, rl.Gray)

		right := float32(x + inner)
		if gui.Button(rl.Rectangle{X: right - 2*btnW - 4, Y: float32(y), Width: btnW, Height: float32(th.ButtonHeight)}, "-") {
			cmds = append(cmds, row.dec)
		}
		if gui.Button(rl.Rectangle{X: right - btnW, Y: float32(y), Width: btnW, Height: float32(th.ButtonHeight)}, "+") {
			cmds = append(cmds, row.inc)
		}
		y += th.ButtonHeight + 4
	}

	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(inner), Height: float32(th.ButtonHeight)}, "Reset [Backspace]") {
		cmds = append(cmds, sim.CmdResetSpecies)
	}
	return cmds
}
