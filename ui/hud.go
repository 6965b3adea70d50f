package ui

import (
	"fmt"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title   string
	Backend string
	Policy  string
	Agents  int
	FieldW  int
	FieldH  int
	Frame   uint64
	Elapsed float64 // simulated seconds
	FPS     int32
	Skipped uint64
	Visible [4]float32 // field region on screen: minX, minY, maxX, maxY
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Field: %dx%d | Backend: %s | %s", data.Agents, data.FieldW, data.FieldH, data.Backend, data.Policy),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Frame: %d | Time: %.1fs | FPS: %d | Skipped: %d | %s", data.Frame, data.Elapsed, data.FPS, data.Skipped, VisibleText(data.Visible)),
		10, 55, 16, rl.LightGray,
	)
}

// VisibleText describes the on-screen field region.
func VisibleText(v [4]float32) string {
	return fmt.Sprintf("View: %.0f,%.0f-%.0f,%.0f", v[0], v[1], v[2], v[3])
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// ControlsLegend lists the overlay keys followed by the tuning keys.
func ControlsLegend(overlays *OverlayRegistry) string {
	parts := make([]string, 0, len(overlays.All())+4)
	for _, desc := range overlays.All() {
		if desc.KeyLabel != "" {
			parts = append(parts, fmt.Sprintf("[%s] %s", desc.KeyLabel, desc.Name))
		}
	}
	parts = append(parts, "[L] Letterbox", "[D/A E/Q W/S R/F] Tune", "[F11] Fullscreen", "[Esc] Quit")
	return strings.Join(parts, "  ")
}

// PerfPanel renders the frame phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (min %s, max %s)",
		stats.AvgTick.Round(time.Microsecond),
		stats.MinTick.Round(time.Microsecond),
		stats.MaxTick.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]

		color := rl.LightGray
		if pct > 60 {
			color = rl.Red
		} else if pct > 30 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// ProbeData is the trail reading under the cursor.
type ProbeData struct {
	FieldX, FieldY float32
	Value          float32
	HasValue       bool // false when the field is not read back to the host
	OnField        bool
}

// DrawProbe renders the cursor probe next to the mouse.
func (h *HUD) DrawProbe(mouseX, mouseY int32, data ProbeData) {
	var text string
	switch {
	case !data.OnField:
		text = "off field"
	case data.HasValue:
		text = fmt.Sprintf("(%.0f, %.0f) trail %.3f", data.FieldX, data.FieldY, data.Value)
	default:
		text = fmt.Sprintf("(%.0f, %.0f)", data.FieldX, data.FieldY)
	}
	w := rl.MeasureText(text, 12) + 12
	h.renderer.DrawPanel(mouseX+14, mouseY+14, w, 20)
	rl.DrawText(text, mouseX+20, mouseY+18, 12, rl.LightGray)
}
