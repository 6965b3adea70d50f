package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/slime/sim"
	"github.com/pthm-cable/slime/viewport"
)

// tuningKeys maps keys to live tuning commands. Held keys repeat.
var tuningKeys = []struct {
	key int32
	cmd sim.Command
}{
	{rl.KeyD, sim.CmdIncreaseMoveSpeed},
	{rl.KeyA, sim.CmdDecreaseMoveSpeed},
	{rl.KeyE, sim.CmdIncreaseTurnRate},
	{rl.KeyQ, sim.CmdDecreaseTurnRate},
	{rl.KeyW, sim.CmdIncreaseSensorOffset},
	{rl.KeyS, sim.CmdDecreaseSensorOffset},
	{rl.KeyR, sim.CmdIncreaseSensorAngle},
	{rl.KeyF, sim.CmdDecreaseSensorAngle},
	{rl.KeyBackspace, sim.CmdResetSpecies},
}

// handleInput processes keyboard input and queued panel commands.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleBorderlessWindowed()
	}

	if rl.IsKeyPressed(rl.KeyL) {
		g.togglePolicy()
	}

	for _, desc := range g.overlays.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			g.overlays.HandleKeyPress(desc.Key)
		}
	}

	for _, tk := range tuningKeys {
		if rl.IsKeyPressed(tk.key) || rl.IsKeyPressedRepeat(tk.key) {
			g.sim.Apply(tk.cmd)
		}
	}
	for _, cmd := range g.pending {
		g.sim.Apply(cmd)
	}
	g.pending = g.pending[:0]
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	g.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
}

func (g *Game) togglePolicy() {
	view := g.pipeline.Viewport()
	next := viewport.Letterbox
	if view.Policy == viewport.Letterbox {
		next = viewport.CenterCrop
	}
	g.pipeline.SetPolicy(next)
	slog.Info("projection policy", "policy", next.String())
}
