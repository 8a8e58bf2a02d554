// Package renderer draws simulation frames in a raylib window.
package renderer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/puddle/camera"
	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
	"github.com/pthm-cable/puddle/game"
)

const (
	statusBarHeight = 24
	energySamples   = 300 // kinetic energy history shown in the graph
	graphHeight     = 80
)

var (
	backgroundColor = rl.NewColor(12, 16, 24, 255)
	domainColor     = rl.NewColor(70, 80, 100, 255)
	forceColor      = rl.NewColor(255, 220, 120, 160)
	graphColor      = rl.NewColor(0, 255, 120, 255)
)

// Window is a frame consumer that draws particles coloured by speed.
// It reports game.ErrStop once the window is closed.
type Window struct {
	cam        *camera.Camera
	radius     float32 // particle radius in world units
	speedScale float64 // speed mapped to the hottest colour

	showForces bool
	showGraph  bool
	energy     []float64

	screenW, screenH float32
}

// OpenWindow creates the raylib window sized by cfg.Screen. Call Close when done.
func OpenWindow(cfg *config.Config, title string) *Window {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), title)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	speedScale := cfg.Boundary.FloorLaunch
	if speedScale <= 0 {
		speedScale = 1
	}

	w, h := cfg.Derived.ScreenW32, cfg.Derived.ScreenH32
	return &Window{
		cam:        camera.New(w, h-statusBarHeight, float32(cfg.World.Width), float32(cfg.World.Height)),
		radius:     float32(cfg.Physics.MaxDistance / 6),
		speedScale: speedScale,
		showGraph:  true,
		energy:     make([]float64, 0, energySamples),
		screenW:    w,
		screenH:    h,
	}
}

// Consume draws one frame.
func (w *Window) Consume(f components.Frame) error {
	if rl.WindowShouldClose() {
		return game.ErrStop
	}

	w.handleResize()
	w.handleCameraInput()
	w.recordEnergy(f)

	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	w.drawDomain(f.Bounds)
	w.drawParticles(f)
	if w.showForces {
		w.drawForces(f)
	}
	if w.showGraph {
		w.drawEnergyGraph()
	}
	w.drawHUD(f)

	rl.EndDrawing()
	return nil
}

// Close closes the window.
func (w *Window) Close() {
	rl.CloseWindow()
}

// handleResize checks for window resize and propagates new dimensions.
func (w *Window) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	sw := float32(rl.GetScreenWidth())
	sh := float32(rl.GetScreenHeight())
	if sw == w.screenW && sh == w.screenH {
		return
	}
	w.screenW, w.screenH = sw, sh
	w.cam.Resize(sw, sh-statusBarHeight)
}

// handleCameraInput processes pan/zoom controls and overlay toggles.
func (w *Window) handleCameraInput() {
	// Screen pixels per frame
	panSpeed := float32(8.0)

	if rl.IsKeyDown(rl.KeyRight) {
		w.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		w.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		w.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		w.cam.Pan(0, -panSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		w.cam.Pan(-d.X, -d.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		w.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		w.cam.Reset()
	}

	if rl.IsKeyPressed(rl.KeyF) {
		w.showForces = !w.showForces
	}
	if rl.IsKeyPressed(rl.KeyG) {
		w.showGraph = !w.showGraph
	}
}

func (w *Window) drawDomain(b components.Bounds) {
	x0, y0 := w.cam.WorldToScreen(0, float32(b.Height))
	x1, y1 := w.cam.WorldToScreen(float32(b.Width), 0)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, domainColor)
}

func (w *Window) drawParticles(f components.Frame) {
	r := max(w.cam.Scale(w.radius), 1)
	for _, p := range f.Particles {
		x, y := float32(p.Pos.X), float32(p.Pos.Y)
		if !w.cam.IsVisible(x, y, w.radius) {
			continue
		}
		sx, sy := w.cam.WorldToScreen(x, y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, SpeedColor(p.Speed(), w.speedScale))
	}
}

func (w *Window) drawForces(f components.Frame) {
	for i, p := range f.Particles {
		if i >= len(f.Forces) {
			break
		}
		x, y := float32(p.Pos.X), float32(p.Pos.Y)
		fx, fy := float32(f.Forces[i].X), float32(f.Forces[i].Y)
		sx, sy := w.cam.WorldToScreen(x, y)
		ex, ey := w.cam.WorldToScreen(x+fx, y+fy)
		rl.DrawLineV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: ex, Y: ey}, forceColor)
	}
}

func (w *Window) recordEnergy(f components.Frame) {
	var ke float64
	for _, p := range f.Particles {
		ke += 0.5 * (p.Vel.X*p.Vel.X + p.Vel.Y*p.Vel.Y)
	}
	if len(w.energy) == energySamples {
		copy(w.energy, w.energy[1:])
		w.energy = w.energy[:energySamples-1]
	}
	w.energy = append(w.energy, ke)
}

func (w *Window) drawEnergyGraph() {
	if len(w.energy) < 2 {
		return
	}
	maxE := 0.0
	for _, e := range w.energy {
		maxE = max(maxE, e)
	}
	if maxE == 0 {
		maxE = 1
	}

	left := w.screenW - energySamples - 10
	base := float32(graphHeight + 30)
	for i := 1; i < len(w.energy); i++ {
		y0 := base - float32(w.energy[i-1]/maxE)*(graphHeight-5)
		y1 := base - float32(w.energy[i]/maxE)*(graphHeight-5)
		rl.DrawLineV(rl.Vector2{X: left + float32(i-1), Y: y0}, rl.Vector2{X: left + float32(i), Y: y1}, graphColor)
	}
	rl.DrawText(fmt.Sprintf("Kinetic energy %.1f", w.energy[len(w.energy)-1]), int32(left), 10, 10, graphColor)
}

func (w *Window) drawHUD(f components.Frame) {
	w.showForces = gui.CheckBox(rl.Rectangle{X: 10, Y: 10, Width: 14, Height: 14}, "Forces [F]", w.showForces)
	w.showGraph = gui.CheckBox(rl.Rectangle{X: 10, Y: 30, Width: 14, Height: 14}, "Energy [G]", w.showGraph)

	status := fmt.Sprintf("tick %d | %d particles | zoom %.1fx | %d fps",
		f.Tick, f.Len(), w.cam.Zoom/w.cam.MinZoom, rl.GetFPS())
	gui.StatusBar(rl.Rectangle{X: 0, Y: w.screenH - statusBarHeight, Width: w.screenW, Height: statusBarHeight}, status)
}

// SpeedColor maps a speed onto a blue-to-red ramp, saturating at scale.
func SpeedColor(speed, scale float64) rl.Color {
	t := 0.0
	if scale > 0 {
		t = min(max(speed/scale, 0), 1)
	}
	return rl.NewColor(
		uint8(40+t*215),
		uint8(120+t*40-t*t*120),
		uint8(255-t*215),
		255,
	)
}
