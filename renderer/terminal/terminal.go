// Package terminal plots simulation frames as an ASCII density map with tcell.
package terminal

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/puddle/camera"
	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
	"github.com/pthm-cable/puddle/game"
)

// density glyphs, indexed by particles per cell
var ramp = []rune(" .:-=+*#%@")

// Terminal is a frame consumer drawing one character per cell. A cell is
// treated as twice as tall as it is wide. Esc, Ctrl-C or q stop the run.
type Terminal struct {
	screen     tcell.Screen
	cam        *camera.Camera
	world      components.Bounds
	speedScale float64

	cols, rows int // screen size; the last row is the status line
	counts     []int
	speeds     []float64

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

// New initializes screen and starts reading its input events.
func New(screen tcell.Screen, cfg *config.Config) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: init screen: %w", err)
	}
	screen.HideCursor()

	speedScale := cfg.Boundary.FloorLaunch
	if speedScale <= 0 {
		speedScale = 1
	}

	t := &Terminal{
		screen:     screen,
		world:      components.Bounds{Width: cfg.World.Width, Height: cfg.World.Height},
		speedScale: speedScale,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	t.resize(screen.Size())

	go t.pollEvents()
	return t, nil
}

// Consume draws one frame.
func (t *Terminal) Consume(f components.Frame) error {
	select {
	case <-t.quit:
		return game.ErrStop
	default:
	}

	if cols, rows := t.screen.Size(); cols != t.cols || rows != t.rows {
		t.resize(cols, rows)
	}

	clear(t.counts)
	clear(t.speeds)
	for _, p := range f.Particles {
		col, row := t.cell(p.Pos)
		i := row*t.cols + col
		t.counts[i]++
		t.speeds[i] += p.Speed()
	}

	t.screen.Clear()
	for row := 0; row < t.plotRows(); row++ {
		for col := 0; col < t.cols; col++ {
			i := row*t.cols + col
			n := t.counts[i]
			if n == 0 {
				continue
			}
			glyph := ramp[min(n, len(ramp)-1)]
			style := tcell.StyleDefault.Foreground(heat(t.speeds[i] / float64(n) / t.speedScale))
			t.screen.SetContent(col, row, glyph, nil, style)
		}
	}

	t.drawStatus(fmt.Sprintf("tick %d | %d particles | q quit", f.Tick, f.Len()))
	t.screen.Show()
	return nil
}

// Close restores the terminal and waits for the event reader to exit.
func (t *Terminal) Close() {
	t.screen.Fini()
	<-t.done
}

// cell returns the screen cell a world position is plotted in.
// Positions off the plot are clamped to its edge.
func (t *Terminal) cell(pos components.Position) (col, row int) {
	sx, sy := t.cam.WorldToScreen(float32(pos.X), float32(pos.Y))
	col = clampInt(int(math.Floor(float64(sx))), 0, t.cols-1)
	row = clampInt(int(math.Floor(float64(sy)/2)), 0, t.plotRows()-1)
	return col, row
}

func (t *Terminal) plotRows() int {
	return max(t.rows-1, 1)
}

// resize rebuilds the camera and cell buffers for a new screen size.
func (t *Terminal) resize(cols, rows int) {
	t.cols, t.rows = max(cols, 1), max(rows, 1)
	plot := t.plotRows()
	t.cam = camera.New(float32(t.cols), float32(plot*2), float32(t.world.Width), float32(t.world.Height))
	t.counts = make([]int, t.cols*plot)
	t.speeds = make([]float64, t.cols*plot)
}

func (t *Terminal) drawStatus(text string) {
	style := tcell.StyleDefault.Reverse(true)
	row := t.rows - 1
	col := 0
	for _, r := range text {
		if col >= t.cols {
			break
		}
		t.screen.SetContent(col, row, r, nil, style)
		col++
	}
	for ; col < t.cols; col++ {
		t.screen.SetContent(col, row, ' ', nil, style)
	}
}

// pollEvents runs until the screen is finalized.
func (t *Terminal) pollEvents() {
	defer close(t.done)
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				t.quitOnce.Do(func() { close(t.quit) })
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// heat maps a normalized speed onto a blue-to-red terminal colour.
func heat(v float64) tcell.Color {
	v = math.Min(math.Max(v, 0), 1)
	return tcell.NewRGBColor(int32(40+v*215), int32(120+v*40-v*v*120), int32(255-v*215))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
