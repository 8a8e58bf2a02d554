package terminal

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
	"github.com/pthm-cable/puddle/game"
)

func newTestTerminal(t *testing.T, cols, rows int) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := New(screen, config.Default())
	require.NoError(t, err)
	t.Cleanup(term.Close)
	screen.SetSize(cols, rows)
	return term, screen
}

func runeAt(screen tcell.SimulationScreen, col, row int) rune {
	cells, w, _ := screen.GetContents()
	c := cells[row*w+col]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func TestConsumePlotsDensity(t *testing.T) {
	term, screen := newTestTerminal(t, 40, 21)

	f := components.Frame{
		Tick:   9,
		Bounds: components.Bounds{Width: 128, Height: 128},
		Particles: []components.Particle{
			{Pos: components.Position{X: 64, Y: 64}},
			{Pos: components.Position{X: 64, Y: 64}},
			{Pos: components.Position{X: 0, Y: 0}},
			{Pos: components.Position{X: 128, Y: 128}},
		},
	}
	require.NoError(t, term.Consume(f))

	assert.Equal(t, ':', runeAt(screen, 20, 10), "two particles at the center")
	assert.Equal(t, '.', runeAt(screen, 0, 19), "origin is the bottom-left plot cell")
	assert.Equal(t, '.', runeAt(screen, 39, 0), "far corner is the top-right cell")
	assert.Equal(t, ' ', runeAt(screen, 5, 5))

	// Status line
	assert.Equal(t, 't', runeAt(screen, 0, 20))
}

func TestCellClampsStrays(t *testing.T) {
	term, _ := newTestTerminal(t, 40, 21)
	require.NoError(t, term.Consume(components.Frame{}))

	col, row := term.cell(components.Position{X: -50, Y: 500})
	assert.Equal(t, 0, col)
	assert.Equal(t, 0, row)

	col, row = term.cell(components.Position{X: 500, Y: -50})
	assert.Equal(t, 39, col)
	assert.Equal(t, 19, row)
}

func TestQuitKeyStops(t *testing.T) {
	term, screen := newTestTerminal(t, 40, 21)
	require.NoError(t, term.Consume(components.Frame{}))

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	assert.Eventually(t, func() bool {
		return errors.Is(term.Consume(components.Frame{}), game.ErrStop)
	}, time.Second, 10*time.Millisecond)
}

func TestHeatRange(t *testing.T) {
	cold := heat(-1)
	hot := heat(5)
	assert.Equal(t, heat(0), cold)
	assert.Equal(t, heat(1), hot)
	assert.NotEqual(t, cold, hot)
}
