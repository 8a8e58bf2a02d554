package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("", true)
	require.NoError(t, err)
	assert.Nil(t, om)

	// Nil manager is safe to use
	assert.NoError(t, om.WriteStats(FrameStats{}))
	assert.NoError(t, om.WriteParticles(components.Frame{}))
	assert.NoError(t, om.Close())
	assert.Equal(t, "", om.Dir())
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir, false)
	require.NoError(t, err)

	require.NoError(t, om.WriteStats(FrameStats{Tick: 1, Count: 2}))
	require.NoError(t, om.WriteStats(FrameStats{Tick: 2, Count: 2}))
	require.NoError(t, om.WritePerf(PerfStats{AvgTickDuration: 3 * time.Millisecond}, 60))
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "tick,count,"))
	assert.True(t, strings.HasPrefix(lines[2], "2,2,"))

	data, err = os.ReadFile(filepath.Join(dir, "perf.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "60,3000,")

	_, err = os.Stat(filepath.Join(dir, "particles.csv"))
	assert.True(t, os.IsNotExist(err), "particles.csv only exists when requested")
}

func TestOutputManagerParticlesAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir, true)
	require.NoError(t, err)

	f := components.Frame{
		Tick: 4,
		Particles: []components.Particle{
			{Pos: components.Position{X: 1, Y: 2}},
			{Pos: components.Position{X: 3, Y: 4}, Vel: components.Velocity{X: 0.5}},
		},
	}
	require.NoError(t, om.WriteParticles(f))
	require.NoError(t, om.WriteConfig(config.Default()))
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "particles.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "tick,index,x,y,vx,vy", lines[0])
	assert.Equal(t, "4,1,3,4,0.5,0", lines[2])

	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Population.Count, cfg.Population.Count)
}
