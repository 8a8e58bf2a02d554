package systems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

func testModel() ForceModel {
	return ForceModel{MinDistance: 0.5, MaxDistance: 3, MaxDistanceSq: 9, Pressure: 1, Viscosity: 0.2, Gravity: -1}
}

func TestPressureWeight(t *testing.T) {
	tests := []struct {
		d    float64
		want float64
	}{
		{0, 1},
		{1.5, 0.25},
		{3, 0},
		{4, 0},
		{-1, 0},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, PressureWeight(tc.d, 3), 1e-12, "d=%g", tc.d)
	}
}

func TestPressureWeightMonotone(t *testing.T) {
	m := testModel()
	prev := math.Inf(1)
	for d := m.MinDistance; d <= m.MaxDistance+1; d += 0.01 {
		w := PressureWeight(d, m.MaxDistance)
		assert.LessOrEqual(t, w, prev, "weight increased at d=%g", d)
		if d >= m.MaxDistance {
			assert.Zero(t, w, "weight must vanish at and beyond the cutoff")
		}
		prev = w
	}
}

func TestPairPressureOnly(t *testing.T) {
	m := testModel()
	p := components.Particle{Pos: components.Position{X: 10, Y: 10}}
	q := components.Particle{Pos: components.Position{X: 12, Y: 10}}

	f, ok := m.Pair(p, q)
	assert.True(t, ok)
	// (1 - 2/3)^2 * 2 = 2/9, directed from p to q
	assert.InDelta(t, 2.0/9.0, f.X, 1e-12)
	assert.InDelta(t, 0, f.Y, 1e-12)

	back, ok := m.Pair(q, p)
	assert.True(t, ok)
	assert.InDelta(t, -f.X, back.X, 1e-12, "roles invert to the opposite push")
}

func TestPairViscosity(t *testing.T) {
	m := testModel()
	m.Pressure = 0
	p := components.Particle{Pos: components.Position{X: 0, Y: 0}, Vel: components.Velocity{X: 1}}
	q := components.Particle{Pos: components.Position{X: 0, Y: 2}}

	f, ok := m.Pair(p, q)
	assert.True(t, ok)
	assert.InDelta(t, 0.2*1/2.0, f.X, 1e-12, "q is dragged along p's velocity")
	assert.InDelta(t, 0, f.Y, 1e-12)
}

func TestPairCutoffs(t *testing.T) {
	m := testModel()
	p := components.Particle{}
	for _, d := range []float64{0, 0.3, 0.5, 3, 5} {
		q := components.Particle{Pos: components.Position{X: d}}
		_, ok := m.Pair(p, q)
		assert.False(t, ok, "pair at distance %g must be skipped", d)
	}
}

func TestAccumulateAddsGravityAndSkipsSelf(t *testing.T) {
	m := testModel()
	particles := []components.Particle{
		{Pos: components.Position{X: 10, Y: 10}},
		{Pos: components.Position{X: 12, Y: 10}},
	}

	alone := m.Accumulate(particles, 0, nil)
	assert.Equal(t, components.Force{Y: -1}, alone)

	f := m.Accumulate(particles, 0, []int{0, 1})
	assert.InDelta(t, -2.0/9.0, f.X, 1e-12)
	assert.InDelta(t, -1, f.Y, 1e-12)
}

func TestNewForceModel(t *testing.T) {
	cfg := config.Default()
	m := NewForceModel(cfg)
	assert.Equal(t, cfg.Physics.MaxDistance, m.MaxDistance)
	assert.Equal(t, cfg.Derived.MaxDistanceSq, m.MaxDistanceSq)
	assert.Equal(t, cfg.Physics.Gravity, m.Gravity)
}

func TestPairUsesSquaredCutoff(t *testing.T) {
	cfg := config.Default()
	cfg.Physics.MaxDistance = 4
	require.NoError(t, cfg.Prepare())
	m := NewForceModel(cfg)

	p := components.Particle{}
	_, ok := m.Pair(p, components.Particle{Pos: components.Position{X: 3.5}})
	assert.True(t, ok, "inside the refreshed cutoff")
	_, ok = m.Pair(p, components.Particle{Pos: components.Position{X: 4}})
	assert.False(t, ok, "cutoff is exclusive")
}

func TestForceAdd(t *testing.T) {
	sum := components.Force{X: 1, Y: -2}.Add(components.Force{X: 0.5, Y: 3})
	assert.Equal(t, components.Force{X: 1.5, Y: 1}, sum)
}
