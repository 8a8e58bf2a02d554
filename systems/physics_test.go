package systems

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

func testIntegrator(mutate func(c *config.Config)) *Integrator {
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return NewIntegrator(cfg, rand.New(rand.NewSource(7)))
}

func TestIntegrateGravityOnly(t *testing.T) {
	s := testIntegrator(nil)
	p := components.Particle{Pos: components.Position{X: 50, Y: 60}}

	s.Integrate(&p, components.Force{Y: -1})

	// velocity.y = gravity * dt * damping, then position moves by velocity * dt
	assert.InDelta(t, -0.95, p.Vel.Y, 1e-12)
	assert.InDelta(t, 59.05, p.Pos.Y, 1e-12)
	assert.Zero(t, p.Vel.X)
	assert.Equal(t, 50.0, p.Pos.X)
}

func TestIntegrateWalls(t *testing.T) {
	tests := []struct {
		name    string
		offset  float64
		start   components.Particle
		wantPos components.Position
		wantVel components.Velocity
	}{
		{
			name:    "left wall",
			start:   components.Particle{Pos: components.Position{X: 0.5, Y: 60}, Vel: components.Velocity{X: -2}},
			wantPos: components.Position{X: 0, Y: 60},
			wantVel: components.Velocity{X: 0.2},
		},
		{
			name:    "left wall with offset",
			offset:  1.5,
			start:   components.Particle{Pos: components.Position{X: 0.5, Y: 60}, Vel: components.Velocity{X: -2}},
			wantPos: components.Position{X: 1.5, Y: 60},
			wantVel: components.Velocity{X: 0.2},
		},
		{
			name:    "right wall",
			start:   components.Particle{Pos: components.Position{X: 127.5, Y: 60}, Vel: components.Velocity{X: 2}},
			wantPos: components.Position{X: 128, Y: 60},
			wantVel: components.Velocity{X: -0.2},
		},
		{
			name:    "ceiling",
			start:   components.Particle{Pos: components.Position{X: 60, Y: 127.5}, Vel: components.Velocity{Y: 2}},
			wantPos: components.Position{X: 60, Y: 128},
			wantVel: components.Velocity{Y: -0.2},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := testIntegrator(func(c *config.Config) { c.Boundary.OffsetX = tc.offset })
			p := tc.start
			s.Integrate(&p, components.Force{})
			assert.InDelta(t, tc.wantPos.X, p.Pos.X, 1e-12)
			assert.InDelta(t, tc.wantPos.Y, p.Pos.Y, 1e-12)
			assert.InDelta(t, tc.wantVel.X, p.Vel.X, 1e-12)
			assert.InDelta(t, tc.wantVel.Y, p.Vel.Y, 1e-12)
		})
	}
}

func TestIntegrateFloorRelaunch(t *testing.T) {
	s := testIntegrator(nil)
	for i := 0; i < 100; i++ {
		p := components.Particle{Pos: components.Position{X: 60, Y: 0.5}, Vel: components.Velocity{Y: -3}}
		s.Integrate(&p, components.Force{Y: -1})
		assert.Equal(t, 0.0, p.Pos.Y)
		assert.GreaterOrEqual(t, p.Vel.Y, 0.0)
		assert.Less(t, p.Vel.Y, 5.0)
	}
}

func TestIntegratorUpdateContainment(t *testing.T) {
	s := testIntegrator(nil)
	rng := rand.New(rand.NewSource(8))
	store := NewParticleStoreFrom(randomParticles(rng, 200, 128, 128))
	forces := make([]components.Force, store.Len())
	for i := range forces {
		forces[i] = components.Force{X: (rng.Float64()*2 - 1) * 50, Y: (rng.Float64()*2 - 1) * 50}
	}

	s.Update(store, forces)

	for i := 0; i < store.Len(); i++ {
		p := store.Get(i).Pos
		assert.True(t, p.X >= 0 && p.X <= 128, "x=%g", p.X)
		assert.True(t, p.Y >= 0 && p.Y <= 128, "y=%g", p.Y)
	}
}
