package systems

import (
	"math/rand"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

// Boundary is the wall collision policy. Rebound speeds are fixed and do not
// depend on how far a particle overshot.
type Boundary struct {
	Width, Height    float64
	OffsetX, OffsetY float64
	Rebound          float64
	FloorLaunch      float64
}

// Integrator advances velocity and position once per tick.
type Integrator struct {
	dt       float64
	damping  float64
	boundary Boundary
	rng      *rand.Rand
}

// NewIntegrator creates an integrator. rng drives the floor relaunch speed.
func NewIntegrator(cfg *config.Config, rng *rand.Rand) *Integrator {
	return &Integrator{
		dt:      cfg.Physics.DT,
		damping: cfg.Physics.Damping,
		boundary: Boundary{
			Width:       cfg.World.Width,
			Height:      cfg.World.Height,
			OffsetX:     cfg.Boundary.OffsetX,
			OffsetY:     cfg.Boundary.OffsetY,
			Rebound:     cfg.Boundary.Rebound,
			FloorLaunch: cfg.Boundary.FloorLaunch,
		},
		rng: rng,
	}
}

// Update integrates every particle with its accumulated force.
// forces must hold one entry per particle.
func (s *Integrator) Update(store *ParticleStore, forces []components.Force) {
	particles := store.Particles()
	for i := range particles {
		s.Integrate(&particles[i], forces[i])
	}
}

// Integrate applies one explicit Euler step, damping, then the wall policy.
func (s *Integrator) Integrate(p *components.Particle, f components.Force) {
	p.Vel.X += f.X * s.dt
	p.Vel.Y += f.Y * s.dt

	p.Vel.X *= s.damping
	p.Vel.Y *= s.damping

	p.Pos.X += p.Vel.X * s.dt
	p.Pos.Y += p.Vel.Y * s.dt

	s.collide(p)
}

func (s *Integrator) collide(p *components.Particle) {
	b := &s.boundary

	// Side walls
	if p.Pos.X < 0 {
		p.Pos.X = b.OffsetX
		p.Vel.X = b.Rebound
	}
	if p.Pos.X > b.Width {
		p.Pos.X = b.Width - b.OffsetX
		p.Vel.X = -b.Rebound
	}

	// The floor re-injects energy with a random upward kick.
	if p.Pos.Y <= 0 {
		p.Pos.Y = b.OffsetY
		p.Vel.Y = s.rng.Float64() * b.FloorLaunch
	}
	if p.Pos.Y > b.Height {
		p.Pos.Y = b.Height - b.OffsetY
		p.Vel.Y = -b.Rebound
	}
}
