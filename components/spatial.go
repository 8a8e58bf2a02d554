// Package components holds the plain data types shared by the simulation packages.
package components

// Position represents a particle's position in world units.
type Position struct {
	X, Y float64
}

// Velocity represents a particle's velocity in world units per tick.
type Velocity struct {
	X, Y float64
}

// Force is a per-particle accumulator, consumed once by the integrator.
type Force struct {
	X, Y float64
}

// Add returns the component-wise sum.
func (f Force) Add(o Force) Force {
	return Force{X: f.X + o.X, Y: f.Y + o.Y}
}

// Particle is one simulated point. Its identity is its slot in the store.
type Particle struct {
	Pos Position
	Vel Velocity
}

// Speed returns the velocity magnitude.
func (p Particle) Speed() float64 {
	return hypot(p.Vel.X, p.Vel.Y)
}
