package systems

import (
	"math"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

// ForceModel holds the pairwise pressure and viscosity coefficients.
type ForceModel struct {
	MinDistance   float64
	MaxDistance   float64
	MaxDistanceSq float64
	Pressure    float64
	Viscosity   float64
	Gravity     float64
}

// NewForceModel reads coefficients from the physics section.
func NewForceModel(cfg *config.Config) ForceModel {
	p := cfg.Physics
	return ForceModel{
		MinDistance:   p.MinDistance,
		MaxDistance:   p.MaxDistance,
		MaxDistanceSq: cfg.Derived.MaxDistanceSq,
		Pressure:      p.Pressure,
		Viscosity:     p.Viscosity,
		Gravity:       p.Gravity,
	}
}

// PressureWeight is the kernel (1 - d/max)^2 on (0, max) and 0 elsewhere.
// It is 1 at zero distance and falls to 0 with zero slope at the cutoff.
func PressureWeight(distance, maxDistance float64) float64 {
	if distance >= maxDistance || distance < 0 {
		return 0
	}
	n := 1 - distance/maxDistance
	return n * n
}

// Pair returns the force contributed to q by p. ok is false when the pair
// lies outside (MinDistance, MaxDistance) and contributes nothing.
func (m ForceModel) Pair(p, q components.Particle) (f components.Force, ok bool) {
	dx := q.Pos.X - p.Pos.X
	dy := q.Pos.Y - p.Pos.Y
	distSq := dx*dx + dy*dy
	if !(distSq < m.MaxDistanceSq) {
		return components.Force{}, false
	}
	distance := math.Sqrt(distSq)
	if !(distance > m.MinDistance && distance < m.MaxDistance) {
		return components.Force{}, false
	}

	// Pressure pushes q away from p along the displacement.
	pressure := m.Pressure * PressureWeight(distance, m.MaxDistance)
	f.X = pressure * dx
	f.Y = pressure * dy

	// Viscosity pulls q's velocity toward p's, stronger at close range.
	f.X += m.Viscosity * (p.Vel.X - q.Vel.X) / distance
	f.Y += m.Viscosity * (p.Vel.Y - q.Vel.Y) / distance

	return f, true
}

// Accumulate returns the net force on particles[i] from the given neighbours,
// plus the gravity bias. Neighbour lists are symmetric, so gathering over i's
// neighbours sums the same ordered pairs as scattering from each p onto its
// neighbours, while touching only i's accumulator.
func (m ForceModel) Accumulate(particles []components.Particle, i int, neighbors []int) components.Force {
	q := particles[i]
	var total components.Force
	for _, j := range neighbors {
		if j == i {
			continue
		}
		if f, ok := m.Pair(particles[j], q); ok {
			total = total.Add(f)
		}
	}
	total.Y += m.Gravity
	return total
}
