// Package systems provides the simulation core: particle storage, spatial
// indexing, the force model and the integrator.
package systems

import (
	"fmt"

	"github.com/pthm-cable/puddle/components"
)

// ParticleStore is a fixed-size, index-addressed particle collection.
// Slot indices are stable for the lifetime of the store.
type ParticleStore struct {
	particles []components.Particle
}

// NewParticleStore creates a store of n particles at the origin, at rest.
func NewParticleStore(n int) *ParticleStore {
	return &ParticleStore{particles: make([]components.Particle, n)}
}

// NewParticleStoreFrom creates a store holding a copy of particles.
func NewParticleStoreFrom(particles []components.Particle) *ParticleStore {
	s := &ParticleStore{particles: make([]components.Particle, len(particles))}
	copy(s.particles, particles)
	return s
}

// Len returns the number of particles.
func (s *ParticleStore) Len() int {
	return len(s.particles)
}

// Get returns the particle in slot i. Panics if i is out of range.
func (s *ParticleStore) Get(i int) components.Particle {
	s.check(i)
	return s.particles[i]
}

// Set overwrites slot i. Panics if i is out of range.
func (s *ParticleStore) Set(i int, p components.Particle) {
	s.check(i)
	s.particles[i] = p
}

// At returns a pointer to slot i for in-place mutation.
func (s *ParticleStore) At(i int) *components.Particle {
	s.check(i)
	return &s.particles[i]
}

// Particles returns the backing slice. Callers outside the integrator must treat it as read-only.
func (s *ParticleStore) Particles() []components.Particle {
	return s.particles
}

// SnapshotInto copies the current particles into dst, reusing its capacity.
func (s *ParticleStore) SnapshotInto(dst []components.Particle) []components.Particle {
	return append(dst[:0], s.particles...)
}

func (s *ParticleStore) check(i int) {
	if i < 0 || i >= len(s.particles) {
		panic(fmt.Sprintf("systems: particle index %d out of range [0, %d)", i, len(s.particles)))
	}
}
