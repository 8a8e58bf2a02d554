// Package game drives the particle simulation: one tick rebuilds the spatial
// index, accumulates forces and integrates, with frames handed to consumers
// at tick boundaries.
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
	"github.com/pthm-cable/puddle/systems"
	"github.com/pthm-cable/puddle/telemetry"
)

// ErrProducer is returned by New when the producer's store does not match
// the configured population.
var ErrProducer = errors.New("game: producer size mismatch")

// Producer supplies the initial particle store.
type Producer interface {
	Produce(count int, b components.Bounds) *systems.ParticleStore
}

// Options holds simulation construction options.
type Options struct {
	Seed     int64
	Producer Producer                 // nil = sampler selected by cfg.Layout
	Index    systems.SpatialIndex     // nil = index selected by cfg.Index
	Perf     *telemetry.PerfCollector // nil = private collector
}

// Simulation owns the particle store and everything needed to advance it.
type Simulation struct {
	cfg    *config.Config
	bounds components.Bounds

	store      *systems.ParticleStore
	index      systems.SpatialIndex
	model      systems.ForceModel
	integrator *systems.Integrator
	forces     []components.Force

	parallel *parallelState
	perf     *telemetry.PerfCollector

	tick int64

	// Frame buffers, reused every tick
	frameParticles []components.Particle
	frameForces    []components.Force
}

// New creates a simulation. The config is validated and its derived values
// refreshed before any particle is produced.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if err := cfg.Prepare(); err != nil {
		return nil, err
	}

	bounds := components.Bounds{Width: cfg.World.Width, Height: cfg.World.Height}

	producer := opts.Producer
	if producer == nil {
		sampler, err := systems.NewSampler(cfg, opts.Seed)
		if err != nil {
			return nil, err
		}
		producer = systems.SamplerProducer{Sampler: sampler}
	}

	store := producer.Produce(cfg.Population.Count, bounds)
	if store == nil || store.Len() != cfg.Population.Count {
		got := 0
		if store != nil {
			got = store.Len()
		}
		return nil, fmt.Errorf("%w: got %d particles, want %d", ErrProducer, got, cfg.Population.Count)
	}

	index := opts.Index
	if index == nil {
		var err error
		if index, err = systems.NewSpatialIndex(cfg); err != nil {
			return nil, err
		}
	}

	perf := opts.Perf
	if perf == nil {
		perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	}

	// The layout sampler and the floor relaunch draw from separate streams
	rng := rand.New(rand.NewSource(opts.Seed + 1))

	return &Simulation{
		cfg:        cfg,
		bounds:     bounds,
		store:      store,
		index:      index,
		model:      systems.NewForceModel(cfg),
		integrator: systems.NewIntegrator(cfg, rng),
		forces:     make([]components.Force, store.Len()),
		parallel:   newParallelState(cfg.Parallel.Workers, cfg.Parallel.Threshold),
		perf:       perf,
	}, nil
}

// Step advances the simulation by one tick.
func (s *Simulation) Step() {
	s.perf.StartTick()
	s.step()
	s.perf.EndTick()
}

// step runs the tick phases. Reads of the store all finish before the
// integrator mutates it.
func (s *Simulation) step() {
	particles := s.store.Particles()

	// 1. Rebuild spatial index
	s.perf.StartPhase(telemetry.PhaseIndex)
	s.index.Build(particles)

	// 2. Neighbor queries and force accumulation
	s.perf.StartPhase(telemetry.PhaseForces)
	s.accumulateForces()

	// 3. Integrate and apply the wall policy
	s.perf.StartPhase(telemetry.PhaseIntegrate)
	s.integrator.Update(s.store, s.forces)

	s.tick++
}

// Frame returns a snapshot of the current state. The returned slices are
// reused by the next call; consumers must copy anything they keep.
func (s *Simulation) Frame() components.Frame {
	s.frameParticles = s.store.SnapshotInto(s.frameParticles)
	s.frameForces = append(s.frameForces[:0], s.forces...)
	return components.Frame{
		Tick:      s.tick,
		Bounds:    s.bounds,
		Particles: s.frameParticles,
		Forces:    s.frameForces,
	}
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// Len returns the particle count.
func (s *Simulation) Len() int {
	return s.store.Len()
}

// Particle returns the particle in slot i.
func (s *Simulation) Particle(i int) components.Particle {
	return s.store.Get(i)
}

// Bounds returns the simulated domain.
func (s *Simulation) Bounds() components.Bounds {
	return s.bounds
}

// Perf returns the collector timing each tick.
func (s *Simulation) Perf() *telemetry.PerfCollector {
	return s.perf
}

// Close stops the force workers, if any are running.
func (s *Simulation) Close() {
	s.parallel.stopWorkers()
}
