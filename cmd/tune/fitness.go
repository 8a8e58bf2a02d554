package main

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
	"github.com/pthm-cable/puddle/game"
	"github.com/pthm-cable/puddle/systems"
	"github.com/pthm-cable/puddle/telemetry"
)

// Fitness component weights.
const (
	weightPacking   = 4.0 // relative neighbour-count error, squared
	weightStability = 1.0 // coefficient of variation of kinetic energy
)

// FitnessEvaluator runs headless simulations and computes fitness.
// A good parameter set settles into a calm fluid whose particles keep
// roughly targetNeighbors others within the interaction radius.
type FitnessEvaluator struct {
	params          *ParamVector
	ticks           int64
	window          int64 // trailing ticks that are scored
	seeds           []int64
	baseConfig      *config.Config
	targetNeighbors float64

	mu          sync.Mutex
	lastMetrics Metrics // metrics from most recent Evaluate call
}

// Metrics is the seed-averaged summary of one evaluation.
type Metrics struct {
	KineticEnergy float64 // mean per particle over the scored window
	Neighbors     float64 // mean neighbours within max_distance
	EnergyCV      float64 // std/mean of total kinetic energy over the window
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks, window int64, seeds []int64, baseCfg *config.Config, targetNeighbors float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:          params,
		ticks:           ticks,
		window:          min(window, ticks),
		seeds:           seeds,
		baseConfig:      baseCfg,
		targetNeighbors: targetNeighbors,
	}
}

// LastMetrics returns the metrics from the most recent evaluation.
func (fe *FitnessEvaluator) LastMetrics() Metrics {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMetrics
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel
	results := make([]Metrics, len(fe.seeds))
	errs := make([]error, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx], errs[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			// Rejected configs (e.g. failed validation) rank last
			return math.Inf(1)
		}
	}

	var avg Metrics
	for _, m := range results {
		avg.KineticEnergy += m.KineticEnergy
		avg.Neighbors += m.Neighbors
		avg.EnergyCV += m.EnergyCV
	}
	n := float64(len(results))
	avg.KineticEnergy /= n
	avg.Neighbors /= n
	avg.EnergyCV /= n

	fe.mu.Lock()
	fe.lastMetrics = avg
	fe.mu.Unlock()

	return fe.computeFitness(avg)
}

// computeFitness calculates the scalar fitness (lower = better).
func (fe *FitnessEvaluator) computeFitness(m Metrics) float64 {
	packErr := 0.0
	if fe.targetNeighbors > 0 {
		packErr = (m.Neighbors - fe.targetNeighbors) / fe.targetNeighbors
	}
	return m.KineticEnergy + weightPacking*packErr*packErr + weightStability*m.EnergyCV
}

// runSimulation executes a single headless simulation run and scores its
// trailing window.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (Metrics, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	sim, err := game.New(cfg, game.Options{Seed: seed})
	if err != nil {
		return Metrics{}, err
	}
	defer sim.Close()

	qt := systems.NewQuadtree(
		systems.Rect{MaxX: cfg.World.Width, MaxY: cfg.World.Height},
		cfg.Index.LeafCapacity, cfg.Index.MaxDepth,
	)
	radius := cfg.Physics.MaxDistance

	var energies, neighbors []float64
	var scratch []int
	start := fe.ticks - fe.window

	err = sim.Run(context.Background(), game.ConsumerFunc(func(f components.Frame) error {
		if f.Tick <= start {
			return nil
		}
		stats := telemetry.ComputeFrameStats(f)
		energies = append(energies, stats.KineticEnergy)

		var mean float64
		mean, scratch = meanNeighbors(qt, f.Particles, radius, scratch)
		neighbors = append(neighbors, mean)
		return nil
	}), fe.ticks)
	if err != nil {
		return Metrics{}, err
	}

	m := Metrics{}
	if len(energies) == 0 {
		return m, nil
	}
	meanKE, stdKE := stat.MeanStdDev(energies, nil)
	m.KineticEnergy = meanKE / float64(sim.Len())
	m.Neighbors = stat.Mean(neighbors, nil)
	if meanKE > 0 && !math.IsNaN(stdKE) {
		m.EnergyCV = stdKE / meanKE
	}
	return m, nil
}

// meanNeighbors returns the average number of particles within radius of
// each particle, reusing scratch for query results.
func meanNeighbors(qt *systems.Quadtree, particles []components.Particle, radius float64, scratch []int) (float64, []int) {
	if len(particles) == 0 {
		return 0, scratch
	}
	qt.Build(particles)
	total := 0
	for i, p := range particles {
		scratch = qt.QueryNeighborsInto(scratch[:0], p.Pos.X, p.Pos.Y, radius, i)
		total += len(scratch)
	}
	return float64(total) / float64(len(particles)), scratch
}

// copyConfig creates a copy of the base config. Config holds only value
// fields, so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
