package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

// Sampler generates initial particle positions inside a domain.
type Sampler interface {
	Sample(n int, b components.Bounds) []components.Position
}

// UniformSampler draws each position independently and uniformly from [0,W)x[0,H).
type UniformSampler struct {
	rng *rand.Rand
}

// NewUniformSampler creates a uniform sampler with its own RNG.
func NewUniformSampler(seed int64) *UniformSampler {
	return &UniformSampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample implements Sampler.
func (s *UniformSampler) Sample(n int, b components.Bounds) []components.Position {
	out := make([]components.Position, n)
	for i := range out {
		out[i] = components.Position{X: s.rng.Float64() * b.Width, Y: s.rng.Float64() * b.Height}
	}
	return out
}

// NoiseSampler clusters particles into blobs by rejection sampling against
// an OpenSimplex field.
type NoiseSampler struct {
	rng      *rand.Rand
	noise    opensimplex.Noise
	scale    float64
	contrast float64
	maxTries int
}

// NewNoiseSampler creates a noise-weighted sampler.
func NewNoiseSampler(seed int64, scale, contrast float64, maxTries int) *NoiseSampler {
	if maxTries < 1 {
		maxTries = 1
	}
	return &NoiseSampler{
		rng:      rand.New(rand.NewSource(seed)),
		noise:    opensimplex.NewNormalized(seed),
		scale:    scale,
		contrast: contrast,
		maxTries: maxTries,
	}
}

// Sample implements Sampler.
func (s *NoiseSampler) Sample(n int, b components.Bounds) []components.Position {
	out := make([]components.Position, n)
	for i := range out {
		var p components.Position
		for try := 0; try < s.maxTries; try++ {
			p = components.Position{X: s.rng.Float64() * b.Width, Y: s.rng.Float64() * b.Height}
			if s.rng.Float64() < s.Density(p.X, p.Y) {
				break
			}
		}
		out[i] = p
	}
	return out
}

// Density returns the acceptance probability in [0,1] at a world position.
func (s *NoiseSampler) Density(x, y float64) float64 {
	v := s.noise.Eval2(x*s.scale, y*s.scale)
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return math.Pow(v, s.contrast)
}

// LatticeSampler places particles on a jittered square grid, filling rows from
// the floor up. Particles that do not fit fall back to uniform placement.
type LatticeSampler struct {
	rng     *rand.Rand
	spacing float64
}

// NewLatticeSampler creates a lattice sampler with the given pitch.
func NewLatticeSampler(seed int64, spacing float64) *LatticeSampler {
	return &LatticeSampler{rng: rand.New(rand.NewSource(seed)), spacing: spacing}
}

// Sample implements Sampler.
func (s *LatticeSampler) Sample(n int, b components.Bounds) []components.Position {
	cols := int(b.Width / s.spacing)
	rows := int(b.Height / s.spacing)
	jitter := s.spacing * 0.1

	out := make([]components.Position, n)
	for i := range out {
		if cols == 0 || i/cols >= rows {
			out[i] = components.Position{X: s.rng.Float64() * b.Width, Y: s.rng.Float64() * b.Height}
			continue
		}
		col, row := i%cols, i/cols
		x := (float64(col)+0.5)*s.spacing + (s.rng.Float64()*2-1)*jitter
		y := (float64(row)+0.5)*s.spacing + (s.rng.Float64()*2-1)*jitter
		out[i] = components.Position{X: clampOpen(x, b.Width), Y: clampOpen(y, b.Height)}
	}
	return out
}

// NewSampler builds the sampler selected by cfg.Layout.
func NewSampler(cfg *config.Config, seed int64) (Sampler, error) {
	l := cfg.Layout
	switch l.Kind {
	case config.LayoutUniform:
		return NewUniformSampler(seed), nil
	case config.LayoutNoise:
		return NewNoiseSampler(seed, l.NoiseScale, l.NoiseContrast, l.MaxTries), nil
	case config.LayoutLattice:
		return NewLatticeSampler(seed, l.Spacing), nil
	default:
		return nil, fmt.Errorf("unknown layout kind %q", l.Kind)
	}
}

// SamplerProducer builds a store from a Sampler, with every particle at rest.
type SamplerProducer struct {
	Sampler Sampler
}

// Produce returns a store of count particles.
func (p SamplerProducer) Produce(count int, b components.Bounds) *ParticleStore {
	store := NewParticleStore(count)
	for i, pos := range p.Sampler.Sample(count, b) {
		store.Set(i, components.Particle{Pos: pos})
	}
	return store
}

// FixedProducer returns a copy of a prepared particle set, ignoring the domain.
type FixedProducer []components.Particle

// Produce returns a store holding the fixed particles.
func (p FixedProducer) Produce(count int, b components.Bounds) *ParticleStore {
	return NewParticleStoreFrom(p)
}

// clampOpen clamps v into [0, upper).
func clampOpen(v, upper float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= upper {
		return math.Nextafter(upper, 0)
	}
	return v
}
