package systems

import (
	"math/rand"
	"testing"
)

// Benchmark neighbor enumeration for a full tick with the default cutoff.

func BenchmarkQueryQuadtree(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	particles := randomParticles(rng, 2000, 128, 128)
	qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, 10, 12)
	var dst []int

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		qt.Build(particles)
		for i := range particles {
			p := particles[i].Pos
			dst = qt.QueryNeighborsInto(dst[:0], p.X, p.Y, 3, i)
		}
	}
}

func BenchmarkQueryGrid(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	particles := randomParticles(rng, 2000, 128, 128)
	g := NewSpatialGrid(128, 128, 3)
	var dst []int

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		g.Build(particles)
		for i := range particles {
			p := particles[i].Pos
			dst = g.QueryNeighborsInto(dst[:0], p.X, p.Y, 3, i)
		}
	}
}

func BenchmarkQueryBruteForce(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	particles := randomParticles(rng, 2000, 128, 128)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		for i := range particles {
			p := particles[i].Pos
			_ = bruteForce(particles, p.X, p.Y, 3, i)
		}
	}
}
