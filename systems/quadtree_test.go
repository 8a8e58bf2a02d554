package systems

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/puddle/components"
)

func randomParticles(rng *rand.Rand, n int, w, h float64) []components.Particle {
	out := make([]components.Particle, n)
	for i := range out {
		out[i].Pos = components.Position{X: rng.Float64() * w, Y: rng.Float64() * h}
	}
	return out
}

// clustered places most particles inside a small blob, far denser than a leaf.
func clustered(rng *rand.Rand, n int, cx, cy, spread float64) []components.Particle {
	out := make([]components.Particle, n)
	for i := range out {
		out[i].Pos = components.Position{
			X: cx + (rng.Float64()*2-1)*spread,
			Y: cy + (rng.Float64()*2-1)*spread,
		}
	}
	return out
}

func bruteForce(particles []components.Particle, x, y, radius float64, exclude int) []int {
	var out []int
	r2 := radius * radius
	for i, p := range particles {
		if i == exclude {
			continue
		}
		dx, dy := p.Pos.X-x, p.Pos.Y-y
		if dx*dx+dy*dy < r2 {
			out = append(out, i)
		}
	}
	return out
}

func sorted(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	return out
}

func TestQuadtreePartitionSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	root := Rect{MaxX: 128, MaxY: 128}

	arrangements := map[string][]components.Particle{
		"uniform":   randomParticles(rng, 500, 128, 128),
		"clustered": clustered(rng, 300, 40, 90, 1.5),
		"edges": {
			{Pos: components.Position{X: 0, Y: 0}},
			{Pos: components.Position{X: 128, Y: 128}},
			{Pos: components.Position{X: 64, Y: 64}},
			{Pos: components.Position{X: 64, Y: 0}},
			{Pos: components.Position{X: 0, Y: 64}},
		},
		"out of bounds": {
			{Pos: components.Position{X: -0.5, Y: 10}},
			{Pos: components.Position{X: 130, Y: 10}},
			{Pos: components.Position{X: 10, Y: -3}},
			{Pos: components.Position{X: 10, Y: 200}},
			{Pos: components.Position{X: 1, Y: 1}},
		},
	}

	for name, particles := range arrangements {
		t.Run(name, func(t *testing.T) {
			qt := NewQuadtree(root, 1, 10)
			qt.Build(particles)

			seen := make(map[int32]int)
			leaves := qt.Leaves()
			var area float64
			for i, leaf := range leaves {
				area += leaf.Bounds.Area()
				for _, id := range leaf.Items {
					seen[id]++
				}
				for j := i + 1; j < len(leaves); j++ {
					assert.False(t, leaf.Bounds.Overlaps(leaves[j].Bounds),
						"leaves %v and %v overlap", leaf.Bounds, leaves[j].Bounds)
				}
			}

			require.Len(t, seen, len(particles), "every particle must be in some leaf")
			for id, count := range seen {
				assert.Equal(t, 1, count, "particle %d appears in %d leaves", id, count)
			}
			assert.InDelta(t, root.Area(), area, 1e-9, "leaves must cover the root exactly")
		})
	}
}

func TestQuadtreeLeafCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	particles := randomParticles(rng, 1000, 128, 128)

	qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, 10, 12)
	qt.Build(particles)

	for _, leaf := range qt.Leaves() {
		assert.LessOrEqual(t, len(leaf.Items), 10)
	}
	// A node is a leaf xor has four children, so the arena grows in fours.
	assert.Equal(t, 1, qt.NodeCount()%4)
}

func TestQuadtreeDepthCap(t *testing.T) {
	// Coincident particles can never be separated; the depth cap stops splitting.
	particles := make([]components.Particle, 50)
	for i := range particles {
		particles[i].Pos = components.Position{X: 10, Y: 10}
	}

	qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, 4, 6)
	qt.Build(particles)

	assert.Equal(t, 6, qt.Depth())
	got := qt.QueryNeighbors(10, 10, 0.1, 0)
	assert.Len(t, got, 49)
}

func TestQuadtreeQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	particles := append(randomParticles(rng, 400, 128, 128), clustered(rng, 200, 64, 64, 2)...)
	// Strays outside the domain, as left behind by an imperfect clamp
	particles = append(particles,
		components.Particle{Pos: components.Position{X: -1, Y: 5}},
		components.Particle{Pos: components.Position{X: -1.2, Y: 5.4}},
		components.Particle{Pos: components.Position{X: 128.5, Y: 127}},
	)

	for _, capacity := range []int{1, 4, 10, 64} {
		qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, capacity, 12)
		qt.Build(particles)

		for _, radius := range []float64{0.5, 3, 17} {
			for i := range particles {
				p := particles[i].Pos
				want := bruteForce(particles, p.X, p.Y, radius, i)
				got := qt.QueryNeighbors(p.X, p.Y, radius, i)
				require.Equal(t, sorted(want), sorted(got),
					"capacity=%d radius=%g particle=%d", capacity, radius, i)
			}
		}
	}
}

func TestQuadtreeQueryNoDuplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	particles := randomParticles(rng, 300, 128, 128)
	qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, 2, 12)
	qt.Build(particles)

	got := qt.QueryNeighbors(64, 64, 40, -1)
	seen := make(map[int]bool, len(got))
	for _, id := range got {
		require.False(t, seen[id], "duplicate %d", id)
		seen[id] = true
	}
}

func TestQuadtreeQueryExcludesSelf(t *testing.T) {
	particles := []components.Particle{
		{Pos: components.Position{X: 10, Y: 10}},
		{Pos: components.Position{X: 11, Y: 10}},
	}
	qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, 10, 12)
	qt.Build(particles)

	assert.Equal(t, []int{1}, qt.QueryNeighbors(10, 10, 3, 0))
	assert.ElementsMatch(t, []int{0, 1}, qt.QueryNeighbors(10, 10, 3, -1))
}

func TestQuadtreeStrictRadius(t *testing.T) {
	particles := []components.Particle{
		{Pos: components.Position{X: 10, Y: 10}},
		{Pos: components.Position{X: 13, Y: 10}},
	}
	qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, 10, 12)
	qt.Build(particles)

	assert.Empty(t, qt.QueryNeighbors(10, 10, 3, 0), "distance equal to radius is excluded")
	assert.Empty(t, qt.QueryNeighbors(10, 10, 0, -1))
	assert.Empty(t, qt.QueryNeighbors(10, 10, -5, -1))
}

func TestQuadtreeRebuildReusesArena(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	qt := NewQuadtree(Rect{MaxX: 128, MaxY: 128}, 4, 12)

	first := randomParticles(rng, 200, 128, 128)
	qt.Build(first)

	// A smaller rebuild must not keep stale residents.
	second := randomParticles(rng, 20, 128, 128)
	qt.Build(second)

	total := 0
	for _, leaf := range qt.Leaves() {
		total += len(leaf.Items)
		for _, id := range leaf.Items {
			assert.Less(t, int(id), len(second))
		}
	}
	assert.Equal(t, len(second), total)
}

func TestQuadtreeEmpty(t *testing.T) {
	qt := NewQuadtree(Rect{MaxX: 10, MaxY: 10}, 4, 4)
	assert.Empty(t, qt.QueryNeighbors(5, 5, 3, -1), "query before build")

	qt.Build(nil)
	assert.Len(t, qt.Leaves(), 1)
	assert.Empty(t, qt.QueryNeighbors(5, 5, 3, -1))
}
