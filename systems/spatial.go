package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/puddle/components"
	"github.com/pthm-cable/puddle/config"
)

// SpatialIndex answers exact radius queries over a particle snapshot.
// Build is called once per tick; queries may run concurrently after Build returns.
type SpatialIndex interface {
	Build(particles []components.Particle)
	QueryNeighborsInto(dst []int, x, y, radius float64, exclude int) []int
}

// NewSpatialIndex builds the index selected by cfg.Index over the world rectangle.
func NewSpatialIndex(cfg *config.Config) (SpatialIndex, error) {
	bounds := Rect{MaxX: cfg.World.Width, MaxY: cfg.World.Height}
	switch cfg.Index.Kind {
	case config.IndexQuadtree:
		return NewQuadtree(bounds, cfg.Index.LeafCapacity, cfg.Index.MaxDepth), nil
	case config.IndexGrid:
		cell := cfg.Derived.CellSize
		if cell <= 0 {
			cell = cfg.Physics.MaxDistance
		}
		return NewSpatialGrid(cfg.World.Width, cfg.World.Height, cell), nil
	default:
		return nil, fmt.Errorf("unknown index kind %q", cfg.Index.Kind)
	}
}

// SpatialGrid is a uniform-cell index. Positions outside the domain are
// stored in the nearest edge cell.
type SpatialGrid struct {
	cellSize  float64
	cols      int
	rows      int
	cells     [][]int32 // flat grid of particle lists
	particles []components.Particle
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all particles from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Build implements SpatialIndex.
func (g *SpatialGrid) Build(particles []components.Particle) {
	g.Clear()
	g.particles = particles
	for i := range particles {
		p := particles[i].Pos
		col, row := g.cellCoords(p.X, p.Y)
		idx := row*g.cols + col
		g.cells[idx] = append(g.cells[idx], int32(i))
	}
}

// QueryNeighborsInto implements SpatialIndex. The scanned cell range is
// clamped the same way insertion is, so edge cells holding stray particles
// are always visited when needed.
func (g *SpatialGrid) QueryNeighborsInto(dst []int, x, y, radius float64, exclude int) []int {
	if !(radius > 0) {
		return dst
	}
	radiusSq := radius * radius

	col0, row0 := g.cellCoords(x-radius, y-radius)
	col1, row1 := g.cellCoords(x+radius, y+radius)

	for row := row0; row <= row1; row++ {
		for col := col0; col <= col1; col++ {
			for _, id := range g.cells[row*g.cols+col] {
				if int(id) == exclude {
					continue
				}
				p := g.particles[id].Pos
				dx, dy := p.X-x, p.Y-y
				if dx*dx+dy*dy < radiusSq {
					dst = append(dst, int(id))
				}
			}
		}
	}

	return dst
}

// cellCoords returns the clamped cell for a world position.
func (g *SpatialGrid) cellCoords(x, y float64) (col, row int) {
	col = clampCell(math.Floor(x/g.cellSize), g.cols)
	row = clampCell(math.Floor(y/g.cellSize), g.rows)
	return col, row
}

func clampCell(v float64, n int) int {
	if !(v > 0) {
		return 0
	}
	if v >= float64(n-1) {
		return n - 1
	}
	return int(v)
}
