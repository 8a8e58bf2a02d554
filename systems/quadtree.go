package systems

import (
	"github.com/pthm-cable/puddle/components"
)

// Rect is an axis-aligned half-open rectangle [MinX,MaxX)x[MinY,MaxY).
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x, y) lies inside the half-open rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX && r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Area returns the rectangle's area.
func (r Rect) Area() float64 {
	return (r.MaxX - r.MinX) * (r.MaxY - r.MinY)
}

// DistSq returns the squared distance from (x, y) to the closed rectangle.
func (r Rect) DistSq(x, y float64) float64 {
	var dx, dy float64
	if x < r.MinX {
		dx = r.MinX - x
	} else if x > r.MaxX {
		dx = x - r.MaxX
	}
	if y < r.MinY {
		dy = r.MinY - y
	} else if y > r.MaxY {
		dy = y - r.MaxY
	}
	return dx*dx + dy*dy
}

// grow returns r extended to cover (x, y). NaN coordinates leave r unchanged.
func (r Rect) grow(x, y float64) Rect {
	if x < r.MinX {
		r.MinX = x
	}
	if x > r.MaxX {
		r.MaxX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if y > r.MaxY {
		r.MaxY = y
	}
	return r
}

// union returns the smallest rectangle covering r and o.
func (r Rect) union(o Rect) Rect {
	return r.grow(o.MinX, o.MinY).grow(o.MaxX, o.MaxY)
}

// Quadrant indices. The domain is y-up, so "south" is the low-y half.
const (
	quadSW = iota
	quadSE
	quadNW
	quadNE
)

const noChildren = -1

// qtNode is one arena slot. Residents are items[start:end]; for an internal
// node that range is the concatenation of its four children's ranges.
type qtNode struct {
	bounds     Rect  // partition cell
	extent     Rect  // bounds grown to cover residents lying outside the domain
	first      int32 // arena index of the SW child; siblings follow in quadrant order
	start, end int32
	depth      int32
}

// Leaf is a read-only view of one quadtree leaf, valid until the next Build.
type Leaf struct {
	Bounds Rect
	Items  []int32
}

// Quadtree partitions a fixed domain into quadrants for radius queries.
// It is rebuilt from scratch every tick; Build reuses the arena's memory.
type Quadtree struct {
	bounds    Rect
	capacity  int
	maxDepth  int
	nodes     []qtNode
	items     []int32
	scratch   []int32
	particles []components.Particle
}

// NewQuadtree creates an empty quadtree over bounds.
func NewQuadtree(bounds Rect, capacity, maxDepth int) *Quadtree {
	if capacity < 1 {
		capacity = 1
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &Quadtree{
		bounds:   bounds,
		capacity: capacity,
		maxDepth: maxDepth,
		nodes:    make([]qtNode, 0, 64),
	}
}

// Bounds returns the root rectangle.
func (q *Quadtree) Bounds() Rect {
	return q.bounds
}

// Build discards the previous tree and indexes particles. The slice is kept
// for queries and must not be mutated until the next Build.
func (q *Quadtree) Build(particles []components.Particle) {
	n := len(particles)
	q.particles = particles
	q.nodes = q.nodes[:0]

	if cap(q.items) < n {
		q.items = make([]int32, n)
		q.scratch = make([]int32, n)
	}
	q.items = q.items[:n]
	q.scratch = q.scratch[:n]
	for i := range q.items {
		q.items[i] = int32(i)
	}

	q.nodes = append(q.nodes, qtNode{
		bounds: q.bounds,
		extent: q.bounds,
		first:  noChildren,
		start:  0,
		end:    int32(n),
	})
	q.split(0)
}

// split subdivides node idx while it holds more than capacity residents.
func (q *Quadtree) split(idx int32) {
	n := q.nodes[idx]
	if int(n.end-n.start) <= q.capacity || int(n.depth) >= q.maxDepth {
		q.nodes[idx].extent = q.leafExtent(n)
		return
	}

	midX := n.bounds.MinX + (n.bounds.MaxX-n.bounds.MinX)/2
	midY := n.bounds.MinY + (n.bounds.MaxY-n.bounds.MinY)/2

	// Counting sort residents by quadrant. Stable, so builds are deterministic.
	var counts [4]int32
	residents := q.items[n.start:n.end]
	for _, id := range residents {
		counts[quadrantOf(q.particles[id].Pos, midX, midY)]++
	}
	var starts, next [4]int32
	starts[0] = n.start
	for k := 1; k < 4; k++ {
		starts[k] = starts[k-1] + counts[k-1]
	}
	next = starts
	for _, id := range residents {
		k := quadrantOf(q.particles[id].Pos, midX, midY)
		q.scratch[next[k]] = id
		next[k]++
	}
	copy(residents, q.scratch[n.start:n.end])

	first := int32(len(q.nodes))
	for k := 0; k < 4; k++ {
		cell := quadrantRect(n.bounds, k, midX, midY)
		q.nodes = append(q.nodes, qtNode{
			bounds: cell,
			extent: cell,
			first:  noChildren,
			start:  starts[k],
			end:    starts[k] + counts[k],
			depth:  n.depth + 1,
		})
	}
	q.nodes[idx].first = first

	extent := n.bounds
	for k := int32(0); k < 4; k++ {
		q.split(first + k)
		extent = extent.union(q.nodes[first+k].extent)
	}
	q.nodes[idx].extent = extent
}

// leafExtent grows a leaf's cell to cover residents routed in from outside the domain.
func (q *Quadtree) leafExtent(n qtNode) Rect {
	ext := n.bounds
	for _, id := range q.items[n.start:n.end] {
		p := q.particles[id].Pos
		ext = ext.grow(p.X, p.Y)
	}
	return ext
}

// quadrantOf routes a position on half-open boundaries. Positions outside the
// node fall into the quadrant nearest to them, so nothing is ever dropped.
func quadrantOf(p components.Position, midX, midY float64) int {
	k := quadSW
	if p.X >= midX {
		k |= quadSE
	}
	if p.Y >= midY {
		k |= quadNW
	}
	return k
}

func quadrantRect(b Rect, k int, midX, midY float64) Rect {
	r := b
	if k&quadSE != 0 {
		r.MinX = midX
	} else {
		r.MaxX = midX
	}
	if k&quadNW != 0 {
		r.MinY = midY
	} else {
		r.MaxY = midY
	}
	return r
}

// QueryNeighborsInto appends every particle strictly closer than radius to
// (x, y), other than exclude, to dst and returns the updated slice.
// Pass exclude = -1 to keep all matches. Result order follows the tree layout.
func (q *Quadtree) QueryNeighborsInto(dst []int, x, y, radius float64, exclude int) []int {
	if len(q.nodes) == 0 || !(radius > 0) {
		return dst
	}
	return q.query(dst, 0, x, y, radius*radius, exclude)
}

// QueryNeighbors returns every particle strictly closer than radius to (x, y).
func (q *Quadtree) QueryNeighbors(x, y, radius float64, exclude int) []int {
	return q.QueryNeighborsInto(nil, x, y, radius, exclude)
}

func (q *Quadtree) query(dst []int, idx int32, x, y, radiusSq float64, exclude int) []int {
	n := &q.nodes[idx]
	if n.extent.DistSq(x, y) >= radiusSq {
		return dst
	}

	if n.first == noChildren {
		for _, id := range q.items[n.start:n.end] {
			if int(id) == exclude {
				continue
			}
			p := q.particles[id].Pos
			dx, dy := p.X-x, p.Y-y
			if dx*dx+dy*dy < radiusSq {
				dst = append(dst, int(id))
			}
		}
		return dst
	}

	first := n.first
	for k := int32(0); k < 4; k++ {
		dst = q.query(dst, first+k, x, y, radiusSq, exclude)
	}
	return dst
}

// Leaves returns every leaf in arena order.
func (q *Quadtree) Leaves() []Leaf {
	var leaves []Leaf
	for i := range q.nodes {
		n := &q.nodes[i]
		if n.first == noChildren {
			leaves = append(leaves, Leaf{Bounds: n.bounds, Items: q.items[n.start:n.end]})
		}
	}
	return leaves
}

// NodeCount returns the number of arena nodes in the current tree.
func (q *Quadtree) NodeCount() int {
	return len(q.nodes)
}

// Depth returns the depth of the deepest node (root = 0).
func (q *Quadtree) Depth() int {
	d := 0
	for i := range q.nodes {
		if int(q.nodes[i].depth) > d {
			d = int(q.nodes[i].depth)
		}
	}
	return d
}
