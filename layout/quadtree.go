package layout

import "math"

const (
	// duplicateEpsilon is the per-axis distance under which two points share a leaf.
	duplicateEpsilon = 1e-6
	// maxDepth bounds subdivision of nearly coincident points.
	maxDepth = 64
)

// quadCell is one node of a QuadTree.
type quadCell struct {
	minBound   [2]float64
	maxBound   [2]float64
	center     [2]float64
	barycenter [2]float64
	point      [2]float64 // Stored point of a non-empty leaf
	size       int        // Number of points below this cell
	children   [4]int     // -1 when absent
	leaf       bool
	depth      int
	// squaredMaxWidth is the squared length of the cell's widest side
	squaredMaxWidth float64
}

// QuadTree is a 2-D space-partitioning tree over embedding points.
// Every cell tracks the barycenter and number of the points it contains,
// which lets distant cells stand in for all of their points.
type QuadTree struct {
	cells []quadCell
}

// Summary is the contribution of one cell to the repulsive force on a point.
type Summary struct {
	Delta [2]float64 // Point minus cell barycenter
	Dist2 float64    // Squared distance to the barycenter
	Size  int        // Number of points summarised
}

// BuildQuadTree builds a QuadTree over n points stored row-major in params.
func BuildQuadTree(params []float64, n int) *QuadTree {
	t := &QuadTree{cells: make([]quadCell, 0, 2*n+1)}
	if n == 0 {
		return t
	}

	minB := [2]float64{math.Inf(1), math.Inf(1)}
	maxB := [2]float64{math.Inf(-1), math.Inf(-1)}
	for i := range n {
		for d := range 2 {
			minB[d] = min(minB[d], params[2*i+d])
			maxB[d] = max(maxB[d], params[2*i+d])
		}
	}
	// Pad the root so no point sits on its upper boundary.
	for d := range 2 {
		maxB[d] = math.Max(math.Nextafter(maxB[d], math.Inf(1)), maxB[d]+1e-3*math.Abs(maxB[d]))
	}

	t.newCell(minB, maxB, 0)
	for i := range n {
		t.insert([2]float64{params[2*i], params[2*i+1]})
	}
	return t
}

func (t *QuadTree) newCell(minB, maxB [2]float64, depth int) int {
	c := quadCell{
		minBound: minB,
		maxBound: maxB,
		children: [4]int{-1, -1, -1, -1},
		leaf:     true,
		depth:    depth,
	}
	for d := range 2 {
		c.center[d] = (minB[d] + maxB[d]) / 2
		w := maxB[d] - minB[d]
		c.squaredMaxWidth = max(c.squaredMaxWidth, w*w)
	}
	t.cells = append(t.cells, c)
	return len(t.cells) - 1
}

// childFor returns the child of cell id containing pt, creating it if needed.
func (t *QuadTree) childFor(id int, pt [2]float64) int {
	c := t.cells[id]
	q := 0
	minB, maxB := c.minBound, c.maxBound
	for d := range 2 {
		if pt[d] >= c.center[d] {
			q |= 1 << d
			minB[d] = c.center[d]
		} else {
			maxB[d] = c.center[d]
		}
	}
	if c.children[q] >= 0 {
		return c.children[q]
	}
	child := t.newCell(minB, maxB, c.depth+1)
	t.cells[id].children[q] = child
	return child
}

func (t *QuadTree) insert(pt [2]float64) {
	id := 0
	for {
		c := &t.cells[id]
		prev := c.barycenter
		n := float64(c.size)
		for d := range 2 {
			c.barycenter[d] = (c.barycenter[d]*n + pt[d]) / (n + 1)
		}
		c.size++

		if c.leaf {
			if c.size == 1 {
				c.point = pt
				return
			}
			if isDuplicate(c.point, pt) || c.depth >= maxDepth {
				return
			}

			// Push the stored point one level down, then keep descending.
			old, oldSize := c.point, c.size-1
			c.leaf = false
			child := t.childFor(id, old)
			oc := &t.cells[child]
			oc.point = old
			oc.barycenter = prev
			oc.size = oldSize
		}

		id = t.childFor(id, pt)
	}
}

func isDuplicate(a, b [2]float64) bool {
	return math.Abs(a[0]-b[0]) <= duplicateEpsilon && math.Abs(a[1]-b[1]) <= duplicateEpsilon
}

// Summarize appends to buf the cells that approximate the repulsion on pt.
// A cell is used as a whole when it is a leaf or when its squared width over
// the squared distance to its barycenter is below squaredTheta. Leaves that
// coincide with pt are skipped.
func (t *QuadTree) Summarize(pt [2]float64, squaredTheta float64, buf []Summary) []Summary {
	if len(t.cells) == 0 {
		return buf
	}
	return t.summarize(0, pt, squaredTheta, buf)
}

func (t *QuadTree) summarize(id int, pt [2]float64, squaredTheta float64, buf []Summary) []Summary {
	c := &t.cells[id]
	var s Summary
	duplicate := true
	for d := range 2 {
		s.Delta[d] = pt[d] - c.barycenter[d]
		s.Dist2 += s.Delta[d] * s.Delta[d]
		duplicate = duplicate && math.Abs(s.Delta[d]) <= duplicateEpsilon
	}

	if duplicate && c.leaf {
		return buf
	}
	if c.leaf || c.squaredMaxWidth/s.Dist2 < squaredTheta {
		s.Size = c.size
		return append(buf, s)
	}

	for _, child := range c.children {
		if child >= 0 {
			buf = t.summarize(child, pt, squaredTheta, buf)
		}
	}
	return buf
}

// size returns the number of points in the tree.
func (t *QuadTree) size() int {
	if len(t.cells) == 0 {
		return 0
	}
	return t.cells[0].size
}
