// Package quadtree implements a generic point quadtree over a square,
// power-of-two-aligned region. Nodes live in a flat arena and are
// referenced by NodeID, so traversal clients can attach per-node scratch
// values in plain slices indexed by the same handle.
package quadtree

import "math"

// NodeID is a handle to a node in the tree's arena.
type NodeID int32

// Nil marks an absent node.
const Nil NodeID = -1

// Quadrant indices. Bit 0 is set right of the x midpoint, bit 1 below the
// y midpoint.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

type node[E any] struct {
	leaf     bool
	children [4]NodeID // internal nodes only
	data     E         // leaves only
	next     NodeID    // next leaf holding the same coordinates
}

// Tree is a quadtree of elements positioned by the x and y accessors.
type Tree[E any] struct {
	x, y           func(E) float64
	x0, y0, x1, y1 float64
	root           NodeID
	nodes          []node[E]
}

// New creates an empty tree. The extent is undefined until the first
// point is covered.
func New[E any](x, y func(E) float64) *Tree[E] {
	t := &Tree[E]{x: x, y: y}
	t.Reset()
	return t
}

// Build creates a tree holding every element of data with finite
// coordinates.
func Build[E any](data []E, x, y func(E) float64) *Tree[E] {
	return New(x, y).AddAll(data)
}

// Reset empties the tree and forgets its extent. The arena keeps its
// capacity so a tree rebuilt every tick does not reallocate.
func (t *Tree[E]) Reset() {
	t.x0, t.y0, t.x1, t.y1 = math.NaN(), math.NaN(), math.NaN(), math.NaN()
	t.root = Nil
	clear(t.nodes)
	t.nodes = t.nodes[:0]
}

func valid(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsNaN(y) && !math.IsInf(x, 0) && !math.IsInf(y, 0)
}

func bit(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (t *Tree[E]) newLeaf(d E) NodeID {
	t.nodes = append(t.nodes, node[E]{leaf: true, data: d, next: Nil})
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree[E]) newInternal() NodeID {
	t.nodes = append(t.nodes, node[E]{children: [4]NodeID{Nil, Nil, Nil, Nil}, next: Nil})
	return NodeID(len(t.nodes) - 1)
}

// Cover expands the extent to contain (x, y). An empty tree gets a unit
// square at the integer floor of the point; otherwise the square doubles
// toward the point until it fits, wrapping the existing root so the
// boundaries of existing quadrants never move.
func (t *Tree[E]) Cover(x, y float64) *Tree[E] {
	if !valid(x, y) {
		return t
	}

	x0, y0, x1, y1 := t.x0, t.y0, t.x1, t.y1
	if math.IsNaN(x0) {
		x0 = math.Floor(x)
		y0 = math.Floor(y)
		x1 = x0 + 1
		y1 = y0 + 1
	} else {
		z := x1 - x0
		root := t.root
		wrap := root != Nil && !t.nodes[root].leaf
		for x0 > x || x >= x1 || y0 > y || y >= y1 {
			i := bit(y < y0)<<1 | bit(x < x0)
			if wrap {
				parent := t.newInternal()
				t.nodes[parent].children[i] = root
				root = parent
			}
			z *= 2
			switch i {
			case TopLeft:
				x1, y1 = x0+z, y0+z
			case TopRight:
				x0, y1 = x1-z, y0+z
			case BottomLeft:
				x1, y0 = x0+z, y1-z
			case BottomRight:
				x0, y0 = x1-z, y1-z
			}
		}
		if wrap {
			t.root = root
		}
	}

	t.x0, t.y0, t.x1, t.y1 = x0, y0, x1, y1
	return t
}

// Add inserts d, growing the extent first if needed. Elements with a
// non-finite coordinate are ignored.
func (t *Tree[E]) Add(d E) *Tree[E] {
	x, y := t.x(d), t.y(d)
	t.Cover(x, y)
	t.insert(x, y, d)
	return t
}

// AddAll inserts every element of data. The extent is grown once to the
// bounding box of all valid points before insertion.
func (t *Tree[E]) AddAll(data []E) *Tree[E] {
	n := len(data)
	xz := make([]float64, n)
	yz := make([]float64, n)
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)

	for i, d := range data {
		x, y := t.x(d), t.y(d)
		xz[i], yz[i] = x, y
		if !valid(x, y) {
			continue
		}
		x0 = math.Min(x0, x)
		x1 = math.Max(x1, x)
		y0 = math.Min(y0, y)
		y1 = math.Max(y1, y)
	}

	// No valid points.
	if x0 > x1 || y0 > y1 {
		return t
	}

	t.Cover(x0, y0).Cover(x1, y1)
	for i, d := range data {
		t.insert(xz[i], yz[i], d)
	}
	return t
}

// insert places d at (x, y), which must already lie inside the extent.
func (t *Tree[E]) insert(x, y float64, d E) {
	if !valid(x, y) {
		return
	}

	leaf := t.newLeaf(d)
	if t.root == Nil {
		t.root = leaf
		return
	}

	x0, y0, x1, y1 := t.x0, t.y0, t.x1, t.y1
	parent, cur := Nil, t.root
	i := 0

	// Descend to the leaf slot for the point.
	for !t.nodes[cur].leaf {
		xm, ym := (x0+x1)/2, (y0+y1)/2
		right, bottom := x >= xm, y >= ym
		if right {
			x0 = xm
		} else {
			x1 = xm
		}
		if bottom {
			y0 = ym
		} else {
			y1 = ym
		}
		parent, i = cur, bit(bottom)<<1|bit(right)
		cur = t.nodes[cur].children[i]
		if cur == Nil {
			t.nodes[parent].children[i] = leaf
			return
		}
	}

	// Coincident points share a slot through the next chain.
	xp, yp := t.x(t.nodes[cur].data), t.y(t.nodes[cur].data)
	if x == xp && y == yp {
		t.nodes[leaf].next = cur
		if parent == Nil {
			t.root = leaf
		} else {
			t.nodes[parent].children[i] = leaf
		}
		return
	}

	// Split until the existing and new points land in different quadrants.
	var j int
	for {
		in := t.newInternal()
		if parent == Nil {
			t.root = in
		} else {
			t.nodes[parent].children[i] = in
		}
		parent = in

		xm, ym := (x0+x1)/2, (y0+y1)/2
		right, bottom := x >= xm, y >= ym
		if right {
			x0 = xm
		} else {
			x1 = xm
		}
		if bottom {
			y0 = ym
		} else {
			y1 = ym
		}
		i = bit(bottom)<<1 | bit(right)
		j = bit(yp >= ym)<<1 | bit(xp >= xm)
		if i != j {
			break
		}
	}
	t.nodes[parent].children[j] = cur
	t.nodes[parent].children[i] = leaf
}

// Extent returns the covered square as [x0,x1) x [y0,y1). ok is false
// while the tree has never covered a point.
func (t *Tree[E]) Extent() (x0, y0, x1, y1 float64, ok bool) {
	if math.IsNaN(t.x0) {
		return 0, 0, 0, 0, false
	}
	return t.x0, t.y0, t.x1, t.y1, true
}

// Root returns the root node, or Nil for an empty tree.
func (t *Tree[E]) Root() NodeID { return t.root }

// Len returns the arena size. Every NodeID reachable from the root is
// below Len, so clients size scratch slices with it.
func (t *Tree[E]) Len() int { return len(t.nodes) }

// IsLeaf reports whether id is a leaf.
func (t *Tree[E]) IsLeaf(id NodeID) bool { return t.nodes[id].leaf }

// Child returns quadrant q of an internal node, or Nil.
func (t *Tree[E]) Child(id NodeID, q int) NodeID {
	if t.nodes[id].leaf {
		return Nil
	}
	return t.nodes[id].children[q]
}

// Data returns the element stored in a leaf.
func (t *Tree[E]) Data(id NodeID) E { return t.nodes[id].data }

// Next returns the next leaf sharing id's coordinates, or Nil.
func (t *Tree[E]) Next(id NodeID) NodeID { return t.nodes[id].next }

// X returns the x accessor the tree was built with.
func (t *Tree[E]) X(d E) float64 { return t.x(d) }

// Y returns the y accessor the tree was built with.
func (t *Tree[E]) Y(d E) float64 { return t.y(d) }

// Size returns the number of stored elements, counting every member of a
// coincident chain.
func (t *Tree[E]) Size() int {
	size := 0
	t.Visit(func(id NodeID, _, _, _, _ float64) bool {
		if t.nodes[id].leaf {
			for l := id; l != Nil; l = t.nodes[l].next {
				size++
			}
		}
		return false
	})
	return size
}
