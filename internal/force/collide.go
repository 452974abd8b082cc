package force

import (
	"fmt"
	"math"

	"github.com/onnwee/force-layout/internal/quadtree"
)

// Collide treats nodes as disks and pushes overlapping pairs apart,
// judging overlap at their look-ahead positions.
type Collide struct {
	nodes      []*Node
	random     RandomSource
	radius     func(*Node) float64
	radii      []float64
	strength   float64
	iterations int

	tree *quadtree.Tree[*Node]
	maxR []float64 // largest radius under each quad, by quadtree.NodeID
}

// CollideOption configures a Collide force.
type CollideOption func(*Collide) error

// WithRadius sets the per-node radius accessor. Default 1.
func WithRadius(fn func(*Node) float64) CollideOption {
	return func(f *Collide) error { return f.SetRadius(fn) }
}

// WithCollideStrength sets how much of an overlap is resolved per pass,
// in [0, 1]. Default 1.
func WithCollideStrength(s float64) CollideOption {
	return func(f *Collide) error {
		if !(s >= 0 && s <= 1) {
			return fmt.Errorf("%w: collide strength must be in [0,1], got %v", ErrInvalidArgument, s)
		}
		f.strength = s
		return nil
	}
}

// WithCollideIterations sets the number of passes per tick. Default 1.
func WithCollideIterations(n int) CollideOption {
	return func(f *Collide) error {
		if n < 1 {
			return fmt.Errorf("%w: iterations must be at least 1, got %d", ErrInvalidArgument, n)
		}
		f.iterations = n
		return nil
	}
}

// NewCollide creates a collision force.
func NewCollide(opts ...CollideOption) (*Collide, error) {
	f := &Collide{
		radius:     Constant(1),
		strength:   1,
		iterations: 1,
		tree:       quadtree.New(nextX, nextY),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Collide) Kind() Kind { return KindCollide }
func (f *Collide) sealed()    {}

// Initialize evaluates the radius accessor for every node.
func (f *Collide) Initialize(nodes []*Node, random RandomSource) error {
	random, err := bind(nodes, random)
	if err != nil {
		return err
	}
	f.nodes = nodes
	f.random = random
	f.initRadii()
	return nil
}

func (f *Collide) initRadii() {
	f.radii = grow(f.radii, len(f.nodes))
	for i, n := range f.nodes {
		f.radii[i] = f.radius(n)
	}
}

// SetRadius replaces the radius accessor and re-evaluates it.
func (f *Collide) SetRadius(fn func(*Node) float64) error {
	if fn == nil {
		return fmt.Errorf("%w: nil radius accessor", ErrInvalidArgument)
	}
	f.radius = fn
	if f.nodes != nil {
		f.initRadii()
	}
	return nil
}

// Apply resolves overlaps. Each unordered pair is handled once per pass,
// by the node with the lower index.
func (f *Collide) Apply(float64) {
	t := f.tree
	for k := 0; k < f.iterations; k++ {
		t.Reset()
		t.AddAll(f.nodes)
		f.maxR = grow(f.maxR, t.Len())
		t.VisitAfter(f.prepare)

		for _, node := range f.nodes {
			ri := f.radii[node.Index]
			ri2 := ri * ri
			xi := node.X + node.VX
			yi := node.Y + node.VY

			t.Visit(func(id quadtree.NodeID, x0, y0, x1, y1 float64) bool {
				if !t.IsLeaf(id) {
					r := ri + f.maxR[id]
					return x0 > xi+r || x1 < xi-r || y0 > yi+r || y1 < yi-r
				}
				for p := id; p != quadtree.Nil; p = t.Next(p) {
					data := t.Data(p)
					if data.Index <= node.Index {
						continue
					}
					rj := f.radii[data.Index]
					r := ri + rj
					x := xi - data.X - data.VX
					y := yi - data.Y - data.VY
					l := x*x + y*y
					if l >= r*r {
						continue
					}
					if x == 0 {
						x = Jiggle(f.random)
						l += x * x
					}
					if y == 0 {
						y = Jiggle(f.random)
						l += y * y
					}
					l = math.Sqrt(l)
					l = (r - l) / l * f.strength
					x *= l
					y *= l

					// The smaller disk takes the larger share.
					rj2 := rj * rj
					share := rj2 / (ri2 + rj2)
					node.VX += x * share
					node.VY += y * share
					share = 1 - share
					data.VX -= x * share
					data.VY -= y * share
				}
				return false
			})
		}
	}
}

func (f *Collide) prepare(id quadtree.NodeID, _, _, _, _ float64) bool {
	t := f.tree
	r := 0.0
	if t.IsLeaf(id) {
		for p := id; p != quadtree.Nil; p = t.Next(p) {
			r = math.Max(r, f.radii[t.Data(p).Index])
		}
	} else {
		for q := 0; q < 4; q++ {
			if c := t.Child(id, q); c != quadtree.Nil {
				r = math.Max(r, f.maxR[c])
			}
		}
	}
	f.maxR[id] = r
	return false
}
