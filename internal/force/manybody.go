package force

import (
	"fmt"
	"math"

	"github.com/onnwee/force-layout/internal/quadtree"
	"golang.org/x/sync/errgroup"
)

// ManyBody applies pairwise attraction (positive strength) or repulsion
// (negative strength) between all nodes, approximated with Barnes-Hut over
// a quadtree rebuilt every tick.
type ManyBody struct {
	nodes     []*Node
	random    RandomSource
	strength  func(*Node) float64
	strengths []float64

	theta2       float64
	distanceMin2 float64
	distanceMax2 float64
	workers      int

	// Per-tick scratch, indexed by quadtree.NodeID.
	tree   *quadtree.Tree[*Node]
	value  []float64
	cx, cy []float64
}

// ManyBodyOption configures a ManyBody force.
type ManyBodyOption func(*ManyBody) error

// WithStrength sets the per-node strength accessor. Default -30.
func WithStrength(fn func(*Node) float64) ManyBodyOption {
	return func(f *ManyBody) error { return f.SetStrength(fn) }
}

// WithTheta sets the Barnes-Hut accuracy threshold. Default 0.9; 0 makes
// the computation exact.
func WithTheta(theta float64) ManyBodyOption {
	return func(f *ManyBody) error { return f.SetTheta(theta) }
}

// WithDistanceMin sets the distance below which forces are clamped.
// Default 1.
func WithDistanceMin(d float64) ManyBodyOption {
	return func(f *ManyBody) error { return f.SetDistanceMin(d) }
}

// WithDistanceMax sets the distance beyond which nodes do not interact.
// Default +Inf.
func WithDistanceMax(d float64) ManyBodyOption {
	return func(f *ManyBody) error { return f.SetDistanceMax(d) }
}

// WithWorkers spreads the per-node tree queries over n goroutines.
func WithWorkers(n int) ManyBodyOption {
	return func(f *ManyBody) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidArgument, n)
		}
		f.workers = n
		return nil
	}
}

// NewManyBody creates a many-body force.
func NewManyBody(opts ...ManyBodyOption) (*ManyBody, error) {
	f := &ManyBody{
		strength:     Constant(-30),
		theta2:       0.81,
		distanceMin2: 1,
		distanceMax2: math.Inf(1),
		workers:      1,
		tree:         quadtree.New(nodeX, nodeY),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *ManyBody) Kind() Kind { return KindManyBody }
func (f *ManyBody) sealed()    {}

// Initialize evaluates the strength accessor for every node.
func (f *ManyBody) Initialize(nodes []*Node, random RandomSource) error {
	random, err := bind(nodes, random)
	if err != nil {
		return err
	}
	f.nodes = nodes
	f.random = random
	f.initStrengths()
	return nil
}

func (f *ManyBody) initStrengths() {
	f.strengths = grow(f.strengths, len(f.nodes))
	for i, n := range f.nodes {
		f.strengths[i] = f.strength(n)
	}
}

// SetStrength replaces the strength accessor and re-evaluates it.
func (f *ManyBody) SetStrength(fn func(*Node) float64) error {
	if fn == nil {
		return fmt.Errorf("%w: nil strength accessor", ErrInvalidArgument)
	}
	f.strength = fn
	if f.nodes != nil {
		f.initStrengths()
	}
	return nil
}

// SetTheta sets the Barnes-Hut threshold.
func (f *ManyBody) SetTheta(theta float64) error {
	if !(theta >= 0) {
		return fmt.Errorf("%w: theta must be non-negative, got %v", ErrInvalidArgument, theta)
	}
	f.theta2 = theta * theta
	return nil
}

// SetDistanceMin sets the clamping distance.
func (f *ManyBody) SetDistanceMin(d float64) error {
	if !(d >= 0) {
		return fmt.Errorf("%w: distance min must be non-negative, got %v", ErrInvalidArgument, d)
	}
	f.distanceMin2 = d * d
	return nil
}

// SetDistanceMax sets the cut-off distance.
func (f *ManyBody) SetDistanceMax(d float64) error {
	if !(d > 0) {
		return fmt.Errorf("%w: distance max must be positive, got %v", ErrInvalidArgument, d)
	}
	f.distanceMax2 = d * d
	return nil
}

// Theta returns the Barnes-Hut threshold.
func (f *ManyBody) Theta() float64 { return math.Sqrt(f.theta2) }

// DistanceMin returns the clamping distance.
func (f *ManyBody) DistanceMin() float64 { return math.Sqrt(f.distanceMin2) }

// DistanceMax returns the cut-off distance.
func (f *ManyBody) DistanceMax() float64 { return math.Sqrt(f.distanceMax2) }

// Apply adds the many-body contribution to every node's velocity.
func (f *ManyBody) Apply(alpha float64) {
	if len(f.nodes) == 0 {
		return
	}
	f.accumulate()

	if f.workers <= 1 || len(f.nodes) < 2*f.workers {
		for _, node := range f.nodes {
			f.applyTo(node, alpha, f.random)
		}
		return
	}

	// Each goroutine only writes the velocities of its own slice of nodes;
	// the tree and its scratch arrays are read-only from here on. Chunk
	// sources are seeded in order from f.random, so a seeded simulation
	// stays reproducible for a given worker count.
	var g errgroup.Group
	g.SetLimit(f.workers)
	chunk := (len(f.nodes) + f.workers - 1) / f.workers
	for start := 0; start < len(f.nodes); start += chunk {
		part := f.nodes[start:min(start+chunk, len(f.nodes))]
		random := NewSeededSource(math.Float64bits(f.random()))
		g.Go(func() error {
			for _, node := range part {
				f.applyTo(node, alpha, random)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// accumulate rebuilds the tree and aggregates, bottom-up, each quad's
// total strength and strength-weighted centroid.
func (f *ManyBody) accumulate() {
	t := f.tree
	t.Reset()
	t.AddAll(f.nodes)
	f.value = grow(f.value, t.Len())
	f.cx = grow(f.cx, t.Len())
	f.cy = grow(f.cy, t.Len())

	t.VisitAfter(func(id quadtree.NodeID, _, _, _, _ float64) bool {
		var strength, weight, x, y float64
		if !t.IsLeaf(id) {
			for q := 0; q < 4; q++ {
				c := t.Child(id, q)
				if c == quadtree.Nil {
					continue
				}
				if w := math.Abs(f.value[c]); w != 0 {
					strength += f.value[c]
					weight += w
					x += w * f.cx[c]
					y += w * f.cy[c]
				}
			}
			f.cx[id] = x / weight
			f.cy[id] = y / weight
		} else {
			d := t.Data(id)
			f.cx[id], f.cy[id] = d.X, d.Y
			for l := id; l != quadtree.Nil; l = t.Next(l) {
				strength += f.strengths[t.Data(l).Index]
			}
		}
		f.value[id] = strength
		return false
	})
}

func (f *ManyBody) applyTo(node *Node, alpha float64, random RandomSource) {
	t := f.tree
	t.Visit(func(id quadtree.NodeID, x0, _, x1, _ float64) bool {
		v := f.value[id]
		if v == 0 || math.IsNaN(v) {
			return true
		}

		x := f.cx[id] - node.X
		y := f.cy[id] - node.Y
		w := x1 - x0
		l := x*x + y*y

		// Far enough away: treat the whole quad as one body.
		if w*w/f.theta2 < l {
			if l < f.distanceMax2 {
				x, y, l = f.separate(x, y, l, random)
				node.VX += x * v * alpha / l
				node.VY += y * v * alpha / l
			}
			return true
		}

		if !t.IsLeaf(id) || l >= f.distanceMax2 {
			return false
		}

		if t.Data(id) != node || t.Next(id) != quadtree.Nil {
			x, y, l = f.separate(x, y, l, random)
		}
		for p := id; p != quadtree.Nil; p = t.Next(p) {
			if d := t.Data(p); d != node {
				s := f.strengths[d.Index] * alpha / l
				node.VX += x * s
				node.VY += y * s
			}
		}
		return false
	})
}

// separate jiggles zero components and clamps short distances. l is the
// squared distance on entry; the clamp keeps the historical
// sqrt(distanceMin² * l) form.
func (f *ManyBody) separate(x, y, l float64, random RandomSource) (float64, float64, float64) {
	if x == 0 {
		x = Jiggle(random)
		l += x * x
	}
	if y == 0 {
		y = Jiggle(random)
		l += y * y
	}
	if l < f.distanceMin2 {
		l = math.Sqrt(f.distanceMin2 * l)
	}
	return x, y, l
}
