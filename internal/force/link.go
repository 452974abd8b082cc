package force

import (
	"fmt"
	"math"
)

// LinkForce pulls linked nodes toward a target distance, like a spring.
// Each tick applies one explicit correction per link; the simulation's
// many ticks do the converging.
type LinkForce struct {
	nodes      []*Node
	links      []*Link
	random     RandomSource
	distance   func(*Link) float64
	strength   func(*Link) float64 // nil means the degree-based default
	iterations int

	count     []int
	bias      []float64
	strengths []float64
	distances []float64
}

// LinkOption configures a LinkForce.
type LinkOption func(*LinkForce) error

// WithDistance sets the per-link target distance. Default 30.
func WithDistance(fn func(*Link) float64) LinkOption {
	return func(f *LinkForce) error {
		if fn == nil {
			return fmt.Errorf("%w: nil distance accessor", ErrInvalidArgument)
		}
		f.distance = fn
		return nil
	}
}

// WithLinkStrength sets the per-link strength. The default is
// 1 / min(degree(source), degree(target)).
func WithLinkStrength(fn func(*Link) float64) LinkOption {
	return func(f *LinkForce) error {
		if fn == nil {
			return fmt.Errorf("%w: nil strength accessor", ErrInvalidArgument)
		}
		f.strength = fn
		return nil
	}
}

// WithIterations repeats the correction pass n times per tick. Default 1.
func WithIterations(n int) LinkOption {
	return func(f *LinkForce) error {
		if n < 1 {
			return fmt.Errorf("%w: iterations must be at least 1, got %d", ErrInvalidArgument, n)
		}
		f.iterations = n
		return nil
	}
}

// ConstantDistance returns a distance accessor yielding d for every link.
func ConstantDistance(d float64) func(*Link) float64 {
	return func(*Link) float64 { return d }
}

// NewLink creates a link force over links. Every link must have both
// endpoints set; membership in the simulation is checked on Initialize.
func NewLink(links []*Link, opts ...LinkOption) (*LinkForce, error) {
	if err := checkEndpoints(links); err != nil {
		return nil, err
	}
	f := &LinkForce{
		links:      links,
		distance:   ConstantDistance(30),
		iterations: 1,
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func checkEndpoints(links []*Link) error {
	for i, l := range links {
		if l == nil || l.Source == nil || l.Target == nil {
			return fmt.Errorf("%w: link %d is missing an endpoint", ErrInvalidArgument, i)
		}
	}
	return nil
}

func (f *LinkForce) Kind() Kind { return KindLink }
func (f *LinkForce) sealed()    {}

// Links returns the edge list.
func (f *LinkForce) Links() []*Link { return f.links }

// SetLinks replaces the edge list, rebuilding degrees and biases if the
// force is already bound to nodes.
func (f *LinkForce) SetLinks(links []*Link) error {
	if err := checkEndpoints(links); err != nil {
		return err
	}
	f.links = links
	if f.nodes != nil {
		return f.rebuild()
	}
	return nil
}

// Initialize indexes the links and recomputes degree, bias, strength and
// distance for each.
func (f *LinkForce) Initialize(nodes []*Node, random RandomSource) error {
	random, err := bind(nodes, random)
	if err != nil {
		return err
	}
	f.nodes = nodes
	f.random = random
	return f.rebuild()
}

func (f *LinkForce) rebuild() error {
	n, m := len(f.nodes), len(f.links)

	f.count = make([]int, n)
	for i, l := range f.links {
		for _, end := range [2]*Node{l.Source, l.Target} {
			if end.Index < 0 || end.Index >= n || f.nodes[end.Index] != end {
				return fmt.Errorf("%w: link %d references a node outside the simulation", ErrInvalidArgument, i)
			}
		}
		l.Index = i
		f.count[l.Source.Index]++
		f.count[l.Target.Index]++
	}

	f.bias = grow(f.bias, m)
	f.strengths = grow(f.strengths, m)
	f.distances = grow(f.distances, m)
	for i, l := range f.links {
		s, t := f.count[l.Source.Index], f.count[l.Target.Index]
		f.bias[i] = float64(s) / float64(s+t)
		if f.strength != nil {
			f.strengths[i] = f.strength(l)
		} else {
			f.strengths[i] = 1 / float64(min(s, t))
		}
		f.distances[i] = f.distance(l)
	}
	return nil
}

// Apply nudges both endpoints of every link toward the target distance,
// splitting the correction by bias so the better-connected end moves less.
func (f *LinkForce) Apply(alpha float64) {
	for k := 0; k < f.iterations; k++ {
		for i, link := range f.links {
			source, target := link.Source, link.Target

			x := target.X + target.VX - source.X - source.VX
			if math.IsNaN(x) || x == 0 {
				x = Jiggle(f.random)
			}
			y := target.Y + target.VY - source.Y - source.VY
			if math.IsNaN(y) || y == 0 {
				y = Jiggle(f.random)
			}

			l := math.Sqrt(x*x + y*y)
			l = (l - f.distances[i]) / l * alpha * f.strengths[i]
			x *= l
			y *= l

			b := f.bias[i]
			target.VX -= x * b
			target.VY -= y * b
			b = 1 - b
			source.VX += x * b
			source.VY += y * b
		}
	}
}
