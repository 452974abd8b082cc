package force

import (
	"fmt"
	"math"
)

// Radial pulls nodes toward a circle of the given radius around (cx, cy).
type Radial struct {
	pull
	nodes     []*Node
	radius    func(*Node) float64
	cx, cy    float64
	radii     []float64
	strengths []float64
}

// NewRadial creates a radial force. A NaN radius disables the force for
// that node.
func NewRadial(radius func(*Node) float64, cx, cy float64, opts ...PullOption) (*Radial, error) {
	if radius == nil {
		return nil, fmt.Errorf("%w: nil radius accessor", ErrInvalidArgument)
	}
	p, err := newPull(opts)
	if err != nil {
		return nil, err
	}
	return &Radial{pull: p, radius: radius, cx: cx, cy: cy}, nil
}

func (f *Radial) Kind() Kind { return KindRadial }
func (f *Radial) sealed()    {}

// Center returns the circle's center.
func (f *Radial) Center() (float64, float64) { return f.cx, f.cy }

// SetCenter moves the circle's center.
func (f *Radial) SetCenter(cx, cy float64) { f.cx, f.cy = cx, cy }

func (f *Radial) Initialize(nodes []*Node, _ RandomSource) error {
	if _, err := bind(nodes, nil); err != nil {
		return err
	}
	f.nodes = nodes
	f.radii = grow(f.radii, len(nodes))
	f.strengths = grow(f.strengths, len(nodes))
	for i, n := range nodes {
		f.radii[i] = f.radius(n)
		if math.IsNaN(f.radii[i]) {
			f.radii[i], f.strengths[i] = 0, 0
		} else {
			f.strengths[i] = f.strength(n)
		}
	}
	return nil
}

func (f *Radial) Apply(alpha float64) {
	for i, n := range f.nodes {
		dx := notZero(n.X-f.cx, 1e-6)
		dy := notZero(n.Y-f.cy, 1e-6)
		r := math.Sqrt(dx*dx + dy*dy)
		k := (f.radii[i] - r) * f.strengths[i] * alpha / r
		n.VX += dx * k
		n.VY += dy * k
	}
}

func notZero(v, ifZero float64) float64 {
	if v == 0 {
		return ifZero
	}
	return v
}
