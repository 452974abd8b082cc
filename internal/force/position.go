package force

import (
	"fmt"
	"math"
)

// pull holds the per-node strength shared by the X, Y and Radial forces.
type pull struct {
	strength func(*Node) float64
}

// PullOption configures X, Y and Radial forces.
type PullOption func(*pull) error

// WithPullStrength sets the per-node strength accessor. Default 0.1.
func WithPullStrength(fn func(*Node) float64) PullOption {
	return func(p *pull) error {
		if fn == nil {
			return fmt.Errorf("%w: nil strength accessor", ErrInvalidArgument)
		}
		p.strength = fn
		return nil
	}
}

func newPull(opts []PullOption) (pull, error) {
	p := pull{strength: Constant(0.1)}
	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return pull{}, err
		}
	}
	return p, nil
}

// axis is the shared body of XForce and YForce.
type axis struct {
	pull
	nodes     []*Node
	target    func(*Node) float64
	targets   []float64
	strengths []float64
}

func newAxis(target func(*Node) float64, opts []PullOption) (axis, error) {
	if target == nil {
		return axis{}, fmt.Errorf("%w: nil target accessor", ErrInvalidArgument)
	}
	p, err := newPull(opts)
	if err != nil {
		return axis{}, err
	}
	return axis{pull: p, target: target}, nil
}

func (a *axis) initialize(nodes []*Node) error {
	if _, err := bind(nodes, nil); err != nil {
		return err
	}
	a.nodes = nodes
	a.targets = grow(a.targets, len(nodes))
	a.strengths = grow(a.strengths, len(nodes))
	for i, n := range nodes {
		a.targets[i] = a.target(n)
		if math.IsNaN(a.targets[i]) {
			a.targets[i], a.strengths[i] = 0, 0
		} else {
			a.strengths[i] = a.strength(n)
		}
	}
	return nil
}

// XForce pulls each node's x toward a target coordinate.
type XForce struct{ axis }

// NewX creates a force pulling nodes toward target(node) on the x axis.
// A NaN target disables the force for that node.
func NewX(target func(*Node) float64, opts ...PullOption) (*XForce, error) {
	a, err := newAxis(target, opts)
	if err != nil {
		return nil, err
	}
	return &XForce{a}, nil
}

func (f *XForce) Kind() Kind { return KindX }
func (f *XForce) sealed()    {}

func (f *XForce) Initialize(nodes []*Node, _ RandomSource) error {
	return f.initialize(nodes)
}

func (f *XForce) Apply(alpha float64) {
	for i, n := range f.nodes {
		n.VX += (f.targets[i] - n.X) * f.strengths[i] * alpha
	}
}

// YForce pulls each node's y toward a target coordinate.
type YForce struct{ axis }

// NewY creates a force pulling nodes toward target(node) on the y axis.
func NewY(target func(*Node) float64, opts ...PullOption) (*YForce, error) {
	a, err := newAxis(target, opts)
	if err != nil {
		return nil, err
	}
	return &YForce{a}, nil
}

func (f *YForce) Kind() Kind { return KindY }
func (f *YForce) sealed()    {}

func (f *YForce) Initialize(nodes []*Node, _ RandomSource) error {
	return f.initialize(nodes)
}

func (f *YForce) Apply(alpha float64) {
	for i, n := range f.nodes {
		n.VY += (f.targets[i] - n.Y) * f.strengths[i] * alpha
	}
}
