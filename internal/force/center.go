package force

import "fmt"

// Center translates all nodes so their mean position sits at (cx, cy).
// It moves positions directly and leaves velocities and relative
// positions untouched.
type Center struct {
	nodes    []*Node
	cx, cy   float64
	strength float64
}

// CenterOption configures a Center force.
type CenterOption func(*Center) error

// WithCenterStrength scales the translation applied each tick. Default 1.
func WithCenterStrength(s float64) CenterOption {
	return func(f *Center) error {
		if !(s >= 0) {
			return fmt.Errorf("%w: center strength must be non-negative, got %v", ErrInvalidArgument, s)
		}
		f.strength = s
		return nil
	}
}

// NewCenter creates a centering force.
func NewCenter(cx, cy float64, opts ...CenterOption) (*Center, error) {
	f := &Center{cx: cx, cy: cy, strength: 1}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Center) Kind() Kind { return KindCenter }
func (f *Center) sealed()    {}

func (f *Center) Initialize(nodes []*Node, _ RandomSource) error {
	if _, err := bind(nodes, nil); err != nil {
		return err
	}
	f.nodes = nodes
	return nil
}

func (f *Center) Apply(float64) {
	n := len(f.nodes)
	if n == 0 {
		return
	}
	var sx, sy float64
	for _, node := range f.nodes {
		sx += node.X
		sy += node.Y
	}
	sx = (sx/float64(n) - f.cx) * f.strength
	sy = (sy/float64(n) - f.cy) * f.strength
	for _, node := range f.nodes {
		node.X -= sx
		node.Y -= sy
	}
}
