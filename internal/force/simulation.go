package force

import (
	"fmt"
	"math"
	"slices"
)

const (
	DefaultAlpha         = 0.99
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.6

	// DragAlphaTarget keeps a simulation warm while a node is held.
	DragAlphaTarget = 0.3
)

// DefaultAlphaDecay cools alpha from 1 to DefaultAlphaMin in about 300 ticks.
var DefaultAlphaDecay = 1 - math.Pow(DefaultAlphaMin, 1.0/300)

// golden angle
var initialAngle = math.Pi * (3 - math.Sqrt(5))

type namedForce struct {
	name  string
	force Force
}

// Simulation owns an ordered node slice and an ordered list of forces and
// advances them one tick at a time. It is not safe for concurrent use;
// callers serialise ticks with structural changes.
type Simulation struct {
	nodes  []*Node
	forces []namedForce
	random RandomSource

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64
}

// SimulationOption configures a Simulation.
type SimulationOption func(*Simulation) error

func WithAlpha(v float64) SimulationOption {
	return func(s *Simulation) error { return s.SetAlpha(v) }
}

func WithAlphaMin(v float64) SimulationOption {
	return func(s *Simulation) error { return s.SetAlphaMin(v) }
}

func WithAlphaDecay(v float64) SimulationOption {
	return func(s *Simulation) error { return s.SetAlphaDecay(v) }
}

func WithAlphaTarget(v float64) SimulationOption {
	return func(s *Simulation) error { return s.SetAlphaTarget(v) }
}

// WithVelocityDecay sets the per-tick velocity multiplier. Default 0.6.
func WithVelocityDecay(v float64) SimulationOption {
	return func(s *Simulation) error { return s.SetVelocityDecay(v) }
}

// WithRandomSource replaces the jiggle source handed to every force.
func WithRandomSource(src RandomSource) SimulationOption {
	return func(s *Simulation) error {
		if src == nil {
			return fmt.Errorf("%w: nil random source", ErrInvalidArgument)
		}
		s.random = src
		return nil
	}
}

// NewSimulation takes ownership of nodes, assigning indices and placing
// any node without a position on the initial spiral.
func NewSimulation(nodes []*Node, opts ...SimulationOption) (*Simulation, error) {
	s := &Simulation{
		random:        DefaultSource(),
		alpha:         DefaultAlpha,
		alphaMin:      DefaultAlphaMin,
		alphaDecay:    DefaultAlphaDecay,
		velocityDecay: DefaultVelocityDecay,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if err := s.SetNodes(nodes); err != nil {
		return nil, err
	}
	return s, nil
}

// Nodes returns the node slice. Callers must not change its length.
func (s *Simulation) Nodes() []*Node { return s.nodes }

// SetNodes replaces every node and re-initialises all forces.
func (s *Simulation) SetNodes(nodes []*Node) error {
	if err := checkNodes(nodes); err != nil {
		return err
	}
	if nodes == nil {
		nodes = []*Node{}
	}
	s.nodes = nodes
	s.initNodes(0)
	return s.initForces()
}

// AddNodes appends nodes. Only the new tail is placed; existing nodes keep
// their positions.
func (s *Simulation) AddNodes(nodes ...*Node) error {
	if err := checkNodes(nodes); err != nil {
		return err
	}
	from := len(s.nodes)
	s.nodes = append(s.nodes, nodes...)
	s.initNodes(from)
	return s.initForces()
}

// RemoveNode removes n and reindexes every remaining node. It reports
// false if n is not part of the simulation. If a force still refers to n,
// such as a LinkForce, its error is returned and the simulation keeps n;
// drop those links first.
func (s *Simulation) RemoveNode(n *Node) (bool, error) {
	i := slices.Index(s.nodes, n)
	if i < 0 || n == nil {
		return false, nil
	}
	prev := s.nodes
	next := make([]*Node, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	s.nodes = append(next, prev[i+1:]...)
	s.initNodes(0)
	if err := s.initForces(); err != nil {
		s.nodes = prev
		s.initNodes(0)
		if rerr := s.initForces(); rerr != nil {
			return false, fmt.Errorf("%w; restore: %w", err, rerr)
		}
		return false, err
	}
	return true, nil
}

func checkNodes(nodes []*Node) error {
	for i, n := range nodes {
		if n == nil {
			return fmt.Errorf("%w: node %d is nil", ErrInvalidArgument, i)
		}
	}
	return nil
}

func (s *Simulation) initNodes(from int) {
	for i := from; i < len(s.nodes); i++ {
		n := s.nodes[i]
		n.Index = i
		if n.FX != nil {
			n.X = *n.FX
		}
		if n.FY != nil {
			n.Y = *n.FY
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			radius := 10 * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			n.X = radius * math.Cos(angle)
			n.Y = radius * math.Sin(angle)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
}

func (s *Simulation) initForces() error {
	for _, nf := range s.forces {
		if err := nf.force.Initialize(s.nodes, s.random); err != nil {
			return fmt.Errorf("initialize force %q: %w", nf.name, err)
		}
	}
	return nil
}

// AddForce registers f under name and binds it to the current nodes.
// Registering an existing name replaces that force in its original slot.
func (s *Simulation) AddForce(name string, f Force) error {
	if f == nil {
		return fmt.Errorf("%w: nil force %q", ErrInvalidArgument, name)
	}
	if err := f.Initialize(s.nodes, s.random); err != nil {
		return fmt.Errorf("initialize force %q: %w", name, err)
	}
	for i := range s.forces {
		if s.forces[i].name == name {
			s.forces[i].force = f
			return nil
		}
	}
	s.forces = append(s.forces, namedForce{name: name, force: f})
	return nil
}

// Force returns the force registered under name.
func (s *Simulation) Force(name string) (Force, bool) {
	for _, nf := range s.forces {
		if nf.name == name {
			return nf.force, true
		}
	}
	return nil, false
}

// ForceNames lists registered forces in evaluation order.
func (s *Simulation) ForceNames() []string {
	names := make([]string, len(s.forces))
	for i, nf := range s.forces {
		names[i] = nf.name
	}
	return names
}

func (s *Simulation) RemoveForce(name string) bool {
	for i, nf := range s.forces {
		if nf.name == name {
			s.forces = slices.Delete(s.forces, i, i+1)
			return true
		}
	}
	return false
}

// Tick advances the simulation k times. Each step moves alpha toward the
// target, runs every force in registration order and then integrates.
// Pinned nodes still decay their velocity but take their pinned position.
func (s *Simulation) Tick(k int) {
	for ; k > 0; k-- {
		s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

		for _, nf := range s.forces {
			nf.force.Apply(s.alpha)
		}

		for _, n := range s.nodes {
			n.VX *= s.velocityDecay
			n.VY *= s.velocityDecay
			if n.FX != nil {
				n.X = *n.FX
			} else {
				n.X += n.VX
			}
			if n.FY != nil {
				n.Y = *n.FY
			} else {
				n.Y += n.VY
			}
		}
	}
}

// Converged reports whether alpha has cooled below alphaMin. The driver
// decides whether to keep ticking.
func (s *Simulation) Converged() bool { return s.alpha < s.alphaMin }

func (s *Simulation) Alpha() float64         { return s.alpha }
func (s *Simulation) AlphaMin() float64      { return s.alphaMin }
func (s *Simulation) AlphaDecay() float64    { return s.alphaDecay }
func (s *Simulation) AlphaTarget() float64   { return s.alphaTarget }
func (s *Simulation) VelocityDecay() float64 { return s.velocityDecay }

func (s *Simulation) SetAlpha(v float64) error {
	if err := unit("alpha", v); err != nil {
		return err
	}
	s.alpha = v
	return nil
}

func (s *Simulation) SetAlphaMin(v float64) error {
	if err := unit("alpha min", v); err != nil {
		return err
	}
	s.alphaMin = v
	return nil
}

func (s *Simulation) SetAlphaDecay(v float64) error {
	if err := unit("alpha decay", v); err != nil {
		return err
	}
	s.alphaDecay = v
	return nil
}

func (s *Simulation) SetAlphaTarget(v float64) error {
	if err := unit("alpha target", v); err != nil {
		return err
	}
	s.alphaTarget = v
	return nil
}

// SetVelocityDecay sets the multiplier applied to every velocity each
// tick: 1 keeps all momentum, 0 removes it.
func (s *Simulation) SetVelocityDecay(v float64) error {
	if err := unit("velocity decay", v); err != nil {
		return err
	}
	s.velocityDecay = v
	return nil
}

func unit(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalidArgument, name, v)
	}
	return nil
}

// Find returns the node closest to (x, y) within radius, or nil. A
// radius <= 0 searches without limit.
func (s *Simulation) Find(x, y, radius float64) *Node {
	best := math.Inf(1)
	if radius > 0 {
		best = radius * radius
	}
	var closest *Node
	for _, n := range s.nodes {
		dx, dy := x-n.X, y-n.Y
		if d2 := dx*dx + dy*dy; d2 < best {
			best, closest = d2, n
		}
	}
	return closest
}

// Grab pins n where it is and keeps the simulation warm until Drop.
func (s *Simulation) Grab(n *Node) {
	n.Fix(n.X, n.Y)
	s.alphaTarget = DragAlphaTarget
}

// Drag moves n's pin by (dx, dy), grabbing it first if needed.
func (s *Simulation) Drag(n *Node, dx, dy float64) {
	if n.FX == nil || n.FY == nil {
		s.Grab(n)
	}
	n.Fix(*n.FX+dx, *n.FY+dy)
}

// Drop releases n and lets the simulation cool again.
func (s *Simulation) Drop(n *Node) {
	n.Release()
	s.alphaTarget = 0
}
