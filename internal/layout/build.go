package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/onnwee/force-layout/internal/force"
)

// Force names in evaluation order.
const (
	ForceLink    = "link"
	ForceCharge  = "charge"
	ForceCollide = "collide"
	ForceX       = "x"
	ForceY       = "y"
	ForceRadial  = "radial"
	ForceCenter  = "center"
)

// Defaults fill parameters a document leaves out.
type Defaults struct {
	Iterations   int
	Theta        float64
	Charge       float64
	LinkDistance float64
	Workers      int
}

// model is a simulation built from a document, with the node order of the
// document preserved so results can be reported by id.
type model struct {
	sim        *force.Simulation
	nodes      []*force.Node
	ids        []string
	iterations int
}

func (m *model) positions() []NodePosition {
	out := make([]NodePosition, len(m.nodes))
	for i, n := range m.nodes {
		out[i] = NodePosition{ID: m.ids[i], X: n.X, Y: n.Y, VX: n.VX, VY: n.VY}
	}
	return out
}

// build turns a validated document into a simulation with its forces
// registered in the order link, charge, collide, x, y, radial, center.
func build(g *Graph, d Defaults) (*model, error) {
	p := g.Params
	m := &model{
		nodes:      make([]*force.Node, len(g.Nodes)),
		ids:        make([]string, len(g.Nodes)),
		iterations: d.Iterations,
	}
	if p.Iterations > 0 {
		m.iterations = p.Iterations
	}

	byID := make(map[string]*force.Node, len(g.Nodes))
	for i, spec := range g.Nodes {
		n := force.NewNode(i)
		if spec.X != nil {
			n.X = *spec.X
		}
		if spec.Y != nil {
			n.Y = *spec.Y
		}
		if spec.FX != nil {
			fx := *spec.FX
			n.FX = &fx
		}
		if spec.FY != nil {
			fy := *spec.FY
			n.FY = &fy
		}
		m.nodes[i] = n
		m.ids[i] = spec.ID
		byID[spec.ID] = n
	}

	simOpts := []force.SimulationOption{}
	if p.Seed != nil {
		simOpts = append(simOpts, force.WithRandomSource(force.NewSeededSource(*p.Seed)))
	}
	for _, o := range []struct {
		v   *float64
		opt func(float64) force.SimulationOption
	}{
		{p.Alpha, force.WithAlpha},
		{p.AlphaMin, force.WithAlphaMin},
		{p.AlphaDecay, force.WithAlphaDecay},
		{p.AlphaTarget, force.WithAlphaTarget},
		{p.VelocityDecay, force.WithVelocityDecay},
	} {
		if o.v != nil {
			simOpts = append(simOpts, o.opt(*o.v))
		}
	}

	sim, err := force.NewSimulation(m.nodes, simOpts...)
	if err != nil {
		return nil, invalid(err)
	}
	m.sim = sim

	if len(g.Links) > 0 {
		if err := addLinkForce(sim, g, byID, d); err != nil {
			return nil, err
		}
	}
	if err := addChargeForce(sim, g, d); err != nil {
		return nil, err
	}
	if p.Collide {
		if err := addCollideForce(sim, g); err != nil {
			return nil, err
		}
	}
	if p.Gravity > 0 {
		pull := force.WithPullStrength(force.Constant(p.Gravity))
		fx, err := force.NewX(force.Constant(p.CenterX), pull)
		if err != nil {
			return nil, invalid(err)
		}
		fy, err := force.NewY(force.Constant(p.CenterY), pull)
		if err != nil {
			return nil, invalid(err)
		}
		if err := sim.AddForce(ForceX, fx); err != nil {
			return nil, invalid(err)
		}
		if err := sim.AddForce(ForceY, fy); err != nil {
			return nil, invalid(err)
		}
	}
	if r := p.Radial; r != nil {
		var opts []force.PullOption
		if r.Strength != nil {
			opts = append(opts, force.WithPullStrength(force.Constant(*r.Strength)))
		}
		fr, err := force.NewRadial(force.Constant(r.Radius), r.X, r.Y, opts...)
		if err != nil {
			return nil, invalid(err)
		}
		if err := sim.AddForce(ForceRadial, fr); err != nil {
			return nil, invalid(err)
		}
	}
	center, err := force.NewCenter(p.CenterX, p.CenterY)
	if err != nil {
		return nil, invalid(err)
	}
	if err := sim.AddForce(ForceCenter, center); err != nil {
		return nil, invalid(err)
	}
	return m, nil
}

func addLinkForce(sim *force.Simulation, g *Graph, byID map[string]*force.Node, d Defaults) error {
	p := g.Params
	links := make([]*force.Link, len(g.Links))
	degree := make(map[*force.Node]int, len(g.Nodes))
	for i, spec := range g.Links {
		l := &force.Link{Source: byID[spec.Source], Target: byID[spec.Target], Data: i}
		degree[l.Source]++
		degree[l.Target]++
		links[i] = l
	}

	distance := d.LinkDistance
	if p.LinkDistance != nil {
		distance = *p.LinkDistance
	}
	opts := []force.LinkOption{
		force.WithDistance(func(l *force.Link) float64 {
			if v := g.Links[l.Data.(int)].Distance; v != nil {
				return *v
			}
			return distance
		}),
		// Per-link and document strengths override the degree based default.
		force.WithLinkStrength(func(l *force.Link) float64 {
			if v := g.Links[l.Data.(int)].Strength; v != nil {
				return *v
			}
			if p.LinkStrength != nil {
				return *p.LinkStrength
			}
			return 1 / float64(min(degree[l.Source], degree[l.Target]))
		}),
	}
	if p.LinkIterations > 0 {
		opts = append(opts, force.WithIterations(p.LinkIterations))
	}
	lf, err := force.NewLink(links, opts...)
	if err != nil {
		return invalid(err)
	}
	return invalid(sim.AddForce(ForceLink, lf))
}

func addChargeForce(sim *force.Simulation, g *Graph, d Defaults) error {
	p := g.Params
	charge := d.Charge
	if p.Charge != nil {
		charge = *p.Charge
	}
	theta := d.Theta
	if p.Theta != nil {
		theta = *p.Theta
	}
	opts := []force.ManyBodyOption{
		force.WithStrength(func(n *force.Node) float64 {
			if v := g.Nodes[n.Data.(int)].Strength; v != nil {
				return *v
			}
			return charge
		}),
		force.WithTheta(theta),
	}
	if p.DistanceMin != nil {
		opts = append(opts, force.WithDistanceMin(*p.DistanceMin))
	}
	if p.DistanceMax != nil {
		opts = append(opts, force.WithDistanceMax(*p.DistanceMax))
	}
	if d.Workers > 1 {
		opts = append(opts, force.WithWorkers(d.Workers))
	}
	mb, err := force.NewManyBody(opts...)
	if err != nil {
		return invalid(err)
	}
	return invalid(sim.AddForce(ForceCharge, mb))
}

func addCollideForce(sim *force.Simulation, g *Graph) error {
	p := g.Params
	radius := 1.0
	if p.CollideRadius != nil {
		radius = *p.CollideRadius
	}
	opts := []force.CollideOption{
		force.WithRadius(func(n *force.Node) float64 {
			if v := g.Nodes[n.Data.(int)].Radius; v != nil {
				return *v
			}
			return radius
		}),
	}
	if p.CollideStrength != nil {
		opts = append(opts, force.WithCollideStrength(*p.CollideStrength))
	}
	if p.CollideIterations > 0 {
		opts = append(opts, force.WithCollideIterations(p.CollideIterations))
	}
	cf, err := force.NewCollide(opts...)
	if err != nil {
		return invalid(err)
	}
	return invalid(sim.AddForce(ForceCollide, cf))
}

// invalid maps argument errors from the force engine onto ErrInvalidGraph.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, force.ErrInvalidArgument) {
		return fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}
	return err
}

// finitePositions reports whether every node ended with finite coordinates.
func (m *model) finitePositions() bool {
	for _, n := range m.nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			return false
		}
	}
	return true
}
