package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGraph is returned for documents that cannot be laid out.
var ErrInvalidGraph = errors.New("invalid graph")

// TooLargeError reports a document above the service's node or link limit.
// It wraps ErrInvalidGraph.
type TooLargeError struct {
	Field string // "nodes" or "links"
	Count int
	Limit int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("invalid graph: %d %s exceeds the limit of %d", e.Count, e.Field, e.Limit)
}

func (e *TooLargeError) Unwrap() error { return ErrInvalidGraph }

// Graph is the JSON document accepted by the layout service.
type Graph struct {
	Nodes  []NodeSpec `json:"nodes"`
	Links  []LinkSpec `json:"links,omitempty"`
	Params Params     `json:"params,omitempty"`
}

// NodeSpec describes one node. Omitted coordinates are placed by the
// simulation. FX and FY pin the node.
type NodeSpec struct {
	ID       string   `json:"id"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	FX       *float64 `json:"fx,omitempty"`
	FY       *float64 `json:"fy,omitempty"`
	Radius   *float64 `json:"radius,omitempty"`   // collision radius
	Strength *float64 `json:"strength,omitempty"` // many-body charge
}

// LinkSpec connects two node ids.
type LinkSpec struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Distance *float64 `json:"distance,omitempty"`
	Strength *float64 `json:"strength,omitempty"`
}

// RadialParams enables a radial pull toward a circle.
type RadialParams struct {
	Radius   float64  `json:"radius"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Strength *float64 `json:"strength,omitempty"`
}

// Params tunes the simulation. Nil and zero fields fall back to the
// service defaults.
type Params struct {
	Iterations int `json:"iterations,omitempty"`

	Charge      *float64 `json:"charge,omitempty"`
	Theta       *float64 `json:"theta,omitempty"`
	DistanceMin *float64 `json:"distance_min,omitempty"`
	DistanceMax *float64 `json:"distance_max,omitempty"`

	LinkDistance   *float64 `json:"link_distance,omitempty"`
	LinkStrength   *float64 `json:"link_strength,omitempty"`
	LinkIterations int      `json:"link_iterations,omitempty"`

	Collide           bool     `json:"collide,omitempty"`
	CollideRadius     *float64 `json:"collide_radius,omitempty"`
	CollideStrength   *float64 `json:"collide_strength,omitempty"`
	CollideIterations int      `json:"collide_iterations,omitempty"`

	CenterX float64 `json:"center_x,omitempty"`
	CenterY float64 `json:"center_y,omitempty"`
	// Gravity is the strength of the x/y pull toward the center; 0 disables it.
	Gravity float64       `json:"gravity,omitempty"`
	Radial  *RadialParams `json:"radial,omitempty"`

	Alpha         *float64 `json:"alpha,omitempty"`
	AlphaMin      *float64 `json:"alpha_min,omitempty"`
	AlphaDecay    *float64 `json:"alpha_decay,omitempty"`
	AlphaTarget   *float64 `json:"alpha_target,omitempty"`
	VelocityDecay *float64 `json:"velocity_decay,omitempty"`

	// Seed makes jiggle deterministic so equal documents give equal results
	// on servers with the same worker count.
	Seed *uint64 `json:"seed,omitempty"`
}

// Limits bounds the size of accepted documents. Zero disables a limit.
type Limits struct {
	MaxNodes int
	MaxLinks int
}

// Validate checks ids, links and numeric parameters. Errors wrap
// ErrInvalidGraph.
func (g *Graph) Validate(lim Limits) error {
	if len(g.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidGraph)
	}
	if lim.MaxNodes > 0 && len(g.Nodes) > lim.MaxNodes {
		return &TooLargeError{Field: "nodes", Count: len(g.Nodes), Limit: lim.MaxNodes}
	}
	if lim.MaxLinks > 0 && len(g.Links) > lim.MaxLinks {
		return &TooLargeError{Field: "links", Count: len(g.Links), Limit: lim.MaxLinks}
	}

	seen := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has an empty id", ErrInvalidGraph, i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidGraph, n.ID)
		}
		seen[n.ID] = struct{}{}
		for _, v := range []*float64{n.X, n.Y, n.FX, n.FY, n.Strength} {
			if v != nil && !finite(*v) {
				return fmt.Errorf("%w: node %q has a non-finite value", ErrInvalidGraph, n.ID)
			}
		}
		if n.Radius != nil && (!finite(*n.Radius) || *n.Radius < 0) {
			return fmt.Errorf("%w: node %q radius must be a non-negative number", ErrInvalidGraph, n.ID)
		}
	}

	for i, l := range g.Links {
		if _, ok := seen[l.Source]; !ok {
			return fmt.Errorf("%w: link %d references unknown source %q", ErrInvalidGraph, i, l.Source)
		}
		if _, ok := seen[l.Target]; !ok {
			return fmt.Errorf("%w: link %d references unknown target %q", ErrInvalidGraph, i, l.Target)
		}
		if l.Distance != nil && !finite(*l.Distance) {
			return fmt.Errorf("%w: link %d distance is not finite", ErrInvalidGraph, i)
		}
		if l.Strength != nil && !finite(*l.Strength) {
			return fmt.Errorf("%w: link %d strength is not finite", ErrInvalidGraph, i)
		}
	}

	return g.Params.validate()
}

func (p *Params) validate() error {
	if p.Iterations < 0 {
		return fmt.Errorf("%w: iterations must not be negative", ErrInvalidGraph)
	}
	if p.LinkIterations < 0 || p.CollideIterations < 0 {
		return fmt.Errorf("%w: link and collide iterations must not be negative", ErrInvalidGraph)
	}
	if p.Theta != nil && (!finite(*p.Theta) || *p.Theta < 0) {
		return fmt.Errorf("%w: theta must be a non-negative number", ErrInvalidGraph)
	}
	for name, v := range map[string]*float64{
		"alpha":          p.Alpha,
		"alpha_min":      p.AlphaMin,
		"alpha_decay":    p.AlphaDecay,
		"alpha_target":   p.AlphaTarget,
		"velocity_decay": p.VelocityDecay,
	} {
		if v != nil && (math.IsNaN(*v) || *v < 0 || *v > 1) {
			return fmt.Errorf("%w: %s must be in [0, 1]", ErrInvalidGraph, name)
		}
	}
	if !finite(p.CenterX) || !finite(p.CenterY) || !finite(p.Gravity) || p.Gravity < 0 {
		return fmt.Errorf("%w: center and gravity must be finite, gravity non-negative", ErrInvalidGraph)
	}
	if r := p.Radial; r != nil && (!finite(r.Radius) || !finite(r.X) || !finite(r.Y)) {
		return fmt.Errorf("%w: radial parameters must be finite", ErrInvalidGraph)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
