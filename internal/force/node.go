package force

import "math"

// Node is a particle moved by the simulation. Renderers read X and Y after
// each tick. FX and FY pin the node: while set, the integrator copies them
// into X and Y instead of applying velocity.
type Node struct {
	X, Y   float64
	VX, VY float64
	FX, FY *float64

	// Index is the node's position in the simulation's node slice. It is
	// reassigned whenever that slice changes structurally.
	Index int

	// Data is an opaque payload owned by the caller.
	Data any
}

// NewNode returns a node with undefined position and velocity, so the
// simulation places it on the initial spiral when it is added.
func NewNode(data any) *Node {
	nan := math.NaN()
	return &Node{X: nan, Y: nan, VX: nan, VY: nan, Data: data}
}

// Fix pins the node at (x, y).
func (n *Node) Fix(x, y float64) {
	n.FX, n.FY = &x, &y
}

// Release removes any pin.
func (n *Node) Release() {
	n.FX, n.FY = nil, nil
}

// Fixed reports whether either coordinate is pinned.
func (n *Node) Fixed() bool {
	return n.FX != nil || n.FY != nil
}

// Link is an edge between two nodes of the same simulation.
type Link struct {
	Source, Target *Node

	// Index is the link's position in its LinkForce.
	Index int

	Data any
}

func nodeX(n *Node) float64 { return n.X }
func nodeY(n *Node) float64 { return n.Y }

// Look-ahead position: where the node will be after integrating the
// velocity accumulated so far this tick.
func nextX(n *Node) float64 { return n.X + n.VX }
func nextY(n *Node) float64 { return n.Y + n.VY }
