package force

import (
	"math"
	"math/rand/v2"
	"testing"
)

// at returns a node at rest at (x, y).
func at(x, y float64) *Node {
	return &Node{X: x, Y: y}
}

func indexed(nodes ...*Node) []*Node {
	for i, n := range nodes {
		n.Index = i
	}
	return nodes
}

// scattered returns n indexed nodes placed uniformly in a square of the
// given side, reproducibly.
func scattered(n int, side float64, seed uint64) []*Node {
	r := rand.New(rand.NewPCG(seed, seed+1))
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = &Node{X: r.Float64() * side, Y: r.Float64() * side, Index: i}
	}
	return nodes
}

// fixedSource never returns 0.5, so Jiggle is never zero.
func fixedSource() RandomSource {
	return func() float64 { return 0.75 }
}

func speed(n *Node) float64 {
	return math.Hypot(n.VX, n.VY)
}

func distance(a, b *Node) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func mustSimulation(t testing.TB, nodes []*Node, opts ...SimulationOption) *Simulation {
	t.Helper()
	sim, err := NewSimulation(nodes, opts...)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return sim
}

func mustAddForce(t testing.TB, sim *Simulation, name string, f Force, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("create %s force: %v", name, err)
	}
	if err := sim.AddForce(name, f); err != nil {
		t.Fatalf("AddForce(%s): %v", name, err)
	}
}
