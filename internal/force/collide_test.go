package force

import (
	"errors"
	"math"
	"testing"
)

func TestCollideSeparatesOverlappingPair(t *testing.T) {
	const r = 5.0
	a, b := at(0, 0), at(3, 1)
	sim := mustSimulation(t, []*Node{a, b}, WithRandomSource(fixedSource()))
	f, err := NewCollide(WithRadius(Constant(r)))
	mustAddForce(t, sim, "collide", f, err)

	sim.Tick(300)

	if d := distance(a, b); d < 2*r-1e-3 {
		t.Errorf("centers %f apart, want at least %f", d, 2*r)
	}
}

func TestCollideSmallerDiskMovesMore(t *testing.T) {
	radii := []float64{1, 4}
	nodes := indexed(at(0, 0), at(2, 1))
	f, err := NewCollide(WithRadius(func(n *Node) float64 { return radii[n.Index] }))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Initialize(nodes, fixedSource()); err != nil {
		t.Fatal(err)
	}
	f.Apply(1)

	small, large := speed(nodes[0]), speed(nodes[1])
	if large == 0 {
		t.Fatal("expected both disks to move")
	}
	if ratio := small / large; !near(ratio, 16, 1e-9) {
		t.Errorf("speed ratio small/large = %g, want 16", ratio)
	}
	if !near(nodes[0].VX, -16*nodes[1].VX, 1e-9) || !near(nodes[0].VY, -16*nodes[1].VY, 1e-9) {
		t.Errorf("pushes are not opposite: (%g,%g) vs (%g,%g)", nodes[0].VX, nodes[0].VY, nodes[1].VX, nodes[1].VY)
	}
}

func TestCollideCoincidentNodes(t *testing.T) {
	nodes := indexed(at(5, 5), at(5, 5), at(5, 5))
	f, err := NewCollide(WithRadius(Constant(2)))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Initialize(nodes, NewSeededSource(3)); err != nil {
		t.Fatal(err)
	}
	f.Apply(1)
	for i, n := range nodes {
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			t.Fatalf("node %d velocity is NaN", i)
		}
		if speed(n) == 0 {
			t.Errorf("coincident node %d did not move", i)
		}
	}
}

func TestCollideManyNodesNoOverlap(t *testing.T) {
	const r = 4.0
	nodes := make([]*Node, 30)
	for i := range nodes {
		nodes[i] = NewNode(i)
	}
	sim := mustSimulation(t, nodes, WithRandomSource(NewSeededSource(5)))
	f, err := NewCollide(WithRadius(Constant(r)), WithCollideIterations(2))
	mustAddForce(t, sim, "collide", f, err)

	sim.Tick(300)

	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if d := distance(nodes[i], nodes[j]); d < 2*r-0.2 {
				t.Errorf("nodes %d and %d overlap: %f apart", i, j, d)
			}
		}
	}
}

func TestCollideIgnoresNonOverlapping(t *testing.T) {
	nodes := indexed(at(0, 0), at(50, 50))
	f, err := NewCollide(WithRadius(Constant(10)))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Initialize(nodes, fixedSource()); err != nil {
		t.Fatal(err)
	}
	f.Apply(1)
	for i, n := range nodes {
		if n.VX != 0 || n.VY != 0 {
			t.Errorf("node %d moved without overlap", i)
		}
	}
}

func TestCollideOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  CollideOption
	}{
		{"strength above one", WithCollideStrength(1.5)},
		{"negative strength", WithCollideStrength(-0.1)},
		{"zero iterations", WithCollideIterations(0)},
		{"nil radius", WithRadius(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCollide(tt.opt); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}
