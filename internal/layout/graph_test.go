package layout

import (
	"errors"
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		graph Graph
	}{
		{"no nodes", Graph{}},
		{"empty id", Graph{Nodes: []NodeSpec{{ID: ""}}}},
		{"duplicate id", Graph{Nodes: []NodeSpec{{ID: "a"}, {ID: "a"}}}},
		{"unknown source", Graph{
			Nodes: []NodeSpec{{ID: "a"}},
			Links: []LinkSpec{{Source: "x", Target: "a"}},
		}},
		{"unknown target", Graph{
			Nodes: []NodeSpec{{ID: "a"}},
			Links: []LinkSpec{{Source: "a", Target: "x"}},
		}},
		{"nan position", Graph{Nodes: []NodeSpec{{ID: "a", X: ptr(math.NaN())}}}},
		{"infinite pin", Graph{Nodes: []NodeSpec{{ID: "a", FX: ptr(math.Inf(1))}}}},
		{"negative radius", Graph{Nodes: []NodeSpec{{ID: "a", Radius: ptr(-1.0)}}}},
		{"negative iterations", Graph{Nodes: []NodeSpec{{ID: "a"}}, Params: Params{Iterations: -1}}},
		{"negative theta", Graph{Nodes: []NodeSpec{{ID: "a"}}, Params: Params{Theta: ptr(-0.5)}}},
		{"alpha above one", Graph{Nodes: []NodeSpec{{ID: "a"}}, Params: Params{Alpha: ptr(1.5)}}},
		{"negative gravity", Graph{Nodes: []NodeSpec{{ID: "a"}}, Params: Params{Gravity: -1}}},
		{"infinite radial", Graph{Nodes: []NodeSpec{{ID: "a"}}, Params: Params{Radial: &RadialParams{Radius: math.Inf(1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.graph.Validate(Limits{})
			if !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("Validate() = %v, want ErrInvalidGraph", err)
			}
		})
	}
}

func TestValidateLimits(t *testing.T) {
	g := Graph{
		Nodes: []NodeSpec{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Links: []LinkSpec{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}},
	}

	var tooLarge *TooLargeError
	err := g.Validate(Limits{MaxNodes: 2})
	if !errors.As(err, &tooLarge) || tooLarge.Field != "nodes" || tooLarge.Limit != 2 {
		t.Fatalf("node limit: got %v", err)
	}
	if !errors.Is(err, ErrInvalidGraph) {
		t.Error("TooLargeError should match ErrInvalidGraph")
	}

	err = g.Validate(Limits{MaxNodes: 3, MaxLinks: 1})
	if !errors.As(err, &tooLarge) || tooLarge.Field != "links" || tooLarge.Count != 2 {
		t.Fatalf("link limit: got %v", err)
	}

	if err := g.Validate(Limits{MaxNodes: 3, MaxLinks: 2}); err != nil {
		t.Errorf("graph at the limits should validate: %v", err)
	}
}

func TestBuildForceOrder(t *testing.T) {
	g := triangle()
	g.Params.Collide = true
	g.Params.Gravity = 0.05
	g.Params.Radial = &RadialParams{Radius: 50}

	m, err := build(g, testOptions().Defaults)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{ForceLink, ForceCharge, ForceCollide, ForceX, ForceY, ForceRadial, ForceCenter}
	got := m.sim.ForceNames()
	if len(got) != len(want) {
		t.Fatalf("forces = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("force %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuildOptionalForces(t *testing.T) {
	g := &Graph{Nodes: []NodeSpec{{ID: "solo"}}}
	m, err := build(g, testOptions().Defaults)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := m.sim.ForceNames()
	if len(got) != 2 || got[0] != ForceCharge || got[1] != ForceCenter {
		t.Errorf("forces = %v, want [charge center]", got)
	}
}

func TestBuildMapsEngineErrors(t *testing.T) {
	g := triangle()
	g.Params.LinkIterations = 0
	g.Params.CollideIterations = 0
	g.Params.DistanceMin = ptr(-1.0)

	_, err := build(g, testOptions().Defaults)
	if !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("build() = %v, want ErrInvalidGraph", err)
	}
}

func TestBuildPlacesSpecifiedNodes(t *testing.T) {
	g := &Graph{Nodes: []NodeSpec{
		{ID: "placed", X: ptr(10.0), Y: ptr(-4.0)},
		{ID: "pinned", FX: ptr(1.0), FY: ptr(2.0)},
		{ID: "free"},
	}}
	m, err := build(g, testOptions().Defaults)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.nodes[0].X != 10 || m.nodes[0].Y != -4 {
		t.Errorf("placed node at (%v, %v), want (10, -4)", m.nodes[0].X, m.nodes[0].Y)
	}
	if m.nodes[1].X != 1 || m.nodes[1].Y != 2 {
		t.Errorf("pinned node at (%v, %v), want (1, 2)", m.nodes[1].X, m.nodes[1].Y)
	}
	if math.IsNaN(m.nodes[2].X) || math.IsNaN(m.nodes[2].Y) {
		t.Error("free node should be placed on the spiral")
	}
}
