package layout

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ptr[T any](v T) *T { return &v }

// triangle returns a three node cycle with a fixed seed.
func triangle() *Graph {
	return &Graph{
		Nodes: []NodeSpec{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Links: []LinkSpec{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "a"},
		},
		Params: Params{Seed: ptr(uint64(7))},
	}
}

func testOptions() Options {
	return Options{
		Limits: Limits{MaxNodes: 100, MaxLinks: 200},
		Defaults: Defaults{
			Iterations:   300,
			Theta:        0.9,
			Charge:       -30,
			LinkDistance: 30,
			Workers:      1,
		},
	}
}
