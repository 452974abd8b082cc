// Package force implements a force-directed layout engine for 2-D nodes.
// A Simulation advances node positions by semi-implicit Euler integration;
// registered forces contribute velocity each tick.
package force

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidArgument reports programmer error: a nil node slice, a link
// to a node outside the simulation, or an out-of-range parameter.
var ErrInvalidArgument = errors.New("invalid argument")

// Kind identifies the concrete force behind a Force value.
type Kind int

const (
	KindManyBody Kind = iota
	KindLink
	KindCollide
	KindX
	KindY
	KindRadial
	KindCenter
)

func (k Kind) String() string {
	switch k {
	case KindManyBody:
		return "many_body"
	case KindLink:
		return "link"
	case KindCollide:
		return "collide"
	case KindX:
		return "x"
	case KindY:
		return "y"
	case KindRadial:
		return "radial"
	case KindCenter:
		return "center"
	default:
		return "unknown"
	}
}

// Force mutates node velocities (or, for Center, positions) once per
// tick. The set of forces is closed: only this package implements it.
type Force interface {
	Kind() Kind

	// Initialize binds the force to the simulation's nodes and rebuilds
	// every per-node auxiliary array. The simulation calls it whenever the
	// node slice changes structurally.
	Initialize(nodes []*Node, random RandomSource) error

	// Apply runs one step of the force at the given alpha.
	Apply(alpha float64)

	sealed()
}

// RandomSource returns uniformly distributed values in [0, 1).
type RandomSource func() float64

// DefaultSource draws from the process-wide generator. Results differ
// between runs.
func DefaultSource() RandomSource {
	return rand.Float64
}

// NewSeededSource returns a deterministic source for reproducible layouts.
// It is not safe for concurrent use.
func NewSeededSource(seed uint64) RandomSource {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return r.Float64
}

// Jiggle returns a tiny random offset used to separate coincident points.
func Jiggle(random RandomSource) float64 {
	return (random() - 0.5) * 1e-6
}

// Constant returns an accessor that yields v for every node.
func Constant(v float64) func(*Node) float64 {
	return func(*Node) float64 { return v }
}

func bind(nodes []*Node, random RandomSource) (RandomSource, error) {
	if nodes == nil {
		return nil, fmt.Errorf("%w: nil node slice", ErrInvalidArgument)
	}
	if random == nil {
		random = DefaultSource()
	}
	return random, nil
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
