package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/onnwee/force-layout/internal/errorreporting"
	"github.com/onnwee/force-layout/internal/force"
	"github.com/onnwee/force-layout/internal/logger"
	"github.com/onnwee/force-layout/internal/metrics"
)

// ErrAnimatorStopped is returned by Send once Run has returned.
var ErrAnimatorStopped = errors.New("animator stopped")

// CommandType names an interaction applied between ticks.
type CommandType string

const (
	CommandGrab   CommandType = "grab"
	CommandDrag   CommandType = "drag"
	CommandDrop   CommandType = "drop"
	CommandReheat CommandType = "reheat"
)

// Command is a client interaction. DX and DY apply to drag; Alpha to
// reheat (default 1).
type Command struct {
	Type  CommandType `json:"type"`
	ID    string      `json:"id,omitempty"`
	DX    float64     `json:"dx,omitempty"`
	DY    float64     `json:"dy,omitempty"`
	Alpha *float64    `json:"alpha,omitempty"`
}

// Frame is a snapshot taken after a tick.
type Frame struct {
	Seq       uint64         `json:"seq"`
	Alpha     float64        `json:"alpha"`
	Converged bool           `json:"converged"`
	Nodes     []NodePosition `json:"nodes"`
}

// Animator ticks a simulation on a timer and publishes a frame after every
// tick. Commands are queued and applied between ticks, so the simulation
// is only ever touched by the Run goroutine.
type Animator struct {
	model    *model
	byID     map[string]*force.Node
	interval time.Duration
	commands chan Command
	frames   chan Frame
	done     chan struct{}
	seq      uint64
	log      *slog.Logger
}

// NewAnimator validates g and prepares a live simulation. Call Run to
// start ticking.
func (s *Service) NewAnimator(g *Graph, interval time.Duration) (*Animator, error) {
	if err := g.Validate(s.opts.Limits); err != nil {
		return nil, err
	}
	if interval <= 0 {
		return nil, fmt.Errorf("frame interval must be positive, got %s", interval)
	}
	m, err := build(g, s.opts.Defaults)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*force.Node, len(m.nodes))
	for i, n := range m.nodes {
		byID[m.ids[i]] = n
	}
	return &Animator{
		model:    m,
		byID:     byID,
		interval: interval,
		commands: make(chan Command, 16),
		frames:   make(chan Frame),
		done:     make(chan struct{}),
		log:      logger.WithComponent("animator"),
	}, nil
}

// Frames returns the frame channel. It is closed when Run returns.
func (a *Animator) Frames() <-chan Frame { return a.frames }

// Send queues a command for the next gap between ticks.
func (a *Animator) Send(ctx context.Context, cmd Command) error {
	select {
	case a.commands <- cmd:
		return nil
	case <-a.done:
		return ErrAnimatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the simulation until ctx is done. Once a frame reports
// convergence and nothing keeps the simulation warm, Run idles until a
// command changes it.
func (a *Animator) Run(ctx context.Context) (err error) {
	defer close(a.frames)
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			p := &errorreporting.PanicError{Value: r, Stack: debug.Stack()}
			metrics.PanicsRecovered.Inc()
			errorreporting.CapturePanic(p, map[string]string{"component": "animator"})
			a.log.Error("panic in animator", "panic", fmt.Sprint(r))
			err = p
		}
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	sim := a.model.sim
	settled := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-a.commands:
			if a.apply(cmd) {
				settled = false
			}
		case <-ticker.C:
			if settled {
				continue
			}
			sim.Tick(1)
			if !a.publish(ctx) {
				return nil
			}
			settled = a.resting()
		}
	}
}

// resting reports whether the simulation has cooled and nothing keeps it warm.
func (a *Animator) resting() bool {
	sim := a.model.sim
	return sim.Converged() && sim.AlphaTarget() < sim.AlphaMin()
}

func (a *Animator) publish(ctx context.Context) bool {
	a.seq++
	f := Frame{
		Seq:       a.seq,
		Alpha:     a.model.sim.Alpha(),
		Converged: a.model.sim.Converged(),
		Nodes:     a.model.positions(),
	}
	select {
	case a.frames <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

// apply runs cmd against the simulation and reports whether it changed
// anything. Unknown commands and ids are logged and counted.
func (a *Animator) apply(cmd Command) bool {
	sim := a.model.sim
	if cmd.Type == CommandReheat {
		alpha := 1.0
		if cmd.Alpha != nil {
			alpha = *cmd.Alpha
		}
		if err := sim.SetAlpha(alpha); err != nil {
			a.reject(cmd, err.Error())
			return false
		}
		metrics.StreamCommandsTotal.WithLabelValues(string(cmd.Type)).Inc()
		return true
	}

	n, ok := a.byID[cmd.ID]
	if !ok {
		a.reject(cmd, "unknown node id")
		return false
	}
	switch cmd.Type {
	case CommandGrab:
		sim.Grab(n)
	case CommandDrag:
		sim.Drag(n, cmd.DX, cmd.DY)
	case CommandDrop:
		sim.Drop(n)
	default:
		a.reject(cmd, "unknown command type")
		return false
	}
	metrics.StreamCommandsTotal.WithLabelValues(string(cmd.Type)).Inc()
	return true
}

func (a *Animator) reject(cmd Command, reason string) {
	metrics.StreamCommandsTotal.WithLabelValues("invalid").Inc()
	a.log.Debug("ignoring command", "type", cmd.Type, "reason", reason)
}
