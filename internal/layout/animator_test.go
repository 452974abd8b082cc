package layout

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastGraph cools in a few dozen ticks.
func fastGraph() *Graph {
	g := triangle()
	g.Params.AlphaDecay = ptr(0.2)
	return g
}

func startAnimator(t *testing.T, g *Graph) (*Animator, context.CancelFunc, <-chan error) {
	t.Helper()
	svc := NewService(nil, testOptions())
	a, err := svc.NewAnimator(g, time.Millisecond)
	if err != nil {
		t.Fatalf("NewAnimator: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	return a, cancel, done
}

// awaitConverged reads frames until one reports convergence.
func awaitConverged(t *testing.T, a *Animator) Frame {
	t.Helper()
	timeout := time.After(5 * time.Second)
	var last uint64
	for {
		select {
		case f, ok := <-a.Frames():
			if !ok {
				t.Fatal("frames closed before convergence")
			}
			if f.Seq != last+1 && last != 0 {
				t.Fatalf("frame seq %d after %d", f.Seq, last)
			}
			last = f.Seq
			if f.Converged {
				return f
			}
		case <-timeout:
			t.Fatal("animator did not converge")
		}
	}
}

func expectNoFrame(t *testing.T, a *Animator, wait time.Duration) {
	t.Helper()
	select {
	case f := <-a.Frames():
		t.Fatalf("unexpected frame %d while idle", f.Seq)
	case <-time.After(wait):
	}
}

func TestAnimatorConvergesAndIdles(t *testing.T) {
	a, cancel, done := startAnimator(t, fastGraph())

	f := awaitConverged(t, a)
	if len(f.Nodes) != 3 || f.Nodes[0].ID != "a" {
		t.Errorf("unexpected frame nodes %+v", f.Nodes)
	}
	expectNoFrame(t, a, 30*time.Millisecond)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if _, ok := <-a.Frames(); ok {
		t.Error("frames should be closed after Run returns")
	}
}

func TestAnimatorDragReheats(t *testing.T) {
	a, cancel, done := startAnimator(t, fastGraph())
	defer func() {
		cancel()
		<-done
	}()

	settled := awaitConverged(t, a)
	start := settled.Nodes[1]

	ctx := context.Background()
	if err := a.Send(ctx, Command{Type: CommandDrag, ID: "b", DX: 40, DY: -10}); err != nil {
		t.Fatalf("Send drag: %v", err)
	}

	select {
	case f := <-a.Frames():
		if f.Converged {
			t.Error("a held node should keep the simulation warm")
		}
		got := f.Nodes[1]
		if got.X != start.X+40 || got.Y != start.Y-10 {
			t.Errorf("dragged node at (%v, %v), want (%v, %v)", got.X, got.Y, start.X+40, start.Y-10)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no frame after drag")
	}

	// Held nodes keep alphaTarget above alphaMin; dropping lets it settle.
	if err := a.Send(ctx, Command{Type: CommandDrop, ID: "b"}); err != nil {
		t.Fatalf("Send drop: %v", err)
	}
	awaitConverged(t, a)
}

func TestAnimatorReheat(t *testing.T) {
	a, cancel, done := startAnimator(t, fastGraph())
	defer func() {
		cancel()
		<-done
	}()

	awaitConverged(t, a)
	if err := a.Send(context.Background(), Command{Type: CommandReheat, Alpha: ptr(0.5)}); err != nil {
		t.Fatalf("Send reheat: %v", err)
	}
	select {
	case f := <-a.Frames():
		if f.Converged || f.Alpha < 0.3 {
			t.Errorf("frame after reheat: alpha=%v converged=%v", f.Alpha, f.Converged)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no frame after reheat")
	}
}

func TestAnimatorIgnoresInvalidCommands(t *testing.T) {
	a, cancel, done := startAnimator(t, fastGraph())
	defer func() {
		cancel()
		<-done
	}()

	awaitConverged(t, a)
	ctx := context.Background()
	for _, cmd := range []Command{
		{Type: CommandGrab, ID: "missing"},
		{Type: "spin", ID: "a"},
		{Type: CommandReheat, Alpha: ptr(2.0)},
	} {
		if err := a.Send(ctx, cmd); err != nil {
			t.Fatalf("Send(%+v): %v", cmd, err)
		}
	}
	expectNoFrame(t, a, 30*time.Millisecond)
}

func TestAnimatorSendAfterStop(t *testing.T) {
	a, cancel, done := startAnimator(t, fastGraph())
	cancel()
	<-done

	// Fill the queue so Send can only observe the stop.
	for i := 0; i < cap(a.commands); i++ {
		a.commands <- Command{Type: CommandReheat}
	}
	err := a.Send(context.Background(), Command{Type: CommandReheat})
	if !errors.Is(err, ErrAnimatorStopped) {
		t.Errorf("Send after stop = %v, want ErrAnimatorStopped", err)
	}
}

func TestNewAnimatorErrors(t *testing.T) {
	svc := NewService(nil, testOptions())
	if _, err := svc.NewAnimator(&Graph{}, time.Millisecond); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("empty graph: got %v, want ErrInvalidGraph", err)
	}
	if _, err := svc.NewAnimator(triangle(), 0); err == nil {
		t.Error("zero interval should be rejected")
	}
}
