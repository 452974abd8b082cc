package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/onnwee/force-layout/internal/cache"
	"github.com/onnwee/force-layout/internal/config"
	"github.com/onnwee/force-layout/internal/errorreporting"
	"github.com/onnwee/force-layout/internal/logger"
	"github.com/onnwee/force-layout/internal/metrics"
	"github.com/onnwee/force-layout/internal/tracing"
)

const cacheNamespace = "layout"

// NodePosition is a node's final state.
type NodePosition struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Result is the outcome of one computation.
type Result struct {
	Nodes     []NodePosition `json:"nodes"`
	Ticks     int            `json:"ticks"`
	Alpha     float64        `json:"alpha"`
	Converged bool           `json:"converged"`
	ElapsedMS float64        `json:"elapsed_ms"`
	Cached    bool           `json:"-"` // served from the result cache
}

// Options configures a Service.
type Options struct {
	Limits   Limits
	Defaults Defaults
	Timeout  time.Duration // per computation; 0 means no deadline
	CacheTTL time.Duration
}

// OptionsFromConfig maps environment configuration onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Limits: Limits{MaxNodes: cfg.LayoutMaxNodes, MaxLinks: cfg.LayoutMaxLinks},
		Defaults: Defaults{
			Iterations:   cfg.LayoutIterations,
			Theta:        cfg.LayoutTheta,
			Charge:       cfg.LayoutCharge,
			LinkDistance: cfg.LayoutLinkDistance,
			Workers:      cfg.LayoutWorkers,
		},
		Timeout:  cfg.LayoutTimeout,
		CacheTTL: cfg.LayoutCacheTTL,
	}
}

// Service computes layouts for graph documents.
type Service struct {
	cache cache.Cache
	opts  Options
	log   *slog.Logger
}

// NewService creates a layout service. c may be nil to disable caching.
func NewService(c cache.Cache, opts Options) *Service {
	if opts.Defaults.Iterations < 1 {
		opts.Defaults.Iterations = 300
	}
	return &Service{
		cache: c,
		opts:  opts,
		log:   logger.WithComponent("layout"),
	}
}

// Limits returns the document size limits the service enforces.
func (s *Service) Limits() Limits { return s.opts.Limits }

// Compute validates g, runs the simulation until it converges or the
// iteration budget is spent, and returns the final positions. The context
// is checked between ticks; its error is wrapped so errors.Is matches it.
func (s *Service) Compute(ctx context.Context, g *Graph) (res *Result, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "layout.compute", trace.WithAttributes(
		attribute.Int("layout.nodes", len(g.Nodes)),
		attribute.Int("layout.links", len(g.Links)),
	))
	defer span.End()

	log := logger.WithRequestID(ctx).With("component", "layout")
	defer func() {
		status := statusOf(err)
		metrics.LayoutComputationsTotal.WithLabelValues(status).Inc()
		metrics.LayoutDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
			log.Warn("layout failed", "status", status, "error", errorreporting.ScrubPII(err.Error()))
		}
	}()

	if err := g.Validate(s.opts.Limits); err != nil {
		return nil, err
	}
	metrics.LayoutNodes.Observe(float64(len(g.Nodes)))

	key, err := s.cacheKey(g)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.lookup(key); ok {
		span.SetAttributes(attribute.Bool("layout.cache_hit", true))
		log.Debug("layout served from cache", "nodes", len(g.Nodes))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("layout.cache_hit", false))

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	res, err = s.run(ctx, g)
	if err != nil {
		return nil, err
	}
	res.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000

	metrics.LayoutTicks.Observe(float64(res.Ticks))
	span.SetAttributes(
		attribute.Int("layout.ticks", res.Ticks),
		attribute.Bool("layout.converged", res.Converged),
	)
	log.Info("layout computed",
		"nodes", len(res.Nodes),
		"links", len(g.Links),
		"ticks", res.Ticks,
		"converged", res.Converged,
		"elapsed_ms", res.ElapsedMS,
	)

	s.store(key, res)
	return res, nil
}

// run builds and ticks the simulation. A panic inside the engine is
// reported and returned as an error.
func (s *Service) run(ctx context.Context, g *Graph) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			p := &errorreporting.PanicError{Value: r, Stack: debug.Stack()}
			metrics.PanicsRecovered.Inc()
			errorreporting.CapturePanic(p, map[string]string{"component": "layout"})
			s.log.Error("panic during layout", "panic", fmt.Sprint(r))
			res, err = nil, fmt.Errorf("layout: %w", p)
		}
	}()

	m, err := build(g, s.opts.Defaults)
	if err != nil {
		return nil, err
	}

	ticks := 0
	for ticks < m.iterations && !m.sim.Converged() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("layout stopped after %d ticks: %w", ticks, err)
		}
		m.sim.Tick(1)
		ticks++
	}
	if !m.finitePositions() {
		return nil, errors.New("layout produced non-finite positions")
	}

	return &Result{
		Nodes:     m.positions(),
		Ticks:     ticks,
		Alpha:     m.sim.Alpha(),
		Converged: m.sim.Converged(),
	}, nil
}

func (s *Service) cacheKey(g *Graph) (string, error) {
	if s.cache == nil {
		return "", nil
	}
	canonical, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("encode graph for cache key: %w", err)
	}
	return cache.Key(cacheNamespace, canonical), nil
}

func (s *Service) lookup(key string) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok := s.cache.Get(key)
	if !ok {
		metrics.LayoutCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		s.log.Warn("dropping undecodable cache entry", "error", err)
		s.cache.Delete(key)
		metrics.LayoutCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.LayoutCacheLookups.WithLabelValues("hit").Inc()
	res.Cached = true
	return &res, true
}

func (s *Service) store(key string, res *Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		s.log.Warn("failed to encode layout result for cache", "error", err)
		return
	}
	s.cache.Set(key, data, s.opts.CacheTTL)
}

// statusOf labels a computation outcome for metrics.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidGraph):
		return "invalid"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "failed"
	}
}
