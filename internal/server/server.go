package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/force-layout/internal/api"
	"github.com/onnwee/force-layout/internal/api/handlers"
	"github.com/onnwee/force-layout/internal/cache"
	"github.com/onnwee/force-layout/internal/config"
	"github.com/onnwee/force-layout/internal/layout"
	"github.com/onnwee/force-layout/internal/logger"
	"github.com/onnwee/force-layout/internal/metrics"
	"github.com/onnwee/force-layout/internal/middleware"
)

const (
	collectInterval = 15 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Server wires the layout service, its cache and the HTTP surface.
type Server struct {
	cfg       *config.Config
	cache     *cache.LRUCache
	layout    *layout.Service
	collector *metrics.Collector
	limiter   *middleware.RateLimiter
	streams   *handlers.StreamHandler
	http      *http.Server
}

// New builds a server from configuration. Nothing is started until Run.
func New(cfg *config.Config) (*Server, error) {
	c, err := cache.NewLRU(cfg.LayoutCacheMB, cfg.LayoutCacheEntries, cfg.LayoutCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create layout cache: %w", err)
	}

	svc := layout.NewService(c, layout.OptionsFromConfig(cfg))
	maxBody := cfg.MaxRequestBodyMB * 1024 * 1024

	s := &Server{
		cfg:       cfg,
		cache:     c,
		layout:    svc,
		collector: metrics.NewCollector(c, collectInterval),
		streams: handlers.NewStreamHandler(svc, handlers.StreamOptions{
			FrameInterval:  cfg.StreamFrameInterval,
			MaxSessions:    cfg.StreamMaxSessions,
			MaxGraphBytes:  maxBody,
			AllowedOrigins: cfg.CORSAllowedOrigins,
		}),
	}
	if cfg.EnableRateLimit {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst, cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst)
	}

	router := api.NewRouter(api.Deps{
		Layout:       svc,
		Streams:      s.streams,
		RateLimiter:  s.limiter,
		CORS:         middleware.CORSConfigFor(cfg.CORSAllowedOrigins),
		MaxBodyBytes: maxBody,
		Version:      cfg.ServiceVersion,
	})

	s.http = &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Layout requests may run up to the computation timeout.
		WriteTimeout: cfg.LayoutTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.collector.Start(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Server listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

// ListenAndRun listens on the configured address and calls Run.
func (s *Server) ListenAndRun(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ServerAddr)
	if err != nil {
		_ = s.shutdown()
		return fmt.Errorf("listen on %s: %w", s.cfg.ServerAddr, err)
	}
	return s.Run(ctx, ln)
}

// shutdown ends live sessions, drains HTTP requests and releases
// background resources.
func (s *Server) shutdown() error {
	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.streams.Close()
	err := s.http.Shutdown(ctx)
	s.collector.Stop()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.cache.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
