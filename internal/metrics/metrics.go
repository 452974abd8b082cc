package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Layout computation metrics
	LayoutComputationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layout_computations_total",
			Help: "Total number of layout computations",
		},
		[]string{"status"}, // status: success, invalid, timeout, canceled, failed
	)

	LayoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "layout_duration_seconds",
			Help:    "Wall-clock duration of layout computations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	LayoutTicks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "layout_ticks",
			Help:    "Number of simulation ticks run per computation",
			Buckets: []float64{1, 10, 50, 100, 200, 300, 500, 1000},
		},
	)

	LayoutNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "layout_nodes",
			Help:    "Number of nodes per layout request",
			Buckets: prometheus.ExponentialBuckets(10, 4, 6), // 10 .. 10240
		},
	)

	// Result cache metrics
	LayoutCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layout_cache_lookups_total",
			Help: "Layout result cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	LayoutCacheItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_cache_items",
			Help: "Approximate number of cached layout results",
		},
	)

	LayoutCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layout_cache_bytes",
			Help: "Approximate size of cached layout results in bytes",
		},
	)

	// Live stream metrics
	StreamSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_sessions_active",
			Help: "Number of active live layout WebSocket sessions",
		},
	)

	StreamFramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_frames_sent_total",
			Help: "Total number of layout frames sent to WebSocket clients",
		},
	)

	StreamCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_commands_total",
			Help: "Interaction commands received from WebSocket clients",
		},
		[]string{"type"}, // type: grab, drag, drop, reheat, invalid
	)

	// API request metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 30},
		},
		[]string{"endpoint", "method", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"}, // scope: global, ip
	)

	PanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "panics_recovered_total",
			Help: "Panics recovered in HTTP handlers and layout computations",
		},
	)
)
