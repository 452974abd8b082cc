package config

import (
	"time"

	"github.com/onnwee/force-layout/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Env        string
	ServerAddr string

	// Layout computation limits and defaults
	LayoutMaxNodes     int
	LayoutMaxLinks     int
	LayoutIterations   int           // tick budget per computation
	LayoutTimeout      time.Duration // wall-clock budget per computation
	LayoutWorkers      int           // goroutines for many-body queries
	LayoutTheta        float64
	LayoutCharge       float64
	LayoutLinkDistance float64

	// Result cache
	LayoutCacheMB      int64
	LayoutCacheEntries int64
	LayoutCacheTTL     time.Duration

	// Live streaming
	StreamFrameInterval time.Duration
	StreamMaxSessions   int

	// Security settings
	RateLimitGlobal      float64 // requests per second globally
	RateLimitGlobalBurst int     // burst size for global rate limit
	RateLimitPerIP       float64 // requests per second per IP
	RateLimitPerIPBurst  int     // burst size for per-IP rate limit
	EnableRateLimit      bool
	CORSAllowedOrigins   []string
	MaxRequestBodyMB     int64

	// Observability settings
	LogLevel          string  // debug, info, warn, error
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint (host:port)
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
	SentrySampleRate  float64
	ServiceVersion    string
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	env := utils.GetEnvAsString("ENV", "development")
	version := utils.GetEnvAsString("SERVICE_VERSION", "dev")
	cached = &Config{
		Env:        env,
		ServerAddr: utils.GetEnvAsString("SERVER_ADDR", ":8080"),

		LayoutMaxNodes:     utils.GetEnvAsInt("LAYOUT_MAX_NODES", 5000),
		LayoutMaxLinks:     utils.GetEnvAsInt("LAYOUT_MAX_LINKS", 25000),
		LayoutIterations:   utils.GetEnvAsInt("LAYOUT_ITERATIONS", 300),
		LayoutTimeout:      utils.GetEnvAsMillis("LAYOUT_TIMEOUT_MS", 30000),
		LayoutWorkers:      utils.GetEnvAsInt("LAYOUT_WORKERS", 1),
		LayoutTheta:        utils.GetEnvAsFloat("LAYOUT_THETA", 0.9),
		LayoutCharge:       utils.GetEnvAsFloat("LAYOUT_CHARGE", -30),
		LayoutLinkDistance: utils.GetEnvAsFloat("LAYOUT_LINK_DISTANCE", 30),

		LayoutCacheMB:      int64(utils.GetEnvAsInt("LAYOUT_CACHE_MB", 64)),
		LayoutCacheEntries: int64(utils.GetEnvAsInt("LAYOUT_CACHE_ENTRIES", 1000)),
		LayoutCacheTTL:     utils.GetEnvAsMillis("LAYOUT_CACHE_TTL_MS", 600000),

		StreamFrameInterval: utils.GetEnvAsMillis("STREAM_FRAME_MS", 16),
		StreamMaxSessions:   utils.GetEnvAsInt("STREAM_MAX_SESSIONS", 32),

		// Layout requests are CPU heavy, so the limits sit well below a
		// typical read API.
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 50.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 100),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 5.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 10),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),
		CORSAllowedOrigins: utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS",
			[]string{"http://localhost:5173", "http://localhost:3000"}, ","),
		MaxRequestBodyMB: int64(utils.GetEnvAsInt("MAX_REQUEST_BODY_MB", 10)),

		LogLevel:          utils.GetEnvAsString("LOG_LEVEL", "info"),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      utils.GetEnvAsString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         utils.GetEnvAsString("SENTRY_DSN", ""),
		SentryEnvironment: utils.GetEnvAsString("SENTRY_ENVIRONMENT", env),
		SentryRelease:     utils.GetEnvAsString("SENTRY_RELEASE", version),
		SentrySampleRate:  utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
		ServiceVersion:    version,
	}

	if cached.LayoutWorkers < 1 {
		cached.LayoutWorkers = 1
	}
	if cached.LayoutIterations < 1 {
		cached.LayoutIterations = 1
	}
	return cached
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }
