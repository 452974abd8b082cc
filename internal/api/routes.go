package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/force-layout/internal/api/handlers"
	"github.com/onnwee/force-layout/internal/layout"
	"github.com/onnwee/force-layout/internal/middleware"
)

// Deps are the collaborators the router serves.
type Deps struct {
	Layout       *layout.Service
	Streams      *handlers.StreamHandler // nil disables live sessions
	RateLimiter  *middleware.RateLimiter // nil disables rate limiting
	CORS         *middleware.CORSConfig
	MaxBodyBytes int64
	Version      string
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverWithSentry)
	r.Use(middleware.Instrument)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(d.CORS))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Limit)
	}

	// Health
	r.HandleFunc("/health", handlers.Health(d.Version)).Methods(http.MethodGet)

	// Metrics
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Layout
	layoutHandler := handlers.NewLayoutHandler(d.Layout)
	r.Handle("/api/layout",
		middleware.LimitRequestBody(d.MaxBodyBytes)(
			middleware.Compress(
				middleware.ETag(http.HandlerFunc(layoutHandler.Compute))))).
		Methods(http.MethodPost, http.MethodOptions)

	// Live layout sessions
	if d.Streams != nil {
		r.HandleFunc("/api/layout/stream", d.Streams.HandleWebSocket).Methods(http.MethodGet)
	}

	return r
}
