package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onnwee/force-layout/internal/apierr"
	"github.com/onnwee/force-layout/internal/errorreporting"
	"github.com/onnwee/force-layout/internal/layout"
	"github.com/onnwee/force-layout/internal/logger"
	"github.com/onnwee/force-layout/internal/middleware"
)

// LayoutComputer computes a layout for a graph document.
type LayoutComputer interface {
	Compute(ctx context.Context, g *layout.Graph) (*layout.Result, error)
}

// LayoutHandler serves one-shot layout computations.
type LayoutHandler struct {
	svc LayoutComputer
}

// NewLayoutHandler creates a new layout handler.
func NewLayoutHandler(svc LayoutComputer) *LayoutHandler {
	return &LayoutHandler{svc: svc}
}

// Compute lays out the posted graph document.
// POST /api/layout
func (h *LayoutHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var g layout.Graph
	if apiErr := middleware.DecodeJSON(r, &g); apiErr != nil {
		apierr.WriteErrorWithContext(w, r, apiErr)
		return
	}

	res, err := h.svc.Compute(r.Context(), &g)
	if err != nil {
		apierr.WriteErrorWithContext(w, r, layoutError(r.Context(), err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if res.Cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger.WarnContext(r.Context(), "Failed to write layout response", "error", err)
	}
}

// layoutError maps a layout service error onto an API error. Unexpected
// failures are reported to Sentry.
func layoutError(ctx context.Context, err error) *apierr.Error {
	var tooLarge *layout.TooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return apierr.LayoutTooLarge(tooLarge.Field, tooLarge.Count, tooLarge.Limit)
	case errors.Is(err, layout.ErrInvalidGraph):
		return apierr.LayoutInvalidGraph(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.LayoutTimeout("")
	case errors.Is(err, context.Canceled):
		return apierr.SystemTimeout("Request was canceled")
	default:
		errorreporting.CaptureErrorWithContext(err, map[string]string{
			"component":  "layout",
			"request_id": apierr.GetRequestID(ctx),
		}, nil)
		return apierr.LayoutFailed("")
	}
}
