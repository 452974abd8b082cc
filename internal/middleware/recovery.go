package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/onnwee/force-layout/internal/apierr"
	"github.com/onnwee/force-layout/internal/errorreporting"
	"github.com/onnwee/force-layout/internal/logger"
	"github.com/onnwee/force-layout/internal/metrics"
)

// RecoverWithSentry recovers from panics, reports them to Sentry and
// answers with a structured 500.
func RecoverWithSentry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// Let net/http abort the connection as it normally would.
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			p := &errorreporting.PanicError{Value: rec, Stack: debug.Stack()}
			metrics.PanicsRecovered.Inc()

			logger.ErrorContext(r.Context(), "Panic recovered",
				"error", fmt.Sprint(rec),
				"stack", string(p.Stack),
				"method", r.Method,
				"path", r.URL.Path,
			)

			errorreporting.CapturePanic(p, map[string]string{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": apierr.GetRequestID(r.Context()),
			})

			apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		}()

		next.ServeHTTP(w, r)
	})
}
