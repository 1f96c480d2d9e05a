package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/oily/oily-api/infrastructure/service/logger"
	"github.com/oily/oily-api/infrastructure/service/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestObserver records latency per route template and logs each request.
func RequestObserver(authMetrics *metrics.AuthMetrics, log logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			elapsed := time.Since(started)
			authMetrics.HTTPRequest(r.Method, route, rec.status, elapsed)
			log.Info(r.Context(), "HTTP request handled", map[string]interface{}{
				"method":      r.Method,
				"route":       route,
				"status":      rec.status,
				"duration_ms": elapsed.Milliseconds(),
			})
		})
	}
}
