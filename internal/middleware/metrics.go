package middleware

import (
	"net/http"
	"time"

	"github.com/passgen/passgen/internal/metrics"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			path := normalizePath(r.URL.Path)
			metrics.RecordRequest(r.Method, path, rw.statusCode, duration)
		})
	}
}

// knownPaths are reported as-is; anything else collapses into "/other"
// to keep label cardinality bounded.
var knownPaths = map[string]bool{
	"/health":           true,
	"/ready":            true,
	"/metrics":          true,
	"/api/v1/passwords": true,
	"/api/v1/charsets":  true,
	"/api/v1/stats":     true,
}

// normalizePath normalizes the URL path for metrics labels.
func normalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "/other"
}
