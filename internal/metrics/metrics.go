// Package metrics provides Prometheus metrics for sideload.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sideload_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sideload_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sideload_imports_total",
			Help: "Import attempts by outcome (ok or an error kind)",
		},
		[]string{"outcome"},
	)

	importBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sideload_import_bytes_total",
			Help: "Bytes placed into the storage area by imports",
		},
	)

	importDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sideload_import_duration_seconds",
			Help:    "Single file import duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sideload_import_batch_size",
			Help:    "Number of files per import batch",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	browseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sideload_browse_total",
			Help: "Directory listings by outcome",
		},
		[]string{"outcome"},
	)

	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sideload_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sideload_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"result"},
	)

	settingsReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sideload_settings_reloads_total",
			Help: "Settings file reloads",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordImport records one import attempt. outcome is "ok" or an error kind.
func RecordImport(outcome string, bytes int64, duration time.Duration) {
	importsTotal.WithLabelValues(outcome).Inc()
	importDuration.Observe(duration.Seconds())
	if bytes > 0 {
		importBytes.Add(float64(bytes))
	}
}

// RecordBatch records the size of an import batch.
func RecordBatch(size int) {
	batchSize.Observe(float64(size))
}

// RecordBrowse records a directory listing.
func RecordBrowse(outcome string) {
	browseTotal.WithLabelValues(outcome).Inc()
}

// SetSSEConnectionsActive sets the number of active SSE connections.
func SetSSEConnectionsActive(count int) {
	sseConnectionsActive.Set(float64(count))
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(result string) {
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordSettingsReload records a settings file reload.
func RecordSettingsReload(success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	settingsReloadsTotal.WithLabelValues(result).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request metrics labelled by the matched chi route
// pattern, keeping label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
