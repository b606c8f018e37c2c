// Package metrics holds the Prometheus instrumentation for the download
// service and exposes it at GET /metrics.
//
//	luofilm_download_authorizations_total{result}
//	luofilm_download_redemptions_total{mode,result}
//	luofilm_download_sweep_deleted_total
//	luofilm_upstream_bytes_total
//	luofilm_http_requests_total{method,path,status}
//	luofilm_http_request_duration_seconds{method,path}
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Redemption modes.
const (
	ModeValidate = "validate"
	ModeStream   = "stream"
)

// Metrics is a set of collectors bound to one registry. The zero of *Metrics
// (nil) is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	authorizations *prometheus.CounterVec
	redemptions    *prometheus.CounterVec
	sweepDeleted   prometheus.Counter
	upstreamBytes  prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg *prometheus.Registry) *Metrics {
	return newMetrics(reg, reg)
}

// Default registers with the process-wide default registry.
func Default() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func newMetrics(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		authorizations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "luofilm_download_authorizations_total",
			Help: "Download authorization attempts by result.",
		}, []string{"result"}),
		redemptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "luofilm_download_redemptions_total",
			Help: "Token redemptions by mode and result.",
		}, []string{"mode", "result"}),
		sweepDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "luofilm_download_sweep_deleted_total",
			Help: "Stale download tokens removed by the sweeper.",
		}),
		upstreamBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "luofilm_upstream_bytes_total",
			Help: "Bytes relayed from origin to clients.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "luofilm_http_requests_total",
			Help: "Total HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "luofilm_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) Authorization(result string) {
	if m == nil {
		return
	}
	m.authorizations.WithLabelValues(result).Inc()
}

func (m *Metrics) Redemption(mode, result string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) SweepDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sweepDeleted.Add(float64(n))
}

func (m *Metrics) UpstreamBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.upstreamBytes.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency. route maps a request to a
// low-cardinality label, typically the mux pattern.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			path := route(r)
			m.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
			m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
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
