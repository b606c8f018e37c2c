package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of the named family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Authorization("granted")
	m.Authorization("denied")
	m.Redemption(ModeStream, "ok")
	m.SweepDeleted(3)
	m.SweepDeleted(0)
	m.UpstreamBytes(1024)

	require.Equal(t, 2.0, counterValue(t, reg, "luofilm_download_authorizations_total"))
	require.Equal(t, 1.0, counterValue(t, reg, "luofilm_download_redemptions_total"))
	require.Equal(t, 3.0, counterValue(t, reg, "luofilm_download_sweep_deleted_total"))
	require.Equal(t, 1024.0, counterValue(t, reg, "luofilm_upstream_bytes_total"))
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.Authorization("granted")
		m.Redemption(ModeValidate, "ok")
		m.SweepDeleted(1)
		m.UpstreamBytes(1)
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	require.NotNil(t, m.Middleware(func(*http.Request) string { return "" })(next))
}

func TestMiddlewareAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	h := m.Middleware(func(r *http.Request) string { return "GET /v1/plans" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/plans", nil))
	require.Equal(t, 1.0, counterValue(t, reg, "luofilm_http_requests_total"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	require.Contains(t, string(body), `luofilm_http_requests_total{method="GET",path="GET /v1/plans",status="418"} 1`)
	require.Contains(t, string(body), "luofilm_http_request_duration_seconds_bucket")
}
