package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileMetrics(t *testing.T) {
	m := New()

	m.CountAndMeasure().Done()
	m.CountAndMeasure().Done()
	m.ReconcileFailure("default/www", "status_update_failed")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.reconcileRuns))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reconcileFailures.WithLabelValues("default/www", "status_update_failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.reconcileDuration))

	expected := `
# HELP redirect_controller_reconcile_failures_total Failed reconciliation attempts by redirect and error kind.
# TYPE redirect_controller_reconcile_failures_total counter
redirect_controller_reconcile_failures_total{error="status_update_failed",instance="default/www"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "redirect_controller_reconcile_failures_total"))
}

func TestHTTPMetrics(t *testing.T) {
	m := New()

	m.HTTPRequest("a.example")
	m.HTTPRequest("a.example")
	m.HTTPFailure("b.example")

	expected := `
# HELP redirect_controller_http_failures_total Requests without a matching redirect by requested host.
# TYPE redirect_controller_http_failures_total counter
redirect_controller_http_failures_total{host="b.example"} 1
# HELP redirect_controller_http_requests_total Redirects served by requested host.
# TYPE redirect_controller_http_requests_total counter
redirect_controller_http_requests_total{host="a.example"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"redirect_controller_http_requests_total", "redirect_controller_http_failures_total"))
}

func TestLeaderGauge(t *testing.T) {
	m := New()
	assert.Equal(t, float64(0), testutil.ToFloat64(m.leader))
	m.SetLeader(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.leader))
	m.SetLeader(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.leader))
}

func TestHandlerExposesText(t *testing.T) {
	m := New()
	m.CountAndMeasure().Done()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "redirect_controller_reconcile_runs_total 1")
	assert.Contains(t, rec.Body.String(), "redirect_controller_reconcile_duration_seconds_bucket")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
