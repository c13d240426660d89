package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesDomainCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.OutflowRejected()
	metrics.ObserveReport("ledger", "pdf", time.Now(), nil)
	metrics.ObserveReport("ledger", "pdf", time.Now(), errors.New("gotenberg down"))

	body := scrape(t, metrics)
	assert.Contains(t, body, "mstarsupply_outflow_rejections_total 1")
	assert.Contains(t, body, `mstarsupply_reports_total{format="pdf",status="success",variant="ledger"} 1`)
	assert.Contains(t, body, `mstarsupply_reports_total{format="pdf",status="failure",variant="ledger"} 1`)
	assert.Contains(t, body, `mstarsupply_report_duration_seconds_count{variant="ledger"} 2`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `mstarsupply_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `mstarsupply_http_request_duration_seconds_bucket{route="/test"`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.OutflowRejected()
	m.ObserveReport("ledger", "csv", time.Now(), nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
