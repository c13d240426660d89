package report

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstarsupply/mstarsupply/internal/report/render"
)

type stubReports struct {
	err    error
	period Period
	called string
}

func (s *stubReports) result(name string, p Period, body string) ([]byte, error) {
	s.called, s.period = name, p
	if s.err != nil {
		return nil, s.err
	}
	return []byte(body), nil
}

func (s *stubReports) LedgerPDF(_ context.Context, p Period) ([]byte, error) {
	return s.result("ledger_pdf", p, "%PDF")
}
func (s *stubReports) LedgerHTML(_ context.Context, p Period) ([]byte, error) {
	return s.result("ledger_html", p, "<html></html>")
}
func (s *stubReports) ManagementPDF(_ context.Context, p Period) ([]byte, error) {
	return s.result("management_pdf", p, "%PDF")
}
func (s *stubReports) ManagementHTML(_ context.Context, p Period) ([]byte, error) {
	return s.result("management_html", p, "<html></html>")
}
func (s *stubReports) CSV(_ context.Context, p Period) ([]byte, error) {
	return s.result("csv", p, "\ufeffCódigo\n")
}
func (s *stubReports) XLSX(_ context.Context, p Period) ([]byte, error) {
	return s.result("xlsx", p, "PK")
}
func (s *stubReports) ChartSVG(_ context.Context, p Period) ([]byte, error) {
	return s.result("chart", p, "<svg></svg>")
}
func (s *stubReports) Summary(_ context.Context, p Period) (Summary, error) {
	s.called, s.period = "summary", p
	return Summary{Period: p}, s.err
}

func serve(t *testing.T, svc ReportService, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, svc, 0).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerRoutesAndAttachments(t *testing.T) {
	cases := []struct {
		target      string
		called      string
		contentType string
		disposition string
	}{
		{"/reports/3/2024", "ledger_pdf", "application/pdf", `attachment; filename="relatorio_3_2024.pdf"`},
		{"/reports/3/2024?format=html", "ledger_html", "text/html; charset=utf-8", ""},
		{"/reports/management/3/2024", "management_pdf", "application/pdf", `attachment; filename="relatorio_gerencial_3_2024.pdf"`},
		{"/reports/management/3/2024?format=HTML", "management_html", "text/html; charset=utf-8", ""},
		{"/reports/3/2024/csv", "csv", "text/csv; charset=utf-8", `attachment; filename="relatorio_3_2024.csv"`},
		{"/reports/3/2024/xlsx", "xlsx", xlsxContentType, `attachment; filename="relatorio_3_2024.xlsx"`},
		{"/charts/3/2024", "chart", "image/svg+xml", ""},
		{"/reports/3/2024/summary", "summary", "application/json", ""},
	}
	for _, tc := range cases {
		svc := &stubReports{}
		rec := serve(t, svc, tc.target)
		require.Equal(t, http.StatusOK, rec.Code, tc.target)
		assert.Equal(t, tc.called, svc.called, tc.target)
		assert.Equal(t, march, svc.period, tc.target)
		assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"), tc.target)
		assert.Equal(t, tc.disposition, rec.Header().Get("Content-Disposition"), tc.target)
	}
}

func TestHandlerRejectsInvalidPeriod(t *testing.T) {
	for _, target := range []string{"/reports/13/2024", "/reports/0/2024/csv", "/charts/abc/2024", "/reports/3/20/summary"} {
		svc := &stubReports{}
		rec := serve(t, svc, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Empty(t, svc.called, target)
	}
}

func TestHandlerMapsServiceErrors(t *testing.T) {
	rec := serve(t, &stubReports{err: fmt.Errorf("%w: gotenberg response 500", render.ErrRenderFailure)}, "/reports/3/2024")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))

	rec = serve(t, &stubReports{err: ErrNoMovement}, "/charts/3/2024")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRateLimitsDocuments(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, &stubReports{}, 2).MountRoutes(r)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/reports/3/2024/csv", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
