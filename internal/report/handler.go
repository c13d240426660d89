package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/mstarsupply/mstarsupply/internal/export"
	"github.com/mstarsupply/mstarsupply/internal/platform/httpx"
	"github.com/mstarsupply/mstarsupply/internal/report/render"
)

// ReportService is the contract used by the HTTP handler.
type ReportService interface {
	LedgerPDF(ctx context.Context, p Period) ([]byte, error)
	LedgerHTML(ctx context.Context, p Period) ([]byte, error)
	ManagementPDF(ctx context.Context, p Period) ([]byte, error)
	ManagementHTML(ctx context.Context, p Period) ([]byte, error)
	CSV(ctx context.Context, p Period) ([]byte, error)
	XLSX(ctx context.Context, p Period) ([]byte, error)
	ChartSVG(ctx context.Context, p Period) ([]byte, error)
	Summary(ctx context.Context, p Period) (Summary, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var errorMappings = []httpx.Mapping{
	{Err: ErrInvalidPeriod, Status: http.StatusBadRequest, Title: "Invalid Period"},
	{Err: ErrNoMovement, Status: http.StatusNotFound, Title: "No Movement"},
	{Err: render.ErrRenderFailure, Status: http.StatusBadGateway, Title: "Render Failure"},
}

// Handler serves the printable reports and exports.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	rateLimit int
}

// NewHandler constructs the report HTTP handler. Document builds are limited
// to rateLimit requests per minute and client IP; zero disables the limit.
func NewHandler(logger *slog.Logger, service ReportService, rateLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rateLimit: rateLimit}
}

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Group(func(gr chi.Router) {
		if h.rateLimit > 0 {
			gr.Use(httprate.Limit(h.rateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
				}),
			))
		}
		gr.Get("/reports/{month}/{year}", h.handleLedger)
		gr.Get("/reports/management/{month}/{year}", h.handleManagement)
		gr.Get("/reports/{month}/{year}/csv", h.handleCSV)
		gr.Get("/reports/{month}/{year}/xlsx", h.handleXLSX)
		gr.Get("/charts/{month}/{year}", h.handleChart)
	})
	r.Get("/reports/{month}/{year}/summary", h.handleSummary)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	if wantsHTML(r) {
		h.respondHTML(w, "ledger html", func() ([]byte, error) { return h.service.LedgerHTML(r.Context(), p) })
		return
	}
	body, err := h.service.LedgerPDF(r.Context(), p)
	if err != nil {
		h.fail(w, "ledger pdf", err)
		return
	}
	h.attach(w, "application/pdf", LedgerFileName(p), body)
}

func (h *Handler) handleManagement(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	if wantsHTML(r) {
		h.respondHTML(w, "management html", func() ([]byte, error) { return h.service.ManagementHTML(r.Context(), p) })
		return
	}
	body, err := h.service.ManagementPDF(r.Context(), p)
	if err != nil {
		h.fail(w, "management pdf", err)
		return
	}
	h.attach(w, "application/pdf", ManagementFileName(p), body)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	body, err := h.service.CSV(r.Context(), p)
	if err != nil {
		h.fail(w, "csv export", err)
		return
	}
	h.attach(w, "text/csv; charset=utf-8", export.CSVFileName(p.Month, p.Year), body)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	body, err := h.service.XLSX(r.Context(), p)
	if err != nil {
		h.fail(w, "xlsx export", err)
		return
	}
	h.attach(w, xlsxContentType, export.XLSXFileName(p.Month, p.Year), body)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	body, err := h.service.ChartSVG(r.Context(), p)
	if err != nil {
		h.fail(w, "chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(body); err != nil {
		h.logError("stream chart", err)
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, ok := h.period(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), p)
	if err != nil {
		h.fail(w, "summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) (Period, bool) {
	p, err := ParsePeriod(chi.URLParam(r, "month"), chi.URLParam(r, "year"))
	if err != nil {
		httpx.RespondError(w, err, errorMappings...)
		return Period{}, false
	}
	return p, true
}

func (h *Handler) respondHTML(w http.ResponseWriter, op string, build func() ([]byte, error)) {
	body, err := build()
	if err != nil {
		h.fail(w, op, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(body); err != nil {
		h.logError("stream "+op, err)
	}
}

func (h *Handler) attach(w http.ResponseWriter, contentType, filename string, body []byte) {
	if err := httpx.Attachment(w, contentType, filename, body); err != nil {
		h.logError("stream "+filename, err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, ErrInvalidPeriod) && !errors.Is(err, ErrNoMovement) {
		h.logError(op, err)
	}
	httpx.RespondError(w, err, errorMappings...)
}

func (h *Handler) logError(op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
}

func wantsHTML(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), FormatHTML)
}

// LedgerFileName is the attachment name of the ledger PDF.
func LedgerFileName(p Period) string {
	return fmt.Sprintf("relatorio_%d_%d.pdf", p.Month, p.Year)
}

// ManagementFileName is the attachment name of the management PDF.
func ManagementFileName(p Period) string {
	return fmt.Sprintf("relatorio_gerencial_%d_%d.pdf", p.Month, p.Year)
}
