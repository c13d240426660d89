package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mstarsupply/mstarsupply/internal/chart/svg"
	"github.com/mstarsupply/mstarsupply/internal/export"
	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/report/render"
	"github.com/mstarsupply/mstarsupply/internal/stock"
)

// ErrNoMovement is returned by builds that need at least one moved item.
var ErrNoMovement = errors.New("report: no movement in period")

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatSVG  = "svg"
)

// Observer records report builds.
type Observer interface {
	ObserveReport(variant, format string, start time.Time, err error)
}

// Service loads ledger snapshots and turns them into documents and exports.
type Service struct {
	store    ledger.Store
	cache    *Cache
	pdf      render.Converter
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

// WithConverter enables PDF output.
func WithConverter(c render.Converter) Option {
	return func(s *Service) { s.pdf = c }
}

// WithObserver records build metrics.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithNow overrides the clock printed in report footers.
func WithNow(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService wires the report service. cache may be nil.
func NewService(store ledger.Store, cache *Cache, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot loads the items and the movements of p from one consistent view.
// Results are cached under the current cache version.
func (s *Service) Snapshot(ctx context.Context, p Period) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}
	load := func(ctx context.Context) (any, error) { return s.load(ctx, p) }

	key, err := s.cache.BuildKey(ctx, snapshotKey(p)...)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.Any("error", err))
		return s.load(ctx, p)
	}
	var snap Snapshot
	if err := s.cache.FetchJSON(ctx, key, &snap, load); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) load(ctx context.Context, p Period) (Snapshot, error) {
	snap := Snapshot{Period: p}
	err := s.store.Snapshot(ctx, func(ctx context.Context, r ledger.Reader) error {
		var err error
		if snap.Items, err = r.ListItems(ctx); err != nil {
			return err
		}
		if snap.Inflows, err = r.ListMovements(ctx, ledger.KindInflow, ledger.ByPeriod(p.Month, p.Year)); err != nil {
			return err
		}
		snap.Outflows, err = r.ListMovements(ctx, ledger.KindOutflow, ledger.ByPeriod(p.Month, p.Year))
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("report: load snapshot %02d/%d: %w", p.Month, p.Year, err)
	}
	return snap, nil
}

// Summary is the JSON view of a period aggregate.
type Summary struct {
	Period    Period        `json:"period"`
	Rows      []stock.Row   `json:"rows"`
	Totals    stock.Totals  `json:"totals"`
	TopMovers []stock.Mover `json:"top_movers"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// Summary aggregates the period for API consumers.
func (s *Service) Summary(ctx context.Context, p Period) (Summary, error) {
	snap, err := s.Snapshot(ctx, p)
	if err != nil {
		return Summary{}, err
	}
	agg := s.aggregate(snap)
	return Summary{
		Period:    p,
		Rows:      agg.Rows,
		Totals:    agg.Totals,
		TopMovers: stock.TopMovers(agg.Rows, stock.DefaultTopN),
		Warnings:  agg.WarningMessages(),
	}, nil
}

// LedgerPDF renders the stock ledger report as PDF.
func (s *Service) LedgerPDF(ctx context.Context, p Period) ([]byte, error) {
	return s.document(ctx, VariantLedger, FormatPDF, p)
}

// LedgerHTML renders the stock ledger report as an HTML page of SVG pages.
func (s *Service) LedgerHTML(ctx context.Context, p Period) ([]byte, error) {
	return s.document(ctx, VariantLedger, FormatHTML, p)
}

// ManagementPDF renders the management report as PDF.
func (s *Service) ManagementPDF(ctx context.Context, p Period) ([]byte, error) {
	return s.document(ctx, VariantManagement, FormatPDF, p)
}

// ManagementHTML renders the management report as HTML.
func (s *Service) ManagementHTML(ctx context.Context, p Period) ([]byte, error) {
	return s.document(ctx, VariantManagement, FormatHTML, p)
}

// CSV exports the period aggregate.
func (s *Service) CSV(ctx context.Context, p Period) ([]byte, error) {
	return s.build(ctx, string(VariantLedger), FormatCSV, p, func(snap Snapshot) ([]byte, error) {
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, s.aggregate(snap)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// XLSX exports the period aggregate as a workbook.
func (s *Service) XLSX(ctx context.Context, p Period) ([]byte, error) {
	return s.build(ctx, string(VariantLedger), FormatXLSX, p, func(snap Snapshot) ([]byte, error) {
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, s.aggregate(snap)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// ChartSVG draws inflow and outflow bars per moved item of the period.
func (s *Service) ChartSVG(ctx context.Context, p Period) ([]byte, error) {
	return s.build(ctx, "chart", FormatSVG, p, func(snap Snapshot) ([]byte, error) {
		agg := s.aggregate(snap)
		if len(agg.Rows) == 0 {
			return nil, ErrNoMovement
		}
		series := make([]svg.Series, 0, len(agg.Rows))
		for _, row := range agg.Rows {
			series = append(series, svg.Series{Label: row.Name, Inflow: row.InflowQty, Outflow: row.OutflowQty})
		}
		html, err := svg.Bars(svg.DefaultWidth, svg.DefaultHeight, series, svg.BarOpts{
			Title:       "Movimentações " + strings.TrimPrefix(p.Label(), "Mês "),
			Description: "Entradas e saídas por mercadoria no período",
			LabelRunes:  ChartNameRunes,
		})
		if err != nil {
			return nil, err
		}
		return []byte(html), nil
	})
}

func (s *Service) document(ctx context.Context, variant Variant, format string, p Period) ([]byte, error) {
	return s.build(ctx, string(variant), format, p, func(snap Snapshot) ([]byte, error) {
		var doc Document
		switch variant {
		case VariantManagement:
			doc = ComposeManagement(snap, s.now())
		default:
			doc = ComposeLedger(snap, s.now())
		}
		var canvas render.Canvas
		if format == FormatPDF {
			if s.pdf == nil {
				return nil, fmt.Errorf("%w: pdf converter not configured", render.ErrRenderFailure)
			}
			canvas = render.NewPDFCanvas(doc.Title, s.pdf)
		} else {
			canvas = render.NewSVGCanvas(doc.Title)
		}
		if _, err := Render(doc, canvas); err != nil {
			return nil, fmt.Errorf("%w: %v", render.ErrRenderFailure, err)
		}
		return canvas.Serialize(ctx)
	})
}

// build collapses identical concurrent builds of the same period.
func (s *Service) build(ctx context.Context, variant, format string, p Period, fn func(Snapshot) ([]byte, error)) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%s:%s:%d:%02d", variant, format, p.Year, p.Month)
	ch := s.group.DoChan(key, func() (any, error) {
		start := time.Now()
		buildCtx := context.WithoutCancel(ctx)
		snap, err := s.Snapshot(buildCtx, p)
		var out []byte
		if err == nil {
			out, err = fn(snap)
		}
		if s.observer != nil {
			s.observer.ObserveReport(variant, format, start, err)
		}
		return out, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (s *Service) aggregate(snap Snapshot) stock.Summary {
	agg := snap.Summary()
	for _, w := range agg.Warnings {
		s.logger.Warn("report movement without item",
			slog.Int("month", snap.Period.Month),
			slog.Int("year", snap.Period.Year),
			slog.Any("error", w))
	}
	return agg
}
