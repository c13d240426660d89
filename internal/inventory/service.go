package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/report"
	"github.com/mstarsupply/mstarsupply/internal/shared"
	"github.com/mstarsupply/mstarsupply/internal/stock"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached report data after ledger writes.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// RejectionCounter counts outflows refused for insufficient stock.
type RejectionCounter interface {
	OutflowRejected()
}

// Service coordinates item registration, movements and read models.
type Service struct {
	store       ledger.Store
	audit       AuditPort
	invalidator Invalidator
	rejections  RejectionCounter
	logger      *slog.Logger
	actor       string
}

// Option customises the service.
type Option func(*Service)

// WithInvalidator bumps the report cache after every write.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// WithRejectionCounter reports refused outflows.
func WithRejectionCounter(c RejectionCounter) Option {
	return func(s *Service) { s.rejections = c }
}

// WithActor sets the actor recorded in audit entries.
func WithActor(actor string) Option {
	return func(s *Service) { s.actor = actor }
}

// NewService builds Service.
func NewService(store ledger.Store, audit AuditPort, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, audit: audit, logger: logger, actor: "api"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterItem validates and stores a new item.
func (s *Service) RegisterItem(ctx context.Context, input ItemInput) (ledger.Item, error) {
	item, err := input.toItem()
	if err != nil {
		return ledger.Item{}, err
	}
	created, err := s.store.InsertItem(ctx, item)
	if err != nil {
		return ledger.Item{}, err
	}
	s.afterWrite(ctx, "item.create", created.ID, map[string]any{
		"registration_number": created.RegistrationNumber,
		"unit_cost":           created.UnitCost.StringFixed(2),
	})
	return created, nil
}

// ListItems returns every item in id order.
func (s *Service) ListItems(ctx context.Context) ([]ledger.Item, error) {
	return s.store.ListItems(ctx)
}

// GetItem loads a single item.
func (s *Service) GetItem(ctx context.Context, id int64) (ledger.Item, error) {
	return s.store.GetItem(ctx, id)
}

// RegisterInflow appends stock for an existing item.
func (s *Service) RegisterInflow(ctx context.Context, input MovementInput) (ledger.Movement, error) {
	m, err := input.toMovement(ledger.KindInflow)
	if err != nil {
		return ledger.Movement{}, err
	}
	created, err := s.store.InsertMovement(ctx, m)
	if err != nil {
		return ledger.Movement{}, err
	}
	s.afterWrite(ctx, "inflow.create", created.ItemID, movementMeta(created))
	return created, nil
}

// RegisterOutflow removes stock when the item has enough available. The
// item is locked for the check and the insert, so concurrent outflows of
// one item cannot both pass the check.
func (s *Service) RegisterOutflow(ctx context.Context, input MovementInput) (ledger.Movement, error) {
	m, err := input.toMovement(ledger.KindOutflow)
	if err != nil {
		return ledger.Movement{}, err
	}
	var created ledger.Movement
	err = s.store.WithTx(ctx, func(ctx context.Context, tx ledger.TxStore) error {
		if _, err := tx.LockItem(ctx, m.ItemID); err != nil {
			return err
		}
		in, err := tx.SumQuantity(ctx, ledger.KindInflow, m.ItemID)
		if err != nil {
			return err
		}
		out, err := tx.SumQuantity(ctx, ledger.KindOutflow, m.ItemID)
		if err != nil {
			return err
		}
		if available := in - out; available < m.Quantity {
			return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientStock, available, m.Quantity)
		}
		created, err = tx.InsertMovement(ctx, m)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) && s.rejections != nil {
			s.rejections.OutflowRejected()
		}
		return ledger.Movement{}, err
	}
	s.afterWrite(ctx, "outflow.create", created.ItemID, movementMeta(created))
	return created, nil
}

// Availability returns all inflows minus all outflows of one item.
func (s *Service) Availability(ctx context.Context, itemID int64) (int64, error) {
	var available int64
	err := s.store.Snapshot(ctx, func(ctx context.Context, r ledger.Reader) error {
		if _, err := r.GetItem(ctx, itemID); err != nil {
			return err
		}
		in, err := r.SumQuantity(ctx, ledger.KindInflow, itemID)
		if err != nil {
			return err
		}
		out, err := r.SumQuantity(ctx, ledger.KindOutflow, itemID)
		if err != nil {
			return err
		}
		available = in - out
		return nil
	})
	return available, err
}

// AvailabilityAll lists the availability and alert label of every item.
func (s *Service) AvailabilityAll(ctx context.Context) ([]ItemAvailability, error) {
	out := []ItemAvailability{}
	err := s.store.Snapshot(ctx, func(ctx context.Context, r ledger.Reader) error {
		items, err := r.ListItems(ctx)
		if err != nil {
			return err
		}
		inflows, err := r.ListMovements(ctx, ledger.KindInflow, ledger.Filter{})
		if err != nil {
			return err
		}
		outflows, err := r.ListMovements(ctx, ledger.KindOutflow, ledger.Filter{})
		if err != nil {
			return err
		}
		in, outs := stock.SumByItem(inflows), stock.SumByItem(outflows)
		for _, item := range items {
			available := in.Get(item.ID) - outs.Get(item.ID)
			out = append(out, ItemAvailability{
				ItemID:       item.ID,
				Name:         item.Name,
				Availability: available,
				Alert:        stock.Alert(available),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Movements lists the inflows and outflows of one month in record order.
func (s *Service) Movements(ctx context.Context, period report.Period) (PeriodMovements, error) {
	if err := period.Validate(); err != nil {
		return PeriodMovements{}, err
	}
	result := PeriodMovements{Month: period.Month, Year: period.Year}
	err := s.store.Snapshot(ctx, func(ctx context.Context, r ledger.Reader) error {
		var err error
		filter := ledger.ByPeriod(period.Month, period.Year)
		if result.Inflows, err = r.ListMovements(ctx, ledger.KindInflow, filter); err != nil {
			return err
		}
		result.Outflows, err = r.ListMovements(ctx, ledger.KindOutflow, filter)
		return err
	})
	if err != nil {
		return PeriodMovements{}, err
	}
	return result, nil
}

// Dashboard loads the item count and the newest movements of each kind.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var dash Dashboard
	recent := ledger.Filter{Newest: true, Limit: RecentLimit}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.store.CountItems(gctx)
		dash.TotalItems = count
		return err
	})
	g.Go(func() error {
		m, err := s.store.ListMovements(gctx, ledger.KindInflow, recent)
		dash.RecentInflows = m
		return err
	})
	g.Go(func() error {
		m, err := s.store.ListMovements(gctx, ledger.KindOutflow, recent)
		dash.RecentOutflows = m
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("inventory: dashboard: %w", err)
	}
	return dash, nil
}

// Search finds items by name, registration number, manufacturer or
// category, or movements by locality, item name or dd/mm/yyyy date.
func (s *Service) Search(ctx context.Context, term string, kind SearchKind) (SearchResult, error) {
	result := SearchResult{Kind: kind}
	switch kind {
	case SearchItems:
		items, err := s.store.SearchItems(ctx, term)
		if err != nil {
			return SearchResult{}, err
		}
		result.Items = items
		return result, nil
	case SearchInflows, SearchOutflows:
		movementKind := ledger.KindInflow
		if kind == SearchOutflows {
			movementKind = ledger.KindOutflow
		}
		movements, err := s.searchMovements(ctx, movementKind, term)
		if err != nil {
			return SearchResult{}, err
		}
		result.Movements = movements
		return result, nil
	default:
		return SearchResult{}, ErrInvalidSearchKind
	}
}

func (s *Service) searchMovements(ctx context.Context, kind ledger.Kind, term string) ([]ledger.Movement, error) {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(term))
	matches := []ledger.Movement{}
	err := s.store.Snapshot(ctx, func(ctx context.Context, r ledger.Reader) error {
		items, err := r.ListItems(ctx)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(items))
		for _, item := range items {
			names[item.ID] = fold.String(item.Name)
		}
		movements, err := r.ListMovements(ctx, kind, ledger.Filter{})
		if err != nil {
			return err
		}
		for _, m := range movements {
			if strings.Contains(fold.String(m.Locality), needle) ||
				strings.Contains(names[m.ItemID], needle) ||
				strings.Contains(m.Timestamp.Format("02/01/2006"), needle) {
				matches = append(matches, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// afterWrite runs the side effects of a committed write. Failures are
// logged because the ledger already holds the record.
func (s *Service) afterWrite(ctx context.Context, action string, itemID int64, meta map[string]any) {
	if s.audit != nil {
		entry := shared.AuditLog{
			Actor:    s.actor,
			Action:   action,
			Entity:   "item",
			EntityID: strconv.FormatInt(itemID, 10),
			Meta:     meta,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.String("action", action), slog.Any("error", err))
		}
	}
}

func movementMeta(m ledger.Movement) map[string]any {
	return map[string]any{
		"movement_id": m.ID,
		"quantity":    m.Quantity,
		"timestamp":   m.Timestamp.Format(TimestampLayout),
		"locality":    m.Locality,
	}
}
