package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/platform/httpx"
	"github.com/mstarsupply/mstarsupply/internal/report"
	"github.com/mstarsupply/mstarsupply/internal/shared"
	"github.com/mstarsupply/mstarsupply/internal/stock"
)

type recordingAudit struct {
	mu      sync.Mutex
	entries []shared.AuditLog
	err     error
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return a.err
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type countingInvalidator struct{ bumps atomic.Int64 }

func (c *countingInvalidator) Bump(context.Context) error {
	c.bumps.Add(1)
	return nil
}

type countingRejections struct{ n atomic.Int64 }

func (c *countingRejections) OutflowRejected() { c.n.Add(1) }

type fixture struct {
	svc        *Service
	store      *ledger.MemoryStore
	audit      *recordingAudit
	bumps      *countingInvalidator
	rejections *countingRejections
}

func newFixture() fixture {
	f := fixture{
		store:      ledger.NewMemoryStore(),
		audit:      &recordingAudit{},
		bumps:      &countingInvalidator{},
		rejections: &countingRejections{},
	}
	f.svc = NewService(f.store, f.audit, nil, WithInvalidator(f.bumps), WithRejectionCounter(f.rejections))
	return f
}

func (f fixture) item(t *testing.T, name, reg, cost string) ledger.Item {
	t.Helper()
	item, err := f.svc.RegisterItem(context.Background(), ItemInput{
		Name:               name,
		RegistrationNumber: reg,
		Manufacturer:       "Acme",
		Category:           "Peças",
		UnitCost:           cost,
	})
	require.NoError(t, err)
	return item
}

func movement(itemID, qty int64, ts, locality string) MovementInput {
	return MovementInput{ItemID: itemID, Quantity: qty, Timestamp: ts, Locality: locality}
}

func TestRegisterItemValidates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item := f.item(t, "Parafuso", "REG-1", "2.5")
	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, "2.50", item.UnitCost.StringFixed(2))

	_, err := f.svc.RegisterItem(ctx, ItemInput{RegistrationNumber: "REG-2", Manufacturer: "Acme", Category: "x", UnitCost: "1"})
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = f.svc.RegisterItem(ctx, ItemInput{Name: "Porca", RegistrationNumber: "REG-3", Manufacturer: "Acme", Category: "x", UnitCost: "-1"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.RegisterItem(ctx, ItemInput{Name: "Porca", RegistrationNumber: "REG-1", Manufacturer: "Acme", Category: "x", UnitCost: "1"})
	require.ErrorIs(t, err, ledger.ErrDuplicateRegistration)

	assert.Equal(t, []string{"item.create"}, f.audit.actions())
	assert.Equal(t, int64(1), f.bumps.bumps.Load())
}

func TestRegisterInflowRequiresItemAndTimestamp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := f.item(t, "Parafuso", "REG-1", "2.50")

	_, err := f.svc.RegisterInflow(ctx, movement(99, 10, "2024-03-05 08:00:00", "Depósito"))
	require.ErrorIs(t, err, ledger.ErrNotFound)

	_, err = f.svc.RegisterInflow(ctx, movement(item.ID, 10, "05/03/2024", "Depósito"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.RegisterInflow(ctx, movement(item.ID, 0, "2024-03-05 08:00:00", "Depósito"))
	require.ErrorIs(t, err, ErrValidation)

	m, err := f.svc.RegisterInflow(ctx, movement(item.ID, 100, "2024-03-05 08:00:00", "Depósito"))
	require.NoError(t, err)
	assert.Equal(t, ledger.KindInflow, m.Kind)
	assert.Equal(t, 5, m.Timestamp.Day())
}

func TestRegisterOutflowRejectsAboveAvailability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := f.item(t, "Parafuso", "REG-1", "2.50")
	_, err := f.svc.RegisterInflow(ctx, movement(item.ID, 80, "2024-03-01 08:00:00", "Depósito"))
	require.NoError(t, err)

	_, err = f.svc.RegisterOutflow(ctx, movement(item.ID, 150, "2024-03-02 08:00:00", "Loja"))
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(1), f.rejections.n.Load())

	outflows, err := f.store.ListMovements(ctx, ledger.KindOutflow, ledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, outflows)

	available, err := f.svc.Availability(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(80), available)
	assert.Equal(t, []string{"item.create", "inflow.create"}, f.audit.actions())

	_, err = f.svc.RegisterOutflow(ctx, movement(item.ID, 80, "2024-03-02 08:00:00", "Loja"))
	require.NoError(t, err)
	available, err = f.svc.Availability(ctx, item.ID)
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestRegisterOutflowUnknownItem(t *testing.T) {
	f := newFixture()
	_, err := f.svc.RegisterOutflow(context.Background(), movement(5, 1, "2024-03-02 08:00:00", "Loja"))
	require.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Zero(t, f.rejections.n.Load())
}

func TestConcurrentOutflowsNeverOversell(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := f.item(t, "Parafuso", "REG-1", "1.00")
	_, err := f.svc.RegisterInflow(ctx, movement(item.ID, 10, "2024-03-01 08:00:00", "Depósito"))
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
		rejected atomic.Int64
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RegisterOutflow(ctx, movement(item.ID, 1, "2024-03-02 08:00:00", "Loja"))
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), accepted.Load())
	assert.Equal(t, int64(15), rejected.Load())
	available, err := f.svc.Availability(ctx, item.ID)
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestAvailabilityIgnoresInsertionOrder(t *testing.T) {
	ctx := context.Background()
	steps := []struct {
		outflow bool
		qty     int64
	}{{false, 30}, {false, 20}, {true, 15}, {false, 5}, {true, 10}}

	run := func(order []int) int64 {
		f := newFixture()
		item := f.item(t, "Parafuso", "REG-1", "1.00")
		// inflows first so every outflow passes its check regardless of order
		for _, i := range order {
			if !steps[i].outflow {
				_, err := f.svc.RegisterInflow(ctx, movement(item.ID, steps[i].qty, "2024-03-01 08:00:00", "Depósito"))
				require.NoError(t, err)
			}
		}
		for _, i := range order {
			if steps[i].outflow {
				_, err := f.svc.RegisterOutflow(ctx, movement(item.ID, steps[i].qty, "2024-03-02 08:00:00", "Loja"))
				require.NoError(t, err)
			}
		}
		available, err := f.svc.Availability(ctx, item.ID)
		require.NoError(t, err)
		return available
	}

	assert.Equal(t, int64(30), run([]int{0, 1, 2, 3, 4}))
	assert.Equal(t, int64(30), run([]int{4, 3, 2, 1, 0}))
	assert.Equal(t, int64(30), run([]int{2, 0, 4, 1, 3}))
}

func TestAvailabilityAllAlerts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	low := f.item(t, "Parafuso", "REG-1", "1.00")
	ok := f.item(t, "Porca", "REG-2", "1.00")
	idle := f.item(t, "Arruela", "REG-3", "1.00")
	_, err := f.svc.RegisterInflow(ctx, movement(low.ID, 3, "2024-03-01 08:00:00", "Depósito"))
	require.NoError(t, err)
	_, err = f.svc.RegisterInflow(ctx, movement(ok.ID, 5, "2024-03-01 08:00:00", "Depósito"))
	require.NoError(t, err)

	rows, err := f.svc.AvailabilityAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ItemAvailability{ItemID: low.ID, Name: "Parafuso", Availability: 3, Alert: stock.AlertLowStock}, rows[0])
	assert.Equal(t, ItemAvailability{ItemID: ok.ID, Name: "Porca", Availability: 5, Alert: stock.AlertNormal}, rows[1])
	assert.Equal(t, ItemAvailability{ItemID: idle.ID, Name: "Arruela", Availability: 0, Alert: stock.AlertLowStock}, rows[2])
}

func TestMovementsOfPeriod(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := f.item(t, "Parafuso", "REG-1", "2.50")
	_, err := f.svc.RegisterInflow(ctx, movement(item.ID, 100, "2024-03-05 08:00:00", "Depósito"))
	require.NoError(t, err)
	_, err = f.svc.RegisterInflow(ctx, movement(item.ID, 7, "2024-04-01 08:00:00", "Depósito"))
	require.NoError(t, err)
	_, err = f.svc.RegisterOutflow(ctx, movement(item.ID, 20, "2024-03-10 14:00:00", "Loja"))
	require.NoError(t, err)

	got, err := f.svc.Movements(ctx, report.Period{Month: 3, Year: 2024})
	require.NoError(t, err)
	require.Len(t, got.Inflows, 1)
	require.Len(t, got.Outflows, 1)
	assert.Equal(t, int64(100), got.Inflows[0].Quantity)
	assert.Equal(t, int64(20), got.Outflows[0].Quantity)

	_, err = f.svc.Movements(ctx, report.Period{Month: 13, Year: 2024})
	require.ErrorIs(t, err, report.ErrInvalidPeriod)
}

func TestDashboardReturnsNewestFive(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := f.item(t, "Parafuso", "REG-1", "1.00")
	for _, day := range []string{"03", "01", "07", "02", "06", "04", "05"} {
		_, err := f.svc.RegisterInflow(ctx, movement(item.ID, 10, "2024-03-"+day+" 08:00:00", "Depósito"))
		require.NoError(t, err)
	}
	_, err := f.svc.RegisterOutflow(ctx, movement(item.ID, 4, "2024-03-08 08:00:00", "Loja"))
	require.NoError(t, err)

	dash, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.TotalItems)
	require.Len(t, dash.RecentInflows, RecentLimit)
	days := make([]int, 0, RecentLimit)
	for _, m := range dash.RecentInflows {
		days = append(days, m.Timestamp.Day())
	}
	assert.Equal(t, []int{7, 6, 5, 4, 3}, days)
	require.Len(t, dash.RecentOutflows, 1)
}

func TestSearch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	bolt := f.item(t, "Parafuso Sextavado", "REG-100", "1.00")
	nut := f.item(t, "Porca", "REG-200", "1.00")
	_, err := f.svc.RegisterInflow(ctx, movement(bolt.ID, 10, "2024-03-05 08:00:00", "Depósito Central"))
	require.NoError(t, err)
	_, err = f.svc.RegisterInflow(ctx, movement(nut.ID, 10, "2024-04-09 08:00:00", "Filial Sul"))
	require.NoError(t, err)

	result, err := f.svc.Search(ctx, "sextavado", SearchItems)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, bolt.ID, result.Items[0].ID)

	result, err = f.svc.Search(ctx, "DEPÓSITO", SearchInflows)
	require.NoError(t, err)
	require.Len(t, result.Movements, 1)
	assert.Equal(t, bolt.ID, result.Movements[0].ItemID)

	result, err = f.svc.Search(ctx, "porca", SearchInflows)
	require.NoError(t, err)
	require.Len(t, result.Movements, 1)
	assert.Equal(t, nut.ID, result.Movements[0].ItemID)

	result, err = f.svc.Search(ctx, "05/03/2024", SearchInflows)
	require.NoError(t, err)
	require.Len(t, result.Movements, 1)

	result, err = f.svc.Search(ctx, "Depósito", SearchOutflows)
	require.NoError(t, err)
	assert.Empty(t, result.Movements)

	_, err = f.svc.Search(ctx, "x", SearchKind("vendas"))
	require.ErrorIs(t, err, ErrInvalidSearchKind)
}

func TestParseSearchKind(t *testing.T) {
	kind, err := ParseSearchKind("")
	require.NoError(t, err)
	assert.Equal(t, SearchItems, kind)

	kind, err = ParseSearchKind("Outflows")
	require.NoError(t, err)
	assert.Equal(t, SearchOutflows, kind)

	_, err = ParseSearchKind("vendas")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAuditFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture()
	f.audit.err = errors.New("audit table missing")
	item := f.item(t, "Parafuso", "REG-1", "1.00")
	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, int64(1), f.bumps.bumps.Load())
}
