package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, store *MemoryStore, name, reg string) Item {
	t.Helper()
	item, err := store.InsertItem(context.Background(), Item{Name: name, RegistrationNumber: reg, UnitCost: decimal.RequireFromString("2.50")})
	require.NoError(t, err)
	return item
}

func TestMemoryStoreRejectsDuplicateRegistration(t *testing.T) {
	store := NewMemoryStore()
	seedItem(t, store, "Parafuso", "REG-1")

	_, err := store.InsertItem(context.Background(), Item{Name: "Outro", RegistrationNumber: "REG-1"})
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestMemoryStoreMovementRequiresItem(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.InsertMovement(context.Background(), Movement{Kind: KindInflow, ItemID: 99, Quantity: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreFiltersByPeriodAndItem(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	a := seedItem(t, store, "Parafuso", "REG-1")
	b := seedItem(t, store, "Porca", "REG-2")

	for _, m := range []Movement{
		{Kind: KindInflow, ItemID: a.ID, Quantity: 10, Timestamp: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{Kind: KindInflow, ItemID: b.ID, Quantity: 4, Timestamp: time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)},
		{Kind: KindInflow, ItemID: a.ID, Quantity: 7, Timestamp: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	} {
		_, err := store.InsertMovement(ctx, m)
		require.NoError(t, err)
	}

	march, err := store.ListMovements(ctx, KindInflow, ByPeriod(3, 2024))
	require.NoError(t, err)
	require.Len(t, march, 2)

	onlyA, err := store.ListMovements(ctx, KindInflow, ByItem(a.ID))
	require.NoError(t, err)
	require.Len(t, onlyA, 2)

	newest, err := store.ListMovements(ctx, KindInflow, Filter{Newest: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	require.Equal(t, int64(7), newest[0].Quantity)

	total, err := store.SumQuantity(ctx, KindInflow, a.ID)
	require.NoError(t, err)
	require.Equal(t, int64(17), total)
}

func TestMemoryStoreTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	item := seedItem(t, store, "Parafuso", "REG-1")
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if _, err := tx.InsertMovement(ctx, Movement{Kind: KindOutflow, ItemID: item.ID, Quantity: 3}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	outflows, err := store.ListMovements(ctx, KindOutflow, Filter{})
	require.NoError(t, err)
	require.Empty(t, outflows)
}

func TestMemoryStoreSearchIsCaseInsensitive(t *testing.T) {
	store := NewMemoryStore()
	seedItem(t, store, "Chave Inglesa", "REG-1")
	seedItem(t, store, "Martelo", "REG-2")

	items, err := store.SearchItems(context.Background(), "INGLESA")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Chave Inglesa", items[0].Name)
}

func TestPeriodRange(t *testing.T) {
	from, to := PeriodRange(12, 2024)
	require.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), to)
}
