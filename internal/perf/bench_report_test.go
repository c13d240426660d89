package perf

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/report"
	"github.com/mstarsupply/mstarsupply/internal/report/render"
	"github.com/mstarsupply/mstarsupply/internal/stock"
)

func syntheticSnapshot(items, movementsPerItem int) report.Snapshot {
	snap := report.Snapshot{Period: report.Period{Month: 3, Year: 2024}}
	base := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	var id int64
	for i := 1; i <= items; i++ {
		snap.Items = append(snap.Items, ledger.Item{
			ID:                 int64(i),
			Name:               fmt.Sprintf("Item %03d", i),
			RegistrationNumber: fmt.Sprintf("REG-%04d", i),
			Manufacturer:       "Acme",
			Category:           "Geral",
			UnitCost:           decimal.NewFromFloat(1.25),
		})
		for j := 0; j < movementsPerItem; j++ {
			id++
			at := base.Add(time.Duration(j) * time.Hour)
			snap.Inflows = append(snap.Inflows, ledger.Movement{ID: id, Kind: ledger.KindInflow, ItemID: int64(i), Quantity: 10, Timestamp: at, Locality: "Depósito"})
			if j%2 == 0 {
				snap.Outflows = append(snap.Outflows, ledger.Movement{ID: id, Kind: ledger.KindOutflow, ItemID: int64(i), Quantity: 7, Timestamp: at, Locality: "Loja"})
			}
		}
	}
	return snap
}

func BenchmarkPeriodAggregate(b *testing.B) {
	snap := syntheticSnapshot(500, 20)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = stock.PeriodAggregate(snap.Items, snap.Inflows, snap.Outflows)
	}
}

func BenchmarkLedgerLayout(b *testing.B) {
	snap := syntheticSnapshot(200, 6)
	at := time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := report.Render(report.ComposeLedger(snap, at), render.NewRecorder()); err != nil {
			b.Fatal(err)
		}
	}
}

func TestLedgerLayoutScalesAcrossPages(t *testing.T) {
	snap := syntheticSnapshot(200, 6)
	rec := render.NewRecorder()
	engine, err := report.Render(report.ComposeLedger(snap, time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)), rec)
	if err != nil {
		t.Fatalf("render ledger: %v", err)
	}
	if rec.Pages() < 2 {
		t.Fatalf("expected a multi-page ledger, got %d page(s)", rec.Pages())
	}
	if engine.Breaks() != rec.Pages()-1 {
		t.Fatalf("page breaks %d do not match pages %d", engine.Breaks(), rec.Pages())
	}
}
