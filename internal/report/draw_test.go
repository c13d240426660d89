package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/report/render"
)

func manyItems(n int) Snapshot {
	snap := Snapshot{Period: Period{Month: 3, Year: 2024}}
	at := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		snap.Items = append(snap.Items, ledger.Item{ID: int64(i), Name: fmt.Sprintf("Item-%02d", i), UnitCost: decimal.NewFromInt(2)})
		snap.Inflows = append(snap.Inflows, ledger.Movement{ItemID: int64(i), Quantity: 10, Timestamp: at, Locality: "CD"})
	}
	return snap
}

func itemRows(texts []string) int {
	n := 0
	for _, text := range texts {
		if strings.HasPrefix(text, "Item-") {
			n++
		}
	}
	return n
}

func TestRenderLedgerSinglePage(t *testing.T) {
	rec := render.NewRecorder()
	engine, err := Render(ComposeLedger(scenarioA(), generatedAt), rec)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Pages())
	assert.Equal(t, 0, engine.Breaks())

	texts := rec.Texts(1)
	assert.Equal(t, []string{LedgerTitle, "Mês 03/2024", "Resumo Geral", "Mercadorias Movimentadas: 1", "Total Entradas: 100", "Total Saídas: 20"}, texts[:6])
	assert.Contains(t, texts, "Total Geral")
	assert.Contains(t, texts, "Histórico de Movimentações")
	assert.Contains(t, texts, "Entrada: 100 unidades - 05/03/2024 09:00 - Depósito A")
	assert.Contains(t, texts, "Gerado em: 14/10/2026 10:30")
	assert.Contains(t, texts, "Página 1")

	_, err = rec.Serialize(context.Background())
	require.NoError(t, err)
}

func TestRenderLedgerColorsQuantities(t *testing.T) {
	rec := render.NewRecorder()
	_, err := Render(ComposeLedger(scenarioA(), generatedAt), rec)
	require.NoError(t, err)

	colors := map[string]render.Color{}
	for _, op := range rec.Ops() {
		if op.Kind == render.OpText && op.Style.Size == 9 && op.Style.Font == render.FontRegular {
			if _, seen := colors[op.Text]; !seen {
				colors[op.Text] = op.Color
			}
		}
	}
	assert.Equal(t, render.Blue, colors["100"])
	assert.Equal(t, render.Red, colors["20"])
	assert.Equal(t, render.Green, colors["80"])
	assert.Equal(t, render.Gray(0.3), colors["250.00"])
}

func TestRenderLedgerPaginatesTable(t *testing.T) {
	rec := render.NewRecorder()
	engine, err := Render(ComposeLedger(manyItems(60), generatedAt), rec)
	require.NoError(t, err)

	pages := rec.Pages()
	require.Greater(t, pages, 2)
	assert.Equal(t, pages-1, engine.Breaks())
	for page := 1; page <= pages; page++ {
		texts := rec.Texts(page)
		assert.Equal(t, []string{LedgerTitle, "Mês 03/2024"}, texts[:2], "page %d", page)
	}

	assert.Equal(t, 32, itemRows(rec.Texts(1)))
	assert.Equal(t, 28, itemRows(rec.Texts(2)))
	assert.Equal(t, "Código", rec.Texts(2)[2])

	segments := engine.Segments()
	require.Len(t, segments, 2)
	total := 0
	for _, seg := range segments {
		rows := itemRows(rec.Texts(seg.Page))
		assert.InDelta(t, float64(rows*rowHeight), seg.Top-seg.Bottom, 0.001, "page %d", seg.Page)
		total += rows
	}
	assert.Equal(t, 60, total)
}

func TestRenderLedgerHistoryRedrawsHeading(t *testing.T) {
	rec := render.NewRecorder()
	_, err := Render(ComposeLedger(manyItems(60), generatedAt), rec)
	require.NoError(t, err)

	last := rec.Pages()
	for page := 3; page <= last; page++ {
		texts := rec.Texts(page)
		assert.Equal(t, "Histórico de Movimentações", texts[2], "page %d", page)
	}
	var groups int
	for page := 1; page <= last; page++ {
		for _, text := range rec.Texts(page) {
			if strings.HasPrefix(text, "Mercadoria: ") {
				groups++
			}
		}
	}
	assert.Equal(t, 60, groups)
}

func TestRenderFooterOnlyOnLastPage(t *testing.T) {
	rec := render.NewRecorder()
	_, err := Render(ComposeLedger(manyItems(60), generatedAt), rec)
	require.NoError(t, err)

	last := rec.Pages()
	for page := 1; page < last; page++ {
		assert.NotContains(t, rec.Texts(page), "Gerado em: 14/10/2026 10:30")
	}
	assert.Contains(t, rec.Texts(last), "Gerado em: 14/10/2026 10:30")
	assert.Contains(t, rec.Texts(last), fmt.Sprintf("Página %d", last))
}

func TestRenderManagementBars(t *testing.T) {
	rec := render.NewRecorder()
	_, err := Render(ComposeManagement(manyItems(7), generatedAt), rec)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Pages())

	texts := rec.Texts(1)
	assert.Contains(t, texts, "Mercadorias Mais Movimentadas")
	assert.Contains(t, texts, "Item-01:")
	assert.Contains(t, texts, "Entradas: 10")
	assert.Contains(t, texts, "Gráfico de Movimentações")

	var bars []render.Op
	for _, op := range rec.Ops() {
		if op.Kind == render.OpRect && op.Color == render.Gray(0.6) {
			bars = append(bars, op)
		}
	}
	require.Len(t, bars, 5)
	for i, bar := range bars {
		assert.InDelta(t, MaxBarHeight, bar.H, 0.001)
		assert.InDelta(t, 40+float64(i)*(barWidth+barSpacing), bar.X, 0.001)
	}
}

func TestRenderListRedrawsHeadingAfterBreak(t *testing.T) {
	list := ListBlock{Heading: "Mercadorias Mais Movimentadas"}
	for i := 1; i <= 60; i++ {
		list.Entries = append(list.Entries, ListEntry{Label: fmt.Sprintf("Item-%02d", i), Inflow: 1, Total: 1})
	}
	doc := Document{
		Variant:     VariantManagement,
		Title:       ManagementTitle,
		Period:      Period{Month: 3, Year: 2024},
		GeneratedAt: generatedAt,
		Blocks:      []Block{list},
	}
	rec := render.NewRecorder()
	engine, err := Render(doc, rec)
	require.NoError(t, err)
	require.Greater(t, rec.Pages(), 1)
	assert.Equal(t, rec.Pages()-1, engine.Breaks())

	var entries int
	for page := 1; page <= rec.Pages(); page++ {
		texts := rec.Texts(page)
		assert.Equal(t, "Mercadorias Mais Movimentadas", texts[2], "page %d", page)
		for _, text := range texts {
			if strings.HasPrefix(text, "Item-") {
				entries++
			}
		}
	}
	assert.Equal(t, 60, entries)
}

func TestRenderManagementEmpty(t *testing.T) {
	rec := render.NewRecorder()
	_, err := Render(ComposeManagement(Snapshot{Period: Period{Month: 1, Year: 2025}}, generatedAt), rec)
	require.NoError(t, err)
	assert.Equal(t, []string{ManagementTitle, "Mês 01/2025", NoMovementText, "Gerado em: 14/10/2026 10:30", "Página 1"}, rec.Texts(1))
}
