package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mstarsupply/mstarsupply/internal/ledger"
	"github.com/mstarsupply/mstarsupply/internal/stock"
)

// Layout constants shared by the composer and the drawing code.
const (
	TableNameRunes = 18
	ChartNameRunes = 10
	MaxBarHeight   = 150
	UnitLabel      = "UNID"
	NoMovementText = "Nenhuma movimentação encontrada para o período selecionado."
	historyStamp   = "02/01/2006 15:04"
)

// LedgerColumns is the movement table layout.
var LedgerColumns = []Column{
	{Title: "Código", Width: 40, Left: true},
	{Title: "Descrição", Width: 110, Left: true},
	{Title: "U.M.", Width: 30, Left: true},
	{Title: "Entradas", Width: 50, Tone: ToneInflow},
	{Title: "Custo (R$)", Width: 50},
	{Title: "Saídas", Width: 50, Tone: ToneOutflow},
	{Title: "Custo (R$)", Width: 50},
	{Title: "Saldo", Width: 50, Tone: ToneMarker},
}

// Snapshot is the consistent ledger view one report is built from.
type Snapshot struct {
	Period   Period            `json:"period"`
	Items    []ledger.Item     `json:"items"`
	Inflows  []ledger.Movement `json:"inflows"`
	Outflows []ledger.Movement `json:"outflows"`
}

// Summary aggregates the snapshot per item.
func (s Snapshot) Summary() stock.Summary {
	return stock.PeriodAggregate(s.Items, s.Inflows, s.Outflows)
}

// ComposeLedger builds the stock ledger report: summary, movement table with
// totals, and the movement history grouped by item.
func ComposeLedger(snap Snapshot, generatedAt time.Time) Document {
	summary := snap.Summary()
	doc := Document{
		Variant:     VariantLedger,
		Title:       LedgerTitle,
		Period:      snap.Period,
		GeneratedAt: generatedAt,
	}

	doc.Blocks = append(doc.Blocks, SummaryBlock{
		Heading: "Resumo Geral",
		Lines: []SummaryLine{
			{Text: fmt.Sprintf("Mercadorias Movimentadas: %d", summary.Totals.MovedItems), Tone: ToneMuted},
			{Text: fmt.Sprintf("Total Entradas: %d", summary.Totals.InflowQty), Tone: ToneInflow},
			{Text: fmt.Sprintf("Total Saídas: %d", summary.Totals.OutflowQty), Tone: ToneOutflow},
		},
	})

	table := TableBlock{Columns: LedgerColumns, Rows: make([]TableRow, 0, len(summary.Rows))}
	for _, row := range summary.Rows {
		table.Rows = append(table.Rows, TableRow{
			Cells: []string{
				strconv.FormatInt(row.ItemID, 10),
				Truncate(row.Name, TableNameRunes),
				UnitLabel,
				strconv.FormatInt(row.InflowQty, 10),
				row.InflowCost.StringFixed(2),
				strconv.FormatInt(row.OutflowQty, 10),
				row.OutflowCost.StringFixed(2),
				strconv.FormatInt(row.Balance, 10),
			},
			Marker: row.Marker,
		})
	}
	totals := summary.Totals
	table.Totals = TableRow{
		Cells: []string{
			"Total Geral", "", "",
			strconv.FormatInt(totals.InflowQty, 10),
			totals.InflowCost.StringFixed(2),
			strconv.FormatInt(totals.OutflowQty, 10),
			totals.OutflowCost.StringFixed(2),
			strconv.FormatInt(totals.Balance, 10),
		},
		Marker: totals.Marker,
	}
	doc.Blocks = append(doc.Blocks, table)

	in := stock.CollectByItem(snap.Inflows)
	out := stock.CollectByItem(snap.Outflows)
	history := HistoryBlock{Heading: "Histórico de Movimentações"}
	for _, row := range summary.Rows {
		group := HistoryGroup{Heading: "Mercadoria: " + row.Name}
		for _, m := range in.Get(row.ItemID) {
			group.Lines = append(group.Lines, HistoryLine{Text: historyText("Entrada", m), Tone: ToneInflow})
		}
		for _, m := range out.Get(row.ItemID) {
			group.Lines = append(group.Lines, HistoryLine{Text: historyText("Saída", m), Tone: ToneOutflow})
		}
		history.Groups = append(history.Groups, group)
	}
	doc.Blocks = append(doc.Blocks, history)
	return doc
}

// ComposeManagement builds the management report: the top movers of the
// period and a bar chart of their totals.
func ComposeManagement(snap Snapshot, generatedAt time.Time) Document {
	doc := Document{
		Variant:     VariantManagement,
		Title:       ManagementTitle,
		Period:      snap.Period,
		GeneratedAt: generatedAt,
	}
	movers := stock.TopMovers(snap.Summary().Rows, stock.DefaultTopN)
	if len(movers) == 0 {
		doc.Blocks = append(doc.Blocks, MessageBlock{Text: NoMovementText})
		return doc
	}

	list := ListBlock{Heading: "Mercadorias Mais Movimentadas"}
	chart := ChartBlock{Heading: "Gráfico de Movimentações"}
	peak := movers[0].Total
	for _, m := range movers {
		list.Entries = append(list.Entries, ListEntry{Label: m.Name, Inflow: m.Inflow, Outflow: m.Outflow, Total: m.Total})
		chart.Bars = append(chart.Bars, Bar{
			Label:  Truncate(m.Name, ChartNameRunes),
			Value:  m.Total,
			Height: float64(m.Total) / float64(peak) * MaxBarHeight,
		})
	}
	doc.Blocks = append(doc.Blocks, list, chart)
	return doc
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func historyText(label string, m ledger.Movement) string {
	return fmt.Sprintf("%s: %d unidades - %s - %s", label, m.Quantity, m.Timestamp.Format(historyStamp), m.Locality)
}
