package report

import (
	"time"

	"github.com/mstarsupply/mstarsupply/internal/stock"
)

// Variant selects the report layout.
type Variant string

const (
	VariantLedger     Variant = "ledger"
	VariantManagement Variant = "management"
)

// Titles printed at the top of every page.
const (
	LedgerTitle     = "Relatório de Estoque - MStarSupply"
	ManagementTitle = "Relatório Gerencial - MStarSupply"
)

// Document is the composed, renderer independent content of a report.
type Document struct {
	Variant     Variant
	Title       string
	Period      Period
	GeneratedAt time.Time
	Blocks      []Block
}

// Block is one section of a Document.
type Block interface {
	block()
}

// Tone selects the text color of a cell or line.
type Tone int

const (
	ToneMuted Tone = iota
	ToneInflow
	ToneOutflow
	// ToneMarker colors by the row marker.
	ToneMarker
)

// Column describes one table column.
type Column struct {
	Title string
	Width float64
	// Left aligns the header and cells at the column start; otherwise both
	// are centered.
	Left bool
	Tone Tone
}

// SummaryLine is one line of the summary block.
type SummaryLine struct {
	Text string
	Tone Tone
}

// SummaryBlock opens the ledger report.
type SummaryBlock struct {
	Heading string
	Lines   []SummaryLine
}

// TableRow holds one formatted cell per column.
type TableRow struct {
	Cells  []string
	Marker stock.Marker
}

// TableBlock is the per-item movement table with its totals row.
type TableBlock struct {
	Columns []Column
	Rows    []TableRow
	Totals  TableRow
}

// HistoryLine is a single movement entry.
type HistoryLine struct {
	Text string
	Tone Tone
}

// HistoryGroup lists the movements of one item.
type HistoryGroup struct {
	Heading string
	Lines   []HistoryLine
}

// HistoryBlock is the movement history of the period.
type HistoryBlock struct {
	Heading string
	Groups  []HistoryGroup
}

// MessageBlock is a single informational line.
type MessageBlock struct {
	Text string
}

// ListEntry is one ranked item.
type ListEntry struct {
	Label   string
	Inflow  int64
	Outflow int64
	Total   int64
}

// ListBlock is the ranking of the most moved items.
type ListBlock struct {
	Heading string
	Entries []ListEntry
}

// Bar is one chart column. Height is already scaled to MaxBarHeight.
type Bar struct {
	Label  string
	Value  int64
	Height float64
}

// ChartBlock is a simple vertical bar chart.
type ChartBlock struct {
	Heading string
	Bars    []Bar
}

func (SummaryBlock) block() {}
func (TableBlock) block()   {}
func (HistoryBlock) block() {}
func (MessageBlock) block() {}
func (ListBlock) block()    {}
func (ChartBlock) block()   {}
