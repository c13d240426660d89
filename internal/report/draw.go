package report

import (
	"fmt"
	"strconv"

	"github.com/mstarsupply/mstarsupply/internal/report/layout"
	"github.com/mstarsupply/mstarsupply/internal/report/render"
	"github.com/mstarsupply/mstarsupply/internal/stock"
)

// Page header geometry. The header consumes title, subtitle, rule and gap.
const (
	headerHeight = 65
	sectionGap   = 20
	rowHeight    = 15
	barWidth     = 60
	barSpacing   = 20
)

var (
	titleStyle    = render.TextStyle{Font: render.FontBold, Size: 20, Color: render.Black}
	subtitleStyle = render.TextStyle{Font: render.FontRegular, Size: 12, Color: render.Gray(0.4)}
	headingStyle  = render.TextStyle{Font: render.FontBold, Size: 14, Color: render.Black}
	footerStyle   = render.TextStyle{Font: render.FontRegular, Size: 8, Color: render.Gray(0.6)}
	ruleColor     = render.Gray(0.9)
	bandColor     = render.Gray(0.95)
	mutedColor    = render.Gray(0.3)
)

// Block specs of the two report variants.
var (
	summarySpec = layout.BlockSpec{Name: "summary", Height: 70}
	ruleSpec    = layout.BlockSpec{Name: "rule", Height: sectionGap}
	rowSpec     = layout.BlockSpec{Name: "table_row", Height: rowHeight, Threshold: 60}
	totalsSpec  = layout.BlockSpec{Name: "table_totals", Height: rowHeight, Threshold: 60}
	historySpec = layout.BlockSpec{Name: "history_heading", Height: sectionGap, Threshold: 100}
	groupSpec   = layout.BlockSpec{Name: "history_group", Height: rowHeight, Threshold: 60}
	lineSpec    = layout.BlockSpec{Name: "history_line", Height: rowHeight, Threshold: 20}
	messageSpec = layout.BlockSpec{Name: "message", Height: sectionGap}
	listSpec    = layout.BlockSpec{Name: "list_heading", Height: sectionGap, Threshold: 60}
	entrySpec   = layout.BlockSpec{Name: "list_entry", Height: rowHeight, Threshold: 20}
	chartSpec   = layout.BlockSpec{Name: "chart", Height: sectionGap + MaxBarHeight + 40, Threshold: 200}
)

// Render lays doc out on canvas and closes the layout. Every page is ended
// when Render returns, so the canvas is ready for Serialize.
func Render(doc Document, canvas render.Canvas) (*layout.Engine, error) {
	p := &painter{doc: doc}
	p.engine = layout.New(canvas, layout.Options{
		Page:   layout.LetterPage,
		Header: p.header,
		Footer: p.footer,
	})
	for _, b := range doc.Blocks {
		var err error
		switch block := b.(type) {
		case SummaryBlock:
			err = p.summary(block)
		case TableBlock:
			err = p.table(block)
		case HistoryBlock:
			err = p.history(block)
		case MessageBlock:
			err = p.message(block)
		case ListBlock:
			err = p.list(block)
		case ChartBlock:
			err = p.chart(block)
		default:
			err = fmt.Errorf("report: unsupported block %T", b)
		}
		if err != nil {
			return nil, err
		}
	}
	p.engine.Close()
	return p.engine, nil
}

type painter struct {
	doc    Document
	engine *layout.Engine
}

func (p *painter) left() float64 { return p.engine.Left() }

func (p *painter) header(c render.Canvas, top float64) float64 {
	page := layout.LetterPage
	left := page.Margins.Left
	width := page.Size.Width - page.Margins.Left - page.Margins.Right
	if p.doc.Variant == VariantLedger {
		width = columnsWidth(LedgerColumns)
	}
	c.DrawText(left, top, titleStyle, p.doc.Title)
	c.DrawText(left, top-25, subtitleStyle, p.doc.Period.Label())
	c.DrawLine(left, top-45, left+width, top-45, 0.5, ruleColor)
	return headerHeight
}

func (p *painter) footer(c render.Canvas, page int, pg layout.Page) {
	y := pg.Margins.Bottom - 10
	c.DrawText(pg.Margins.Left, y, footerStyle, "Gerado em: "+p.doc.GeneratedAt.Format(historyStamp))
	c.DrawText(pg.Size.Width-pg.Margins.Right-50, y, footerStyle, fmt.Sprintf("Página %d", page))
}

func (p *painter) summary(b SummaryBlock) error {
	err := p.engine.Emit(summarySpec, func(c render.Canvas, y float64) {
		c.DrawText(p.left(), y, headingStyle, b.Heading)
		lineY := y - sectionGap
		for _, line := range b.Lines {
			style := render.TextStyle{Font: render.FontRegular, Size: 10, Color: toneColor(line.Tone, "")}
			c.DrawText(p.left()+10, lineY, style, line.Text)
			lineY -= rowHeight
		}
	})
	if err != nil {
		return err
	}
	width := columnsWidth(LedgerColumns)
	return p.engine.Emit(ruleSpec, func(c render.Canvas, y float64) {
		c.DrawLine(p.left(), y, p.left()+width, y, 0.5, ruleColor)
	})
}

func (p *painter) table(b TableBlock) error {
	width := columnsWidth(b.Columns)
	edges := columnEdges(p.left(), b.Columns)

	openTable := func(e *layout.Engine) {
		p.tableHeader(b.Columns, width, edges)
		e.OpenSegment(edges)
	}
	bareHeader := func(*layout.Engine) { p.tableHeader(b.Columns, width, edges) }

	row := rowSpec
	row.BeforeBreak = func(e *layout.Engine) { e.CloseSegment() }
	row.AfterBreak = openTable

	openTable(p.engine)
	for _, r := range b.Rows {
		err := p.engine.Emit(row, func(c render.Canvas, y float64) {
			p.cells(c, y, b.Columns, r, false)
			c.DrawLine(p.left(), y-rowHeight, p.left()+width, y-rowHeight, 0.5, ruleColor)
		})
		if err != nil {
			return err
		}
	}
	p.engine.CloseSegment()

	p.engine.Skip(10)
	totals := totalsSpec
	totals.AfterBreak = bareHeader
	return p.engine.Emit(totals, func(c render.Canvas, y float64) {
		c.FillRect(p.left(), y-rowHeight, width, 20, bandColor)
		p.cells(c, y, b.Columns, b.Totals, true)
		c.DrawLine(p.left(), y-rowHeight, p.left()+width, y-rowHeight, 1.0, ruleColor)
		for _, x := range edges {
			c.DrawLine(x, y-rowHeight, x, y+5, 0.5, ruleColor)
		}
	})
}

func (p *painter) tableHeader(columns []Column, width float64, edges []float64) {
	c := p.engine.Canvas()
	y := p.engine.Y()
	c.FillRect(p.left(), y-rowHeight, width, 20, bandColor)
	x := p.left()
	for _, col := range columns {
		style := render.TextStyle{Font: render.FontBold, Size: 9, Color: render.Gray(0.2)}
		if col.Left {
			c.DrawText(x+5, y, style, col.Title)
		} else {
			style.Align = render.AlignCenter
			c.DrawText(x+col.Width/2, y, style, col.Title)
		}
		x += col.Width
	}
	c.DrawLine(p.left(), y-rowHeight, p.left()+width, y-rowHeight, 1.0, ruleColor)
	for _, edge := range edges {
		c.DrawLine(edge, y-rowHeight, edge, y, 0.5, ruleColor)
	}
	p.engine.Skip(rowHeight + 5)
}

func (p *painter) cells(c render.Canvas, y float64, columns []Column, row TableRow, bold bool) {
	x := p.left()
	for i, col := range columns {
		if i >= len(row.Cells) {
			break
		}
		text := row.Cells[i]
		if text != "" {
			style := render.TextStyle{Font: render.FontRegular, Size: 9, Color: toneColor(col.Tone, row.Marker)}
			if bold {
				style.Font = render.FontBold
				if i == 0 {
					style.Color = render.Black
				}
			}
			if col.Left {
				c.DrawText(x+5, y, style, text)
			} else {
				style.Align = render.AlignCenter
				c.DrawText(x+col.Width/2, y, style, text)
			}
		}
		x += col.Width
	}
}

func (p *painter) history(b HistoryBlock) error {
	p.engine.Skip(sectionGap)
	drawHeading := func(c render.Canvas, y float64) {
		c.DrawText(p.left(), y, headingStyle, b.Heading)
	}
	if err := p.engine.Emit(historySpec, drawHeading); err != nil {
		return err
	}
	reopen := func(e *layout.Engine) {
		drawHeading(e.Canvas(), e.Y())
		e.Skip(sectionGap)
	}
	group := groupSpec
	group.AfterBreak = reopen
	line := lineSpec
	line.AfterBreak = reopen

	groupStyle := render.TextStyle{Font: render.FontBold, Size: 10, Color: render.Black}
	for _, g := range b.Groups {
		heading := g.Heading
		if err := p.engine.Emit(group, func(c render.Canvas, y float64) {
			c.DrawText(p.left()+10, y, groupStyle, heading)
		}); err != nil {
			return err
		}
		for _, l := range g.Lines {
			if err := p.engine.Emit(line, func(c render.Canvas, y float64) {
				style := render.TextStyle{Font: render.FontRegular, Size: 9, Color: toneColor(l.Tone, "")}
				c.DrawText(p.left()+20, y, style, l.Text)
			}); err != nil {
				return err
			}
		}
		p.engine.Skip(10)
	}
	return nil
}

func (p *painter) message(b MessageBlock) error {
	return p.engine.Emit(messageSpec, func(c render.Canvas, y float64) {
		c.DrawText(p.left(), y, subtitleStyle, b.Text)
	})
}

func (p *painter) list(b ListBlock) error {
	drawHeading := func(c render.Canvas, y float64) {
		c.DrawText(p.left(), y, headingStyle, b.Heading)
	}
	if err := p.engine.Emit(listSpec, drawHeading); err != nil {
		return err
	}
	entry := entrySpec
	entry.AfterBreak = func(e *layout.Engine) {
		drawHeading(e.Canvas(), e.Y())
		e.Skip(sectionGap)
	}
	for _, item := range b.Entries {
		err := p.engine.Emit(entry, func(c render.Canvas, y float64) {
			style := render.TextStyle{Font: render.FontRegular, Size: 10, Color: mutedColor}
			c.DrawText(p.left()+10, y, style, item.Label+":")
			style.Color = render.Blue
			c.DrawText(p.left()+150, y, style, "Entradas: "+strconv.FormatInt(item.Inflow, 10))
			style.Color = render.Red
			c.DrawText(p.left()+250, y, style, "Saídas: "+strconv.FormatInt(item.Outflow, 10))
			style.Color = mutedColor
			c.DrawText(p.left()+350, y, style, "Total: "+strconv.FormatInt(item.Total, 10))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *painter) chart(b ChartBlock) error {
	p.engine.Skip(sectionGap)
	return p.engine.Emit(chartSpec, func(c render.Canvas, y float64) {
		c.DrawText(p.left(), y, headingStyle, b.Heading)
		base := y - sectionGap
		label := render.TextStyle{Font: render.FontRegular, Size: 8, Color: mutedColor, Align: render.AlignCenter}
		x := p.left()
		for _, bar := range b.Bars {
			c.FillRect(x, base-bar.Height, barWidth, bar.Height, render.Gray(0.6))
			c.DrawText(x+barWidth/2, base-bar.Height-10, label, strconv.FormatInt(bar.Value, 10))
			c.DrawText(x+barWidth/2, base+10, label, bar.Label)
			x += barWidth + barSpacing
		}
	})
}

func toneColor(t Tone, marker stock.Marker) render.Color {
	switch t {
	case ToneInflow:
		return render.Blue
	case ToneOutflow:
		return render.Red
	case ToneMarker:
		switch marker {
		case stock.MarkerLowStock:
			return render.Red
		case stock.MarkerNormal:
			return render.Green
		}
	}
	return mutedColor
}

func columnsWidth(columns []Column) float64 {
	var w float64
	for _, col := range columns {
		w += col.Width
	}
	return w
}

func columnEdges(left float64, columns []Column) []float64 {
	edges := make([]float64, 0, len(columns)+1)
	x := left
	edges = append(edges, x)
	for _, col := range columns {
		x += col.Width
		edges = append(edges, x)
	}
	return edges
}
