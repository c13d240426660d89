// Package layout places blocks top to bottom on fixed-size pages and breaks
// pages when a block would not fit above the bottom margin.
package layout

import (
	"errors"

	"github.com/mstarsupply/mstarsupply/internal/report/render"
)

// ErrClosed is returned when blocks are emitted after Close.
var ErrClosed = errors.New("layout: document closed")

// State is the engine lifecycle position.
type State int

const (
	StateOnPage State = iota
	StatePageBreak
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOnPage:
		return "on_page"
	case StatePageBreak:
		return "page_break"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Margins are measured in points.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Page describes the paper and its margins.
type Page struct {
	Size    render.PageSize
	Margins Margins
}

// LetterPage is US Letter with 40pt margins.
var LetterPage = Page{Size: render.Letter, Margins: Margins{Top: 40, Right: 40, Bottom: 40, Left: 40}}

// DrawFunc draws a block whose top baseline is y.
type DrawFunc func(c render.Canvas, y float64)

// BlockSpec is the layout contract of one block type.
type BlockSpec struct {
	Name string
	// Height is subtracted from the cursor after the block is drawn.
	Height float64
	// Threshold is the space above the bottom margin the cursor must still
	// have for the block to start on the current page.
	Threshold float64
	// BeforeBreak runs on the old page just before it ends.
	BeforeBreak func(e *Engine)
	// AfterBreak runs on the new page after the fixed header is redrawn.
	AfterBreak func(e *Engine)
}

// Segment is the vertical extent of a bordered region on one page.
type Segment struct {
	Page   int
	Top    float64
	Bottom float64
}

// Options configure a new Engine.
type Options struct {
	Page Page
	// Header draws the fixed page header at the top of every page and
	// returns the height it consumed.
	Header func(c render.Canvas, top float64) float64
	// Footer draws on the final page when the engine closes.
	Footer func(c render.Canvas, page int, p Page)
}

// Engine is the pagination state machine.
type Engine struct {
	canvas   render.Canvas
	page     Page
	header   func(c render.Canvas, top float64) float64
	footer   func(c render.Canvas, page int, p Page)
	y        float64
	pageNo   int
	state    State
	breaks   int
	columns  []float64
	segTop   float64
	segOpen  bool
	segments []Segment
}

// New starts the first page on canvas and draws its header.
func New(canvas render.Canvas, opts Options) *Engine {
	page := opts.Page
	if page.Size.Width <= 0 || page.Size.Height <= 0 {
		page = LetterPage
	}
	e := &Engine{canvas: canvas, page: page, header: opts.Header, footer: opts.Footer}
	e.beginPage()
	return e
}

// Canvas exposes the underlying drawing surface.
func (e *Engine) Canvas() render.Canvas { return e.canvas }

// Y returns the current cursor position.
func (e *Engine) Y() float64 { return e.y }

// PageNumber returns the 1-based index of the current page.
func (e *Engine) PageNumber() int { return e.pageNo }

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// Breaks counts the page breaks triggered so far.
func (e *Engine) Breaks() int { return e.breaks }

// Left returns the x of the left margin.
func (e *Engine) Left() float64 { return e.page.Margins.Left }

// Right returns the x of the right margin.
func (e *Engine) Right() float64 { return e.page.Size.Width - e.page.Margins.Right }

// Segments returns every closed bordered region.
func (e *Engine) Segments() []Segment {
	out := make([]Segment, len(e.segments))
	copy(out, e.segments)
	return out
}

// Emit draws one block, breaking the page first when the cursor is below
// bottom margin plus the block threshold.
func (e *Engine) Emit(spec BlockSpec, draw DrawFunc) error {
	if e.state == StateClosed {
		return ErrClosed
	}
	if e.y < e.page.Margins.Bottom+spec.Threshold {
		e.breakPage(spec)
	}
	if draw != nil {
		draw(e.canvas, e.y)
	}
	e.y -= spec.Height
	return nil
}

// Skip moves the cursor down without drawing.
func (e *Engine) Skip(dy float64) {
	if e.state == StateClosed {
		return
	}
	e.y -= dy
}

// OpenSegment starts a bordered region at the current cursor. Vertical
// separators are drawn at xs when the region closes.
func (e *Engine) OpenSegment(xs []float64) {
	e.columns = append(e.columns[:0], xs...)
	e.segTop = e.y
	e.segOpen = true
}

// CloseSegment draws the separators from the region top down to the cursor.
func (e *Engine) CloseSegment() {
	if !e.segOpen {
		return
	}
	e.segOpen = false
	if e.segTop <= e.y {
		return
	}
	for _, x := range e.columns {
		e.canvas.DrawLine(x, e.y, x, e.segTop, 0.5, render.Gray(0.9))
	}
	e.segments = append(e.segments, Segment{Page: e.pageNo, Top: e.segTop, Bottom: e.y})
}

// Close draws the footer on the current page, ends it and rejects further
// blocks. The canvas is returned for serialization.
func (e *Engine) Close() render.Canvas {
	if e.state == StateClosed {
		return e.canvas
	}
	e.CloseSegment()
	if e.footer != nil {
		e.footer(e.canvas, e.pageNo, e.page)
	}
	e.canvas.EndPage()
	e.state = StateClosed
	return e.canvas
}

func (e *Engine) breakPage(spec BlockSpec) {
	e.state = StatePageBreak
	e.breaks++
	if spec.BeforeBreak != nil {
		spec.BeforeBreak(e)
	}
	e.canvas.EndPage()
	e.beginPage()
	if spec.AfterBreak != nil {
		spec.AfterBreak(e)
	}
}

func (e *Engine) beginPage() {
	e.pageNo++
	e.canvas.BeginPage(e.page.Size)
	e.y = e.page.Size.Height - e.page.Margins.Top
	if e.header != nil {
		e.y -= e.header(e.canvas, e.y)
	}
	e.state = StateOnPage
}
