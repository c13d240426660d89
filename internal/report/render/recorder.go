package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// OpKind identifies a recorded instruction.
type OpKind string

const (
	OpBeginPage OpKind = "begin"
	OpText      OpKind = "text"
	OpLine      OpKind = "line"
	OpRect      OpKind = "rect"
	OpEndPage   OpKind = "end"
)

// Op is one recorded draw instruction.
type Op struct {
	Kind  OpKind
	Page  int
	X, Y  float64
	X2    float64
	Y2    float64
	W, H  float64
	Width float64
	Text  string
	Style TextStyle
	Color Color
}

// Recorder is a Canvas that keeps the instruction stream in memory.
type Recorder struct {
	ops   []Op
	page  int
	open  bool
	pages int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) BeginPage(PageSize) {
	r.pages++
	r.page = r.pages
	r.open = true
	r.ops = append(r.ops, Op{Kind: OpBeginPage, Page: r.page})
}

func (r *Recorder) DrawText(x, y float64, style TextStyle, text string) {
	r.ops = append(r.ops, Op{Kind: OpText, Page: r.page, X: x, Y: y, Style: style, Color: style.Color, Text: text})
}

func (r *Recorder) DrawLine(x1, y1, x2, y2, width float64, color Color) {
	r.ops = append(r.ops, Op{Kind: OpLine, Page: r.page, X: x1, Y: y1, X2: x2, Y2: y2, Width: width, Color: color})
}

func (r *Recorder) FillRect(x, y, w, h float64, color Color) {
	r.ops = append(r.ops, Op{Kind: OpRect, Page: r.page, X: x, Y: y, W: w, H: h, Color: color})
}

func (r *Recorder) EndPage() {
	r.open = false
	r.ops = append(r.ops, Op{Kind: OpEndPage, Page: r.page})
}

// Serialize dumps the instruction stream as text, one op per line.
func (r *Recorder) Serialize(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, failure(err)
	}
	if r.open {
		return nil, failure(errors.New("page still open"))
	}
	var buf bytes.Buffer
	for _, op := range r.ops {
		switch op.Kind {
		case OpText:
			fmt.Fprintf(&buf, "%d text %.1f %.1f %s %q\n", op.Page, op.X, op.Y, op.Style.Font, op.Text)
		case OpLine:
			fmt.Fprintf(&buf, "%d line %.1f %.1f %.1f %.1f\n", op.Page, op.X, op.Y, op.X2, op.Y2)
		case OpRect:
			fmt.Fprintf(&buf, "%d rect %.1f %.1f %.1f %.1f\n", op.Page, op.X, op.Y, op.W, op.H)
		default:
			fmt.Fprintf(&buf, "%d %s\n", op.Page, op.Kind)
		}
	}
	return buf.Bytes(), nil
}

// Ops returns a copy of every recorded instruction.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Pages reports how many pages were started.
func (r *Recorder) Pages() int {
	return r.pages
}

// Texts lists the strings drawn on a page in drawing order.
func (r *Recorder) Texts(page int) []string {
	var out []string
	for _, op := range r.ops {
		if op.Kind == OpText && op.Page == page {
			out = append(out, op.Text)
		}
	}
	return out
}

// Lines lists the line instructions of a page.
func (r *Recorder) Lines(page int) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Kind == OpLine && op.Page == page {
			out = append(out, op)
		}
	}
	return out
}
