package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/mstarsupply/mstarsupply/web"
)

const documentTemplate = "templates/reports/document.html"

var (
	documentOnce sync.Once
	documentTpl  *template.Template
	documentErr  error
)

func loadDocumentTemplate() (*template.Template, error) {
	documentOnce.Do(func() {
		documentTpl, documentErr = template.ParseFS(web.Templates, documentTemplate)
	})
	return documentTpl, documentErr
}

// SVGCanvas renders each page as an inline SVG element and serializes the
// document as a standalone HTML file.
type SVGCanvas struct {
	title   string
	size    PageSize
	pages   []template.HTML
	current *strings.Builder
}

// NewSVGCanvas constructs an empty canvas. The title is used for the HTML
// document title only.
func NewSVGCanvas(title string) *SVGCanvas {
	return &SVGCanvas{title: title, size: Letter}
}

func (c *SVGCanvas) BeginPage(size PageSize) {
	if size.Width <= 0 || size.Height <= 0 {
		size = Letter
	}
	c.size = size
	c.current = &strings.Builder{}
	fmt.Fprintf(c.current, `<svg xmlns="http://www.w3.org/2000/svg" class="page" viewBox="0 0 %s %s" width="%sin" height="%sin">`,
		num(size.Width), num(size.Height), num(size.Width/72), num(size.Height/72))
}

func (c *SVGCanvas) DrawText(x, y float64, style TextStyle, text string) {
	if c.current == nil {
		return
	}
	weight := "normal"
	if style.Font == FontBold {
		weight = "bold"
	}
	anchor := "start"
	switch style.Align {
	case AlignCenter:
		anchor = "middle"
	case AlignRight:
		anchor = "end"
	}
	fmt.Fprintf(c.current, `<text x="%s" y="%s" font-family="Helvetica, Arial, sans-serif" font-weight="%s" font-size="%s" fill="%s" text-anchor="%s">%s</text>`,
		num(x), num(c.flip(y)), weight, num(style.Size), style.Color.Hex(), anchor, template.HTMLEscapeString(text))
}

func (c *SVGCanvas) DrawLine(x1, y1, x2, y2, width float64, color Color) {
	if c.current == nil {
		return
	}
	fmt.Fprintf(c.current, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"></line>`,
		num(x1), num(c.flip(y1)), num(x2), num(c.flip(y2)), color.Hex(), num(width))
}

func (c *SVGCanvas) FillRect(x, y, w, h float64, color Color) {
	if c.current == nil {
		return
	}
	fmt.Fprintf(c.current, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"></rect>`,
		num(x), num(c.flip(y+h)), num(w), num(h), color.Hex())
}

func (c *SVGCanvas) EndPage() {
	if c.current == nil {
		return
	}
	c.current.WriteString("</svg>")
	c.pages = append(c.pages, template.HTML(c.current.String()))
	c.current = nil
}

// Pages returns the number of finished pages.
func (c *SVGCanvas) Pages() int {
	return len(c.pages)
}

// Serialize renders the finished pages into the HTML document template.
func (c *SVGCanvas) Serialize(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, failure(err)
	}
	if c.current != nil {
		return nil, failure(errors.New("page still open"))
	}
	if len(c.pages) == 0 {
		return nil, failure(errors.New("document has no pages"))
	}
	tpl, err := loadDocumentTemplate()
	if err != nil {
		return nil, failure(fmt.Errorf("parse document template: %w", err))
	}
	data := struct {
		Title        string
		PageWidthIn  string
		PageHeightIn string
		Pages        []template.HTML
	}{
		Title:        c.title,
		PageWidthIn:  num(c.size.Width / 72),
		PageHeightIn: num(c.size.Height / 72),
		Pages:        c.pages,
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "document.html", data); err != nil {
		return nil, failure(fmt.Errorf("execute document template: %w", err))
	}
	return buf.Bytes(), nil
}

func (c *SVGCanvas) flip(y float64) float64 {
	return c.size.Height - y
}

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
