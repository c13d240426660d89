package render

import (
	"context"
	"errors"

	"github.com/mstarsupply/mstarsupply/report"
)

// Converter turns an HTML document into PDF bytes.
type Converter interface {
	ConvertHTML(ctx context.Context, html []byte, opts report.PageOptions) ([]byte, error)
}

// PDFCanvas draws through an SVGCanvas and converts the HTML result to PDF.
type PDFCanvas struct {
	*SVGCanvas
	converter Converter
}

// NewPDFCanvas constructs a PDF canvas backed by converter.
func NewPDFCanvas(title string, converter Converter) *PDFCanvas {
	return &PDFCanvas{SVGCanvas: NewSVGCanvas(title), converter: converter}
}

// Serialize renders the HTML pages and converts them. Any failure discards
// the whole document.
func (c *PDFCanvas) Serialize(ctx context.Context) ([]byte, error) {
	if c.converter == nil {
		return nil, failure(errors.New("pdf converter not configured"))
	}
	html, err := c.SVGCanvas.Serialize(ctx)
	if err != nil {
		return nil, err
	}
	opts := report.PageOptions{PaperWidth: c.size.Width / 72, PaperHeight: c.size.Height / 72}
	pdf, err := c.converter.ConvertHTML(ctx, html, opts)
	if err != nil {
		return nil, failure(err)
	}
	if len(pdf) == 0 {
		return nil, failure(errors.New("converter returned empty document"))
	}
	return pdf, nil
}
