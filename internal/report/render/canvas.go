// Package render defines the drawing surface used by the page layout engine
// and its implementations. Coordinates follow PDF conventions: points, with
// the origin at the bottom-left corner of the page.
package render

import (
	"context"
	"errors"
	"fmt"
)

// ErrRenderFailure wraps every error raised while producing a document.
var ErrRenderFailure = errors.New("render: document rendering failed")

// PageSize is measured in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Letter is the US Letter page, 8.5x11 inches.
var Letter = PageSize{Width: 612, Height: 792}

// Font names a built-in face.
type Font string

const (
	FontRegular Font = "Helvetica"
	FontBold    Font = "Helvetica-Bold"
)

// Align positions text relative to the x coordinate.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Gray returns a neutral color of the given level.
func Gray(level float64) Color {
	return Color{R: level, G: level, B: level}
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return int(v*255 + 0.5)
	}
}

// Palette used by the reports.
var (
	Black = Color{}
	Blue  = Color{R: 0, G: 0.48, B: 1}
	Red   = Color{R: 1, G: 0.23, B: 0.19}
	Green = Color{R: 0, G: 0.5, B: 0}
)

// TextStyle describes how a string is drawn.
type TextStyle struct {
	Font  Font
	Size  float64
	Color Color
	Align Align
}

// Canvas receives draw instructions page by page.
type Canvas interface {
	BeginPage(size PageSize)
	DrawText(x, y float64, style TextStyle, text string)
	DrawLine(x1, y1, x2, y2, width float64, color Color)
	FillRect(x, y, w, h float64, color Color)
	EndPage()
	// Serialize produces the final document. It fails as a whole; no
	// partial output is returned.
	Serialize(ctx context.Context) ([]byte, error)
}

func failure(err error) error {
	if err == nil || errors.Is(err, ErrRenderFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRenderFailure, err)
}
