// Package svg renders the movement charts as standalone SVG documents.
package svg

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title        string
	Description  string
	InflowLabel  string
	OutflowLabel string
	InflowColor  string
	OutflowColor string
	AxisColor    string
	GridColor    string
	Padding      float64
	TickCount    int
	// LabelRunes truncates item names under each group. Zero keeps them whole.
	LabelRunes int
}

// Series is one labelled group of the movement chart.
type Series struct {
	Label   string
	Inflow  int64
	Outflow int64
}

// Defaults for the movement charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 320
	DefaultPadding = 32.0
	DefaultTicks   = 5

	InflowColor  = "#007aff"
	OutflowColor = "#ff3b30"
)
