package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []Series{
		{Label: "Parafuso", Inflow: 100, Outflow: 20},
		{Label: "Porca <M8>", Inflow: 30, Outflow: 27},
	}, BarOpts{Title: "Movimentações 03/2024"})
	require.NoError(t, err)

	out := string(html)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Equal(t, 4+2, strings.Count(out, "<rect"))
	assert.Contains(t, out, InflowColor)
	assert.Contains(t, out, OutflowColor)
	assert.Contains(t, out, "Entradas")
	assert.Contains(t, out, "Porca &lt;M8&gt;")
	assert.Contains(t, out, `id="movimenta--es-03-2024-bar-title"`)
}

func TestBarsScalesToTallestBar(t *testing.T) {
	html, err := Bars(200, 164, []Series{{Label: "A", Inflow: 50, Outflow: 100}}, BarOpts{Padding: 32})
	require.NoError(t, err)
	// chart height 100, the outflow bar fills it.
	assert.Contains(t, string(html), `y="32.00" width=`)
	assert.Contains(t, string(html), `height="50.00"`)
}

func TestBarsTruncatesLabels(t *testing.T) {
	html, err := Bars(0, 0, []Series{{Label: "Chave de fenda philips", Inflow: 1}}, BarOpts{LabelRunes: 10})
	require.NoError(t, err)
	assert.Contains(t, string(html), ">Chave de f</text>")
}

func TestBarsRequiresSeries(t *testing.T) {
	_, err := Bars(0, 0, nil, BarOpts{})
	require.ErrorIs(t, err, ErrNoSeries)
}
