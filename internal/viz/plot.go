package viz

import (
	"errors"
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/ERKuipers/campo/internal/table"
)

// ErrNoSeries indicates a plot request without data.
var ErrNoSeries = errors.New("viz: no series to plot")

// PlotSeries draws one agent's values over time.
func PlotSeries(values []float64, caption string, width, height int) (string, error) {
	if len(values) == 0 {
		return "", ErrNoSeries
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	), nil
}

// PlotAgents draws the named agent columns of a wide time-series table in
// one chart.
func PlotAgents(series table.PropertySeries, agents []int, width, height int) (string, error) {
	var data [][]float64
	colors := []asciigraph.AnsiColor{asciigraph.Green, asciigraph.Yellow, asciigraph.Cyan, asciigraph.Red, asciigraph.Blue}
	var used []asciigraph.AnsiColor
	for i, a := range agents {
		col, ok := series.Table.Column(table.AgentColumn(a))
		if !ok {
			return "", fmt.Errorf("%w: agent %d of %s", ErrNoSeries, a, series.Property)
		}
		data = append(data, col.Values)
		used = append(used, colors[i%len(colors)])
	}
	if len(data) == 0 || len(data[0]) == 0 {
		return "", ErrNoSeries
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(used...),
		asciigraph.Caption(fmt.Sprintf("%s, agents %v", series.Property, agents)),
	), nil
}
