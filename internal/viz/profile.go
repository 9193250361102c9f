package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/lmonroe/landevo/internal/grid"
)

// ColumnProfile extracts the north-south cross section of a field along
// one column. Closed nodes are carried at their stored value so the
// profile length always equals the row count.
func ColumnProfile(g *grid.Raster, field []float64, col int) []float64 {
	rows, cols := g.Shape()
	prof := make([]float64, rows)
	for r := 0; r < rows; r++ {
		prof[r] = field[r*cols+col]
	}
	return prof
}

// PlotProfile renders the cross section along the given column (the
// middle column when col is negative) as a terminal graph.
func PlotProfile(g *grid.Raster, field []float64, col, width, height int) string {
	if col < 0 {
		col = g.Cols() / 2
	}
	data := ColumnProfile(g, field, col)
	return PlotSeries(data, fmt.Sprintf("N-S cross section, column %d", col), width, height)
}

// PlotSeries renders any series as a terminal graph.
func PlotSeries(data []float64, caption string, width, height int) string {
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
