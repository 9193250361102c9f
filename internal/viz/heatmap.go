// Package viz renders rasters and profiles for the terminal: a colored
// block heatmap for elevation and rate maps, and asciigraph
// cross-section plots.
package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lmonroe/landevo/internal/grid"
)

// elevRamp runs dark green valleys to white peaks.
var elevRamp = []string{
	"#1b4332", "#2d6a4f", "#40916c", "#74a35b", "#b5a542",
	"#c98a3d", "#b5651d", "#9c6644", "#c4a484", "#e8e8e8",
}

// divergingRamp runs deposition blue through neutral to erosion red.
var divergingRamp = []string{
	"#1d4ed8", "#3b82f6", "#93c5fd", "#d4d4d8", "#fca5a5", "#ef4444", "#b91c1c",
}

// Heatmap renders a per-node field as one colored block pair per cell,
// downsampled with nearest-neighbor when wider than maxCols terminal
// columns. Closed nodes render as blanks.
func Heatmap(g *grid.Raster, field []float64, maxCols int) string {
	return render(g, field, maxCols, elevRamp, false)
}

// RateMap renders a signed erosion/deposition field on a diverging ramp
// centered at zero.
func RateMap(g *grid.Raster, field []float64, maxCols int) string {
	return render(g, field, maxCols, divergingRamp, true)
}

func render(g *grid.Raster, field []float64, maxCols int, ramp []string, signed bool) string {
	rows, cols := g.Shape()
	stride := 1
	for cols/stride > maxCols {
		stride++
	}

	lo, hi := fieldRange(g, field)
	if signed {
		m := math.Max(math.Abs(lo), math.Abs(hi))
		lo, hi = -m, m
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for r := 0; r < rows; r += stride {
		for c := 0; c < cols; c += stride {
			i := r*cols + c
			if g.Status(i) == grid.Closed {
				b.WriteString("  ")
				continue
			}
			t := (field[i] - lo) / span
			k := int(t * float64(len(ramp)))
			if k >= len(ramp) {
				k = len(ramp) - 1
			}
			if k < 0 {
				k = 0
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ramp[k])).Render("██"))
		}
		b.WriteByte('\n')
	}
	b.WriteString(Subtle.Render(fmt.Sprintf("min %.4g  max %.4g", lo, hi)))
	b.WriteByte('\n')
	return b.String()
}

func fieldRange(g *grid.Raster, field []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i, v := range field {
		if g.Status(i) == grid.Closed {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}
