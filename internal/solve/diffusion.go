package solve

import (
	"fmt"

	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/lem"
)

// Axis selects which lattice direction the implicit diffusion lines run
// along. The model is the one-dimensional creep law dz/dt = D d2z/dx2
// discretized along grid lines; AxisBoth applies a rows sweep then a
// cols sweep as a sequential operator split.
type Axis int

const (
	AxisRows Axis = iota
	AxisCols
	AxisBoth
)

// ParseAxis maps the config spelling to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "", "rows":
		return AxisRows, nil
	case "cols":
		return AxisCols, nil
	case "both":
		return AxisBoth, nil
	}
	return 0, fmt.Errorf("%w: diffusion axis %q", lem.ErrConfiguration, s)
}

// Diffuser integrates hillslope diffusion with a backward-time implicit
// scheme. Each lattice line is split at closed nodes into independent
// tridiagonal systems: fixed-value nodes are pinned (Dirichlet rows),
// line ends against closed nodes or the grid edge are zero-flux
// (Neumann). The implicit solve is unconditionally stable for any dt,
// D, or spacing, which the driver relies on since its timesteps are far
// beyond the explicit stability bound.
type Diffuser struct {
	D    float64
	Axis Axis
}

// NewDiffuser returns a diffuser with diffusivity d.
func NewDiffuser(d float64, axis Axis) *Diffuser {
	return &Diffuser{D: d, Axis: axis}
}

// Step computes elevation deltas for one timestep without touching the
// grid. The returned slice has one entry per node; fixed-value and
// closed nodes are always zero.
func (df *Diffuser) Step(g *grid.Raster, dt float64) []float64 {
	n := g.NumNodes()
	delta := make([]float64, n)
	if df.D == 0 {
		return delta
	}

	// Work on a copy so AxisBoth's second sweep sees the first sweep's
	// result while the grid stays untouched.
	work := append([]float64(nil), g.Elev()...)

	switch df.Axis {
	case AxisRows:
		df.sweep(g, work, dt, true)
	case AxisCols:
		df.sweep(g, work, dt, false)
	case AxisBoth:
		df.sweep(g, work, dt, true)
		df.sweep(g, work, dt, false)
	}

	elev := g.Elev()
	for i := 0; i < n; i++ {
		if g.Status(i) == grid.Core {
			delta[i] = work[i] - elev[i]
		}
	}
	return delta
}

// sweep solves every line along one lattice direction in place. Lines
// are independent, so they run in parallel.
func (df *Diffuser) sweep(g *grid.Raster, z []float64, dt float64, alongRows bool) {
	rows, cols := g.Shape()
	lines, lineLen := rows, cols
	if !alongRows {
		lines, lineLen = cols, rows
	}
	r := df.D * dt / (g.Spacing() * g.Spacing())

	lem.ParallelFor(lines, 8, func(start, end int) {
		a := make([]float64, lineLen)
		b := make([]float64, lineLen)
		c := make([]float64, lineLen)
		d := make([]float64, lineLen)
		ids := make([]int, lineLen)

		for line := start; line < end; line++ {
			for k := 0; k < lineLen; k++ {
				if alongRows {
					ids[k] = line*cols + k
				} else {
					ids[k] = k*cols + line
				}
			}
			// Split the line at closed nodes and solve each segment.
			segStart := -1
			for k := 0; k <= lineLen; k++ {
				open := k < lineLen && g.Status(ids[k]) != grid.Closed
				if open && segStart < 0 {
					segStart = k
				}
				if !open && segStart >= 0 {
					df.solveSegment(g, z, ids[segStart:k], a, b, c, d, r)
					segStart = -1
				}
			}
		}
	})
}

// solveSegment assembles and solves one contiguous run of non-closed
// nodes. Scratch slices are sized for the full line.
func (df *Diffuser) solveSegment(g *grid.Raster, z []float64, ids []int, a, b, c, d []float64, r float64) {
	m := len(ids)
	if m == 1 {
		// Isolated node: zero flux on both sides, nothing moves.
		return
	}
	for k := 0; k < m; k++ {
		id := ids[k]
		d[k] = z[id]
		if g.Status(id) == grid.FixedValue {
			a[k], b[k], c[k] = 0, 1, 0
			continue
		}
		switch k {
		case 0:
			a[k], b[k], c[k] = 0, 1+r, -r
		case m - 1:
			a[k], b[k], c[k] = -r, 1+r, 0
		default:
			a[k], b[k], c[k] = -r, 1+2*r, -r
		}
	}
	thomas(a[:m], b[:m], c[:m], d[:m])
	for k := 0; k < m; k++ {
		z[ids[k]] = d[k]
	}
}
