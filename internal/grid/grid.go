package grid

import (
	"fmt"
	"math"

	"github.com/lmonroe/landevo/internal/lem"
)

// Status classifies a node's boundary condition.
type Status uint8

const (
	// Core nodes are freely updated by every process.
	Core Status = iota
	// FixedValue nodes hold a prescribed elevation and act as outlets.
	FixedValue
	// Closed nodes take no part in flow, erosion, or uplift.
	Closed
)

func (s Status) String() string {
	switch s {
	case Core:
		return "core"
	case FixedValue:
		return "fixed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Edge names one of the four raster edges.
type Edge int

const (
	North Edge = iota // row 0
	South             // last row
	East              // last column
	West              // column 0
)

// Raster is a fixed rectangular lattice of nodes in row-major order
// (id = row*cols + col, row 0 at the north edge). Elevation is the only
// state mutated after construction; status is assigned at setup time
// and the node set never changes for the life of a run.
type Raster struct {
	rows, cols int
	dx         float64

	elev   []float64
	status []Status

	// nbrs[i] holds the up-to-8 lattice neighbors of node i, fixed at
	// construction. Closed nodes are filtered by callers, not here.
	nbrs [][]int32
}

// New builds a raster from an elevation field. The slice is copied.
// Every node starts as Core; classify edges with SetEdge before running.
func New(rows, cols int, dx float64, elev []float64) (*Raster, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: grid shape %dx%d", lem.ErrGridShape, rows, cols)
	}
	if dx <= 0 {
		return nil, fmt.Errorf("%w: spacing %g", lem.ErrConfiguration, dx)
	}
	if len(elev) != rows*cols {
		return nil, fmt.Errorf("%w: %d samples for %dx%d grid", lem.ErrGridShape, len(elev), rows, cols)
	}
	for i, z := range elev {
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, fmt.Errorf("%w: non-finite elevation at node %d", lem.ErrGridShape, i)
		}
	}

	g := &Raster{
		rows:   rows,
		cols:   cols,
		dx:     dx,
		elev:   append([]float64(nil), elev...),
		status: make([]Status, rows*cols),
	}
	g.buildNeighbors()
	return g, nil
}

func (g *Raster) buildNeighbors() {
	g.nbrs = make([][]int32, g.rows*g.cols)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			i := r*g.cols + c
			n := make([]int32, 0, 8)
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if dr == 0 && dc == 0 {
						continue
					}
					rr, cc := r+dr, c+dc
					if rr < 0 || rr >= g.rows || cc < 0 || cc >= g.cols {
						continue
					}
					n = append(n, int32(rr*g.cols+cc))
				}
			}
			g.nbrs[i] = n
		}
	}
}

// NumNodes returns the total node count, including closed nodes.
func (g *Raster) NumNodes() int { return g.rows * g.cols }

// Shape returns (rows, cols).
func (g *Raster) Shape() (int, int) { return g.rows, g.cols }

// Rows returns the number of lattice rows.
func (g *Raster) Rows() int { return g.rows }

// Cols returns the number of lattice columns.
func (g *Raster) Cols() int { return g.cols }

// Spacing returns the uniform node spacing dx.
func (g *Raster) Spacing() float64 { return g.dx }

// CellArea returns the area of one cell, dx squared.
func (g *Raster) CellArea() float64 { return g.dx * g.dx }

// XY returns the planar coordinates of node i.
func (g *Raster) XY(i int) (x, y float64) {
	return float64(i%g.cols) * g.dx, float64(i/g.cols) * g.dx
}

// Elev exposes the elevation storage. The driver is the sole writer at
// run time; everyone else treats it as read-only.
func (g *Raster) Elev() []float64 { return g.elev }

// Status returns the boundary classification of node i.
func (g *Raster) Status(i int) Status { return g.status[i] }

// SetStatus classifies a single node. Setup time only.
func (g *Raster) SetStatus(i int, s Status) { g.status[i] = s }

// SetEdge classifies every node on one raster edge. Setup time only.
func (g *Raster) SetEdge(e Edge, s Status) {
	switch e {
	case North:
		for c := 0; c < g.cols; c++ {
			g.status[c] = s
		}
	case South:
		for c := 0; c < g.cols; c++ {
			g.status[(g.rows-1)*g.cols+c] = s
		}
	case East:
		for r := 0; r < g.rows; r++ {
			g.status[r*g.cols+g.cols-1] = s
		}
	case West:
		for r := 0; r < g.rows; r++ {
			g.status[r*g.cols] = s
		}
	}
}

// Neighbors returns the fixed lattice neighbors of node i. The slice is
// shared; callers must not modify it.
func (g *Raster) Neighbors(i int) []int32 { return g.nbrs[i] }

// LinkLength returns the flow-path length between two adjacent nodes:
// dx for cardinal links, dx*sqrt(2) for diagonal links.
func (g *Raster) LinkLength(a, b int) float64 {
	dr := a/g.cols - b/g.cols
	dc := a%g.cols - b%g.cols
	if dr != 0 && dc != 0 {
		return g.dx * math.Sqrt2
	}
	return g.dx
}

// CountStatus returns how many nodes carry the given classification.
func (g *Raster) CountStatus(s Status) int {
	n := 0
	for _, st := range g.status {
		if st == s {
			n++
		}
	}
	return n
}
