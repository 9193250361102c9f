// Package flow derives the single-direction drainage network of a
// raster: every node's steepest-descent receiver and the drainage area
// accumulated through it.
package flow

import (
	"sort"

	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/lem"
)

// Field is the drainage network of one elevation snapshot, recomputed
// every timestep. It references the grid's node ids and owns nothing
// else. The receiver relation restricted to nodes flowing downhill is a
// forest rooted at outlets; sinks, outlets and closed nodes point at
// themselves.
type Field struct {
	// Receiver[i] is the downslope neighbor of node i, or i itself for
	// sinks, boundary outlets and closed nodes.
	Receiver []int32
	// LinkLen[i] is the flow-path length from i to its receiver
	// (dx or dx*sqrt(2)); zero when i is its own receiver.
	LinkLen []float64
	// Area[i] is the drainage area through node i, at least one cell's
	// area. Closed nodes carry zero.
	Area []float64
	// Order holds the non-closed node ids sorted by decreasing
	// elevation, ties broken by ascending id. It is the processing
	// order for area accumulation; its reverse is the
	// downstream-to-upstream order for the implicit erosion sweep.
	Order []int32
}

// IsOutlet reports whether node i drains nowhere, i.e. is its own
// receiver.
func (f *Field) IsOutlet(i int) bool { return f.Receiver[i] == int32(i) }

// minChunk keeps the parallel receiver scan from splitting small grids.
const minChunk = 4096

// Route computes the drainage network for the grid's current elevation.
//
// Receivers follow strict steepest descent: among a node's non-closed
// neighbors, the one with the lowest elevation strictly below the
// node's own, lowest id on ties so repeated runs are bit-reproducible.
// Area accumulation visits nodes from high to low, adding each node's
// finalized total to its receiver. A cycle in the receiver graph is
// unreachable by construction and reported as a defect if seen.
func Route(g *grid.Raster) (*Field, error) {
	n := g.NumNodes()
	elev := g.Elev()

	f := &Field{
		Receiver: make([]int32, n),
		LinkLen:  make([]float64, n),
		Area:     make([]float64, n),
	}

	// Phase 1: per-node receiver scan. No ordering dependency.
	lem.ParallelFor(n, minChunk, func(start, end int) {
		for i := start; i < end; i++ {
			f.Receiver[i] = int32(i)
			if g.Status(i) != grid.Core {
				// Fixed-value nodes are legitimate outlets; closed
				// nodes take no part at all.
				continue
			}
			best := int32(i)
			bestZ := elev[i]
			for _, nb := range g.Neighbors(i) {
				if g.Status(int(nb)) == grid.Closed {
					continue
				}
				// Neighbors ascend by id, so keeping the first minimum
				// seen is the lowest-id tie-break.
				if z := elev[nb]; z < bestZ {
					best = nb
					bestZ = z
				}
			}
			if best != int32(i) {
				f.Receiver[i] = best
				f.LinkLen[i] = g.LinkLength(i, int(best))
			}
		}
	})

	// Phase 2: topological order by decreasing elevation. Every
	// receiver edge points strictly downhill, so this order finalizes
	// each node before it contributes.
	f.Order = make([]int32, 0, n)
	for i := 0; i < n; i++ {
		if g.Status(i) != grid.Closed {
			f.Order = append(f.Order, int32(i))
		}
	}
	sort.Slice(f.Order, func(a, b int) bool {
		ia, ib := f.Order[a], f.Order[b]
		if elev[ia] != elev[ib] {
			return elev[ia] > elev[ib]
		}
		return ia < ib
	})

	rank := make([]int32, n)
	for pos, id := range f.Order {
		rank[id] = int32(pos)
	}

	// Phase 3: area accumulation in dependency order.
	cell := g.CellArea()
	for _, id := range f.Order {
		f.Area[id] += cell
		r := f.Receiver[id]
		if r == id {
			continue
		}
		if rank[r] <= rank[id] {
			return nil, &lem.StepError{Step: -1, Node: int(id), Wrapped: lem.ErrFlowCycle}
		}
		f.Area[r] += f.Area[id]
	}

	return f, nil
}
