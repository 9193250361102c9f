package sim

import "github.com/lmonroe/landevo/internal/grid"

// Uplift raises every core node by Rate*dt each step. Fixed-value and
// closed nodes are never touched. Purely additive, no failure modes.
type Uplift struct {
	Rate float64
}

// Step applies one timestep of uplift directly to the grid.
func (u *Uplift) Step(g *grid.Raster, dt float64) {
	if u.Rate == 0 {
		return
	}
	inc := u.Rate * dt
	elev := g.Elev()
	for i := range elev {
		if g.Status(i) == grid.Core {
			elev[i] += inc
		}
	}
}
