package grid

import "math/rand"

// Synthetic initial surfaces for experiments and tests, counterparts of
// loading a DEM.

// Flat builds a level surface at elevation z0.
func Flat(rows, cols int, dx, z0 float64) (*Raster, error) {
	elev := make([]float64, rows*cols)
	for i := range elev {
		elev[i] = z0
	}
	return New(rows, cols, dx, elev)
}

// Ridge builds an east-west ridge: a tent profile from the north and
// south edges up to a crest along the middle row, plus a small seeded
// perturbation so drainage is not degenerate on the perfectly straight
// flanks. relief is the crest height above the edge elevation base.
func Ridge(rows, cols int, dx, base, relief float64, seed int64) (*Raster, error) {
	rng := rand.New(rand.NewSource(seed))
	mid := float64(rows-1) / 2
	elev := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		h := base + relief*(1-absf(float64(r)-mid)/mid)
		for c := 0; c < cols; c++ {
			elev[r*cols+c] = h + relief*0.01*rng.Float64()
		}
	}
	return New(rows, cols, dx, elev)
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
