// Package solve holds the implicit per-step process solvers: hillslope
// diffusion as tridiagonal line systems and stream-power erosion as an
// upstream-ordered scalar solve. Both are pure functions from the old
// elevation field to a set of deltas; the driver applies deltas at the
// step boundary.
package solve

// thomas solves the tridiagonal system with sub-diagonal a, diagonal b,
// super-diagonal c and right-hand side d, leaving the solution in d.
// a[0] and c[n-1] are ignored. b is destroyed. The systems assembled
// here are strictly diagonally dominant, so no pivoting is needed.
func thomas(a, b, c, d []float64) {
	n := len(d)
	for i := 1; i < n; i++ {
		w := a[i] / b[i-1]
		b[i] -= w * c[i-1]
		d[i] -= w * d[i-1]
	}
	d[n-1] /= b[n-1]
	for i := n - 2; i >= 0; i-- {
		d[i] = (d[i] - c[i]*d[i+1]) / b[i]
	}
}
