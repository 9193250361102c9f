package sim

// Ledger accumulates per-node elevation change across the trailing
// window of a run and reports it as an average rate. Each recorded step
// is bracketed by Begin (before the diffusion and erosion updates) and
// End (after them, before uplift), so uplift's direct contribution is
// excluded. Positive rates mean net lowering.
type Ledger struct {
	window int
	dt     float64

	sum    []float64
	before []float64
	open   bool
}

// NewLedger sizes a ledger for n nodes and a trailing window of the
// given step count and timestep duration.
func NewLedger(n, window int, dt float64) *Ledger {
	return &Ledger{
		window: window,
		dt:     dt,
		sum:    make([]float64, n),
		before: make([]float64, n),
	}
}

// Window returns the configured trailing step count.
func (l *Ledger) Window() int { return l.window }

// Reset zeroes the accumulated change. Required when a run restarts.
func (l *Ledger) Reset() {
	for i := range l.sum {
		l.sum[i] = 0
	}
	l.open = false
}

// Begin snapshots the elevation before a recorded step's updates.
func (l *Ledger) Begin(elev []float64) {
	copy(l.before, elev)
	l.open = true
}

// End accumulates the change of a step opened with Begin.
func (l *Ledger) End(elev []float64) {
	if !l.open {
		return
	}
	for i, z := range elev {
		l.sum[i] += l.before[i] - z
	}
	l.open = false
}

// Rate returns the per-node average rate over the window's simulated
// duration. A zero window yields all zeros.
func (l *Ledger) Rate() []float64 {
	rate := make([]float64, len(l.sum))
	if l.window == 0 {
		return rate
	}
	inv := 1 / (float64(l.window) * l.dt)
	for i, s := range l.sum {
		rate[i] = s * inv
	}
	return rate
}
