// Package sim orchestrates the per-step process sequence: flow routing,
// implicit diffusion, implicit stream-power erosion, trailing-window
// erosion bookkeeping, and uplift.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/lmonroe/landevo/internal/flow"
	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/lem"
	"github.com/lmonroe/landevo/internal/solve"
)

// Params are the model coefficients for one run.
type Params struct {
	Diffusivity float64 // D, hillslope creep
	Ksp         float64 // stream-power coefficient
	M           float64 // area exponent
	N           float64 // slope exponent
	Threshold   float64 // stream-power incision threshold
	UpliftRate  float64 // length/time, core nodes only
	Dt          float64 // timestep duration
	Steps       int     // total steps
	Window      int     // trailing steps recorded by the ledger
	Axis        solve.Axis
}

// Validate rejects coefficients outside their legal domain before any
// stepping begins.
func (p Params) Validate() error {
	fail := func(name string, v any) error {
		return fmt.Errorf("%w: %s = %v", lem.ErrConfiguration, name, v)
	}
	if p.Diffusivity < 0 {
		return fail("diffusivity", p.Diffusivity)
	}
	if p.Ksp < 0 {
		return fail("k_sp", p.Ksp)
	}
	if p.M <= 0 {
		return fail("m_sp", p.M)
	}
	if p.N <= 0 {
		return fail("n_sp", p.N)
	}
	if p.Threshold < 0 {
		return fail("threshold", p.Threshold)
	}
	if p.UpliftRate < 0 {
		return fail("uplift_rate", p.UpliftRate)
	}
	if p.Dt <= 0 {
		return fail("dt", p.Dt)
	}
	if p.Steps <= 0 {
		return fail("steps", p.Steps)
	}
	if p.Window < 0 || p.Window > p.Steps {
		return fail("window_steps", p.Window)
	}
	return nil
}

// RunState is the driver's lifecycle phase.
type RunState int

const (
	Initialized RunState = iota
	Running
	Complete
)

func (s RunState) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Result is the terminal output of a run: the final elevation raster
// and the trailing-window average erosion rate raster, plus the shape
// needed to reshape them.
type Result struct {
	Rows, Cols  int
	Steps       int
	Dt          float64
	Elev        []float64
	ErosionRate []float64 // positive = net lowering over the window
}

// Driver advances a grid through the fixed per-step sequence. A driver
// is good for exactly one run: Initialized -> Running -> Complete.
type Driver struct {
	g      *grid.Raster
	p      Params
	diff   *solve.Diffuser
	eroder *solve.StreamPower
	uplift *Uplift
	ledger *Ledger

	observers []lem.Observer
	state     RunState
}

// New validates the parameters and wires up the per-process solvers.
func New(g *grid.Raster, p Params) (*Driver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Driver{
		g:      g,
		p:      p,
		diff:   solve.NewDiffuser(p.Diffusivity, p.Axis),
		eroder: solve.NewStreamPower(p.Ksp, p.M, p.N, p.Threshold),
		uplift: &Uplift{Rate: p.UpliftRate},
		ledger: NewLedger(g.NumNodes(), p.Window, p.Dt),
	}, nil
}

// AddObserver registers a per-step hook (progress reporting, live
// views). Observers run after the step's updates are applied.
func (d *Driver) AddObserver(o lem.Observer) { d.observers = append(d.observers, o) }

// State returns the driver's lifecycle phase.
func (d *Driver) State() RunState { return d.state }

// Run executes the configured number of steps and returns the terminal
// result. The order within a step is fixed: routing on the current
// elevation, diffusion, stream-power erosion reusing that same routing,
// ledger bookkeeping inside the trailing window, then uplift. Deltas
// are always computed in full before being applied, and a failing step
// restores the previous step's elevation before returning, so the last
// good field is always the authoritative state.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.state != Initialized {
		return nil, fmt.Errorf("%w: driver already %s", lem.ErrConfiguration, d.state)
	}
	d.state = Running
	d.ledger.Reset()

	elev := d.g.Elev()
	snapshot := make([]float64, len(elev))

	for step := 0; step < d.p.Steps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		copy(snapshot, elev)
		inWindow := step >= d.p.Steps-d.p.Window

		field, err := flow.Route(d.g)
		if err != nil {
			return nil, d.abort(step, elev, snapshot, err)
		}

		if inWindow {
			d.ledger.Begin(snapshot)
		}

		dd := d.diff.Step(d.g, d.p.Dt)
		d.apply(dd)

		fd, err := d.eroder.Step(d.g, field, d.p.Dt)
		if err != nil {
			return nil, d.abort(step, elev, snapshot, err)
		}
		d.apply(fd)

		if inWindow {
			d.ledger.End(elev)
		}

		d.uplift.Step(d.g, d.p.Dt)

		for _, o := range d.observers {
			o.OnStep(step, float64(step+1)*d.p.Dt, elev)
		}
	}

	d.state = Complete
	rows, cols := d.g.Shape()
	return &Result{
		Rows:        rows,
		Cols:        cols,
		Steps:       d.p.Steps,
		Dt:          d.p.Dt,
		Elev:        append([]float64(nil), elev...),
		ErosionRate: d.ledger.Rate(),
	}, nil
}

// apply adds deltas to core node elevations.
func (d *Driver) apply(delta []float64) {
	elev := d.g.Elev()
	for i, dv := range delta {
		if dv != 0 && d.g.Status(i) == grid.Core {
			elev[i] += dv
		}
	}
}

// abort restores the pre-step elevation and tags the error with the
// step index.
func (d *Driver) abort(step int, elev, snapshot []float64, err error) error {
	copy(elev, snapshot)
	var se *lem.StepError
	if errors.As(err, &se) {
		se.Step = step
		return se
	}
	return &lem.StepError{Step: step, Node: -1, Wrapped: err}
}
