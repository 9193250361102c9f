package solve

import (
	"errors"
	"math"
	"testing"

	"github.com/lmonroe/landevo/internal/flow"
	"github.com/lmonroe/landevo/internal/grid"
	"github.com/lmonroe/landevo/internal/lem"
)

// chain builds a 1x3 grid sloping to the east outlet and routes it.
func chain(t *testing.T) (*grid.Raster, *flow.Field) {
	t.Helper()
	g := mustGrid(t, 1, 3, 1.0, []float64{2, 1, 0})
	f, err := flow.Route(g)
	if err != nil {
		t.Fatal(err)
	}
	return g, f
}

func TestStreamPowerLinearClosedForm(t *testing.T) {
	g, f := chain(t)
	sp := NewStreamPower(0.1, 0.5, 1.0, 0)
	delta, err := sp.Step(g, f, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	// Outlet first: node 2 is its own receiver, untouched. Node 1 sees
	// the outlet's (unchanged) elevation, node 0 sees node 1's updated
	// one.
	if delta[2] != 0 {
		t.Errorf("outlet eroded by %g", delta[2])
	}

	w1 := 0.1 * math.Sqrt(2.0) // dt*K*A^m/L with A=2
	want1 := 1.0/(1.0+w1) - 1.0
	if math.Abs(delta[1]-want1) > 1e-12 {
		t.Errorf("node 1: expected delta %g, got %g", want1, delta[1])
	}

	z1 := 1.0 + delta[1]
	w0 := 0.1 // A=1
	want0 := (2.0+w0*z1)/(1.0+w0) - 2.0
	if math.Abs(delta[0]-want0) > 1e-12 {
		t.Errorf("node 0: expected delta %g, got %g", want0, delta[0])
	}
}

func TestStreamPowerThresholdGating(t *testing.T) {
	g, f := chain(t)
	// Rates here are on the order of K*sqrt(2); a threshold above that
	// must gate every node to an exact zero.
	sp := NewStreamPower(0.001, 0.5, 1.0, 1.0)
	delta, err := sp.Step(g, f, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range delta {
		if d != 0 {
			t.Errorf("node %d: expected exact zero below threshold, got %g", i, d)
		}
	}
}

func TestStreamPowerSinksUntouched(t *testing.T) {
	// A pit: center lower than everything, no outlet for it.
	elev := []float64{5, 5, 5, 5, 1, 5, 5, 5, 5}
	g := mustGrid(t, 3, 3, 1.0, elev)
	f, err := flow.Route(g)
	if err != nil {
		t.Fatal(err)
	}
	sp := NewStreamPower(1.0, 0.5, 1.0, 0)
	delta, err := sp.Step(g, f, 10.0)
	if err != nil {
		t.Fatal(err)
	}
	if delta[4] != 0 {
		t.Errorf("pit bottom eroded by %g", delta[4])
	}
}

func TestStreamPowerNeverCutsBelowReceiver(t *testing.T) {
	g, f := chain(t)
	sp := NewStreamPower(10.0, 0.5, 1.0, 0)
	delta, err := sp.Step(g, f, 1e6) // extreme step
	if err != nil {
		t.Fatal(err)
	}
	z2 := 0.0
	z1 := 1.0 + delta[1]
	z0 := 2.0 + delta[0]
	if z1 < z2 {
		t.Errorf("node 1 cut below its receiver: %g < %g", z1, z2)
	}
	if z0 < z1 {
		t.Errorf("node 0 cut below its receiver: %g < %g", z0, z1)
	}
}

func TestStreamPowerNewtonNonlinear(t *testing.T) {
	g, f := chain(t)
	sp := NewStreamPower(0.05, 0.5, 2.0, 0)
	dt := 3.0
	delta, err := sp.Step(g, f, dt)
	if err != nil {
		t.Fatal(err)
	}

	// Node 1: residual of the implicit equation must vanish at the
	// returned elevation.
	z1 := 1.0 + delta[1]
	F1 := dt * 0.05 * math.Sqrt(2.0)
	res := z1 - 1.0 + F1*math.Pow(z1-0.0, 2)
	if math.Abs(res) > 1e-8 {
		t.Errorf("node 1: implicit residual %g", res)
	}
	if z1 <= 0 || z1 >= 1 {
		t.Errorf("node 1: root %g outside (receiver, old)", z1)
	}

	z0 := 2.0 + delta[0]
	F0 := dt * 0.05
	res = z0 - 2.0 + F0*math.Pow(z0-z1, 2)
	if math.Abs(res) > 1e-8 {
		t.Errorf("node 0: implicit residual %g", res)
	}
}

func TestStreamPowerUphillNoErosion(t *testing.T) {
	// On a flat field nothing is strictly lower, so nothing erodes.
	g := mustGrid(t, 3, 3, 1.0, make([]float64, 9))
	f, err := flow.Route(g)
	if err != nil {
		t.Fatal(err)
	}
	sp := NewStreamPower(1.0, 0.5, 1.0, 0)
	delta, err := sp.Step(g, f, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range delta {
		if d != 0 {
			t.Errorf("node %d eroded on a flat field by %g", i, d)
		}
	}
}

func TestStreamPowerZeroCoefficientNoOp(t *testing.T) {
	g, f := chain(t)
	sp := NewStreamPower(0, 0.5, 1.0, 0)
	delta, err := sp.Step(g, f, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range delta {
		if d != 0 {
			t.Fatalf("node %d moved with K=0", i)
		}
	}
}

func TestStreamPowerFixedNodesUntouched(t *testing.T) {
	g := mustGrid(t, 1, 3, 1.0, []float64{2, 1, 0})
	g.SetStatus(0, grid.FixedValue)
	g.SetStatus(2, grid.FixedValue)
	f, err := flow.Route(g)
	if err != nil {
		t.Fatal(err)
	}
	sp := NewStreamPower(1.0, 0.5, 1.0, 0)
	delta, err := sp.Step(g, f, 10)
	if err != nil {
		t.Fatal(err)
	}
	if delta[0] != 0 || delta[2] != 0 {
		t.Errorf("fixed nodes eroded: %g, %g", delta[0], delta[2])
	}
	if delta[1] >= 0 {
		t.Errorf("core node should erode, delta %g", delta[1])
	}
}

func TestStreamPowerExhaustedIterationBudget(t *testing.T) {
	g, f := chain(t)
	sp := NewStreamPower(1.0, 0.5, 2.0, 0)
	sp.MaxIter = 1

	_, err := sp.Step(g, f, 10)
	if !errors.Is(err, lem.ErrSolverDivergence) {
		t.Fatalf("expected divergence error, got %v", err)
	}
	var se *lem.StepError
	if !errors.As(err, &se) {
		t.Fatal("error should carry the failing node")
	}
	if se.Node != 1 {
		t.Errorf("failing node %d, want 1", se.Node)
	}
}
