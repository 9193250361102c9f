package sim

import (
	"math"
	"testing"
)

func TestLedgerRate(t *testing.T) {
	l := NewLedger(3, 2, 10.0)

	// Step one: node 0 lowers by 1, node 1 rises by 0.5, node 2 flat.
	l.Begin([]float64{5, 5, 5})
	l.End([]float64{4, 5.5, 5})

	// Step two: node 0 lowers by 1 again.
	l.Begin([]float64{4, 5.5, 5})
	l.End([]float64{3, 5.5, 5})

	rate := l.Rate()
	want := []float64{2.0 / 20.0, -0.5 / 20.0, 0}
	for i := range want {
		if math.Abs(rate[i]-want[i]) > 1e-15 {
			t.Errorf("node %d: rate %g, want %g", i, rate[i], want[i])
		}
	}
}

func TestLedgerEndWithoutBegin(t *testing.T) {
	l := NewLedger(2, 1, 1.0)
	l.End([]float64{1, 2})
	for i, r := range l.Rate() {
		if r != 0 {
			t.Errorf("node %d: rate %g without a Begin", i, r)
		}
	}
}

func TestLedgerEndClosesBracket(t *testing.T) {
	l := NewLedger(1, 1, 1.0)
	l.Begin([]float64{3})
	l.End([]float64{2})
	// A second End without a fresh Begin must not double-count.
	l.End([]float64{0})
	if got := l.Rate()[0]; got != 1.0 {
		t.Errorf("rate %g, want 1", got)
	}
}

func TestLedgerReset(t *testing.T) {
	l := NewLedger(2, 1, 1.0)
	l.Begin([]float64{2, 2})
	l.End([]float64{1, 1})
	l.Reset()
	for i, r := range l.Rate() {
		if r != 0 {
			t.Errorf("node %d: rate %g after reset", i, r)
		}
	}
}

func TestLedgerZeroWindow(t *testing.T) {
	l := NewLedger(2, 0, 10.0)
	l.Begin([]float64{2, 2})
	l.End([]float64{1, 1})
	for i, r := range l.Rate() {
		if r != 0 {
			t.Errorf("node %d: rate %g with zero window", i, r)
		}
	}
	if l.Window() != 0 {
		t.Errorf("window %d, want 0", l.Window())
	}
}
