package lem

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestParallelForCoversRange(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		minChunk int
	}{
		{"empty", 0, 16},
		{"below chunk threshold", 10, 16},
		{"one chunk exactly", 16, 16},
		{"many chunks", 10000, 16},
		{"chunk of one", 97, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			ParallelFor(tt.n, tt.minChunk, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	err := &StepError{Step: 7, Node: 42, Wrapped: ErrSolverDivergence}
	if !errors.Is(err, ErrSolverDivergence) {
		t.Error("StepError should unwrap to its cause")
	}
	var se *StepError
	if !errors.As(err, &se) || se.Step != 7 || se.Node != 42 {
		t.Errorf("errors.As lost fields: %+v", se)
	}
	if err.Error() == "" {
		t.Error("empty error message")
	}
}
