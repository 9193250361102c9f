package lem

import "errors"

// Domain errors for engine operations.
var (
	// ErrConfiguration indicates a model coefficient outside its legal
	// domain (negative diffusivity, non-positive dt, and so on).
	ErrConfiguration = errors.New("landevo: parameter out of valid bounds")

	// ErrGridShape indicates an elevation field whose size does not
	// match the declared lattice shape.
	ErrGridShape = errors.New("landevo: elevation field does not match grid shape")

	// ErrFlowCycle indicates a cycle in the receiver graph. Steepest
	// descent with a deterministic tie-break cannot produce one, so
	// this always means a routing bug.
	ErrFlowCycle = errors.New("landevo: cycle detected in flow receiver graph")

	// ErrSolverDivergence indicates the per-node stream-power solve
	// failed to converge within its iteration budget.
	ErrSolverDivergence = errors.New("landevo: implicit erosion solve did not converge")
)

// StepError wraps an error with the timestep and node where it was
// detected. Node is -1 when the failure is not tied to a single node.
type StepError struct {
	Step    int
	Node    int
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
