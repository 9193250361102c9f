// Package lem provides the shared primitives for the landscape
// evolution engine:
//
//   - domain error values and the [StepError] wrapper
//   - [ParallelFor] for chunked per-node work
//   - the [Observer] hook used by the driver
//
// # Thread Safety
//
// The engine itself is single-threaded: each timestep depends on the
// previous step's elevation field, so there is no cross-step
// parallelism. ParallelFor is only used for phases with no ordering
// dependency, such as the per-node receiver scan.
package lem
