package subdiv

import "errors"

// Common evaluation errors.
var (
	// ErrInvalidDescriptor is returned by Compile when a buffer
	// descriptor is malformed or the descriptors disagree on element
	// length.
	ErrInvalidDescriptor = errors.New("subdiv: invalid buffer descriptor")

	// ErrNotCompiled is returned when an evaluation is dispatched
	// before Compile.
	ErrNotCompiled = errors.New("subdiv: evaluator not compiled")

	// ErrOutOfRange is returned when an evaluation range does not fit
	// the table or coordinate set.
	ErrOutOfRange = errors.New("subdiv: evaluation range out of bounds")

	// ErrDestroyed is returned when an evaluation is dispatched on a
	// destroyed evaluator.
	ErrDestroyed = errors.New("subdiv: evaluator destroyed")
)
