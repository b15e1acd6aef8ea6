package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity is matched by CapacityError. It's returned when an output
	// already feeds MaxFanOut inputs.
	ErrCapacity = errors.New("output fan-out capacity exceeded")
	// ErrCycle is returned if connection would make an output feed itself.
	ErrCycle = errors.New("connection would create a cycle")
	// ErrIndex is returned if node has no input or output with such index.
	ErrIndex = errors.New("index out of range")
	// ErrChannels is returned for unsupported number of channels.
	ErrChannels = errors.New("invalid number of channels")
	// ErrInvalidState is returned if the call is not allowed in the
	// current state: foreign context, released lock or bad configuration.
	ErrInvalidState = errors.New("invalid state")
)

// CapacityError is returned when output cannot accept one more input. The
// graph stays unmodified, so host can insert a summing node instead of
// retrying.
type CapacityError struct {
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("output fan-out capacity exceeded: %d inputs connected", e.Capacity)
}

// Is reports if error matches ErrCapacity.
func (e *CapacityError) Is(err error) bool {
	return err == ErrCapacity
}
