package supervisor

import "github.com/GriffinCanCode/jsgate/internal/engine"

// State reports whether the supervisor currently holds a usable engine.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// state is the sealed supervisor state. In ready, every preload script has
// already run against eng.
type state interface {
	kind() State
}

type uninitialized struct{}

func (uninitialized) kind() State { return StateUninitialized }

type ready struct {
	eng *engine.Engine
}

func (ready) kind() State { return StateReady }

type closed struct{}

func (closed) kind() State { return StateClosed }
