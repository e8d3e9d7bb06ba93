package orchestrator

import "fmt"

// State is the lifecycle of one orchestrated request.
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateSucceeded
	StateCanceled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateSucceeded:
		return "succeeded"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s is final.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateCanceled || s == StateFailed
}

// Word is the status shown on the final progress line.
func (s State) Word() string {
	switch s {
	case StateSucceeded:
		return "Completed"
	case StateCanceled:
		return "Canceled"
	default:
		return "Failed"
	}
}

// machine enforces Idle -> Requesting -> {Succeeded, Canceled, Failed}.
type machine struct {
	state State
}

func (m *machine) to(next State) error {
	ok := false
	switch m.state {
	case StateIdle:
		ok = next == StateRequesting
	case StateRequesting:
		ok = next.Terminal()
	}
	if !ok {
		return fmt.Errorf("illegal transition %s -> %s", m.state, next)
	}
	m.state = next
	return nil
}
