package draft

import "fmt"

// State is the lifecycle state of a draft store.
type State int

const (
	// StateUninitialized: created, storage not read yet.
	StateUninitialized State = iota
	// StateLoaded: in-memory value matches storage (or nothing to store).
	StateLoaded
	// StateDirtyPending: in-memory value differs from storage and a flush is
	// scheduled or has failed.
	StateDirtyPending
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateDirtyPending:
		return "dirty_pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event drives a State transition.
type Event string

const (
	EventLoad   Event = "load"
	EventChange Event = "change"
	EventFlush  Event = "flush"
	EventClear  Event = "clear"
)

// transitions lists every legal move. Anything absent is rejected.
var transitions = map[State]map[Event]State{
	StateUninitialized: {
		EventLoad:  StateLoaded,
		EventClear: StateLoaded,
	},
	StateLoaded: {
		EventChange: StateDirtyPending,
		EventFlush:  StateLoaded,
		EventClear:  StateLoaded,
	},
	StateDirtyPending: {
		EventChange: StateDirtyPending,
		EventFlush:  StateLoaded,
		EventClear:  StateLoaded,
	},
}

// Transition returns the state reached from s on ev.
func Transition(s State, ev Event) (State, error) {
	if next, ok := transitions[s][ev]; ok {
		return next, nil
	}
	return s, fmt.Errorf("invalid draft transition: %s on %s", ev, s)
}
