package orchestrator

import "sync/atomic"

// State is the progress of one backend within a run.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateDeciding
	StateCancelling
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateDeciding:
		return "deciding"
	case StateCancelling:
		return "cancelling"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// MarshalText renders the state by name in reports and events.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// tracker holds a backend state. Repositories progress concurrently, so the
// state only ever moves forward: a backend is Cancelling once any repository
// issued a cancel, even while another is still Fetching.
type tracker struct {
	v atomic.Int32
}

func (t *tracker) load() State {
	return State(t.v.Load())
}

// advance moves the state to s unless it is already at or past s.
func (t *tracker) advance(s State) {
	for {
		cur := t.v.Load()
		if State(cur) >= s {
			return
		}
		if t.v.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}
