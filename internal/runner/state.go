package runner

// RunState represents the lifecycle state of a Runner.
type RunState int

const (
	// StateIdle indicates no run is active.
	StateIdle RunState = iota
	// StateRunning indicates the worker is converting jobs.
	StateRunning
	// StatePaused indicates the worker waits before its next job.
	StatePaused
	// StateStopping indicates the worker finishes its current job and exits.
	StateStopping
)

// String returns the string representation of the state.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Active returns true while a worker goroutine exists.
func (s RunState) Active() bool {
	return s != StateIdle
}

// StateMachine validates run state transitions. It is not safe for
// concurrent use; the Runner guards it with its own mutex.
type StateMachine struct {
	current     RunState
	transitions map[RunState][]RunState
	onEnter     map[RunState]func()
}

// NewStateMachine creates a state machine in StateIdle.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[RunState][]RunState{
			StateIdle:     {StateRunning},
			StateRunning:  {StatePaused, StateStopping, StateIdle},
			StatePaused:   {StateRunning, StateStopping},
			StateStopping: {StateIdle},
		},
		onEnter: make(map[RunState]func()),
	}
}

// Transition moves to the given state if the edge exists and reports
// whether it did.
func (sm *StateMachine) Transition(to RunState) bool {
	if !sm.CanTransition(to) {
		return false
	}
	sm.current = to
	if fn := sm.onEnter[to]; fn != nil {
		fn()
	}
	return true
}

// CanTransition reports whether to is reachable from the current state.
func (sm *StateMachine) CanTransition(to RunState) bool {
	for _, s := range sm.transitions[sm.current] {
		if s == to {
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() RunState {
	return sm.current
}

// OnEnter registers a callback for entering a state.
func (sm *StateMachine) OnEnter(state RunState, fn func()) {
	sm.onEnter[state] = fn
}
