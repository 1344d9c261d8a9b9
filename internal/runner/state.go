package runner

import "fmt"

// State is one phase of a turn's control flow.
type State int

const (
	StateAwaitingModel State = iota
	StateClassifying
	StateExecutingTool
	StateRedirecting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingModel:
		return "awaiting_model"
	case StateClassifying:
		return "classifying_reply"
	case StateExecutingTool:
		return "executing_tool"
	case StateRedirecting:
		return "redirecting"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// validTransitions encodes the turn state machine:
// AwaitingModel -> Classifying -> {ExecutingTool, Redirecting, Done},
// with ExecutingTool and Redirecting feeding back to AwaitingModel.
var validTransitions = map[State][]State{
	StateAwaitingModel: {StateClassifying},
	StateClassifying:   {StateExecutingTool, StateRedirecting, StateDone},
	StateExecutingTool: {StateAwaitingModel},
	StateRedirecting:   {StateAwaitingModel},
	StateDone:          {},
}

// turnState tracks the current phase with validated transitions. The loop is
// the single owner; no locking.
type turnState struct {
	current State
}

func newTurnState() *turnState {
	return &turnState{current: StateAwaitingModel}
}

// to moves to next, rejecting transitions the machine does not define.
// A rejection is a programming error in the loop, surfaced as an error
// rather than a crash.
func (t *turnState) to(next State) error {
	for _, allowed := range validTransitions[t.current] {
		if allowed == next {
			t.current = next
			return nil
		}
	}
	return fmt.Errorf("invalid turn state transition: %s -> %s", t.current, next)
}
