package runner

import "testing"

func TestTurnState_HappyPathTransitions(t *testing.T) {
	fsm := newTurnState()
	steps := []State{
		StateClassifying,
		StateExecutingTool,
		StateAwaitingModel,
		StateClassifying,
		StateRedirecting,
		StateAwaitingModel,
		StateClassifying,
		StateDone,
	}
	for _, next := range steps {
		if err := fsm.to(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
}

func TestTurnState_InvalidTransitionsRejected(t *testing.T) {
	cases := []struct {
		from State
		to   State
	}{
		{StateAwaitingModel, StateExecutingTool},
		{StateAwaitingModel, StateDone},
		{StateExecutingTool, StateDone},
		{StateRedirecting, StateClassifying},
		{StateDone, StateAwaitingModel},
	}
	for _, tc := range cases {
		fsm := &turnState{current: tc.from}
		if err := fsm.to(tc.to); err == nil {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestState_String(t *testing.T) {
	want := map[State]string{
		StateAwaitingModel: "awaiting_model",
		StateClassifying:   "classifying_reply",
		StateExecutingTool: "executing_tool",
		StateRedirecting:   "redirecting",
		StateDone:          "done",
	}
	for s, w := range want {
		if s.String() != w {
			t.Fatalf("State(%d).String() = %q, want %q", int(s), s.String(), w)
		}
	}
}
