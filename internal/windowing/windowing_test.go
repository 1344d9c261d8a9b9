package windowing_test

import (
	"strings"
	"testing"

	"github.com/petasbytes/aicli/internal/ollama"
	"github.com/petasbytes/aicli/internal/windowing"
)

func user(content string) ollama.Message {
	return ollama.Message{Role: ollama.RoleUser, Content: content}
}

func assistantWithCalls(n int) ollama.Message {
	calls := make([]ollama.ToolCall, n)
	for i := range calls {
		calls[i] = ollama.ToolCall{
			ID:       "c",
			Function: ollama.FunctionCall{Name: "read_file", Arguments: ollama.Arguments{"path": "a"}},
		}
	}
	return ollama.Message{Role: ollama.RoleAssistant, ToolCalls: calls}
}

func toolResult(content string) ollama.Message {
	return ollama.Message{Role: ollama.RoleTool, Content: content}
}

func TestGroupBlocks_SingletonsOnly(t *testing.T) {
	msgs := []ollama.Message{user("a"), {Role: ollama.RoleAssistant, Content: "b"}, user("c")}
	groups := windowing.GroupBlocks(msgs)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	for i, g := range groups {
		if g.Kind != windowing.GroupSingleton || g.Start != i || g.End != i+1 {
			t.Fatalf("unexpected group %d: %+v", i, g)
		}
	}
}

func TestGroupBlocks_ToolExchangeIsAtomic(t *testing.T) {
	msgs := []ollama.Message{
		user("old"),
		assistantWithCalls(2),
		toolResult("r1"),
		toolResult("r2"),
		user("new"),
	}
	groups := windowing.GroupBlocks(msgs)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d: %+v", len(groups), groups)
	}
	ex := groups[1]
	if ex.Kind != windowing.GroupToolExchange || ex.Start != 1 || ex.End != 4 {
		t.Fatalf("unexpected exchange group: %+v", ex)
	}
}

func TestGroupBlocks_MissingResultsFallBackToSingleton(t *testing.T) {
	// Assistant asks for 2 tools but only 1 result follows: no valid
	// exchange; everything degrades to singletons.
	msgs := []ollama.Message{
		assistantWithCalls(2),
		toolResult("r1"),
		user("next"),
	}
	groups := windowing.GroupBlocks(msgs)
	if len(groups) != 3 {
		t.Fatalf("expected 3 singleton groups, got %d: %+v", len(groups), groups)
	}
	for _, g := range groups {
		if g.Kind != windowing.GroupSingleton {
			t.Fatalf("expected singleton, got %+v", g)
		}
	}
}

func TestHeuristicCounter_MessageOverheadGuard(t *testing.T) {
	// The per-message overhead is part of the deterministic counting
	// contract; this guards against silent changes.
	c := windowing.HeuristicCounter{}
	if got := c.CountMessage(user("")); got != 4 {
		t.Fatalf("empty message should cost exactly the overhead (4), got %d", got)
	}
	if got := c.CountMessage(user("abc")); got != 7 {
		t.Fatalf("3-rune message should cost 7, got %d", got)
	}
}

func TestHeuristicCounter_CountsToolCallPayload(t *testing.T) {
	c := windowing.HeuristicCounter{}
	m := ollama.Message{
		Role: ollama.RoleAssistant,
		ToolCalls: []ollama.ToolCall{
			{Function: ollama.FunctionCall{Name: "bash", Arguments: ollama.Arguments{"command": "ls"}}},
		},
	}
	// overhead(4) + name(4) + marshalled args {"command":"ls"} (16 runes)
	if got := c.CountMessage(m); got != 24 {
		t.Fatalf("tool call message cost mismatch: got %d want 24", got)
	}
}

func TestPrepareSendWindow_BudgetZeroDisablesWindowing(t *testing.T) {
	msgs := []ollama.Message{user("a"), user("b"), user("c")}
	window, stats := windowing.PrepareSendWindow(msgs, 0, windowing.HeuristicCounter{})
	if len(window) != 3 {
		t.Fatalf("expected all messages with budget 0, got %d", len(window))
	}
	if stats.IncludedGroups != 3 || stats.OverBudgetNewest {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPrepareSendWindow_KeepsNewestThatFits(t *testing.T) {
	// Each message costs rune count + 4; budget 10 fits only the newest.
	msgs := []ollama.Message{user("aaaa"), user("bb")}
	window, stats := windowing.PrepareSendWindow(msgs, 10, windowing.HeuristicCounter{})
	if len(window) != 1 || window[0].Content != "bb" {
		t.Fatalf("expected only newest message, got %+v", window)
	}
	if stats.IncludedGroups != 1 || stats.SkippedGroups != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPrepareSendWindow_NeverSplitsExchange(t *testing.T) {
	msgs := []ollama.Message{
		user("old standalone message"),
		assistantWithCalls(1),
		toolResult("result"),
	}
	c := windowing.HeuristicCounter{}
	groups := windowing.GroupBlocks(msgs)
	exchangeCost := c.CountGroup(groups[1], msgs)

	// Budget covers the exchange but not the older singleton.
	window, stats := windowing.PrepareSendWindow(msgs, exchangeCost, c)
	if len(window) != 2 {
		t.Fatalf("expected the whole exchange (2 messages), got %d", len(window))
	}
	if window[0].Role != ollama.RoleAssistant || window[1].Role != ollama.RoleTool {
		t.Fatalf("exchange order broken: %+v", window)
	}
	if stats.SkippedGroups != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPrepareSendWindow_SystemPromptSurvivesEviction(t *testing.T) {
	// Long sessions must not window the system prompt away: it is pinned
	// even when every other old message is evicted.
	big := strings.Repeat("x", 200)
	msgs := []ollama.Message{
		{Role: ollama.RoleSystem, Content: "always use tools"},
		user(big),
		{Role: ollama.RoleAssistant, Content: big},
		user(big),
	}
	window, stats := windowing.PrepareSendWindow(msgs, 250, windowing.HeuristicCounter{})
	if len(window) == 0 || window[0].Role != ollama.RoleSystem {
		t.Fatalf("system prompt evicted: %+v (stats %+v)", window, stats)
	}
	if window[0].Content != "always use tools" {
		t.Fatalf("wrong pinned message: %+v", window[0])
	}
	// Budget 250 fits the prompt (20) plus the newest 204-cost user message
	// only; the two middle messages are evicted.
	if len(window) != 2 || window[1].Content != big || window[1].Role != ollama.RoleUser {
		t.Fatalf("expected [system, newest user], got %d messages", len(window))
	}
	if stats.IncludedGroups != 2 || stats.SkippedGroups != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPrepareSendWindow_PinnedPromptCountsAgainstBudget(t *testing.T) {
	msgs := []ollama.Message{
		{Role: ollama.RoleSystem, Content: "0123456789"}, // cost 14
		user("aaaaaa"), // cost 10
		user("bb"),     // cost 6
	}
	c := windowing.HeuristicCounter{}

	// 14 + 6 = 20 fits; adding the older 10-cost message would not.
	window, stats := windowing.PrepareSendWindow(msgs, 20, c)
	if len(window) != 2 || window[0].Role != ollama.RoleSystem || window[1].Content != "bb" {
		t.Fatalf("expected [system, bb], got %+v", window)
	}
	if stats.Total != 20 {
		t.Fatalf("pinned prompt not counted: %+v", stats)
	}

	// With budget 30 everything fits again.
	window, _ = windowing.PrepareSendWindow(msgs, 30, c)
	if len(window) != 3 {
		t.Fatalf("expected full history at budget 30, got %d messages", len(window))
	}
}

func TestPrepareSendWindow_OverBudgetIncludesPinnedCost(t *testing.T) {
	msgs := []ollama.Message{
		{Role: ollama.RoleSystem, Content: "0123456789"}, // cost 14
		user("aaaaaa"), // cost 10
	}
	// Newest group alone (10) fits budget 20, but not alongside the pinned
	// prompt (14): nothing can be sent.
	window, stats := windowing.PrepareSendWindow(msgs, 20, windowing.HeuristicCounter{})
	if window != nil || !stats.OverBudgetNewest {
		t.Fatalf("expected OverBudgetNewest with pinned cost, got %+v %+v", window, stats)
	}
}

func TestPrepareSendWindow_SystemPromptOnly(t *testing.T) {
	msgs := []ollama.Message{{Role: ollama.RoleSystem, Content: "sys"}}
	window, stats := windowing.PrepareSendWindow(msgs, 100, windowing.HeuristicCounter{})
	if len(window) != 1 || window[0].Role != ollama.RoleSystem {
		t.Fatalf("expected the lone system prompt, got %+v (stats %+v)", window, stats)
	}
}

func TestPrepareSendWindow_OverBudgetNewest(t *testing.T) {
	msgs := []ollama.Message{user("this message is far too large for the budget")}
	window, stats := windowing.PrepareSendWindow(msgs, 5, windowing.HeuristicCounter{})
	if window != nil {
		t.Fatalf("expected empty window, got %+v", window)
	}
	if !stats.OverBudgetNewest {
		t.Fatalf("expected OverBudgetNewest, got %+v", stats)
	}
}

func TestPrepareSendWindow_EmptyHistory(t *testing.T) {
	window, stats := windowing.PrepareSendWindow(nil, 100, windowing.HeuristicCounter{})
	if window != nil || stats.IncludedGroups != 0 {
		t.Fatalf("unexpected result for empty history: %+v %+v", window, stats)
	}
}
