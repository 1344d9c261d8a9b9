// Package windowing prepares the slice of history that actually goes to the
// daemon: newest messages first, whole groups only, within a token budget.
package windowing

import (
	"fmt"
	"os"

	"github.com/petasbytes/aicli/internal/ollama"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupToolExchange
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units that preserve tool exchanges.
// Invariants:
//   - A tool exchange is an assistant message carrying N tool_calls followed
//     immediately by exactly N tool-role result messages.
//   - Splitting an exchange would strand results without their invocations
//     (or vice versa), which confuses models; exchanges are all-or-nothing.
//   - Anything else is a singleton.
func GroupBlocks(msgs []ollama.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		m := msgs[i]
		if m.Role == ollama.RoleAssistant && len(m.ToolCalls) > 0 {
			n := len(m.ToolCalls)
			if resultsFollow(msgs, i+1, n) {
				groups = append(groups, Group{Kind: GroupToolExchange, Start: i, End: i + 1 + n})
				i += 1 + n
				continue
			}
			vlogf("exclude exchange: reason=missing_results idx=%d want=%d", i, n)
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// resultsFollow checks that msgs[start:start+n] are all tool-role messages.
func resultsFollow(msgs []ollama.Message, start, n int) bool {
	if start+n > len(msgs) {
		return false
	}
	for i := start; i < start+n; i++ {
		if msgs[i].Role != ollama.RoleTool {
			return false
		}
	}
	return true
}

// minimal verbose logging when AICLI_VERBOSE_WINDOW_LOGS=1
var verbose = os.Getenv("AICLI_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Printf("[windowing] "+format+"\n", args...)
	}
}
