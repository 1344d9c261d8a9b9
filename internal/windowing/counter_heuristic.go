package windowing

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/petasbytes/aicli/internal/ollama"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m ollama.Message) int
	CountGroup(g Group, all []ollama.Message) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
//   - content: rune count of the message text
//   - tool calls: rune count of the name plus the marshalled arguments
//   - plus a fixed per-message overhead for role and framing
type HeuristicCounter struct{}

// Fixed per-message overhead for deterministic counts; changing this requires
// updating the guard test.
const messageOverhead = 4

func (HeuristicCounter) CountMessage(m ollama.Message) int {
	total := utf8.RuneCountInString(m.Content) + messageOverhead
	for _, tc := range m.ToolCalls {
		total += utf8.RuneCountInString(tc.Function.Name)
		if b, err := json.Marshal(tc.Function.Arguments); err == nil {
			total += utf8.RuneCount(b)
		}
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []ollama.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
