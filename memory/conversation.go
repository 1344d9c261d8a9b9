// Package memory holds the conversation history: an append-only in-memory
// sequence owned by the loop, and a SQLite store that persists it across
// sessions.
package memory

import (
	"github.com/petasbytes/aicli/internal/ollama"
)

// History is the ordered message sequence for one session. Append-only
// within a turn; never reordered or mutated after append. Not safe for
// concurrent use: the loop is the single owner.
type History struct {
	msgs  []ollama.Message
	limit int
}

// NewHistory starts a history with the system prompt pinned at index 0.
// limit bounds the retained message count (system message excluded from
// eviction); limit <= 0 means unbounded.
func NewHistory(systemPrompt string, limit int) *History {
	h := &History{limit: limit}
	if systemPrompt != "" {
		h.msgs = append(h.msgs, ollama.Message{Role: ollama.RoleSystem, Content: systemPrompt})
	}
	return h
}

// Append adds a message and evicts the oldest non-system messages beyond the
// limit. Eviction only ever drops from the front, so relative order is
// preserved.
func (h *History) Append(m ollama.Message) {
	h.msgs = append(h.msgs, m)
	h.trim()
}

// Messages returns the current sequence. Callers must not mutate it.
func (h *History) Messages() []ollama.Message {
	return h.msgs
}

// Len reports the number of messages including the system prompt.
func (h *History) Len() int {
	return len(h.msgs)
}

// Clear drops everything except the system prompt.
func (h *History) Clear() {
	if len(h.msgs) > 0 && h.msgs[0].Role == ollama.RoleSystem {
		h.msgs = h.msgs[:1]
		return
	}
	h.msgs = nil
}

func (h *History) trim() {
	if h.limit <= 0 || len(h.msgs) <= h.limit {
		return
	}
	if h.msgs[0].Role == ollama.RoleSystem {
		keep := h.limit - 1
		h.msgs = append(h.msgs[:1], h.msgs[len(h.msgs)-keep:]...)
		return
	}
	h.msgs = h.msgs[len(h.msgs)-h.limit:]
}
