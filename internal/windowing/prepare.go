package windowing

import "github.com/petasbytes/aicli/internal/ollama"

// Stats summarizes the result of window preparation.
//
// Fields:
//   - Total: estimated tokens for included groups, the pinned system
//     prompt included.
//   - Budget: the input token budget used.
//   - IncludedGroups: number of groups included (the pinned system prompt
//     counts as one).
//   - SkippedGroups: total groups minus IncludedGroups.
//   - OverBudgetNewest: true when the newest single group plus the pinned
//     system prompt exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns the messages (oldest to newest) that fit within
// budget using the TokenCounter, without splitting groups.
//
// Rules:
//   - A leading system message is pinned: it is always sent and counted
//     against the budget, never evicted with the rest of history.
//   - Include whole groups scanning newest to oldest while total <= budget.
//   - If the newest group plus the pinned prompt exceeds budget, return an
//     empty window and set OverBudgetNewest.
//   - If budget <= 0, return msgs unchanged (windowing disabled).
func PrepareSendWindow(msgs []ollama.Message, budget int, c TokenCounter) ([]ollama.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	var pinned []ollama.Message
	rest := msgs
	pinnedCost := 0
	if msgs[0].Role == ollama.RoleSystem {
		pinned = msgs[:1]
		rest = msgs[1:]
		pinnedCost = c.CountMessage(msgs[0])
	}

	groups := GroupBlocks(rest)

	// Budget <= 0 disables windowing; everything is included.
	if budget <= 0 {
		return msgs, Stats{Budget: budget, IncludedGroups: len(groups) + len(pinned)}
	}

	total := pinnedCost
	included := 0
	startIdx := len(groups) // exclusive sentinel; lowered as groups are included

	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], rest)

		// The newest group plus the pinned prompt exceeding the budget is a
		// misconfiguration the caller must surface; nothing can be sent.
		if included == 0 && pinnedCost+cost > budget {
			vlogf("reason=over_budget_newest_group budget=%d pinned=%d cost=%d", budget, pinnedCost, cost)
			return nil, Stats{
				Budget:           budget,
				SkippedGroups:    len(groups) + len(pinned),
				OverBudgetNewest: true,
			}
		}

		if total+cost <= budget {
			total += cost
			included++
			startIdx = gi
			continue
		}
		// Adding this group would exceed budget; stop scanning older groups.
		break
	}

	var tail []ollama.Message
	if startIdx < len(groups) {
		tail = rest[groups[startIdx].Start:]
	}

	stats := Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included + len(pinned),
		SkippedGroups:  len(groups) - included,
	}
	if len(pinned) == 0 {
		return tail, stats
	}
	window := make([]ollama.Message, 0, len(pinned)+len(tail))
	window = append(window, pinned...)
	window = append(window, tail...)
	return window, stats
}
