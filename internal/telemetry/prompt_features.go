package telemetry

import (
	"context"

	"github.com/petasbytes/aicli/internal/metrics"
)

// EmitPromptFeatures records basic shape features of a user prompt at the
// start of a turn. Only local counting; the prompt text itself is never
// written to the event log.
func EmitPromptFeatures(ctx context.Context, dir, prompt string) {
	if !Enabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	f := metrics.CountFeatures(prompt)
	Emit(dir, "prompt_features", map[string]any{
		"turn_id": turnID,
		"prompt": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
