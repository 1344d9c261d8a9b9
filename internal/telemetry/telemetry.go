// Package telemetry emits structured JSONL events describing loop activity:
// turn lifecycle, window preparation, reply classification, tool execution,
// and redirection. Emission is off unless AICLI_OBSERVE_JSON=1.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Enabled reports whether JSONL emission is on. The environment is consulted
// per call so tests can toggle it with t.Setenv.
func Enabled() bool {
	return os.Getenv("AICLI_OBSERVE_JSON") == "1"
}

// Emit writes a single JSON line to <dir>/.aicli/events.jsonl when enabled.
// It augments fields with RFC3339Nano time and the event name. dir is the
// project directory; failures are reported to stderr and never propagate.
func Emit(dir, name string, fields map[string]any) {
	if !Enabled() {
		return
	}

	// Shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshal: %v\n", err)
		return
	}

	stateDir := filepath.Join(dir, ".aicli")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", stateDir, err)
		return
	}

	path := filepath.Join(stateDir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: write %s: %v\n", path, err)
	}
}
