package telemetry_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/aicli/internal/telemetry"
)

func TestEmit_DisabledWritesNothing(t *testing.T) {
	t.Setenv("AICLI_OBSERVE_JSON", "0")
	dir := t.TempDir()
	telemetry.Emit(dir, "test_event", map[string]any{"foo": "bar"})
	if _, err := os.Stat(filepath.Join(dir, ".aicli", "events.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no events file, stat err=%v", err)
	}
}

func TestEnabled_FollowsEnvironment(t *testing.T) {
	t.Setenv("AICLI_OBSERVE_JSON", "0")
	if telemetry.Enabled() {
		t.Fatal("expected disabled with AICLI_OBSERVE_JSON=0")
	}
	t.Setenv("AICLI_OBSERVE_JSON", "1")
	if !telemetry.Enabled() {
		t.Fatal("expected enabled with AICLI_OBSERVE_JSON=1")
	}
	t.Setenv("AICLI_OBSERVE_JSON", "")
	if telemetry.Enabled() {
		t.Fatal("expected disabled when unset")
	}
}

func TestEmit_HappyPath(t *testing.T) {
	t.Setenv("AICLI_OBSERVE_JSON", "1")
	dir := t.TempDir()

	telemetry.Emit(dir, "test_event", map[string]any{"foo": "bar", "num": 42})

	data, err := os.ReadFile(filepath.Join(dir, ".aicli", "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	var event map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event["event"] != "test_event" {
		t.Errorf("expected event=test_event, got %v", event["event"])
	}
	if event["foo"] != "bar" {
		t.Errorf("expected foo=bar, got %v", event["foo"])
	}
	if event["num"] != float64(42) { // JSON numbers are float64
		t.Errorf("expected num=42, got %v", event["num"])
	}

	timeStr, ok := event["time"].(string)
	if !ok {
		t.Fatal("expected time field as string")
	}
	if _, err := time.Parse(time.RFC3339Nano, timeStr); err != nil {
		t.Errorf("time field not valid RFC3339Nano: %v", err)
	}
}

func TestEmit_AppendsLines(t *testing.T) {
	t.Setenv("AICLI_OBSERVE_JSON", "1")
	dir := t.TempDir()

	telemetry.Emit(dir, "event1", map[string]any{"id": 1})
	telemetry.Emit(dir, "event2", map[string]any{"id": 2})
	telemetry.Emit(dir, "event3", map[string]any{"id": 3})

	data, err := os.ReadFile(filepath.Join(dir, ".aicli", "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d invalid JSON: %v", i, err)
		}
		if event["id"] != float64(i+1) {
			t.Fatalf("line %d: expected id=%d, got %v", i, i+1, event["id"])
		}
	}
}

func TestEmit_DoesNotMutateCallerMap(t *testing.T) {
	t.Setenv("AICLI_OBSERVE_JSON", "1")
	dir := t.TempDir()

	fields := map[string]any{"foo": "bar"}
	telemetry.Emit(dir, "test_event", fields)
	if len(fields) != 1 {
		t.Fatalf("caller map mutated: %v", fields)
	}
}

func TestEmitPromptFeatures_CountsOnlyNeverText(t *testing.T) {
	t.Setenv("AICLI_OBSERVE_JSON", "1")
	dir := t.TempDir()

	secret := "please read my super-secret-token file"
	ctx := telemetry.WithTurnID(nil, "turn-test")
	telemetry.EmitPromptFeatures(ctx, dir, secret)

	data, err := os.ReadFile(filepath.Join(dir, ".aicli", "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to read events.jsonl: %v", err)
	}
	if strings.Contains(string(data), "super-secret-token") {
		t.Fatal("prompt text leaked into the event log")
	}

	var event struct {
		Event  string `json:"event"`
		TurnID string `json:"turn_id"`
		Prompt struct {
			Bytes int `json:"bytes"`
			Runes int `json:"runes"`
			Words int `json:"words"`
			Lines int `json:"lines"`
		} `json:"prompt"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &event); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if event.Event != "prompt_features" || event.TurnID != "turn-test" {
		t.Fatalf("unexpected event envelope: %+v", event)
	}
	if event.Prompt.Bytes != len(secret) || event.Prompt.Words != 5 || event.Prompt.Lines != 1 {
		t.Fatalf("unexpected prompt features: %+v", event.Prompt)
	}
}
