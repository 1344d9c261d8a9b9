package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/petasbytes/aicli/internal/fsops"
)

type ReadFileInput struct {
	Path      string `json:"path" jsonschema_description:"Relative file path within the project directory."`
	StartLine int    `json:"start_line,omitempty" jsonschema_description:"Optional first line to return (1-indexed)."`
	EndLine   int    `json:"end_line,omitempty" jsonschema_description:"Optional last line to return (1-indexed, inclusive)."`
}

const truncationSentinel = "-- truncated; use start_line/end_line to fetch more --\n"
const maxLineRunes = 2000     // per-line clamp
const overallRuneCap = 12_000 // overall cap after join

var readFileInputSchema = GenerateSchema[ReadFileInput]()

func (t *Toolset) readFileDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        "read_file",
		Description: "Read the contents of a file addressed by a relative path, optionally sliced to a 1-indexed line range.",
		InputSchema: readFileInputSchema,
		Function:    t.readFile,
	}
}

// Helper: clamp a string to at most n runes
func clampRunes(s string, n int) (string, bool) {
	r := []rune(s)
	if len(r) <= n {
		return s, false
	}
	return string(r[:n]), true
}

// readFile reads a file via fsops and applies small, deterministic caps so
// tool results stay predictably sized for windowing heuristics:
//   - start_line/end_line: 1-indexed inclusive slice; zero means unset
//   - each line clamped to maxLineRunes, whole result to overallRuneCap
//
// When anything was cut, a trailing sentinel signals the model to paginate.
func (t *Toolset) readFile(_ context.Context, input json.RawMessage) (string, error) {
	var in ReadFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}

	content, err := fsops.ReadFile(t.Root, in.Path)
	if err != nil {
		return "", err
	}

	lines := strings.Split(content, "\n")

	start := 0
	if in.StartLine > 0 {
		start = in.StartLine - 1
	}
	if start > len(lines) {
		start = len(lines)
	}
	end := len(lines)
	if in.EndLine > 0 && in.EndLine < end {
		end = in.EndLine
	}
	if end < start {
		end = start
	}

	truncated := start > 0 || end < len(lines)
	for i := start; i < end; i++ {
		if clamped, did := clampRunes(lines[i], maxLineRunes); did {
			lines[i] = clamped
			truncated = true
		}
	}

	out := strings.Join(lines[start:end], "\n")

	if clamped, did := clampRunes(out, overallRuneCap); did {
		out = clamped
		truncated = true
	}

	if truncated {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += truncationSentinel
	}
	return out, nil
}
