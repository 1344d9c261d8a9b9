package tools

import (
	"context"
	"encoding/json"

	"github.com/petasbytes/aicli/internal/fsops"
	"github.com/petasbytes/aicli/internal/safety"
)

type GrepInput struct {
	Pattern  string `json:"pattern" jsonschema_description:"Regular expression to search for."`
	PathGlob string `json:"path_glob,omitempty" jsonschema_description:"Optional glob restricting which files are searched, e.g. **/*.py."`
}

// maxGrepMatches caps the payload returned to the model; the total count is
// still reported so it can narrow the pattern.
const maxGrepMatches = 100

var grepInputSchema = GenerateSchema[GrepInput]()

func (t *Toolset) grepDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        "grep",
		Description: "Search file contents with a regular expression. Returns (file, line, text) matches in traversal order.",
		InputSchema: grepInputSchema,
		Function:    t.grep,
	}
}

func (t *Toolset) grep(_ context.Context, input json.RawMessage) (string, error) {
	var in GrepInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}
	if in.Pattern == "" {
		return "", safety.ToolError{Code: safety.CodeBadArgs, Message: "pattern is required"}
	}

	matches, err := fsops.Grep(t.Root, in.Pattern, in.PathGlob)
	if err != nil {
		return "", err
	}

	total := len(matches)
	if total > maxGrepMatches {
		matches = matches[:maxGrepMatches]
	}
	out := struct {
		Matches []fsops.Match `json:"matches"`
		Total   int           `json:"total"`
	}{Matches: matches, Total: total}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
