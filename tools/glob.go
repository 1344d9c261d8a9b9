package tools

import (
	"context"
	"encoding/json"

	"github.com/petasbytes/aicli/internal/fsops"
)

type GlobInput struct {
	Pattern string `json:"pattern" jsonschema_description:"Glob pattern, e.g. **/*.go or src/**/*.js."`
}

const maxGlobFiles = 100

var globInputSchema = GenerateSchema[GlobInput]()

func (t *Toolset) globDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        "glob",
		Description: "Find files matching a glob pattern, most recently modified first.",
		InputSchema: globInputSchema,
		Function:    t.glob,
	}
}

func (t *Toolset) glob(_ context.Context, input json.RawMessage) (string, error) {
	var in GlobInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}

	files, err := fsops.Glob(t.Root, in.Pattern)
	if err != nil {
		return "", err
	}

	total := len(files)
	if total > maxGlobFiles {
		files = files[:maxGlobFiles]
	}
	out := struct {
		Files []string `json:"files"`
		Total int      `json:"total"`
	}{Files: files, Total: total}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
