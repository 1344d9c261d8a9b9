package tools

import (
	"context"
	"encoding/json"

	"github.com/petasbytes/aicli/internal/shell"
)

type BashInput struct {
	Command string `json:"command" jsonschema_description:"Bash command to execute in the project directory."`
}

var bashInputSchema = GenerateSchema[BashInput]()

func (t *Toolset) bashDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        "bash",
		Description: "Execute a bash command in the project directory. Stdout, stderr, and the exit code are returned; commands are killed after the configured timeout.",
		InputSchema: bashInputSchema,
		Function:    t.bash,
	}
}

func (t *Toolset) bash(ctx context.Context, input json.RawMessage) (string, error) {
	var in BashInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}

	res, err := shell.Run(ctx, t.Root, in.Command, t.BashTimeout)
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
