package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/petasbytes/aicli/internal/fsops"
	"github.com/petasbytes/aicli/internal/safety"
)

type WriteFileInput struct {
	Path    string `json:"path" jsonschema_description:"Relative path of the file to create or overwrite."`
	Content string `json:"content" jsonschema_description:"Full new content of the file."`
}

var writeFileInputSchema = GenerateSchema[WriteFileInput]()

func (t *Toolset) writeFileDefinition() ToolDefinition {
	return ToolDefinition{
		Name:        "write_file",
		Description: "Create or overwrite a file with the given content. Parent directories are created as needed.",
		InputSchema: writeFileInputSchema,
		Function:    t.writeFile,
	}
}

func (t *Toolset) writeFile(_ context.Context, input json.RawMessage) (string, error) {
	var in WriteFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}
	if in.Path == "" {
		return "", safety.ToolError{Code: safety.CodeBadArgs, Message: "path is required"}
	}
	if err := fsops.WriteFile(t.Root, in.Path, in.Content); err != nil {
		return "", err
	}
	return fmt.Sprintf("File written: %s", in.Path), nil
}
