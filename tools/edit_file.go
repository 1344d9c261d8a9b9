package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petasbytes/aicli/internal/fsops"
	"github.com/petasbytes/aicli/internal/safety"
)

type EditFileInput struct {
	Path    string `json:"path" jsonschema_description:"Relative path of the file to edit."`
	OldText string `json:"old_text" jsonschema_description:"Exact text to find; the first occurrence is replaced."`
	NewText string `json:"new_text" jsonschema_description:"Replacement text."`
}

var editFileInputSchema = GenerateSchema[EditFileInput]()

func (t *Toolset) editFileDefinition() ToolDefinition {
	return ToolDefinition{
		Name: "edit_file",
		Description: "Edit an existing file by replacing the first exact occurrence of old_text with new_text. " +
			"The match is literal; when it fails, re-read the file and retry with text copied verbatim, or fall back to write_file.",
		InputSchema: editFileInputSchema,
		Function:    t.editFile,
	}
}

// editFile is the one tool with an expected failure mode: exact-substring
// anchoring is brittle against paraphrased code, so ERR_TEXT_NOT_FOUND is a
// recoverable signal for the model, not a fault.
func (t *Toolset) editFile(_ context.Context, input json.RawMessage) (string, error) {
	var in EditFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}
	if in.Path == "" || in.OldText == "" {
		return "", safety.ToolError{Code: safety.CodeBadArgs, Message: "path and old_text are required"}
	}
	if in.OldText == in.NewText {
		return "", safety.ToolError{Code: safety.CodeBadArgs, Message: "old_text and new_text must differ"}
	}

	content, err := fsops.ReadFile(t.Root, in.Path)
	if err != nil {
		return "", err
	}

	if !strings.Contains(content, in.OldText) {
		return "", safety.ToolError{Code: safety.CodeTextNotFound, Message: "old_text not found in file"}
	}
	newContent := strings.Replace(content, in.OldText, in.NewText, 1)

	if err := fsops.WriteFile(t.Root, in.Path, newContent); err != nil {
		return "", err
	}
	return fmt.Sprintf("File edited: %s", in.Path), nil
}
