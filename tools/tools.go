// Package tools defines the fixed capability set exposed to the model.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - The six tools: read_file, write_file, edit_file, grep, glob, bash.
//
// Invariant: a tool call and its result stay adjacent in history; handlers
// are synchronous and never run concurrently.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/petasbytes/aicli/internal/ollama"
)

// ToolDefinition binds a tool name to its parameter schema and handler.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Function    func(ctx context.Context, input json.RawMessage) (string, error)
}

// GenerateSchema derives a JSON Schema object for T's fields, suitable for
// the `parameters` member of an Ollama tool declaration.
func GenerateSchema[T any]() json.RawMessage {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := json.Marshal(schema)
	if err != nil {
		// Schemas are derived from static struct types at init; failure here
		// is a programming error.
		panic(err)
	}
	return b
}

// Toolset carries the workspace root and execution limits the handlers need.
// It replaces ambient globals: the CLI builds one Toolset from Config and
// hands it to the runner.
type Toolset struct {
	Root        string
	BashTimeout time.Duration
}

// New returns a Toolset rooted at the (already resolved) project directory.
func New(root string, bashTimeout time.Duration) *Toolset {
	return &Toolset{Root: root, BashTimeout: bashTimeout}
}

// Definitions returns all six tool definitions in a stable order.
func (t *Toolset) Definitions() []ToolDefinition {
	return []ToolDefinition{
		t.readFileDefinition(),
		t.writeFileDefinition(),
		t.editFileDefinition(),
		t.grepDefinition(),
		t.globDefinition(),
		t.bashDefinition(),
	}
}

// Lookup returns the definition for name, or nil when the model asked for a
// tool that does not exist.
func (t *Toolset) Lookup(name string) *ToolDefinition {
	defs := t.Definitions()
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i]
		}
	}
	return nil
}

// OllamaTools converts the definitions into the chat request's tools field.
func (t *Toolset) OllamaTools() []ollama.Tool {
	defs := t.Definitions()
	out := make([]ollama.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, ollama.Tool{
			Type: "function",
			Function: ollama.ToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.InputSchema,
			},
		})
	}
	return out
}
