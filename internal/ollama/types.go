package ollama

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Message roles used on the /api/chat wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the conversation history as sent to and received
// from the daemon.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a structured invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id,omitempty"`
	Function FunctionCall `json:"function"`
}

// FunctionCall names the tool and carries its arguments.
type FunctionCall struct {
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments"`
}

// Arguments is a tolerant decoding of the tool-call argument payload.
// Local models sometimes double-encode it as a JSON string instead of an
// object; both forms decode to the same map.
type Arguments map[string]any

func (a *Arguments) UnmarshalJSON(data []byte) error {
	v := gjson.ParseBytes(data)
	if v.Type == gjson.String {
		v = gjson.Parse(v.String())
	}
	out := make(map[string]any)
	if v.IsObject() {
		v.ForEach(func(key, value gjson.Result) bool {
			out[key.String()] = value.Value()
			return true
		})
	} else if v.Type != gjson.Null && v.Raw != "" && v.Raw != `""` {
		return fmt.Errorf("tool call arguments are neither an object nor an encoded object: %s", v.Raw)
	}
	*a = out
	return nil
}

func (a Arguments) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(a))
}

// String returns the string value for key, or "" when absent or non-string.
func (a Arguments) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the integer value for key; JSON numbers arrive as float64.
// Returns 0 when absent or non-numeric.
func (a Arguments) Int(key string) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Tool is a capability advertised to the model in the chat request.
type Tool struct {
	Type     string       `json:"type"` // always "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction carries the tool name, description, and JSON Schema parameters.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
	Stream   bool      `json:"stream"`
}

// ChatResponse is the assembled /api/chat response: the whole body in batch
// mode, or the accumulation of all NDJSON chunks in streaming mode.
type ChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}
