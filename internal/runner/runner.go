package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/petasbytes/aicli/internal/classify"
	"github.com/petasbytes/aicli/internal/config"
	"github.com/petasbytes/aicli/internal/ollama"
	"github.com/petasbytes/aicli/internal/render"
	"github.com/petasbytes/aicli/internal/safety"
	"github.com/petasbytes/aicli/internal/telemetry"
	"github.com/petasbytes/aicli/internal/windowing"
	"github.com/petasbytes/aicli/memory"
	"github.com/petasbytes/aicli/tools"
)

// ErrRedirectsExhausted ends a turn after the model ignored the configured
// number of corrective messages. The last raw reply is still returned so the
// user sees what the model actually said.
var ErrRedirectsExhausted = errors.New("model kept producing code instead of tool calls")

// ErrTurnBudgetExhausted ends a turn that hit the model round-trip limit
// without producing a final answer.
var ErrTurnBudgetExhausted = errors.New("maximum model rounds reached without a final answer")

// Client is the slice of the daemon client the loop consumes.
type Client interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error)
	ChatStream(ctx context.Context, req ollama.ChatRequest, onToken func(string)) (*ollama.ChatResponse, error)
}

// Runner owns one conversation: it sends history to the daemon, classifies
// replies, dispatches tool calls sequentially, and repeats until the model
// produces a final answer or a budget runs out.
type Runner struct {
	client  Client
	tools   *tools.Toolset
	cfg     *config.Config
	history *memory.History
	out     *render.Renderer
	store   *memory.Store // optional; nil disables persistence
	counter windowing.TokenCounter
}

// New wires a Runner from its collaborators. cfg is the explicit session
// configuration; nothing is read from ambient globals.
func New(client Client, ts *tools.Toolset, cfg *config.Config, hist *memory.History, out *render.Renderer) *Runner {
	return &Runner{
		client:  client,
		tools:   ts,
		cfg:     cfg,
		history: hist,
		out:     out,
		counter: windowing.HeuristicCounter{},
	}
}

// AttachStore enables transcript persistence. Store failures are warnings;
// the loop never fails a turn over them.
func (r *Runner) AttachStore(s *memory.Store) {
	r.store = s
}

// History exposes the message sequence for the chat front-end (/clear).
func (r *Runner) History() *memory.History {
	return r.history
}

// RunTurn drives one full cycle from user input to a final assistant answer.
// The returned string is the final reply text; with ErrRedirectsExhausted it
// is the last raw reply instead.
func (r *Runner) RunTurn(ctx context.Context, userInput string) (string, error) {
	turnID := telemetry.NewTurnID()
	ctx = telemetry.WithTurnID(ctx, turnID)
	telemetry.Emit(r.cfg.ProjectDir, "turn_started", map[string]any{
		"turn_id": turnID,
		"model":   r.cfg.Model,
	})
	telemetry.EmitPromptFeatures(ctx, r.cfg.ProjectDir, userInput)

	r.append(ctx, ollama.Message{Role: ollama.RoleUser, Content: userInput})

	fsm := newTurnState()
	redirects := 0
	lastRaw := ""

	for round := 0; round < r.cfg.MaxTurns; round++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := r.awaitModel(ctx, turnID)
		if err != nil {
			return "", err
		}

		if err := fsm.to(StateClassifying); err != nil {
			return "", err
		}
		res := classify.Classify(resp.Message.Content, resp.Message.ToolCalls)
		lastRaw = resp.Message.Content
		telemetry.Emit(r.cfg.ProjectDir, "reply_classified", map[string]any{
			"turn_id":  turnID,
			"category": res.Category.String(),
			"calls":    len(res.Calls),
		})
		r.out.Debugf("classified reply as %s (%d calls)", res.Category, len(res.Calls))

		switch res.Category {
		case classify.Final:
			if err := fsm.to(StateDone); err != nil {
				return "", err
			}
			if !r.cfg.Stream {
				r.out.Assistant(res.Display)
			}
			r.append(ctx, ollama.Message{Role: ollama.RoleAssistant, Content: res.Display})
			telemetry.Emit(r.cfg.ProjectDir, "turn_done", map[string]any{
				"turn_id": turnID,
				"rounds":  round + 1,
			})
			return res.Display, nil

		case classify.ToolCalls:
			if err := fsm.to(StateExecutingTool); err != nil {
				return "", err
			}
			if !r.cfg.Stream {
				r.out.Assistant(res.Display)
			}
			r.append(ctx, ollama.Message{
				Role:      ollama.RoleAssistant,
				Content:   res.Display,
				ToolCalls: res.Calls,
			})
			r.executeCalls(ctx, turnID, res.Calls)
			if err := fsm.to(StateAwaitingModel); err != nil {
				return "", err
			}

		case classify.Redirect:
			redirects++
			telemetry.Emit(r.cfg.ProjectDir, "redirect", map[string]any{
				"turn_id": turnID,
				"count":   redirects,
			})
			r.append(ctx, ollama.Message{Role: ollama.RoleAssistant, Content: res.Display})
			if redirects > r.cfg.MaxRedirects {
				r.out.Warn("model kept writing code instead of calling tools after %d corrections; last reply shown as-is", r.cfg.MaxRedirects)
				if !r.cfg.Stream {
					r.out.Assistant(lastRaw)
				}
				return lastRaw, ErrRedirectsExhausted
			}
			if err := fsm.to(StateRedirecting); err != nil {
				return "", err
			}
			r.out.Warn("model generated code instead of using tools; redirecting")
			r.append(ctx, ollama.Message{Role: ollama.RoleUser, Content: correctiveMessage})
			if err := fsm.to(StateAwaitingModel); err != nil {
				return "", err
			}
		}
	}

	r.out.Warn("turn budget of %d model rounds exhausted", r.cfg.MaxTurns)
	return lastRaw, ErrTurnBudgetExhausted
}

// awaitModel prepares the budgeted send window and performs one daemon
// round-trip. Streaming surfaces tokens as they arrive; classification always
// sees the fully assembled reply.
func (r *Runner) awaitModel(ctx context.Context, turnID string) (*ollama.ChatResponse, error) {
	window, stats := windowing.PrepareSendWindow(r.history.Messages(), r.cfg.TokenBudget, r.counter)
	telemetry.Emit(r.cfg.ProjectDir, "window_prepared", map[string]any{
		"turn_id":            turnID,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	if stats.OverBudgetNewest {
		return nil, fmt.Errorf("windowing: newest message group exceeds the %d token budget; raise token_budget", stats.Budget)
	}

	req := ollama.ChatRequest{
		Model:    r.cfg.Model,
		Messages: window,
		Tools:    r.tools.OllamaTools(),
	}

	if r.cfg.Stream {
		hadTokens := false
		resp, err := r.client.ChatStream(ctx, req, func(tok string) {
			hadTokens = true
			r.out.Token(tok)
		})
		r.out.EndStream(hadTokens)
		return resp, err
	}
	return r.client.Chat(ctx, req)
}

// executeCalls dispatches the reply's invocations strictly in order, one at
// a time, appending each result to history before the next call runs. Tool
// failures become tool-role error messages for the model to recover from;
// they never abort the turn.
func (r *Runner) executeCalls(ctx context.Context, turnID string, calls []ollama.ToolCall) {
	for _, call := range calls {
		name := call.Function.Name
		argsJSON, merr := json.Marshal(call.Function.Arguments)
		if merr != nil {
			argsJSON = []byte("{}")
		}
		r.out.ToolCall(name, string(argsJSON))

		output, err := r.execOne(ctx, name, argsJSON)
		r.out.ToolResult(name, output, err)

		content := output
		if err != nil {
			content = err.Error()
		}
		r.append(ctx, ollama.Message{Role: ollama.RoleTool, Content: content})
	}
}

// execOne runs a single invocation and emits a tool_exec event. Unknown tool
// names return a typed error; nothing is ever executed for them.
func (r *Runner) execOne(ctx context.Context, name string, input json.RawMessage) (string, error) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	start := time.Now()

	emit := func(outputSize int, errStr string) {
		fields := map[string]any{
			"turn_id":     turnID,
			"tool_name":   name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  len(input),
			"output_size": outputSize,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit(r.cfg.ProjectDir, "tool_exec", fields)
	}

	def := r.tools.Lookup(name)
	if def == nil {
		emit(0, "unknown tool")
		return "", safety.ToolError{Code: safety.CodeUnknownTool, Message: "unknown tool: " + name}
	}

	output, err := def.Function(ctx, input)
	if err != nil {
		// Generic error string in telemetry; the detailed message goes back
		// to the model in the tool result.
		emit(0, "tool error")
		return "", err
	}
	emit(len(output), "")
	return output, nil
}

// append adds to the in-memory history and mirrors to the store when attached.
func (r *Runner) append(ctx context.Context, m ollama.Message) {
	r.history.Append(m)
	if r.store != nil {
		if err := r.store.Append(ctx, m); err != nil {
			r.out.Debugf("persisting message: %v", err)
		}
	}
}
