package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/petasbytes/aicli/internal/config"
	"github.com/petasbytes/aicli/internal/ollama"
	"github.com/petasbytes/aicli/internal/render"
	"github.com/petasbytes/aicli/internal/runner"
	"github.com/petasbytes/aicli/internal/safety"
	"github.com/petasbytes/aicli/memory"
	"github.com/petasbytes/aicli/tools"
)

// session wires one CLI invocation: config, client, tools, history, and the
// loop. Persistence is attached separately so `models` can skip it.
type session struct {
	cfg    *config.Config
	client *ollama.Client
	run    *runner.Runner
	out    *render.Renderer
	store  *memory.Store
}

// newSession builds the agent for ask/chat: it verifies the model exists on
// the daemon, resolves the project directory, and opens the transcript store
// so conversations survive restarts.
func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	root, err := safety.ResolveRoot(cfg.ProjectDir)
	if err != nil {
		return nil, err
	}
	cfg.ProjectDir = root

	out := render.New(cfg.Debug)
	client := ollama.New(cfg.BaseURL)

	if err := checkModel(ctx, client, cfg.Model, out); err != nil {
		return nil, err
	}

	ts := tools.New(root, cfg.BashTimeout())
	hist := memory.NewHistory(runner.SystemPrompt, cfg.HistoryLimit)
	run := runner.New(client, ts, cfg, hist, out)

	s := &session{cfg: cfg, client: client, run: run, out: out}

	store, err := memory.OpenStore(ctx, memory.DefaultStorePath(root))
	if err != nil {
		// Persistence is best-effort; the session still works without it.
		out.Warn("conversation persistence disabled: %v", err)
		return s, nil
	}
	s.store = store

	prior, err := store.Recent(ctx, cfg.HistoryLimit)
	if err != nil {
		out.Warn("could not restore prior conversation: %v", err)
	}
	for _, m := range prior {
		hist.Append(m)
	}
	run.AttachStore(store)
	return s, nil
}

// checkModel fails fast with the available model list when the requested
// model is not present on the daemon.
func checkModel(ctx context.Context, client *ollama.Client, model string, out *render.Renderer) error {
	names, err := client.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == model {
			return nil
		}
	}
	out.Error("model %q not found", model)
	out.Info("Available models:")
	for _, n := range names {
		out.Info("  • %s", n)
	}
	return fmt.Errorf("model %q not found; pull it with `ollama pull %s`", model, model)
}

func (s *session) close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

// runTurn executes one turn and maps loop-level outcomes to exit behaviour:
// redirect/turn-budget exhaustion are surfaced warnings, not process errors.
func (s *session) runTurn(ctx context.Context, input string) error {
	_, err := s.run.RunTurn(ctx, input)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, runner.ErrRedirectsExhausted),
		errors.Is(err, runner.ErrTurnBudgetExhausted):
		return nil // already rendered as a warning with the raw reply
	case errors.Is(err, context.Canceled):
		s.out.Warn("interrupted")
		return nil
	default:
		var connErr *ollama.ConnectionError
		if errors.As(err, &connErr) {
			s.out.Error("%v", connErr)
			return err
		}
		return err
	}
}
