// Package render writes user-facing terminal output. Everything the loop
// wants shown goes through a Renderer so the control flow stays free of
// printing concerns.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	toolColor   = color.New(color.FgCyan)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errColor    = color.New(color.FgRed)
	dimColor    = color.New(color.Faint)
)

// Renderer writes formatted output to a single writer.
type Renderer struct {
	out   io.Writer
	debug bool
}

// New returns a Renderer writing to stdout.
func New(debug bool) *Renderer {
	return &Renderer{out: os.Stdout, debug: debug}
}

// NewWriter returns a Renderer writing to w; used by tests.
func NewWriter(w io.Writer, debug bool) *Renderer {
	return &Renderer{out: w, debug: debug}
}

// Token prints one streamed content delta without a newline.
func (r *Renderer) Token(s string) {
	fmt.Fprint(r.out, s)
}

// EndStream terminates a streamed reply line if any tokens were printed.
func (r *Renderer) EndStream(hadTokens bool) {
	if hadTokens {
		fmt.Fprintln(r.out)
	}
}

// Assistant prints a complete (non-streamed) assistant reply.
func (r *Renderer) Assistant(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	fmt.Fprintln(r.out, text)
}

// ToolCall announces an invocation before it executes.
func (r *Renderer) ToolCall(name, args string) {
	toolColor.Fprintf(r.out, "→ %s", name)
	if args != "" {
		dimColor.Fprintf(r.out, " %s", clip(args, 200))
	}
	fmt.Fprintln(r.out)
}

// ToolResult reports the outcome of an invocation.
func (r *Renderer) ToolResult(name, output string, err error) {
	if err != nil {
		errColor.Fprintf(r.out, "✗ %s: %s\n", name, clip(err.Error(), 400))
		return
	}
	okColor.Fprintf(r.out, "✓ %s", name)
	if r.debug && output != "" {
		dimColor.Fprintf(r.out, " %s", clip(output, 400))
	}
	fmt.Fprintln(r.out)
}

// Warn surfaces a non-fatal condition (redirection, exhausted retries).
func (r *Renderer) Warn(format string, args ...any) {
	warnColor.Fprintf(r.out, "⚠ "+format+"\n", args...)
}

// Error surfaces a turn-fatal condition.
func (r *Renderer) Error(format string, args ...any) {
	errColor.Fprintf(r.out, "error: "+format+"\n", args...)
}

// Header prints a bold section line (session banners, model listings).
func (r *Renderer) Header(format string, args ...any) {
	headerColor.Fprintf(r.out, format+"\n", args...)
}

// Info prints a plain line.
func (r *Renderer) Info(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Debugf prints only when debug output is enabled.
func (r *Renderer) Debugf(format string, args ...any) {
	if r.debug {
		dimColor.Fprintf(r.out, "debug: "+format+"\n", args...)
	}
}

// clip flattens newlines and truncates to n runes so multi-byte characters
// are never split mid-sequence.
func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
