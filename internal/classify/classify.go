// Package classify decides what a raw model reply actually is: a tool
// invocation, a final answer, or code pasted where a tool call belonged.
// Everything here is a pure function of its inputs so the heuristics stay
// unit-testable against fixed literal text; no I/O, no clock, no config.
package classify

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/petasbytes/aicli/internal/ollama"
)

// Category tags one reply.
type Category int

const (
	// ToolCalls: the reply carries at least one well-formed invocation
	// (structured tool_calls or parseable XML-style calls in the text).
	ToolCalls Category = iota
	// Final: plain prose with no tool syntax and no code dump; ends the turn.
	Final
	// Redirect: the reply embeds code as a substitute for editing files and
	// carries no recognized tool call. The loop must correct the model.
	Redirect
)

func (c Category) String() string {
	switch c {
	case ToolCalls:
		return "tool_calls"
	case Final:
		return "final"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Result is the classification outcome for one reply.
type Result struct {
	Category Category
	// Calls holds the invocations to execute, in reply order. Structured
	// calls and XML-fallback calls never mix: structured wins when present.
	Calls []ollama.ToolCall
	// Display is the reply text with any XML call markup stripped; what the
	// user should see.
	Display string
}

// Classify applies the contract from the loop's point of view:
//  1. structured calls, or XML calls parsed from text -> ToolCalls
//  2. prose without code output -> Final
//  3. code output without a recognized call -> Redirect
//
// Tie-break: a valid tool call wins even when the text also contains a code
// fence; the fence is treated as commentary.
func Classify(text string, structured []ollama.ToolCall) Result {
	if len(structured) > 0 {
		return Result{Category: ToolCalls, Calls: structured, Display: text}
	}

	if calls, cleaned := ParseXMLCalls(text); len(calls) > 0 {
		return Result{Category: ToolCalls, Calls: calls, Display: cleaned}
	}

	if LooksLikeCodeOutput(text) {
		return Result{Category: Redirect, Display: text}
	}
	return Result{Category: Final, Display: text}
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile("(?i)```(?:html|css|javascript|python|js|go)"),
	regexp.MustCompile(`(?i)<!DOCTYPE html>`),
	regexp.MustCompile(`(?i)<html[\s>]`),
	regexp.MustCompile(`def \w+\([^)]*\):`),
	regexp.MustCompile(`function \w+\(`),
	regexp.MustCompile(`class \w+[:{]`),
}

// LooksLikeCodeOutput reports whether the reply is dumping code instead of
// invoking a tool. Heuristics are deliberately simple and deterministic;
// project-specific rules belong here, behind this same boundary, not inline
// in the loop.
func LooksLikeCodeOutput(text string) bool {
	for _, p := range codePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	// A very long reply full of angle brackets is almost always an HTML dump.
	return len(text) > 1000 && strings.Contains(text, "<") && strings.Contains(text, ">")
}

var (
	xmlFunctionRe  = regexp.MustCompile(`(?s)<function=(\w+)>(.*?)</function>`)
	xmlParameterRe = regexp.MustCompile(`(?s)<parameter=(\w+)>(.*?)</parameter>`)
)

// ParseXMLCalls extracts `<function=name><parameter=k>v</parameter></function>`
// style invocations that some local models emit instead of structured
// tool_calls. Returns the parsed calls (with generated IDs) and the reply
// text with the markup removed.
func ParseXMLCalls(text string) ([]ollama.ToolCall, string) {
	fns := xmlFunctionRe.FindAllStringSubmatch(text, -1)
	if len(fns) == 0 {
		return nil, text
	}

	calls := make([]ollama.ToolCall, 0, len(fns))
	for _, fn := range fns {
		args := make(ollama.Arguments)
		for _, p := range xmlParameterRe.FindAllStringSubmatch(fn[2], -1) {
			args[p[1]] = strings.TrimSpace(p[2])
		}
		calls = append(calls, ollama.ToolCall{
			ID:       "xml-" + uuid.NewString(),
			Function: ollama.FunctionCall{Name: fn[1], Arguments: args},
		})
	}

	cleaned := strings.TrimSpace(xmlFunctionRe.ReplaceAllString(text, ""))
	return calls, cleaned
}
