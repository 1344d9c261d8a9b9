// Package runner coordinates message exchange with the Ollama daemon and
// dispatches tool calls.
//
// Invariants:
//   - at most one tool invocation is pending execution at a time; calls from
//     one reply run sequentially in reply order.
//   - every reply is classified before any tool call executes.
//   - history is append-only within a turn and owned by the loop.
//
// Flow:
//
//	user(text) -> assistant(tool_calls) -> tool(results)... -> assistant(text)
package runner
