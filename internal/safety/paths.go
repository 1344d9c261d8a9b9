// Package safety provides helpers for sandboxed file access and the
// machine-readable error taxonomy surfaced to the model.
package safety

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Error codes surfaced inside tool results. The model is expected to recover
// from these (re-read, retry, switch strategy); they never crash the process.
const (
	CodeNotFound        = "ERR_NOT_FOUND"
	CodeTextNotFound    = "ERR_TEXT_NOT_FOUND"
	CodeIOFailure       = "ERR_IO_FAILURE"
	CodeTimeout         = "ERR_TIMEOUT"
	CodeUnknownTool     = "ERR_UNKNOWN_TOOL"
	CodeBadArgs         = "ERR_BAD_ARGS"
	CodeNotAFile        = "ERR_NOT_A_FILE"
	CodeOutsideSandbox  = "ERR_PATH_OUTSIDE_SANDBOX"
	CodeDeniedRead      = "ERR_DENIED_READ"
	CodeDeniedWrite     = "ERR_DENIED_WRITE"
)

// ToolError is a machine-readable error body for surfacing back to the model as JSON.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool result payloads small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// IsCode reports whether err is a ToolError carrying the given code.
func IsCode(err error, code string) bool {
	te, ok := err.(ToolError)
	return ok && te.Code == code
}

// ResolveRoot resolves the workspace root (the configured project directory)
// to an absolute, symlink-resolved path. Empty defaults to the CWD.
func ResolveRoot(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs(%q): %w", dir, err)
	}
	// Resolve symlinks where possible so later boundary checks are reliable.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return abs, nil
}

// ValidatePath resolves relPath against absRoot and returns an absolute path
// inside the workspace. It rejects absolute inputs, parent traversal, and
// symlink escapes. On violation, returns a ToolError.
func ValidatePath(absRoot, relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return "", ToolError{Code: CodeOutsideSandbox, Message: "absolute paths are not allowed"}
	}

	cleaned := filepath.Clean(relPath)
	if cleaned == "" {
		cleaned = "."
	}

	candidate := filepath.Join(absRoot, cleaned)

	// Best-effort symlink resolution:
	// 1) Resolve the whole candidate if it exists.
	// 2) Otherwise, resolve the deepest existing ancestor (the parent dir)
	//    and rejoin the final segment. This reveals escapes via a symlinked parent.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else {
		parent := filepath.Dir(candidate)
		if resolvedParent, err2 := filepath.EvalSymlinks(parent); err2 == nil {
			candidate = filepath.Join(resolvedParent, filepath.Base(candidate))
		}
	}

	// Boundary check using filepath.Rel (robust against partial prefix matches).
	rel, err := filepath.Rel(absRoot, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ToolError{Code: CodeOutsideSandbox, Message: "requested path resolves outside the project directory"}
	}

	return candidate, nil
}

// ValidateReadPath is ValidatePath plus the read denylist: .git/ and .aicli/
// (session state, telemetry) are never exposed to the model.
func ValidateReadPath(absRoot, relPath string) (string, error) {
	candidate, err := ValidatePath(absRoot, relPath)
	if err != nil {
		return "", err
	}
	rel, _ := filepath.Rel(absRoot, candidate)
	if deniedComponent(rel) {
		return "", ToolError{Code: CodeDeniedRead, Message: "reads under .git/ or .aicli/ are not allowed"}
	}
	return candidate, nil
}

// ValidateWritePath is ValidatePath plus the write denylist: .git/ and
// .aicli/ are protected from model-driven writes.
func ValidateWritePath(absRoot, relPath string) (string, error) {
	candidate, err := ValidatePath(absRoot, relPath)
	if err != nil {
		return "", err
	}
	rel, _ := filepath.Rel(absRoot, candidate)
	if deniedComponent(rel) {
		return "", ToolError{Code: CodeDeniedWrite, Message: "writes under .git/ or .aicli/ are not allowed"}
	}
	return candidate, nil
}

// deniedComponent checks the relative form for easy prefix testing on path components.
func deniedComponent(rel string) bool {
	r := filepath.ToSlash(rel)
	for _, d := range []string{".git", ".aicli"} {
		if r == d || strings.HasPrefix(r, d+"/") {
			return true
		}
	}
	return false
}
