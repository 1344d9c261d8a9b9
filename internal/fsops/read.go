// Package fsops implements the filesystem primitives behind the file tools.
// All paths are relative to the workspace root and validated via safety;
// policy violations surface as ToolError JSON, plain I/O failures as typed
// ToolErrors from the taxonomy.
package fsops

import (
	"os"

	"github.com/petasbytes/aicli/internal/safety"
)

// ReadFile reads a file addressed by a relative path under the workspace root.
func ReadFile(root, relPath string) (string, error) {
	absPath, err := safety.ValidateReadPath(root, relPath)
	if err != nil {
		return "", err
	}

	fi, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", safety.ToolError{Code: safety.CodeNotFound, Message: "file not found: " + relPath}
		}
		return "", safety.ToolError{Code: safety.CodeIOFailure, Message: err.Error()}
	}
	if fi.IsDir() {
		return "", safety.ToolError{Code: safety.CodeNotAFile, Message: "path is a directory"}
	}

	b, err := os.ReadFile(absPath)
	if err != nil {
		return "", safety.ToolError{Code: safety.CodeIOFailure, Message: err.Error()}
	}
	return string(b), nil
}
