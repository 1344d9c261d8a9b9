package fsops

import (
	"os"
	"path/filepath"

	"github.com/petasbytes/aicli/internal/safety"
)

// WriteFile writes content to a file addressed by a relative path under the
// workspace root, creating parent directories as needed. Existing content is
// overwritten.
func WriteFile(root, relPath, content string) error {
	absPath, err := safety.ValidateWritePath(root, relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return safety.ToolError{Code: safety.CodeIOFailure, Message: err.Error()}
	}
	if err := os.WriteFile(absPath, []byte(content), 0o644); err != nil {
		return safety.ToolError{Code: safety.CodeIOFailure, Message: err.Error()}
	}
	return nil
}
