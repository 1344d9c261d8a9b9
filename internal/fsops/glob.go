package fsops

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/petasbytes/aicli/internal/safety"
)

// Glob returns workspace-relative paths of files matching pattern
// (doublestar syntax, so "**/*.go" works), newest modification time first.
// Ties and equal times fall back to lexical order so output is deterministic.
func Glob(root, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, safety.ToolError{Code: safety.CodeBadArgs, Message: "pattern is required"}
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, safety.ToolError{Code: safety.CodeBadArgs, Message: "invalid glob pattern: " + pattern}
	}

	type entry struct {
		rel string
		mod int64
	}
	var found []entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if deniedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := doublestar.Match(pattern, rel); !ok {
			return nil
		}
		var mod int64
		if fi, statErr := os.Stat(path); statErr == nil {
			mod = fi.ModTime().UnixNano()
		}
		found = append(found, entry{rel: rel, mod: mod})
		return nil
	})
	if err != nil {
		return nil, safety.ToolError{Code: safety.CodeIOFailure, Message: err.Error()}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].mod != found[j].mod {
			return found[i].mod > found[j].mod
		}
		return found[i].rel < found[j].rel
	})

	out := make([]string, len(found))
	for i, e := range found {
		out[i] = e.rel
	}
	return out, nil
}
