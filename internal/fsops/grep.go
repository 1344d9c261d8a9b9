package fsops

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/petasbytes/aicli/internal/safety"
)

// Match is one grep hit: workspace-relative file path, 1-based line number,
// and the matching line with its trailing newline stripped.
type Match struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Models repeat searches across turns, so compiled patterns are kept in a
// small LRU keyed by the pattern source.
var patternCache, _ = lru.New[string, *regexp.Regexp](64)

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Get(pattern); ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, safety.ToolError{Code: safety.CodeBadArgs, Message: "invalid regex pattern: " + err.Error()}
	}
	patternCache.Add(pattern, re)
	return re, nil
}

// Grep walks the workspace in lexical traversal order and returns every line
// matching pattern in files whose workspace-relative path matches pathGlob
// (doublestar syntax; empty matches everything). Each call restarts the walk;
// no state is carried between calls. Hidden state dirs (.git, .aicli) are
// skipped, matching the read denylist.
func Grep(root, pattern, pathGlob string) ([]Match, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	if pathGlob != "" && !doublestar.ValidatePattern(pathGlob) {
		return nil, safety.ToolError{Code: safety.CodeBadArgs, Message: "invalid path glob: " + pathGlob}
	}

	var matches []Match
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
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
		if pathGlob != "" {
			if ok, _ := doublestar.Match(pathGlob, rel); !ok {
				return nil
			}
		}
		grepFile(root, rel, re, &matches)
		return nil
	})
	if walkErr != nil {
		return nil, safety.ToolError{Code: safety.CodeIOFailure, Message: walkErr.Error()}
	}
	return matches, nil
}

func grepFile(root, rel string, re *regexp.Regexp, out *[]Match) {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return // permission or race issues: skip quietly
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if re.Match(sc.Bytes()) {
			*out = append(*out, Match{File: rel, Line: line, Text: sc.Text()})
		}
	}
}

func deniedDir(rel string) bool {
	return rel == ".git" || rel == ".aicli"
}
