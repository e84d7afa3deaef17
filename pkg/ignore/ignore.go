// Package ignore provides gitignore-based file filtering using go-git
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Matcher decides which files a patch run should skip.
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher rooted at root with layered ignore files:
// 1. .gitignore and related git ignore files (foundation)
// 2. .webneatignore at the root (repo overrides)
// 3. ~/.webneat/.webneatignore (user overrides)
func NewMatcher(root string) (*Matcher, error) {
	fs := osfs.New(root)

	var allPatterns []gitignore.Pattern

	// Always-skipped directories regardless of ignore files.
	for _, pattern := range []string{".git/**", "node_modules/**"} {
		allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
	}

	// Layer 1: standard gitignore patterns. ReadPatterns with nil reads
	// .gitignore, global excludes, and .git/info/exclude.
	if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
		allPatterns = append(allPatterns, gitPatterns...)
	}

	// Layer 2: repo-level .webneatignore
	if patterns, err := readIgnoreFile(filepath.Join(root, ".webneatignore")); err == nil {
		for _, pattern := range patterns {
			allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
		}
	}

	// Layer 3: user-level ~/.webneat/.webneatignore
	if homeDir, err := os.UserHomeDir(); err == nil {
		if patterns, err := readIgnoreFile(filepath.Join(homeDir, ".webneat", ".webneatignore")); err == nil {
			for _, pattern := range patterns {
				allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
			}
		}
	}

	return &Matcher{
		root:    root,
		matcher: gitignore.NewMatcher(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from an ignore file, skipping blanks and comments.
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// IsIgnored checks whether the path (relative to the matcher root, or
// absolute) should be skipped.
func (m *Matcher) IsIgnored(path string) bool {
	return m.match(path, false)
}

// IsIgnoredDir checks whether a directory should be skipped entirely,
// pruning traversal beneath it.
func (m *Matcher) IsIgnoredDir(path string) bool {
	return m.match(path, true)
}

func (m *Matcher) match(path string, isDir bool) bool {
	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(m.root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return false
	}
	return m.matcher.Match(strings.Split(rel, "/"), isDir)
}
