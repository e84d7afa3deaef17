// Package work plans and executes a batch patch run: discovering HTML files
// under a root, processing each independently, and aggregating results.
package work

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/webneat/pkg/ignore"
	"github.com/fulmenhq/webneat/pkg/logger"
)

// WorkItem represents a single file to be processed.
type WorkItem struct {
	Path    string // absolute or root-joined path used for I/O
	RelPath string // path relative to the root, used for patterns and reporting
	Size    int64
}

// PlannerConfig configures file discovery.
type PlannerConfig struct {
	Root            string
	IncludePatterns []string // doublestar globs against RelPath; empty means all
	ExcludePatterns []string
	MaxDepth        int // <= 0 means unlimited
	NoIgnore        bool
}

// Planner discovers the HTML files a run will visit.
type Planner struct {
	config        PlannerConfig
	ignoreMatcher *ignore.Matcher
}

// NewPlanner creates a planner. Ignore-file matching is best effort; a
// matcher that fails to initialize just disables that layer.
func NewPlanner(config PlannerConfig) *Planner {
	p := &Planner{config: config}
	if !config.NoIgnore {
		matcher, err := ignore.NewMatcher(config.Root)
		if err != nil {
			logger.Warn(fmt.Sprintf("Failed to initialize ignore matcher: %v", err))
		} else {
			p.ignoreMatcher = matcher
		}
	}
	return p
}

// Discover walks the root recursively and returns every HTML file the run
// should process, in lexical order. Each call walks afresh; the planner
// keeps no cursor. A missing root is the one fatal condition of a run.
func (p *Planner) Discover() ([]WorkItem, error) {
	st, err := os.Stat(p.config.Root)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("root directory %s does not exist", p.config.Root)
	}

	var items []WorkItem
	err = filepath.WalkDir(p.config.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn(fmt.Sprintf("Skipping %s: %v", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(p.config.Root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if p.ignoreMatcher != nil && p.ignoreMatcher.IsIgnoredDir(rel) {
				return filepath.SkipDir
			}
			if p.config.MaxDepth > 0 && strings.Count(rel, "/")+1 >= p.config.MaxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !isHTMLFile(path) {
			return nil
		}
		if p.ignoreMatcher != nil && p.ignoreMatcher.IsIgnored(rel) {
			return nil
		}
		if !matchAny(p.config.IncludePatterns, rel, true) {
			return nil
		}
		if matchAny(p.config.ExcludePatterns, rel, false) {
			return nil
		}

		var size int64
		if info, infoErr := d.Info(); infoErr == nil {
			size = info.Size()
		}
		items = append(items, WorkItem{Path: path, RelPath: rel, Size: size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// matchAny reports whether rel matches any of the patterns. emptyMeans is
// the result for an empty pattern list: true for includes (everything is
// in), false for excludes (nothing is out).
func matchAny(patterns []string, rel string, emptyMeans bool) bool {
	if len(patterns) == 0 {
		return emptyMeans
	}
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
