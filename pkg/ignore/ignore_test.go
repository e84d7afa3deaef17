package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPatterns(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root)
	if err != nil {
		t.Fatal(err)
	}

	if !m.IsIgnored(".git/config") {
		t.Error(".git contents should be ignored")
	}
	if !m.IsIgnored("node_modules/pkg/index.html") {
		t.Error("node_modules contents should be ignored")
	}
	if m.IsIgnored("pages/index.html") {
		t.Error("regular html file should not be ignored")
	}
}

func TestWebneatignoreFile(t *testing.T) {
	root := t.TempDir()
	content := "# generated output\ndrafts/\n*.bak.html\n"
	if err := os.WriteFile(filepath.Join(root, ".webneatignore"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatal(err)
	}

	if !m.IsIgnoredDir("drafts") {
		t.Error("drafts/ should be ignored per .webneatignore")
	}
	if !m.IsIgnored("old.bak.html") {
		t.Error("*.bak.html should be ignored per .webneatignore")
	}
	if m.IsIgnored("index.html") {
		t.Error("index.html should not be ignored")
	}
}

func TestAbsolutePathsResolveAgainstRoot(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsIgnored(filepath.Join(root, "node_modules", "a.html")) {
		t.Error("absolute path under node_modules should be ignored")
	}
}
