package work

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/webneat/pkg/config"
)

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Root = root
	return &cfg
}

func processOne(t *testing.T, cfg *config.Config, path string, dryRun bool) FileResult {
	t.Helper()
	rel, err := filepath.Rel(cfg.Root, path)
	if err != nil {
		t.Fatal(err)
	}
	p := NewProcessor(cfg)
	return p.Process(context.Background(), WorkItem{Path: path, RelPath: filepath.ToSlash(rel)}, dryRun)
}

func TestProcessEndToEnd(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.html")
	writeFile(t, path, `<body><a href="x">l</a></body>`)

	result := processOne(t, testConfig(root), path, false)
	if result.Status != StatusPatched {
		t.Fatalf("status = %v (%s), want patched", result.Status, result.Err)
	}
	if !result.ScriptInjected || !result.LinksHardened {
		t.Errorf("flags: script=%v links=%v", result.ScriptInjected, result.LinksHardened)
	}
	if result.CSPUpdated {
		t.Error("no CSP meta present, flag should be false")
	}

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(out)
	anchor := strings.Index(body, `<a href="x" target="_blank" rel="noopener noreferrer">l</a>`)
	script := strings.Index(body, `<script src="/preview.js"></script>`)
	if anchor < 0 {
		t.Errorf("anchor not hardened:\n%s", body)
	}
	if script < 0 {
		t.Errorf("script not injected:\n%s", body)
	}
	if anchor >= 0 && script >= 0 && script < anchor {
		t.Error("script should follow the anchor as last child of body")
	}
}

func TestProcessIdempotent(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.html")
	writeFile(t, path, `<html><head>`+
		`<meta http-equiv="Content-Security-Policy" content="default-src &#39;none&#39;">`+
		`</head><body><a href="x">l</a></body></html>`)

	cfg := testConfig(root)
	first := processOne(t, cfg, path, false)
	if first.Status != StatusPatched {
		t.Fatalf("first run status = %v (%s)", first.Status, first.Err)
	}
	afterFirst, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	second := processOne(t, cfg, path, false)
	if second.Status != StatusUnchanged {
		t.Fatalf("second run status = %v, want unchanged", second.Status)
	}
	if second.ScriptInjected || second.LinksHardened || second.CSPUpdated {
		t.Errorf("second run flags: %+v", second)
	}
	afterSecond, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(afterFirst) != string(afterSecond) {
		t.Error("second run altered the file")
	}
}

func TestProcessUnchangedFileUntouched(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.html")
	// Already conformant in every way: script present, anchor opted out,
	// CSP already allows 'self'.
	writeFile(t, path, `<html><head>`+
		`<meta http-equiv="Content-Security-Policy" content="script-src 'self'"/>`+
		`</head><body>`+
		`<a href="x" target="_self">l</a>`+
		`<script src="/preview.js"></script>`+
		`</body></html>`)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	result := processOne(t, testConfig(root), path, false)
	if result.Status != StatusUnchanged {
		t.Fatalf("status = %v, want unchanged", result.Status)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("unchanged file was rewritten")
	}
}

func TestProcessDryRun(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.html")
	source := `<body><a href="x">l</a></body>`
	writeFile(t, path, source)

	result := processOne(t, testConfig(root), path, true)
	if result.Status != StatusPatched {
		t.Fatalf("status = %v, want patched (would-patch)", result.Status)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != source {
		t.Error("dry run wrote to disk")
	}
}

func TestProcessReadFailure(t *testing.T) {
	root := t.TempDir()
	result := processOne(t, testConfig(root), filepath.Join(root, "missing.html"), false)
	if result.Status != StatusReadFailed {
		t.Fatalf("status = %v, want read-failed", result.Status)
	}
	if result.Err == "" {
		t.Error("read failure should carry a reason")
	}
}

func TestProcessCommentsAloneDoNotRewrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "page.html")
	// Fully conformant except for a comment: stripping is housekeeping and
	// must not count as a change.
	writeFile(t, path, `<html><head></head><body>`+
		`<!-- draft note -->`+
		`<script src="/preview.js"></script>`+
		`</body></html>`)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	result := processOne(t, testConfig(root), path, false)
	if result.Status != StatusUnchanged {
		t.Fatalf("status = %v, want unchanged", result.Status)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("comment-only file was rewritten")
	}
}
