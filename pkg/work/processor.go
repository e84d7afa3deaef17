package work

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/webneat/pkg/charset"
	"github.com/fulmenhq/webneat/pkg/config"
	"github.com/fulmenhq/webneat/pkg/logger"
	"github.com/fulmenhq/webneat/pkg/markup"
	"github.com/fulmenhq/webneat/pkg/safeio"
)

// Status is the outcome of processing one file.
type Status int

const (
	// StatusPatched means at least one transform changed the document and it
	// was (or in dry-run mode, would have been) rewritten.
	StatusPatched Status = iota
	// StatusUnchanged means every transform reported no change; the file was
	// not touched on disk.
	StatusUnchanged
	// StatusReadFailed means the file could not be read or parsed.
	StatusReadFailed
	// StatusWriteFailed means the patched document could not be written
	// back. The batch continues; there are no retries.
	StatusWriteFailed
)

// String returns the status name for reporting.
func (s Status) String() string {
	switch s {
	case StatusPatched:
		return "patched"
	case StatusUnchanged:
		return "unchanged"
	case StatusReadFailed:
		return "read-failed"
	case StatusWriteFailed:
		return "write-failed"
	default:
		return "unknown"
	}
}

// FileResult records the outcome of one file, independent of every other
// file in the batch.
type FileResult struct {
	Item           WorkItem
	Status         Status
	Tier           charset.Tier
	ScriptInjected bool
	LinksHardened  bool
	CSPUpdated     bool
	Err            string
	Duration       time.Duration
}

// Processor applies the full per-file patch pipeline: read bytes, resolve
// encoding, parse, mutate, and conditionally rewrite in UTF-8.
type Processor struct {
	cfg      *config.Config
	resolver *charset.Resolver
}

// NewProcessor creates a processor for the given configuration.
func NewProcessor(cfg *config.Config) *Processor {
	return &Processor{cfg: cfg, resolver: charset.NewResolver()}
}

// Process runs one file through the pipeline. The file is rewritten iff the
// OR of the three transforms' change flags is true; otherwise it is left
// byte-identical on disk. All failures are confined to the returned result.
func (p *Processor) Process(ctx context.Context, item WorkItem, dryRun bool) FileResult {
	start := time.Now()
	result := FileResult{Item: item}
	defer func() { result.Duration = time.Since(start) }()

	select {
	case <-ctx.Done():
		result.Status = StatusReadFailed
		result.Err = "operation cancelled"
		return result
	default:
	}

	raw, err := os.ReadFile(item.Path)
	if err != nil {
		result.Status = StatusReadFailed
		result.Err = err.Error()
		logger.Warn(fmt.Sprintf("Failed to read %s: %v", item.RelPath, err))
		return result
	}

	text, tier := p.resolver.Decode(raw)
	result.Tier = tier

	doc, err := markup.Parse(text)
	if err != nil {
		result.Status = StatusReadFailed
		result.Err = err.Error()
		return result
	}

	if p.cfg.StripComments {
		markup.StripComments(doc)
	}

	result.ScriptInjected = markup.InjectScript(doc, p.cfg.PreviewScriptPath)
	result.LinksHardened = markup.HardenLinks(doc)
	result.CSPUpdated = markup.EnsureCSPSelf(doc)

	if !result.ScriptInjected && !result.LinksHardened && !result.CSPUpdated {
		result.Status = StatusUnchanged
		return result
	}

	if dryRun {
		result.Status = StatusPatched
		logger.Debug(fmt.Sprintf("Would patch %s", item.RelPath))
		return result
	}

	out, err := doc.Render()
	if err != nil {
		result.Status = StatusWriteFailed
		result.Err = err.Error()
		return result
	}
	if err := safeio.WriteFilePreservePerms(item.Path, []byte(out)); err != nil {
		result.Status = StatusWriteFailed
		result.Err = err.Error()
		logger.Warn(fmt.Sprintf("Failed to write %s: %v", item.RelPath, err))
		return result
	}

	result.Status = StatusPatched
	return result
}
