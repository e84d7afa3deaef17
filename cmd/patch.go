package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/fulmenhq/webneat/pkg/ascii"
	"github.com/fulmenhq/webneat/pkg/charset"
	"github.com/fulmenhq/webneat/pkg/config"
	"github.com/fulmenhq/webneat/pkg/exitcode"
	"github.com/fulmenhq/webneat/pkg/logger"
	"github.com/fulmenhq/webneat/pkg/safeio"
	"github.com/fulmenhq/webneat/pkg/work"
	"github.com/spf13/cobra"
)

func newPatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch [root]",
		Short: "Patch every HTML file under a directory tree",
		Long: `Patch recursively visits every .html/.htm file under the root, applies the
preview-script, link-hardening, and CSP transforms, and rewrites changed
files in place as UTF-8. Unchanged files are left byte-identical. Write
failures are reported and skipped; they never abort the batch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPatch,
	}

	cmd.Flags().String("preview-script", "", "src value of the injected script tag (default from config)")
	cmd.Flags().String("strategy", "", "Execution strategy (sequential, parallel)")
	cmd.Flags().Int("max-workers", 0, "Worker cap for the parallel strategy (0 = NumCPU)")
	cmd.Flags().Int("max-depth", 0, "Maximum directory depth to traverse (0 = unlimited)")
	cmd.Flags().StringSlice("include", nil, "Glob patterns (relative to root) to include")
	cmd.Flags().StringSlice("exclude", nil, "Glob patterns (relative to root) to exclude")
	cmd.Flags().Bool("no-ignore", false, "Disable .webneatignore/.gitignore matching")
	cmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	cmd.Flags().Bool("quiet", false, "Suppress per-file status lines")

	return cmd
}

func runPatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}
	if err := applyPatchFlags(cmd, args, cfg); err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	quiet, _ := cmd.Flags().GetBool("quiet")
	noColor, _ := cmd.Flags().GetBool("no-color")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")
	if noOp, _ := cmd.Flags().GetBool("no-op"); noOp {
		dryRun = true
	}
	if noColor {
		color.NoColor = true
	}

	planner := work.NewPlanner(work.PlannerConfig{
		Root:            cfg.Root,
		IncludePatterns: cfg.Include,
		ExcludePatterns: cfg.Exclude,
		MaxDepth:        maxDepth,
		NoIgnore:        cfg.NoIgnore,
	})
	items, err := planner.Discover()
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	logger.Info(fmt.Sprintf("Discovered %d HTML files under %s", len(items), cfg.Root))

	progress := func(result work.FileResult) {
		if quiet {
			return
		}
		printStatusLine(cmd, result)
	}

	dispatcher := work.NewDispatcher(work.DispatcherConfig{
		Strategy:         cfg.Strategy,
		MaxWorkers:       cfg.MaxWorkers,
		DryRun:           dryRun,
		ProgressCallback: progress,
	}, work.NewProcessor(cfg))

	summary, _ := dispatcher.Run(context.Background(), items)
	printSummary(cmd, summary, dryRun)

	// A completed batch always exits success; per-file write failures were
	// already reported above.
	return nil
}

// applyPatchFlags overlays command-line flags onto the loaded config and
// re-validates the result.
func applyPatchFlags(cmd *cobra.Command, args []string, cfg *config.Config) error {
	if len(args) > 0 {
		root, err := safeio.CleanUserPath(args[0])
		if err != nil {
			return err
		}
		cfg.Root = root
	}
	if cmd.Flags().Changed("preview-script") {
		cfg.PreviewScriptPath, _ = cmd.Flags().GetString("preview-script")
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy, _ = cmd.Flags().GetString("strategy")
	}
	if cmd.Flags().Changed("max-workers") {
		cfg.MaxWorkers, _ = cmd.Flags().GetInt("max-workers")
	}
	if cmd.Flags().Changed("include") {
		cfg.Include, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if noIgnore, _ := cmd.Flags().GetBool("no-ignore"); noIgnore {
		cfg.NoIgnore = true
	}
	return config.Validate(cfg)
}

func printStatusLine(cmd *cobra.Command, result work.FileResult) {
	switch result.Status {
	case work.StatusPatched:
		cmd.Printf("%s %s%s\n", color.GreenString("✓"), result.Item.RelPath, tierNote(result.Tier))
	case work.StatusUnchanged:
		cmd.Printf("%s %s\n", color.New(color.Faint).Sprint("="), result.Item.RelPath)
	default:
		cmd.Printf("%s %s: %s\n", color.YellowString("⚠"), result.Item.RelPath, result.Err)
	}
}

// tierNote annotates files whose input encoding was not clean UTF-8.
func tierNote(tier charset.Tier) string {
	if tier == charset.TierUTF8 {
		return ""
	}
	return fmt.Sprintf(" (encoding: %s)", tier)
}

func printSummary(cmd *cobra.Command, summary *work.Summary, dryRun bool) {
	title := "Patch complete"
	if dryRun {
		title = "Dry run complete"
	}
	rounded := summary.Duration.Round(time.Microsecond)
	if summary.Duration >= time.Second {
		rounded = summary.Duration.Round(10 * time.Millisecond)
	}
	cmd.Print(ascii.Box([]string{
		fmt.Sprintf("%s in %s", title, rounded),
		fmt.Sprintf("Files visited:  %d", summary.Total),
		fmt.Sprintf("Patched:        %d", summary.Patched),
		fmt.Sprintf("Unchanged:      %d", summary.Unchanged),
		fmt.Sprintf("Failed:         %d", summary.Failed),
	}))
}
