// Package cmd implements the webneat CLI.
package cmd

import (
	"errors"
	"os"

	"github.com/fulmenhq/webneat/pkg/buildinfo"
	"github.com/fulmenhq/webneat/pkg/exitcode"
	"github.com/fulmenhq/webneat/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webneat",
		Short: "One-shot batch patcher for static HTML sites",
		Long: `Webneat walks a tree of static HTML files and patches each one in place:
it injects the preview script before the closing body tag, hardens external
links with target/rel attributes, and ensures the Content-Security-Policy
meta tag allows script-src 'self'. Every transform is idempotent — a second
run reports no changes.

Examples:
   webneat patch ./public          # Patch a site tree in place
   webneat patch --dry-run ./public
   webneat init                    # Write a starter .webneat.yaml
   webneat version                 # Show version`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Run without making changes (assessment mode)")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("webneat {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newPatchCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(versionCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the CLI. Errors carrying an exit code terminate the process
// with it; anything else is a general error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitCodeFor(err))
	}
}

// codedError attaches a process exit code to an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &codedError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return exitcode.GeneralError
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	logger.Initialize(logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "webneat",
		NoOp:      noOp,
	})
}
