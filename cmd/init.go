package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/webneat/pkg/config"
	"github.com/fulmenhq/webneat/pkg/exitcode"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter .webneat.yaml",
		Long:  `Init writes a .webneat.yaml with the default configuration into the given directory (current directory if omitted), ready to edit.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing .webneat.yaml")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	path := filepath.Join(dir, ".webneat.yaml")

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return withExitCode(exitcode.ConfigError, fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}
