package cmd

import (
	"github.com/fulmenhq/webneat/pkg/buildinfo"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("webneat %s\n", buildinfo.BinaryVersion)
		if mv := buildinfo.ModuleVersion(); mv != "" && mv != buildinfo.BinaryVersion {
			cmd.Printf("module %s\n", mv)
		}
	},
}
