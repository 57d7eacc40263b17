// Package main provides the entry point for the gitclip CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhubert/clip-core/cmd/gitclip/commands"
	"github.com/zhubert/clip-core/logger"
)

var debug bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "gitclip",
		Short: "Cut and paste git history slices between repositories",
		Long: `gitclip extracts selected paths with their full commit history
(including pre-rename names) into a portable bundle, and pastes such
bundles into other repositories with a conflict-aware merge preview.

Commands:
  cut     Extract paths into a clip bundle
  paste   Import a clip bundle into a repository
  status  Show the last clip
  refs    List the refs a bundle contains`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.SetDebug(debug)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(commands.NewCutCommand())
	rootCmd.AddCommand(commands.NewPasteCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewRefsCommand())

	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
