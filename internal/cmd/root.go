package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for qatriage
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qatriage",
		Short: "Group and diagnose Robot Framework test failures",
		Long: `qatriage reads a Robot Framework output.xml report, collects the
failure messages of failed tests, groups similar failures with TF-IDF and
k-means clustering, and suggests a probable cause and fix for each one.

Results are shown in the terminal and can be exported as CSV, JSON, YAML,
Markdown or HTML. Runs can optionally be recorded in a local history.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
