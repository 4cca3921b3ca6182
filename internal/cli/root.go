// Package cli implements the spirit command-line interface. Service
// dependencies are package-level variables wired by the App during
// startup.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "spirit",
	Short: "Machine Spirit - self-teaching question answering assistant",
	Long: `Machine Spirit (spirit) is an on-device assistant that answers questions
from the cheapest available source and teaches itself over time.

It resolves a question through arithmetic, cached knowledge, built-in
facts, and research, queues weak topics for offline study, synthesizes
draft answers, and lets you correct or promote what it knows.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("spirit %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
