// Package cmd implements the quill CLI commands. The CLI is a thin event
// subscriber over the lifecycle core; all mutation goes through the
// orchestrator and the helper CLI.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Distribute skills to AI coding-agent configuration directories",
	Long: `Quill installs, removes, updates, and repairs packaged instruction
bundles ("skills") for AI coding agents, driving the external skills CLI
one operation at a time with retries, verification, and reconciliation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quill %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

// verbose enables debug logging across all commands.
var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
