// Package cli implements the tasklane command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tasklane",
	Short: "tasklane — a multi-tenant task-lane scheduler daemon",
	Long: `tasklane serves three independent lanes per tenant: a priority-ordered
Main Lane, a time-triggered Cron Lane, and a Subagent Lane that tracks
live workers against an advisory concurrency cap, unified behind a single
admin HTTP surface.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
