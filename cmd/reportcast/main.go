// Package main is the entry point for the reportcast CLI.
//
// reportcast can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	reportcast serve                     # Start with env/default config
//	reportcast serve -c config.yaml      # Start with a config file
//	reportcast validate -c config.yaml   # Validate configuration
//	reportcast version                   # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "reportcast",
	Short: "A report submission and live notification server",
	Long: `reportcast accepts text report submissions, persists each one as a
timestamped file, and notifies connected clients in real time over
Server-Sent Events or WebSocket.

Quick start:
  1. Run: reportcast serve
  2. Open http://localhost:8002 in your browser
  3. Submit a report:
     curl -X POST localhost:8002/api/reports -d '{"content":"hello"}'

Configuration can come from a YAML file, environment variables
(REPORTCAST_HOST, REPORTCAST_PORT, ...), or a .env file in the working
directory.

Example config:
  title: Weekly Reports
  host: 0.0.0.0
  port: 8002
  reports_dir: /var/lib/reportcast/reports`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this reportcast binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reportcast %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
