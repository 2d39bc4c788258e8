package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkendal/reportcast/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a reportcast configuration file without starting the server.

This command parses the YAML, applies environment overrides, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  reportcast validate -c config.yaml
  reportcast validate --config /etc/reportcast/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Listen:           %s:%d\n", cfg.Host, cfg.Port)
	fmt.Printf("  Reports dir:      %s\n", cfg.ReportsDir)
	fmt.Printf("  Shutdown timeout: %s\n", cfg.ShutdownTimeout.Duration())

	return nil
}
