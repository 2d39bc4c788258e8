package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkendal/reportcast"
	"github.com/mkendal/reportcast/config"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the reportcast server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report server",
	Long: `Start the reportcast server.

The server will:
  - Load configuration (flags < .env file < environment < config file)
  - Create the reports directory if it does not exist
  - Accept report submissions on POST /api/reports
  - Stream new-report notifications on /api/events (SSE) and /api/ws

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  reportcast serve
  reportcast serve -c config.yaml
  REPORTCAST_PORT=9000 reportcast serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

// loadConfig assembles the effective configuration. A .env file in the
// working directory is loaded into the environment first, matching how
// containerized deployments inject settings; a config file, when given,
// provides the base the environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.FromEnv()
	}
	return config.Load(configFile)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.Debug)
	logger.Info("config loaded",
		"host", cfg.Host,
		"port", cfg.Port,
		"reports_dir", cfg.ReportsDir,
	)

	opts := []reportcast.Option{
		reportcast.WithHost(cfg.Host),
		reportcast.WithPort(cfg.Port),
		reportcast.WithReportsDir(cfg.ReportsDir),
		reportcast.WithLogger(logger),
	}
	if cfg.Title != "" {
		opts = append(opts, reportcast.WithTitle(cfg.Title))
	}
	if cfg.WatchInterval.Duration() > 0 {
		opts = append(opts, reportcast.WithWatchInterval(cfg.WatchInterval.Duration()))
	}

	rc, err := reportcast.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create reportcast: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- rc.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(cfg.ShutdownTimeout.Duration()):
			logger.Warn("shutdown timed out",
				"timeout", cfg.ShutdownTimeout.Duration().String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
