// Command tickethub serves the MadMatrix permit retrieval portal and offers
// CLI access to the same lookup and export pipeline.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madmatrix/tickethub/internal/config"
	"github.com/madmatrix/tickethub/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "tickethub",
	Short: "Look up registered attendees and issue their entry permits",
	Long: `tickethub finds an attendee by email across the event registry sheets and
renders their entry permit as HTML, PNG, JPEG or PDF.

Examples:
  tickethub serve --config tickethub.yml
  tickethub lookup asha@example.com
  tickethub export asha@example.com --format pdf --out ./permits
  tickethub migrate
  tickethub seed --sheet "ON STAGE" --file on_stage.xlsx`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("TICKETHUB_CONFIG"), "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (json, console)")

	rootCmd.AddCommand(serveCmd, lookupCmd, exportCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger for a command.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
