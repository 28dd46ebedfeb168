package main

import (
	"fmt"
	"os"

	"Socialbot/internal/config"
	"Socialbot/internal/logger"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "socialbot",
	Short: "Socialbot - scheduled publishing for LinkedIn and Instagram",
	Long: `Socialbot manages posts for LinkedIn and Instagram and publishes
scheduled posts when they come due.

Available commands:
  serve    - Start the HTTP API (and the in-process poller)
  migrate  - Apply or inspect database migrations
  tick     - Run one poll-and-publish cycle and exit (for external cron)`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (yaml, toml or json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tickCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads the configuration and builds the logger every command needs
func loadRuntime() (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize logger")
	}
	return cfg, log, nil
}
