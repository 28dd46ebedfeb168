package main

import (
	"time"

	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one poll-and-publish cycle and exit",
	Long: `Runs a single poller tick: recovers stale claims, then publishes every due job.
Safe to run next to 'socialbot serve' or from several hosts at once; each
job is claimed by exactly one tick.`,
	RunE: runTick,
}

func runTick(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.poller.Tick(cmd.Context(), time.Now().UTC())
	if err != nil {
		return err
	}

	log.Infow("tick finished",
		"due", result.Due,
		"recovered", result.Recovered,
		"published", result.Published,
		"retried", result.Retried,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"errors", result.Errors,
	)
	return nil
}
