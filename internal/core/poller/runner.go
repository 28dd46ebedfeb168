package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner invokes Poller.Tick on a fixed interval.
// A tick that is still running when the next one fires causes that firing
// to be skipped, so ticks in one process never overlap.
type Runner struct {
	cron   *cron.Cron
	poller *Poller
	log    *zap.SugaredLogger
}

// NewRunner schedules poller ticks every interval
func NewRunner(p *Poller, interval time.Duration, log *zap.SugaredLogger) (*Runner, error) {
	if interval <= 0 {
		return nil, errors.Newf("poll interval must be positive, got %s", interval)
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	r := &Runner{cron: c, poller: p, log: log}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), r.tick); err != nil {
		return nil, errors.Wrap(err, "failed to schedule poller")
	}
	return r, nil
}

func (r *Runner) tick() {
	// No mid-publish cancellation: a tick runs to completion (bounded by
	// the per-call publish timeout) even while the runner is stopping.
	if _, err := r.poller.Tick(context.Background(), time.Now().UTC()); err != nil {
		r.log.Errorw("poller tick failed", "error", err)
	}
}

// Start begins firing ticks in the background
func (r *Runner) Start() {
	r.cron.Start()
	r.log.Infow("scheduled post poller started", "entries", len(r.cron.Entries()))
}

// Stop prevents new ticks and waits for a running tick to finish or ctx to expire
func (r *Runner) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		r.log.Infow("scheduled post poller stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "timed out waiting for running tick")
	}
}

// cronLogger adapts zap to cron's logging interface
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
