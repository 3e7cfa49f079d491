// Package daemon runs sweeps on a cron schedule for deployments
// without an external scheduler.
package daemon

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/markshust/pr-merge-scheduler/internal/sweep"
)

// DefaultSchedule sweeps once a minute.
const DefaultSchedule = "* * * * *"

// Daemon owns the cron runner driving periodic sweeps
type Daemon struct {
	c   *cron.Cron
	log zerolog.Logger
}

// New creates a daemon sweeping on the given cron schedule. Sweeps are
// serialized: a tick that arrives while the previous sweep is still
// running is skipped.
func New(sweeper *sweep.Sweeper, log zerolog.Logger, schedule string) (*Daemon, error) {
	log = log.With().Str("component", "daemon").Logger()

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := c.AddFunc(schedule, func() {
		if err := sweeper.Sweep(context.Background()); err != nil {
			log.Error().Err(err).Msg("sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	return &Daemon{c: c, log: log}, nil
}

// Run starts the cron loop and blocks until ctx is cancelled, then
// waits for any in-flight sweep to finish.
func (d *Daemon) Run(ctx context.Context) {
	d.log.Info().Msg("daemon started")
	d.c.Start()

	<-ctx.Done()

	d.log.Info().Msg("daemon stopping")
	<-d.c.Stop().Done()
}
