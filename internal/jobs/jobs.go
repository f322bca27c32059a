// Package jobs runs the periodic upload reconciliation and session purge.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"wardRecords/internal/files"
)

// Sweeper is satisfied by *files.Reconciler.
type Sweeper interface {
	Sweep(ctx context.Context, opts files.SweepOptions) (*files.SweepReport, error)
}

// SessionPurger is satisfied by *repository.SessionRepository.
type SessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Maintenance is one run of the periodic housekeeping.
type Maintenance struct {
	Sweeper  Sweeper
	Sessions SessionPurger
	Options  files.SweepOptions
	Logger   *slog.Logger
	Timeout  time.Duration // per run; 0 means one minute
}

// Run purges expired sessions and sweeps the upload directory. Failures are logged.
func (m *Maintenance) Run(ctx context.Context) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if m.Sessions != nil {
		n, err := m.Sessions.DeleteExpired(ctx, time.Now())
		if err != nil {
			logger.ErrorContext(ctx, "purge expired sessions", slog.Any("error", err))
		} else if n > 0 {
			logger.InfoContext(ctx, "expired sessions purged", slog.Int64("count", n))
		}
	}
	if m.Sweeper != nil {
		if _, err := m.Sweeper.Sweep(ctx, m.Options); err != nil {
			logger.ErrorContext(ctx, "scheduled sweep", slog.Any("error", err))
		}
	}
}

// Schedule runs m on spec (standard five-field cron or a descriptor such as
// "@hourly"). Overlapping runs are skipped. The returned function stops the
// scheduler and waits for a running job until ctx ends.
func Schedule(spec string, m *Maintenance) (func(context.Context) error, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { m.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	c.Start()
	return func(ctx context.Context) error {
		select {
		case <-c.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, nil
}
