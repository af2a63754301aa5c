// Package retention removes uploads older than UPLOAD_RETENTION on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/sirupsen/logrus"

	"viswords-api/internal/config"
)

// Purger removes uploads created before a cutoff
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper runs the purge on the configured schedule
type Sweeper struct {
	purger    Purger
	retention time.Duration
	schedule  string
	logger    *logrus.Logger
	now       func() time.Time
}

// New creates a sweeper for the given upload settings
func New(purger Purger, cfg config.UploadConfig, logger *logrus.Logger) *Sweeper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	schedule := cfg.CleanupSchedule
	if schedule == "" {
		schedule = config.DefaultCleanupSchedule
	}
	return &Sweeper{
		purger:    purger,
		retention: cfg.Retention,
		schedule:  schedule,
		logger:    logger,
		now:       time.Now,
	}
}

// Enabled reports whether a retention period is configured
func (s *Sweeper) Enabled() bool {
	return s.retention > 0
}

// RunOnce purges everything older than the retention period. It is a no-op
// when retention is disabled.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	return s.purger.Purge(ctx, s.now().UTC().Add(-s.retention))
}

// Start launches the scheduler goroutine and returns a func that stops it
func (s *Sweeper) Start(ctx context.Context) (context.CancelFunc, error) {
	if !s.Enabled() {
		s.logger.Debug("Upload retention disabled")
		return func() {}, nil
	}
	if !gronx.IsValid(s.schedule) {
		return nil, fmt.Errorf("invalid cleanup schedule: %q", s.schedule)
	}

	ctx, cancel := context.WithCancel(ctx)
	go s.run(ctx)

	s.logger.WithFields(logrus.Fields{
		"schedule":  s.schedule,
		"retention": s.retention,
	}).Info("Upload retention scheduler started")
	return cancel, nil
}

func (s *Sweeper) run(ctx context.Context) {
	for {
		next, err := gronx.NextTickAfter(s.schedule, s.now().UTC(), false)
		wait := time.Until(next)
		if err != nil {
			s.logger.WithError(err).Error("Failed to compute next cleanup tick")
			wait = 30 * time.Second
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug("Upload retention scheduler stopping")
			return
		case <-timer.C:
		}

		if err != nil {
			continue
		}
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.WithError(err).Error("Upload retention run failed")
		}
	}
}
