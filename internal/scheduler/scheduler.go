// Package scheduler runs crawl cycles on a fixed interval or a cron
// expression, shortening the wait after a failed cycle so transient
// outages recover quickly.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/secnews/internal/crawler"
	"github.com/jonesrussell/secnews/internal/database"
	"github.com/jonesrussell/secnews/internal/logger"
)

// Scheduler drives periodic crawl cycles. A cycle failure is logged and
// recorded, never fatal; the next cycle simply comes sooner.
type Scheduler struct {
	crawler  *crawler.Crawler
	recorder database.ExecutionRecorder
	logger   logger.Interface

	interval time.Duration
	backoff  time.Duration
	schedule cron.Schedule

	now func() time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a scheduler running cycles every interval, falling back
// to backoff after a failed cycle. A non-empty cron expression replaces
// the interval entirely.
func New(
	c *crawler.Crawler,
	recorder database.ExecutionRecorder,
	log logger.Interface,
	interval, backoff time.Duration,
	cronExpr string,
	opts ...Option,
) (*Scheduler, error) {
	s := &Scheduler{
		crawler:  c,
		recorder: recorder,
		logger:   log.WithComponent("scheduler"),
		interval: interval,
		backoff:  backoff,
		now:      time.Now,
	}

	if cronExpr != "" {
		schedule, err := cron.ParseStandard(cronExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
		}
		s.schedule = schedule
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes crawl cycles until the context is cancelled. The first
// cycle starts immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Scheduler started", "interval", s.interval, "backoff", s.backoff)

	for {
		failed := s.runCycle(ctx)

		wait := s.nextWait(failed)
		s.logger.Info("Next crawl cycle scheduled", "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextWait picks the delay before the next cycle.
func (s *Scheduler) nextWait(failed bool) time.Duration {
	if failed {
		return s.backoff
	}
	if s.schedule != nil {
		now := s.now()
		wait := s.schedule.Next(now).Sub(now)
		if wait < 0 {
			wait = 0
		}
		return wait
	}
	return s.interval
}

// runCycle executes one crawl cycle and records its outcome, reporting
// whether it failed.
func (s *Scheduler) runCycle(ctx context.Context) bool {
	started := s.now()
	s.logger.Info("Crawl cycle starting")

	stats, err := s.crawler.Run(ctx)
	completed := s.now()

	execution := &database.CycleExecution{
		StartedAt:     started,
		CompletedAt:   completed,
		DurationMs:    completed.Sub(started).Milliseconds(),
		SitesTotal:    len(stats.Results),
		SitesFailed:   stats.Failed,
		ArticlesSaved: stats.Saved,
		Duplicates:    stats.Duplicates,
		Skipped:       stats.Skipped,
	}
	if err != nil {
		execution.ErrorMessage = err.Error()
		s.logger.Error("Crawl cycle failed", "error", err, "saved", stats.Saved)
	} else {
		s.logger.Info("Crawl cycle complete",
			"saved", stats.Saved,
			"duplicates", stats.Duplicates,
			"skipped", stats.Skipped,
			"duration", completed.Sub(started),
		)
	}

	if recordErr := s.recorder.Record(ctx, execution); recordErr != nil {
		s.logger.Warn("Failed to record cycle execution", "error", recordErr)
	}

	return err != nil
}
