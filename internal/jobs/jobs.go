// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lantern/internal/metrics"
	"lantern/internal/store"
)

// StoryPurger deletes stories whose expires_at has passed.
type StoryPurger struct {
	store   store.Stories
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewStoryPurger(st store.Stories, log *zap.Logger, timeout time.Duration) *StoryPurger {
	return &StoryPurger{store: st, log: log, timeout: timeout, now: time.Now}
}

// Purge runs one purge pass and returns the number of deleted stories.
func (p *StoryPurger) Purge(ctx context.Context) (int64, error) {
	n, err := p.store.PurgeExpiredStories(ctx, p.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired stories: %w", err)
	}
	metrics.RecordStoriesPurged(n)
	return n, nil
}

// Scheduler owns the cron runner for background jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler registers the story purge on schedule, a standard cron expression
// or a descriptor such as "@every 1h".
func NewScheduler(schedule string, purger *StoryPurger, log *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purger.timeout)
		defer cancel()
		n, err := purger.Purge(ctx)
		if err != nil {
			log.Error("story purge failed", zap.Error(err))
			return
		}
		log.Info("story purge finished", zap.Int64("deleted", n))
	})
	if err != nil {
		return nil, fmt.Errorf("schedule story purge %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, log: log}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}
