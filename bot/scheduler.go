package bot

import (
	"context"
	"fmt"
	"time"

	"channel-relay/database"
	"channel-relay/handlers"
	"channel-relay/media"
	"channel-relay/models"
	"channel-relay/transport"
	"channel-relay/utils"

	"github.com/robfig/cron/v3"
)

var c *cron.Cron

// jobs holds what the periodic tasks need.
type jobs struct {
	store      *database.PostStore
	media      *media.Store
	bot        transport.Bot
	moderator  models.ChatRef
	staleAfter time.Duration
	log        *utils.Logger
}

// pendingDigest reminds the moderator of posts still waiting for a decision.
func (j *jobs) pendingDigest(ctx context.Context) error {
	summary, err := handlers.PendingSummary(ctx, j.store, handlers.PendingLimit)
	if err != nil {
		return fmt.Errorf("failed to list pending posts: %w", err)
	}
	if summary == handlers.NoPendingPosts {
		return nil
	}
	_, err = j.bot.SendText(ctx, j.moderator, summary, nil)
	return err
}

// cleanupMedia deletes staged files older than staleAfter that no pending
// post refers to.
func (j *jobs) cleanupMedia(ctx context.Context, now time.Time) (int, error) {
	keep, err := j.store.PendingMediaPaths(ctx)
	if err != nil {
		return 0, err
	}
	return j.media.CleanupStale(keep, j.staleAfter, now)
}

// startScheduler starts the cron jobs. An empty spec leaves its job disabled.
func startScheduler(ctx context.Context, cfg models.SchedulerConfig, j *jobs) error {
	j.log.Info("Scheduler", "Start", "initializing scheduler")
	c = cron.New()

	if cfg.PendingDigest != "" {
		_, err := c.AddFunc(cfg.PendingDigest, func() {
			if err := j.pendingDigest(ctx); err != nil {
				j.log.Warn("Scheduler", "PendingDigest", err.Error())
			}
		})
		if err != nil {
			return fmt.Errorf("invalid scheduler.pending_digest %q: %w", cfg.PendingDigest, err)
		}
	}

	if cfg.Cleanup != "" {
		_, err := c.AddFunc(cfg.Cleanup, func() {
			removed, err := j.cleanupMedia(ctx, time.Now())
			if err != nil {
				j.log.Warn("Scheduler", "Cleanup", err.Error())
			}
			if removed > 0 {
				j.log.Info("Scheduler", "Cleanup", fmt.Sprintf("removed %d stale media files", removed))
			}
		})
		if err != nil {
			return fmt.Errorf("invalid scheduler.cleanup %q: %w", cfg.Cleanup, err)
		}
	}

	c.Start()
	j.log.Info("Scheduler", "Start", fmt.Sprintf("%d cron jobs scheduled", len(c.Entries())))
	return nil
}

// stopScheduler stops the cron jobs and waits for running ones.
func stopScheduler() {
	if c != nil {
		<-c.Stop().Done()
		c = nil
	}
}
