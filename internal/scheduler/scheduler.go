package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/abulimen/pnode-watch/internal/poller"
	"github.com/abulimen/pnode-watch/internal/storage"
)

// Scheduler drives the batch path on a fixed cadence for deployments without
// an external cron trigger. A failed cycle is logged and left alone; the next
// tick is the retry.
type Scheduler struct {
	cron    *cron.Cron
	poller  *poller.Poller
	storage *storage.Storage
	config  SchedulerConfig
}

type SchedulerConfig struct {
	PollInterval  time.Duration
	RetentionDays int
}

func New(p *poller.Poller, store *storage.Storage, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		poller:  p,
		storage: store,
		config:  cfg,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	pollCron := fmt.Sprintf("@every %s", s.config.PollInterval)
	_, err := s.cron.AddFunc(pollCron, func() {
		if err := s.runPoll(ctx); err != nil {
			log.Printf("Error running poll cycle: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	cleanupCron := "0 2 * * *"
	_, err = s.cron.AddFunc(cleanupCron, func() {
		if err := s.runCleanup(); err != nil {
			log.Printf("Error running cleanup: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}

	log.Println("Starting scheduler...")
	log.Printf("Poll cycle: %s", pollCron)
	log.Printf("Cleanup: %s", cleanupCron)

	s.cron.Start()

	if err := s.runPoll(ctx); err != nil {
		log.Printf("Error running initial poll cycle: %v", err)
	}

	return nil
}

func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cron.Stop()
}

func (s *Scheduler) runPoll(ctx context.Context) error {
	log.Println("Running scheduled poll cycle...")
	if _, err := s.poller.RunCycle(ctx); err != nil {
		return fmt.Errorf("poll cycle failed: %w", err)
	}
	return nil
}

func (s *Scheduler) runCleanup() error {
	log.Println("Running scheduled cleanup...")
	removed, err := s.storage.PruneOldSnapshots(s.config.RetentionDays)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	log.Printf("Cleanup completed, removed %d snapshots", removed)
	return nil
}
