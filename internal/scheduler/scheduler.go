// Package scheduler runs database maintenance on cron schedules.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/danbim/application-tracker/internal/config"
	"github.com/danbim/application-tracker/internal/events"
	"github.com/danbim/application-tracker/internal/store"
)

// Scheduler wraps robfig/cron. An empty spec disables its job.
type Scheduler struct {
	cron           *cron.Cron
	db             *sql.DB
	hub            *events.Hub
	checkpointSpec string
	purgeSpec      string
	purgeAfter     time.Duration
}

func New(db *sql.DB, hub *events.Hub, cfg config.Config) *Scheduler {
	m := cfg.Maintenance
	return &Scheduler{
		cron:           cron.New(cron.WithLogger(cron.DefaultLogger)),
		db:             db,
		hub:            hub,
		checkpointSpec: m.CheckpointCron,
		purgeSpec:      m.PurgeCron,
		purgeAfter:     time.Duration(m.PurgeDumpedAfterDays) * 24 * time.Hour,
	}
}

// Start registers the enabled jobs and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.checkpointSpec != "" {
		if _, err := s.cron.AddFunc(s.checkpointSpec, func() {
			if err := s.RunCheckpoint(ctx); err != nil {
				log.Printf("[scheduler] checkpoint error: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("checkpoint cron %q: %w", s.checkpointSpec, err)
		}
	}
	if s.purgeSpec != "" && s.purgeAfter > 0 {
		if _, err := s.cron.AddFunc(s.purgeSpec, func() {
			if _, err := s.RunPurge(ctx); err != nil {
				log.Printf("[scheduler] purge error: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("purge cron %q: %w", s.purgeSpec, err)
		}
	}

	s.cron.Start()
	log.Printf("[scheduler] started jobs=%d checkpoint=%q purge=%q", len(s.cron.Entries()), s.checkpointSpec, s.purgeSpec)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] stopped")
}

func (s *Scheduler) RunCheckpoint(ctx context.Context) error {
	return store.Checkpoint(ctx, s.db)
}

// RunPurge deletes long-dumped jobs and notifies subscribers when any went.
func (s *Scheduler) RunPurge(ctx context.Context) (int64, error) {
	if s.purgeAfter <= 0 {
		return 0, nil
	}
	n, err := store.PurgeDumpedJobs(ctx, s.db, s.purgeAfter)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[scheduler] purged dumped jobs n=%d", n)
		s.hub.Emit("", events.TypeJobsPurged, map[string]any{"deleted": n})
	}
	return n, nil
}
