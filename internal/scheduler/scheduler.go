// Package scheduler runs the periodic odds refresh job.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/datasource"
	"github.com/yourusername/acca-engine/internal/storage"
)

// Scheduler manages scheduled odds refresh jobs
type Scheduler struct {
	cron       *cron.Cron
	oddsClient *datasource.Client
	store      *storage.Store
	logger     *logrus.Logger
	timeout    time.Duration

	mu        sync.Mutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewScheduler creates a new scheduler
func NewScheduler(oddsClient *datasource.Client, store *storage.Store, logger *logrus.Logger, timeout time.Duration) *Scheduler {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		oddsClient: oddsClient,
		store:      store,
		logger:     logger,
		timeout:    timeout,
	}
}

// ScheduleOddsRefresh registers a periodic fetch-and-store job for a sport
func (s *Scheduler) ScheduleOddsRefresh(cronExpression, sport string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	jobID, err := s.cron.AddFunc(cronExpression, func() {
		s.refreshOdds(sport)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule odds refresh: %w", err)
	}

	s.jobIDs = append(s.jobIDs, jobID)
	s.logger.WithFields(logrus.Fields{
		"cron":  cronExpression,
		"sport": sport,
	}).Info("Scheduled odds refresh")
	return nil
}

func (s *Scheduler) refreshOdds(sport string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	selections, err := s.oddsClient.FetchOdds(ctx, sport)
	if err != nil {
		s.logger.WithError(err).WithField("sport", sport).Error("Scheduled odds refresh failed")
		return
	}

	if err := s.store.SaveSelections(selections); err != nil {
		s.logger.WithError(err).Error("Failed to store refreshed odds")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"sport":      sport,
		"selections": len(selections),
	}).Info("Scheduled odds refresh complete")
}

// Start begins executing scheduled jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
}

// Stop stops the scheduler, waiting for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
}
