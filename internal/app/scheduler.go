/**
 * @description
 * Cron scheduler setup for the scheduled bill run.
 */

package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
	}
}

// Start registers the bill run on the given cron schedule and starts the
// scheduler.
func (s *Scheduler) Start(billRunSchedule string) {
	if _, err := s.cron.AddFunc(billRunSchedule, s.jobs.RunBillCycle); err != nil {
		s.logger.Error("failed to schedule bill cycle run", "error", err)
	} else {
		s.logger.Info("scheduled bill cycle run", "schedule", billRunSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
