package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/openpurse/personal_wallet_app/internal/platform/config"
)

// Scheduler drives the periodic ledger reconciliation pass.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config *config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg *config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the reconciliation job and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.TickCronSpec, s.jobs.ReconcileAccounts); err != nil {
		s.logger.Error("failed to schedule ledger reconciliation job", "error", err)
		return
	}
	s.logger.Info("scheduled ledger reconciliation job", "schedule", s.config.TickCronSpec)
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler and returns a context that is done once
// running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
