package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/openpurse/personal_wallet_app/internal/middleware"
	"github.com/openpurse/personal_wallet_app/internal/platform/clock"
)

// AccountLister enumerates the accounts due for reconciliation.
type AccountLister interface {
	ListAccountIDs(ctx context.Context) ([]string, error)
}

// TickRunner runs one reconciliation pass for a single account.
type TickRunner interface {
	Tick(ctx context.Context, accountID string, now time.Time)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	accounts AccountLister
	ledger   TickRunner
	clock    clock.Clock
	logger   *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(accounts AccountLister, ledger TickRunner, clk clock.Clock, logger *slog.Logger) *Jobs {
	return &Jobs{
		accounts: accounts,
		ledger:   ledger,
		clock:    clk,
		logger:   logger,
	}
}

// ReconcileAccounts ticks every account once: interest accrual plus the stale
// withdrawal scan. Each tick is independent and best-effort; a failing account is
// picked up again on the next period.
func (j *Jobs) ReconcileAccounts() {
	ctx := middleware.ContextWithLogger(context.Background(), j.logger)

	ids, err := j.accounts.ListAccountIDs(ctx)
	if err != nil {
		j.logger.Error("failed to list accounts for reconciliation", "error", err)
		return
	}

	now := j.clock.Now()
	for _, id := range ids {
		j.ledger.Tick(ctx, id, now)
	}
	j.logger.Info("ledger reconciliation pass finished", "accounts", len(ids))
}
