package services

import (
	"context"
	"time"

	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	"github.com/openpurse/personal_wallet_app/internal/dto"
)

// LedgerService is the engine keeping balance, pendingWithdrawals, totalTransactions
// and the transaction log mutually consistent. It is the only component that mutates
// account state.
type LedgerService interface {
	// RecordTransaction appends a manual transaction. Non-withdrawal amounts hit the
	// balance immediately; withdrawal drafts only raise pendingWithdrawals and stay
	// Pending. Identical (amount, type, description) resubmissions inside the
	// duplicate window are rejected with apperrors.ErrDuplicate.
	RecordTransaction(ctx context.Context, accountID string, req dto.CreateTransactionRequest) (*domain.Transaction, error)

	// RequestWithdrawal debits the balance, raises pendingWithdrawals and appends a
	// Pending withdrawal. Amounts above the balance fail with
	// apperrors.ErrInsufficientBalance and leave state untouched.
	RequestWithdrawal(ctx context.Context, accountID string, req dto.CreateWithdrawalRequest) (*domain.Transaction, error)

	// UpdateTransaction merges mutable fields into an existing transaction. Identity
	// fields (id, date, account) never change. Withdrawal status transitions out of
	// Pending settle or reverse the pending amount exactly once.
	UpdateTransaction(ctx context.Context, accountID, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error)

	// RemoveTransaction deletes a transaction from the log. totalTransactions keeps
	// counting the removed entry.
	RemoveTransaction(ctx context.Context, accountID, transactionID string) error

	// ListTransactions returns the account's log newest first.
	ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)

	// AdjustTransactionCount administratively moves totalTransactions by delta and
	// returns the new value.
	AdjustTransactionCount(ctx context.Context, accountID string, delta int64) (int64, error)

	// Tick runs one reconciliation pass at now: interest accrual, then the stale
	// withdrawal scan. It is idempotent, safe to re-run and never fails; store and
	// calculator problems are logged and retried on the next period.
	Tick(ctx context.Context, accountID string, now time.Time)
}
