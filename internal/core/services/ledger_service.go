package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpurse/personal_wallet_app/internal/apperrors"
	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	portsrepo "github.com/openpurse/personal_wallet_app/internal/core/ports/repositories"
	portssvc "github.com/openpurse/personal_wallet_app/internal/core/ports/services"
	"github.com/openpurse/personal_wallet_app/internal/dto"
	"github.com/openpurse/personal_wallet_app/internal/middleware"
	"github.com/openpurse/personal_wallet_app/internal/platform/clock"
	"github.com/openpurse/personal_wallet_app/internal/utils/accounting"
)

const (
	// duplicateWindow suppresses identical (amount, type, description) resubmissions.
	duplicateWindow = 2 * time.Second

	// withdrawalExpiry is how long a withdrawal may stay Pending before the
	// reconciliation pass auto-rejects it and reverses its debit.
	withdrawalExpiry = 30 * 24 * time.Hour
)

// LedgerService orchestrates the accrual calculator, the transaction ledger and the
// withdrawal lifecycle scan over one account at a time, under a per-account lock.
type LedgerService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	txnRepo     portsrepo.TransactionRepositoryFacade
	clock       clock.Clock
	locks       *accountLocks
}

var _ portssvc.LedgerService = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.AccountRepositoryFacade, txnRepo portsrepo.TransactionRepositoryFacade, clk clock.Clock) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		clock:       clk,
		locks:       newAccountLocks(),
	}
}

// retryOnConflict runs fn, re-running it once with fresh state when the store reports
// an optimistic-concurrency collision.
func retryOnConflict(fn func() error) error {
	err := fn()
	if errors.Is(err, apperrors.ErrConflict) {
		err = fn()
	}
	return err
}

// signedAmount applies the sign convention: credits positive, debits negative,
// withdrawals stored negative.
func signedAmount(amount decimal.Decimal, txnType domain.TransactionType) decimal.Decimal {
	switch txnType {
	case domain.Expense, domain.Withdrawal:
		return amount.Neg()
	default:
		return amount
	}
}

func initialStatus(txnType domain.TransactionType) domain.TransactionStatus {
	if txnType == domain.Withdrawal {
		return domain.Pending
	}
	return domain.Completed
}

func (s *LedgerService) RecordTransaction(ctx context.Context, accountID string, req dto.CreateTransactionRequest) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var created *domain.Transaction
	err := retryOnConflict(func() error {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		amount := accounting.RoundMoney(req.Amount)
		txn := domain.Transaction{
			TransactionID:       uuid.NewString(),
			AccountID:           accountID,
			Amount:              signedAmount(amount, req.Type),
			Type:                req.Type,
			Status:              initialStatus(req.Type),
			Date:                now,
			Description:         req.Description,
			PayoutMethod:        req.PayoutMethod,
			PayoutMethodDetails: req.PayoutMethodDetails,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				LastUpdatedAt: now,
			},
		}

		duplicate, err := s.txnRepo.HasRecentDuplicate(ctx, accountID, txn, now.Add(-duplicateWindow))
		if err != nil {
			return fmt.Errorf("duplicate check failed: %w", err)
		}
		if duplicate {
			return apperrors.ErrDuplicate
		}

		if txn.Type == domain.Withdrawal {
			// Withdrawal drafts recorded here only enter the pending pipeline;
			// the balance is debited by RequestWithdrawal alone.
			account.PendingWithdrawals = account.PendingWithdrawals.Add(amount)
		} else {
			newBalance := account.Balance.Add(txn.Amount)
			if newBalance.IsNegative() {
				return apperrors.ErrInsufficientBalance
			}
			account.Balance = accounting.RoundMoney(newBalance)
		}
		account.TotalTransactions++
		account.LastUpdatedAt = now

		if err := s.txnRepo.SaveTransactionWithAccount(ctx, txn, *account); err != nil {
			return err
		}
		created = &txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction recorded",
		slog.String("account_id", accountID),
		slog.String("transaction_id", created.TransactionID),
		slog.String("type", string(created.Type)),
	)
	return created, nil
}

func (s *LedgerService) RequestWithdrawal(ctx context.Context, accountID string, req dto.CreateWithdrawalRequest) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var created *domain.Transaction
	err := retryOnConflict(func() error {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		amount := accounting.RoundMoney(req.Amount)
		if amount.GreaterThan(account.Balance) {
			return apperrors.ErrInsufficientBalance
		}

		txn := domain.Transaction{
			TransactionID:       uuid.NewString(),
			AccountID:           accountID,
			Amount:              amount.Neg(),
			Type:                domain.Withdrawal,
			Status:              domain.Pending,
			Date:                now,
			Description:         req.Description,
			PayoutMethod:        req.PayoutMethod,
			PayoutMethodDetails: req.PayoutMethodDetails,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				LastUpdatedAt: now,
			},
		}

		duplicate, err := s.txnRepo.HasRecentDuplicate(ctx, accountID, txn, now.Add(-duplicateWindow))
		if err != nil {
			return fmt.Errorf("duplicate check failed: %w", err)
		}
		if duplicate {
			return apperrors.ErrDuplicate
		}

		account.Balance = accounting.RoundMoney(account.Balance.Sub(amount))
		account.PendingWithdrawals = account.PendingWithdrawals.Add(amount)
		account.TotalTransactions++
		account.LastUpdatedAt = now

		if err := s.txnRepo.SaveTransactionWithAccount(ctx, txn, *account); err != nil {
			return err
		}
		created = &txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Withdrawal requested",
		slog.String("account_id", accountID),
		slog.String("transaction_id", created.TransactionID),
		slog.String("payout_method", created.PayoutMethod),
	)
	return created, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, accountID, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var updated *domain.Transaction
	err := retryOnConflict(func() error {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		txn, err := s.txnRepo.FindTransactionByID(ctx, accountID, transactionID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if req.Status != nil && *req.Status != txn.Status {
			if err := s.applyStatusTransition(account, txn, *req.Status); err != nil {
				return err
			}
		}
		if req.Description != nil {
			txn.Description = *req.Description
		}
		if req.PayoutMethod != nil {
			txn.PayoutMethod = *req.PayoutMethod
		}
		if req.PayoutMethodDetails != nil {
			txn.PayoutMethodDetails = req.PayoutMethodDetails
		}
		txn.LastUpdatedAt = now
		account.LastUpdatedAt = now

		if err := s.txnRepo.UpdateTransactionWithAccount(ctx, *txn, *account); err != nil {
			return err
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction updated",
		slog.String("account_id", accountID),
		slog.String("transaction_id", transactionID),
	)
	return updated, nil
}

// applyStatusTransition settles or reverses a pending withdrawal exactly once.
// Pending -> Completed confirms the payout: the pending amount is released, the
// balance stays debited. Pending -> Rejected returns the money.
func (s *LedgerService) applyStatusTransition(account *domain.Account, txn *domain.Transaction, next domain.TransactionStatus) error {
	if txn.Type != domain.Withdrawal {
		return fmt.Errorf("%w: only withdrawals change status", apperrors.ErrValidation)
	}
	if txn.IsTerminal() {
		return fmt.Errorf("%w: withdrawal %s is already %s", apperrors.ErrValidation, txn.TransactionID, txn.Status)
	}
	if next != domain.Completed && next != domain.Rejected {
		return fmt.Errorf("%w: a pending withdrawal can only complete or reject", apperrors.ErrValidation)
	}

	amount := txn.Amount.Abs()
	account.PendingWithdrawals = clampToZero(account.PendingWithdrawals.Sub(amount))
	if next == domain.Rejected {
		account.Balance = accounting.RoundMoney(account.Balance.Add(amount))
	}
	txn.Status = next
	return nil
}

func (s *LedgerService) RemoveTransaction(ctx context.Context, accountID, transactionID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	unlock := s.locks.Lock(accountID)
	defer unlock()

	err := retryOnConflict(func() error {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		txn, err := s.txnRepo.FindTransactionByID(ctx, accountID, transactionID)
		if err != nil {
			return err
		}

		// Removing a pending withdrawal returns its debit, otherwise the pending
		// counter would track a transaction that no longer exists.
		if txn.IsPendingWithdrawal() {
			amount := txn.Amount.Abs()
			account.PendingWithdrawals = clampToZero(account.PendingWithdrawals.Sub(amount))
			account.Balance = accounting.RoundMoney(account.Balance.Add(amount))
		}
		// TotalTransactions counts cumulative creations and is left untouched.
		account.LastUpdatedAt = s.clock.Now()

		return s.txnRepo.DeleteTransactionWithAccount(ctx, accountID, transactionID, *account)
	})
	if err != nil {
		return err
	}

	logger.Info("Transaction removed",
		slog.String("account_id", accountID),
		slog.String("transaction_id", transactionID),
	)
	return nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListTransactionsByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}

func (s *LedgerService) AdjustTransactionCount(ctx context.Context, accountID string, delta int64) (int64, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var total int64
	err := retryOnConflict(func() error {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		next := account.TotalTransactions + delta
		if next < 0 {
			return fmt.Errorf("%w: transaction count cannot go below zero", apperrors.ErrValidation)
		}
		account.TotalTransactions = next
		account.LastUpdatedAt = s.clock.Now()
		if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
			return err
		}
		total = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("Transaction count adjusted",
		slog.String("account_id", accountID),
		slog.Int64("delta", delta),
		slog.Int64("total", total),
	)
	return total, nil
}

// Tick runs one reconciliation pass: interest accrual first, then the stale
// withdrawal scan, persisted together. It is a best-effort pass; failures are logged
// and the next period retries.
func (s *LedgerService) Tick(ctx context.Context, accountID string, now time.Time) {
	logger := middleware.GetLoggerFromCtx(ctx)

	unlock := s.locks.Lock(accountID)
	defer unlock()

	err := retryOnConflict(func() error {
		account, err := s.accountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}

		changed := false
		accrual := accounting.Accrue(account.Balance, account.CreationDate, account.LastInterestApplied, now)
		if len(accrual.Applied) > 0 {
			account.Balance = accrual.Balance
			account.LastInterestApplied = accrual.LastApplied
			changed = true
			logger.Info("Interest applied",
				slog.String("account_id", accountID),
				slog.Any("bonuses", accrual.Applied),
				slog.String("balance", account.Balance.String()),
			)
		}

		pending, err := s.txnRepo.ListPendingWithdrawals(ctx, accountID)
		if err != nil {
			return fmt.Errorf("pending withdrawal scan failed: %w", err)
		}
		var rejected []domain.Transaction
		for _, txn := range pending {
			if !txn.IsPendingWithdrawal() {
				continue
			}
			if now.Sub(txn.Date) <= withdrawalExpiry {
				continue
			}
			txn.Status = domain.Rejected
			txn.LastUpdatedAt = now
			amount := txn.Amount.Abs()
			account.Balance = accounting.RoundMoney(account.Balance.Add(amount))
			account.PendingWithdrawals = clampToZero(account.PendingWithdrawals.Sub(amount))
			rejected = append(rejected, txn)
			changed = true
			logger.Info("Stale withdrawal rejected",
				slog.String("account_id", accountID),
				slog.String("transaction_id", txn.TransactionID),
				slog.String("amount", amount.String()),
			)
		}

		if !changed {
			return nil
		}
		account.LastUpdatedAt = now
		return s.txnRepo.UpdateTransactionsWithAccount(ctx, rejected, *account)
	})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Warn("Reconciliation pass failed, retrying next period",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
	}
}

func clampToZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
