package repositories

import (
	"context"
	"time"

	"github.com/openpurse/personal_wallet_app/internal/core/domain"
)

// TransactionReader defines read operations on an account's transaction log.
type TransactionReader interface {
	// FindTransactionByID retrieves one transaction scoped to its account.
	FindTransactionByID(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccountID returns the account's transactions newest first by
	// date. The ordering is load-bearing for recent-transaction displays and for the
	// duplicate-window check.
	ListTransactionsByAccountID(ctx context.Context, accountID string) ([]domain.Transaction, error)

	// ListPendingWithdrawals returns the account's withdrawal transactions still in
	// Pending state, for the lifecycle scan.
	ListPendingWithdrawals(ctx context.Context, accountID string) ([]domain.Transaction, error)

	// HasRecentDuplicate reports whether a transaction with the same
	// (amount, type, description) exists for the account dated at or after since.
	HasRecentDuplicate(ctx context.Context, accountID string, draft domain.Transaction, since time.Time) (bool, error)
}

// TransactionWriter defines write operations on an account's transaction log.
type TransactionWriter interface {
	// SaveTransactionWithAccount atomically inserts the transaction and writes the
	// account's updated balance fields in one store transaction, with the account
	// write guarded by its version (apperrors.ErrConflict on a stale read).
	SaveTransactionWithAccount(ctx context.Context, txn domain.Transaction, account domain.Account) error

	// UpdateTransactionWithAccount atomically updates an existing transaction and the
	// account's balance fields, same guarantees as SaveTransactionWithAccount.
	UpdateTransactionWithAccount(ctx context.Context, txn domain.Transaction, account domain.Account) error

	// UpdateTransactionsWithAccount applies several transaction updates plus the
	// account write in one store transaction, used by the reconciliation pass.
	UpdateTransactionsWithAccount(ctx context.Context, txns []domain.Transaction, account domain.Account) error

	// DeleteTransactionWithAccount removes a transaction by id and writes the
	// account's updated fields atomically. Absent ids yield apperrors.ErrNotFound.
	DeleteTransactionWithAccount(ctx context.Context, accountID, transactionID string, account domain.Account) error
}

// TransactionRepositoryFacade combines the transaction log interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
