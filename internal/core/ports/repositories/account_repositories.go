package repositories

import (
	"context"

	"github.com/openpurse/personal_wallet_app/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccountIDs returns the identifiers of every account, for the periodic
	// reconciliation pass.
	ListAccountIDs(ctx context.Context) ([]string, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount writes the account's mutable fields guarded by its version:
	// the write only succeeds against the version the account was read at and bumps
	// it by one. A stale version yields apperrors.ErrConflict.
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
