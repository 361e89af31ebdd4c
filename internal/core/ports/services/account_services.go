package services

import (
	"context"

	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	"github.com/openpurse/personal_wallet_app/internal/dto"
)

// AccountService covers the thin account-record surface around the ledger engine.
type AccountService interface {
	// CreateAccount provisions a fresh account with zeroed counters and the accrual
	// anchor set to creation time.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)

	// GetAccountByID retrieves one account.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
}
