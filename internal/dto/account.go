package dto

import (
	"time"

	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to provision a new account.
type CreateAccountRequest struct {
	Name           string          `json:"name" binding:"required"`
	CurrencyCode   string          `json:"currencyCode" binding:"required,len=3"`
	InitialBalance decimal.Decimal `json:"initialBalance" binding:"money2dp"`
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account; timestamps serialize as RFC3339 UTC.
type AccountResponse struct {
	AccountID           string          `json:"accountID"`
	Name                string          `json:"name"`
	CurrencyCode        string          `json:"currencyCode"`
	Balance             decimal.Decimal `json:"balance"`
	PendingWithdrawals  decimal.Decimal `json:"pendingWithdrawals"`
	TotalTransactions   int64           `json:"totalTransactions"`
	CreationDate        time.Time       `json:"creationDate"`
	LastInterestApplied time.Time       `json:"lastInterestApplied"`
	CreatedAt           time.Time       `json:"createdAt"`
	LastUpdatedAt       time.Time       `json:"lastUpdatedAt"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:           acc.AccountID,
		Name:                acc.Name,
		CurrencyCode:        acc.CurrencyCode,
		Balance:             acc.Balance,
		PendingWithdrawals:  acc.PendingWithdrawals,
		TotalTransactions:   acc.TotalTransactions,
		CreationDate:        acc.CreationDate.UTC(),
		LastInterestApplied: acc.LastInterestApplied.UTC(),
		CreatedAt:           acc.CreatedAt.UTC(),
		LastUpdatedAt:       acc.LastUpdatedAt.UTC(),
	}
}

// AdjustTransactionCountRequest moves the totalTransactions counter by Delta.
type AdjustTransactionCountRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

// AdjustTransactionCountResponse returns the counter after the adjustment.
type AdjustTransactionCountResponse struct {
	AccountID         string `json:"accountID"`
	TotalTransactions int64  `json:"totalTransactions"`
}
