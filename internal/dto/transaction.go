package dto

import (
	"time"

	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines a manual ledger entry. Amount is submitted as a
// positive magnitude; the engine applies the sign convention for the type.
type CreateTransactionRequest struct {
	Amount              decimal.Decimal        `json:"amount" binding:"required,money2dp"`
	Type                domain.TransactionType `json:"type" binding:"required,oneof=INCOME EXPENSE WITHDRAWAL DEPOSIT"`
	Description         string                 `json:"description"`
	PayoutMethod        string                 `json:"payoutMethod"`
	PayoutMethodDetails map[string]string      `json:"payoutMethodDetails"`
}

// CreateWithdrawalRequest asks the engine to move Amount into the pending-withdrawal
// pipeline.
type CreateWithdrawalRequest struct {
	Amount              decimal.Decimal   `json:"amount" binding:"required,money2dp"`
	PayoutMethod        string            `json:"payoutMethod" binding:"required"`
	PayoutMethodDetails map[string]string `json:"payoutMethodDetails"`
	Description         string            `json:"description"`
}

// UpdateTransactionRequest carries a partial field merge for an existing transaction.
// Pointers distinguish zero-value updates from fields not provided. Identity fields
// (id, date, account) are not representable here on purpose.
type UpdateTransactionRequest struct {
	Description         *string                   `json:"description"`
	PayoutMethod        *string                   `json:"payoutMethod"`
	PayoutMethodDetails map[string]string         `json:"payoutMethodDetails"`
	Status              *domain.TransactionStatus `json:"status" binding:"omitempty,oneof=COMPLETED REJECTED"`
}

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	TransactionID       string                   `json:"transactionID"`
	AccountID           string                   `json:"accountID"`
	Amount              decimal.Decimal          `json:"amount"`
	Type                domain.TransactionType   `json:"type"`
	Status              domain.TransactionStatus `json:"status"`
	Date                time.Time                `json:"date"`
	Description         string                   `json:"description"`
	PayoutMethod        string                   `json:"payoutMethod,omitempty"`
	PayoutMethodDetails map[string]string        `json:"payoutMethodDetails,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to its response DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:       txn.TransactionID,
		AccountID:           txn.AccountID,
		Amount:              txn.Amount,
		Type:                txn.Type,
		Status:              txn.Status,
		Date:                txn.Date.UTC(),
		Description:         txn.Description,
		PayoutMethod:        txn.PayoutMethod,
		PayoutMethodDetails: txn.PayoutMethodDetails,
	}
}

// ToListTransactionResponse converts a newest-first slice of transactions.
func ToListTransactionResponse(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}
