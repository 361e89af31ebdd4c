package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	Income     TransactionType = "INCOME"
	Expense    TransactionType = "EXPENSE"
	Withdrawal TransactionType = "WITHDRAWAL"
	Deposit    TransactionType = "DEPOSIT"
)

// TransactionStatus is the lifecycle state of a ledger entry. Only withdrawals may be
// Pending or Rejected; every other type is created Completed and stays there.
type TransactionStatus string

const (
	Completed TransactionStatus = "COMPLETED"
	Pending   TransactionStatus = "PENDING"
	Rejected  TransactionStatus = "REJECTED"
)

// Transaction is a single, append-mostly ledger entry for one account.
// Amount is signed: positive credits, negative debits. Withdrawals are stored negative.
type Transaction struct {
	TransactionID       string            `json:"transactionID"` // Primary Key (UUID)
	AccountID           string            `json:"accountID"`     // FK -> accounts.account_id
	Amount              decimal.Decimal   `json:"amount"`
	Type                TransactionType   `json:"type"`
	Status              TransactionStatus `json:"status"`
	Date                time.Time         `json:"date"`        // Creation timestamp, immutable
	Description         string            `json:"description"` // Display-only, participates in duplicate detection
	PayoutMethod        string            `json:"payoutMethod,omitempty"`
	PayoutMethodDetails map[string]string `json:"payoutMethodDetails,omitempty"` // Free-form, validated at presentation only
	AuditFields
}

// IsTerminal reports whether the transaction can no longer change status.
func (t Transaction) IsTerminal() bool {
	return t.Status == Completed || t.Status == Rejected
}

// IsPendingWithdrawal reports whether the transaction currently contributes to the
// account's pendingWithdrawals counter.
func (t Transaction) IsPendingWithdrawal() bool {
	return t.Type == Withdrawal && t.Status == Pending
}

// MatchesDraft reports whether the transaction is an identical resubmission of the
// given (amount, type, description) triple, used by the duplicate-suppression window.
func (t Transaction) MatchesDraft(amount decimal.Decimal, txnType TransactionType, description string) bool {
	return t.Type == txnType && t.Description == description && t.Amount.Equal(amount)
}
