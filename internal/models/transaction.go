package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType mirrors domain.TransactionType at the DB layer.
type TransactionType string

// TransactionStatus mirrors domain.TransactionStatus at the DB layer.
type TransactionStatus string

// Transaction is the DB-layer representation of a ledger entry row.
// PayoutMethodDetails is stored as JSONB with no fixed schema.
type Transaction struct {
	TransactionID       string            `db:"transaction_id"`
	AccountID           string            `db:"account_id"`
	Amount              decimal.Decimal   `db:"amount"`
	Type                TransactionType   `db:"type"`
	Status              TransactionStatus `db:"status"`
	Date                time.Time         `db:"date"`
	Description         string            `db:"description"`
	PayoutMethod        string            `db:"payout_method"`
	PayoutMethodDetails map[string]string `db:"payout_method_details"`
	AuditFields
}
