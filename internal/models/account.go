package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the DB-layer representation of an account row.
type Account struct {
	AccountID           string          `db:"account_id"`
	Name                string          `db:"name"`
	CurrencyCode        string          `db:"currency_code"`
	Balance             decimal.Decimal `db:"balance"`
	PendingWithdrawals  decimal.Decimal `db:"pending_withdrawals"`
	TotalTransactions   int64           `db:"total_transactions"`
	CreationDate        time.Time       `db:"creation_date"`
	LastInterestApplied time.Time       `db:"last_interest_applied"`
	Version             int64           `db:"version"` // Optimistic-concurrency token
	AuditFields
}
