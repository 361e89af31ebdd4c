package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the single-user financial record holding the balance and its counters.
// This is the primary representation used by services; it is passed into and returned
// from every engine operation, never held as ambient state.
type Account struct {
	AccountID           string          `json:"accountID"`           // Primary Key (UUID)
	Name                string          `json:"name"`                // User-defined name
	CurrencyCode        string          `json:"currencyCode"`        // Display currency (no conversion logic)
	Balance             decimal.Decimal `json:"balance"`             // >= 0 at rest, 2dp at persistence
	PendingWithdrawals  decimal.Decimal `json:"pendingWithdrawals"`  // Sum of |amount| over Pending withdrawals
	TotalTransactions   int64           `json:"totalTransactions"`   // Cumulative creations, not current log length
	CreationDate        time.Time       `json:"creationDate"`        // Immutable; anchors accrual cadences
	LastInterestApplied time.Time       `json:"lastInterestApplied"` // CreationDate <= LastInterestApplied <= now
	Version             int64           `json:"-"`                   // Optimistic-concurrency token for store writes
	AuditFields
}
