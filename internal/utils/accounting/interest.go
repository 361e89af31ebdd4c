package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// Interest rates applied by the accrual pass. Daily interest compounds once per
// elapsed day; the weekly/monthly/yearly bonuses apply at most once per pass, on
// anniversary alignment with the account's creation date.
var (
	dailyRate   = decimal.NewFromFloat(0.0018) // +0.18% per elapsed day
	weeklyRate  = decimal.NewFromFloat(0.0025) // +0.25% on the weekly anniversary
	monthlyRate = decimal.NewFromFloat(0.05)   // +5% on the monthly anniversary
	yearlyRate  = decimal.NewFromFloat(0.10)   // +10% on the yearly anniversary
)

// moneyPlaces is the scale money is rounded to whenever it crosses a persistence or
// API boundary.
const moneyPlaces = 2

// BonusKind names one of the accrual cadences, for logging.
type BonusKind string

const (
	DailyBonus   BonusKind = "daily"
	WeeklyBonus  BonusKind = "weekly"
	MonthlyBonus BonusKind = "monthly"
	YearlyBonus  BonusKind = "yearly"
)

// AccrualResult is the outcome of one accrual pass.
type AccrualResult struct {
	Balance     decimal.Decimal
	LastApplied time.Time
	Applied     []BonusKind
}

// Accrue computes the interest owed to balance for the time elapsed between
// lastApplied and now. It is pure: callers persist the result.
//
// Daily interest compounds once per full elapsed day, so a process that slept for ten
// days applies exactly ten compounding steps on the next pass. Qualifying bonuses
// stack on the same running balance in daily, weekly, monthly, yearly order.
// LastApplied advances to now only when at least one bonus applied, which makes the
// function idempotent: a second call with the same now is a no-op.
func Accrue(balance decimal.Decimal, creationDate, lastApplied, now time.Time) AccrualResult {
	result := AccrualResult{Balance: balance, LastApplied: lastApplied}

	elapsedDays := fullDaysBetween(lastApplied, now)
	if elapsedDays > 0 {
		onePlusDaily := decimal.NewFromInt(1).Add(dailyRate)
		for i := 0; i < elapsedDays; i++ {
			result.Balance = result.Balance.Mul(onePlusDaily)
		}
		result.Applied = append(result.Applied, DailyBonus)
	}

	if weeklyDue(creationDate, now, elapsedDays) {
		result.Balance = result.Balance.Add(result.Balance.Mul(weeklyRate))
		result.Applied = append(result.Applied, WeeklyBonus)
	}
	if monthlyDue(creationDate, now, elapsedDays) {
		result.Balance = result.Balance.Add(result.Balance.Mul(monthlyRate))
		result.Applied = append(result.Applied, MonthlyBonus)
	}
	if yearlyDue(creationDate, now, elapsedDays) {
		result.Balance = result.Balance.Add(result.Balance.Mul(yearlyRate))
		result.Applied = append(result.Applied, YearlyBonus)
	}

	if len(result.Applied) == 0 {
		return result
	}

	result.Balance = result.Balance.Round(moneyPlaces)
	result.LastApplied = now
	return result
}

// RoundMoney normalizes a money value to the boundary scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// fullDaysBetween returns the number of complete 24h periods between from and to,
// zero when to precedes from.
func fullDaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func weeklyDue(creationDate, now time.Time, elapsedDays int) bool {
	return elapsedDays >= 7 &&
		!now.Before(creationDate.AddDate(0, 0, 7)) &&
		now.Weekday() == creationDate.Weekday()
}

func monthlyDue(creationDate, now time.Time, elapsedDays int) bool {
	return elapsedDays >= 28 &&
		!now.Before(creationDate.AddDate(0, 1, 0)) &&
		now.Day() == creationDate.Day()
}

func yearlyDue(creationDate, now time.Time, elapsedDays int) bool {
	return elapsedDays >= 360 &&
		!now.Before(creationDate.AddDate(1, 0, 0)) &&
		now.Month() == creationDate.Month() &&
		now.Day() == creationDate.Day()
}
