// internal/data/fees.go
package data

import (
	"time"

	"github.com/shopspring/decimal"
)

// Workflow defaults. Both can be overridden at startup via command-line
// flags; nothing below reads them directly.
const DefaultLoanPeriodDays = 14

// DefaultLateFeePerDay is the fee charged per whole day a return is late.
var DefaultLateFeePerDay = decimal.RequireFromString("1.00")

// LateFee computes the fee owed for a late return: perDay multiplied by the
// number of whole calendar days between dueDate and returnedAt.
//
// "Whole calendar days" means both instants are truncated to their calendar
// date before differencing, not bucketed into 24-hour spans: a loan due
// Monday 23:00 and returned Tuesday 01:00 is one day late. A return on the
// due date itself, even after the due instant, is zero days late and
// produces no fee.
//
// The function is pure; the second return value is the days-late count,
// which is zero exactly when the amount is zero.
func LateFee(dueDate, returnedAt time.Time, perDay decimal.Decimal) (decimal.Decimal, int) {
	if !returnedAt.After(dueDate) {
		return decimal.Zero, 0
	}

	daysLate := wholeDaysBetween(dueDate, returnedAt)
	if daysLate < 1 {
		return decimal.Zero, 0
	}

	return perDay.Mul(decimal.NewFromInt(int64(daysLate))), daysLate
}

// wholeDaysBetween returns the difference in calendar days from a to b,
// ignoring the time-of-day component of both instants.
func wholeDaysBetween(a, b time.Time) int {
	aYear, aMonth, aDay := a.UTC().Date()
	bYear, bMonth, bDay := b.UTC().Date()

	aMidnight := time.Date(aYear, aMonth, aDay, 0, 0, 0, 0, time.UTC)
	bMidnight := time.Date(bYear, bMonth, bDay, 0, 0, 0, 0, time.UTC)

	return int(bMidnight.Sub(aMidnight) / (24 * time.Hour))
}
