package engine

import "github.com/shopspring/decimal"

// Policy bundles the grace-period and statement constants the builders run
// on. It is passed by value so nothing can mutate a shared policy; tests
// construct their own instead of patching globals.
type Policy struct {
	// GraceDays is the Raiffeisenbank grace window counted from the first
	// purchase of the month.
	GraceDays int
	// StatementDay is the fixed day of month statements are cut on.
	StatementDay int
	// StatementCount is how many statements a card schedule covers.
	StatementCount int
	// MinPaymentPercent is the share of outstanding debt due per statement,
	// e.g. 0.05 for 5%.
	MinPaymentPercent decimal.Decimal
	// DueOffsetDays is the gap between a statement date and its payment due
	// date.
	DueOffsetDays int
	// SberbankRepayMonths is how many whole calendar months after the
	// purchase month the Sberbank grace window runs.
	SberbankRepayMonths int
}

// DefaultPolicy returns the production policy constants.
func DefaultPolicy() Policy {
	return Policy{
		GraceDays:           110,
		StatementDay:        5,
		StatementCount:      3,
		MinPaymentPercent:   decimal.RequireFromString("0.05"),
		DueOffsetDays:       21,
		SberbankRepayMonths: 3,
	}
}
