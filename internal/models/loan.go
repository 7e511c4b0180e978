package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationType selects how a loan's schedule is computed.
type AmortizationType string

const (
	AmortizationAnnuity        AmortizationType = "annuity"
	AmortizationDifferentiated AmortizationType = "differentiated"
)

// Loan represents a credit in the system. A loan owns exactly one generated
// payment schedule (months 1..TermMonths); recalculation replaces the whole
// schedule, never individual rows.
type Loan struct {
	ID                int64            `json:"id"`
	UserID            int64            `json:"user_id"`
	AccountID         int64            `json:"account_id"`
	Principal         decimal.Decimal  `json:"principal"`
	AnnualRatePercent decimal.Decimal  `json:"annual_rate_percent"`
	TermMonths        int              `json:"term_months"`
	AmortizationType  AmortizationType `json:"amortization_type"`
	StartDate         time.Time        `json:"start_date"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
