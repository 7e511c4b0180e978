package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentScheduleEntry represents one scheduled payment for a loan.
// All monetary fields are rounded to cents; Payment = Interest +
// PrincipalPortion and the final entry of a schedule has a zero
// RemainingBalance.
type PaymentScheduleEntry struct {
	ID               int64           `json:"id"`
	LoanID           int64           `json:"loan_id"`
	MonthIndex       int             `json:"month_index"`
	DueDate          time.Time       `json:"due_date"`
	Payment          decimal.Decimal `json:"payment"`
	Interest         decimal.Decimal `json:"interest"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	BatchID          uuid.UUID       `json:"batch_id"`
	CreatedAt        time.Time       `json:"created_at"`
}
