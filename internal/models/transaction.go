package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells which side of the ledger a transaction sits on.
// Expenses and purchase receipts are debits; income and return receipts
// are credits.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// Transaction represents a financial transaction on an account
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Direction   Direction       `json:"direction"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
}
