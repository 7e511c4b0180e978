package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptKind distinguishes purchases from returns.
type ReceiptKind string

const (
	ReceiptKindPurchase ReceiptKind = "purchase"
	ReceiptKindReturn   ReceiptKind = "return"
)

// Receipt represents a scanned store receipt attached to an account.
// For debt purposes a purchase receipt counts as a debit and a return
// receipt as a credit.
type Receipt struct {
	ID         int64           `json:"id"`
	AccountID  int64           `json:"account_id"`
	Amount     decimal.Decimal `json:"amount"`
	Kind       ReceiptKind     `json:"kind"`
	Store      string          `json:"store"`
	OccurredAt time.Time       `json:"occurred_at"`
	CreatedAt  time.Time       `json:"created_at"`
}
