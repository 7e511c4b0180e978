package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies an account.
type AccountKind string

const (
	AccountKindCredit     AccountKind = "credit"
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindDebit      AccountKind = "debit"
	AccountKindDebitCard  AccountKind = "debit_card"
	AccountKindCash       AccountKind = "cash"
)

// BankNone marks an account that is not tied to any bank.
const BankNone = "none"

// Account represents a money account in the system
type Account struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	Kind            AccountKind      `json:"kind"`
	Balance         decimal.Decimal  `json:"balance"`
	Currency        string           `json:"currency"`
	Bank            string           `json:"bank"`
	CreditLimit     *decimal.Decimal `json:"credit_limit,omitempty"`
	PaymentDueDate  *time.Time       `json:"payment_due_date,omitempty"`
	GracePeriodDays *int             `json:"grace_period_days,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IsCreditFacility reports whether the account carries a credit line.
func (a *Account) IsCreditFacility() bool {
	return a.Kind == AccountKindCredit || a.Kind == AccountKindCreditCard
}

// Validate checks the credit-facility invariant: credit and credit-card
// accounts must carry a limit, a payment due date, grace days and a bank code.
func (a *Account) Validate() error {
	if !a.IsCreditFacility() {
		return nil
	}
	if a.CreditLimit == nil {
		return fmt.Errorf("credit account requires credit_limit")
	}
	if a.PaymentDueDate == nil {
		return fmt.Errorf("credit account requires payment_due_date")
	}
	if a.GracePeriodDays == nil {
		return fmt.Errorf("credit account requires grace_period_days")
	}
	if a.Bank == "" || a.Bank == BankNone {
		return fmt.Errorf("credit account requires a bank")
	}
	return nil
}
