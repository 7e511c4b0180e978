// Package engine implements the credit facility accounting core: loan
// amortization schedules, bank grace-period strategies, credit-card debt
// aggregation and the Raiffeisenbank minimum-payment schedule. Everything in
// this package is a pure computation over data fetched by the caller; the
// only I/O dependency is the LedgerReader interface.
package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/models"
)

// LedgerReader is the read-only view of the transaction ledger the engine
// consumes. Implementations sum expenses together with purchase receipts on
// the debit side and income together with return receipts on the credit side.
// Nil range bounds mean "no bound on this side".
type LedgerReader interface {
	SumTransactions(ctx context.Context, accountID int64, start, end *time.Time, dir models.Direction) (decimal.Decimal, error)
	FirstTransactionInRange(ctx context.Context, accountID int64, start, end time.Time) (*time.Time, error)
}

// RoundCents rounds a monetary amount to two decimal places, half away from
// zero. Every monetary output of this package goes through this one function
// so schedules are bit-for-bit reproducible.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
