package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/dateutil"
	"github.com/mvoronin/finbudget/internal/models"
)

// DebtAggregator computes the net debt of a credit facility over a date
// range from the transaction ledger.
type DebtAggregator struct {
	ledger LedgerReader
}

// NewDebtAggregator returns an aggregator over the given ledger.
func NewDebtAggregator(ledger LedgerReader) *DebtAggregator {
	return &DebtAggregator{ledger: ledger}
}

// DebtForPeriod returns debits minus credits on the account within
// [start, end]. Nil bounds mean lifetime debt on that side. Bounds sitting
// exactly on midnight are treated as whole days (see dateutil.NormalizeRange),
// so a single-day range covers the entire day.
//
// For accounts that are not credit facilities the notion of debt does not
// apply; ok is false and no error is returned, so callers can render "N/A"
// without special-casing.
func (a *DebtAggregator) DebtForPeriod(ctx context.Context, account *models.Account, start, end *time.Time) (debt decimal.Decimal, ok bool, err error) {
	if !account.IsCreditFacility() {
		return decimal.Zero, false, nil
	}

	start, end = dateutil.NormalizeRange(start, end)

	debits, err := a.ledger.SumTransactions(ctx, account.ID, start, end, models.DirectionDebit)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("sum debits for account %d: %w", account.ID, err)
	}
	credits, err := a.ledger.SumTransactions(ctx, account.ID, start, end, models.DirectionCredit)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("sum credits for account %d: %w", account.ID, err)
	}

	return debits.Sub(credits), true, nil
}
