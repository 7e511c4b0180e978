package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/dateutil"
	"github.com/mvoronin/finbudget/internal/models"
)

// GracePeriodInfo describes the state of a credit facility's grace period
// for one purchase month. It is computed on demand and never cached.
//
// FinalDebt is the raw sum of the purchase-period and payment-period debts,
// clamped to zero once after summation: a net-refund month offsets debt from
// the other period rather than being discarded.
type GracePeriodInfo struct {
	PurchasePeriodStart   time.Time       `json:"purchase_period_start"`
	PurchasePeriodEnd     time.Time       `json:"purchase_period_end"`
	GraceEnd              time.Time       `json:"grace_end"`
	DebtForPurchasePeriod decimal.Decimal `json:"debt_for_purchase_period"`
	DebtForPaymentPeriod  decimal.Decimal `json:"debt_for_payment_period"`
	FinalDebt             decimal.Decimal `json:"final_debt"`
	IsOverdue             bool            `json:"is_overdue"`
	DaysUntilDue          int             `json:"days_until_due"`
}

// GraceInfoBuilder assembles GracePeriodInfo from the bank strategy and the
// debt aggregator.
type GraceInfoBuilder struct {
	ledger     LedgerReader
	aggregator *DebtAggregator
	policy     Policy
	now        func() time.Time
}

// NewGraceInfoBuilder wires a builder over the given ledger.
func NewGraceInfoBuilder(ledger LedgerReader, policy Policy) *GraceInfoBuilder {
	return &GraceInfoBuilder{
		ledger:     ledger,
		aggregator: NewDebtAggregator(ledger),
		policy:     policy,
		now:        time.Now,
	}
}

// WithClock overrides the builder's clock. Used by tests; production code
// keeps time.Now.
func (b *GraceInfoBuilder) WithClock(now func() time.Time) *GraceInfoBuilder {
	b.now = now
	return b
}

// Build computes the grace-period state of the account for the calendar
// month containing month. Accounts that are not credit facilities yield
// (nil, nil): no grace-period concept applies to them.
func (b *GraceInfoBuilder) Build(ctx context.Context, account *models.Account, month time.Time) (*GracePeriodInfo, error) {
	if !account.IsCreditFacility() {
		return nil, nil
	}

	purchaseStart := dateutil.StartOfMonth(month)
	purchaseEnd := dateutil.EndOfMonth(month)

	strategy := StrategyFor(account.Bank, b.ledger, b.policy)
	period, err := strategy.GracePeriod(ctx, account, purchaseStart, purchaseEnd)
	if err != nil {
		return nil, fmt.Errorf("grace period for account %d: %w", account.ID, err)
	}

	purchaseDebt, _, err := b.aggregator.DebtForPeriod(ctx, account, &purchaseStart, &purchaseEnd)
	if err != nil {
		return nil, err
	}

	paymentDebt := decimal.Zero
	if strategy.Supported() {
		paymentDebt, _, err = b.aggregator.DebtForPeriod(ctx, account, &period.PaymentsStart, &period.PaymentsEnd)
		if err != nil {
			return nil, err
		}
	}

	finalDebt := purchaseDebt.Add(paymentDebt)
	if finalDebt.IsNegative() {
		finalDebt = decimal.Zero
	}

	now := b.now()
	return &GracePeriodInfo{
		PurchasePeriodStart:   purchaseStart,
		PurchasePeriodEnd:     purchaseEnd,
		GraceEnd:              period.GraceEnd,
		DebtForPurchasePeriod: purchaseDebt,
		DebtForPaymentPeriod:  paymentDebt,
		FinalDebt:             finalDebt,
		IsOverdue:             now.After(period.GraceEnd) && finalDebt.IsPositive(),
		DaysUntilDue:          daysUntil(now, period.GraceEnd),
	}, nil
}

// daysUntil counts whole calendar days from now's date to deadline's date,
// never negative.
func daysUntil(now, deadline time.Time) int {
	if now.After(deadline) {
		return 0
	}
	from := dateutil.StartOfDay(now)
	to := dateutil.StartOfDay(deadline)
	days := int(to.Sub(from) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}
