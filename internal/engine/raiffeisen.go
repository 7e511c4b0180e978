package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/dateutil"
	"github.com/mvoronin/finbudget/internal/models"
)

// StatementEntry is one statement of a card minimum-payment schedule.
type StatementEntry struct {
	Number         int             `json:"statement_number"`
	StatementDate  time.Time       `json:"statement_date"`
	PaymentDueDate time.Time       `json:"payment_due_date"`
	RemainingDebt  decimal.Decimal `json:"remaining_debt"`
	MinPayment     decimal.Decimal `json:"min_payment"`
}

// CardSchedule is the Raiffeisenbank minimum-payment schedule for one
// purchase month: the statements cut after the first purchase and the debt
// left once their minimum payments are made.
type CardSchedule struct {
	FirstPurchaseDate time.Time        `json:"first_purchase_date"`
	GraceEndDate      time.Time        `json:"grace_end_date"`
	TotalInitialDebt  decimal.Decimal  `json:"total_initial_debt"`
	FinalDebt         decimal.Decimal  `json:"final_debt"`
	IsOverdue         bool             `json:"is_overdue"`
	DaysUntilGraceEnd int              `json:"days_until_grace_end"`
	Statements        []StatementEntry `json:"statements"`
}

// CardScheduleBuilder generates Raiffeisenbank card schedules.
type CardScheduleBuilder struct {
	ledger     LedgerReader
	aggregator *DebtAggregator
	policy     Policy
	now        func() time.Time
}

// NewCardScheduleBuilder wires a builder over the given ledger.
func NewCardScheduleBuilder(ledger LedgerReader, policy Policy) *CardScheduleBuilder {
	return &CardScheduleBuilder{
		ledger:     ledger,
		aggregator: NewDebtAggregator(ledger),
		policy:     policy,
		now:        time.Now,
	}
}

// WithClock overrides the builder's clock for tests.
func (b *CardScheduleBuilder) WithClock(now func() time.Time) *CardScheduleBuilder {
	b.now = now
	return b
}

// Build generates the schedule for the calendar month containing month.
// It yields (nil, nil) when the account is not a Raiffeisenbank credit
// facility or the month holds no purchase to anchor the schedule on.
func (b *CardScheduleBuilder) Build(ctx context.Context, account *models.Account, month time.Time) (*CardSchedule, error) {
	if !account.IsCreditFacility() || account.Bank != BankRaiffeisenbank {
		return nil, nil
	}

	purchaseStart := dateutil.StartOfMonth(month)
	purchaseEnd := dateutil.EndOfMonth(month)

	first, err := b.ledger.FirstTransactionInRange(ctx, account.ID, purchaseStart, purchaseEnd)
	if err != nil {
		return nil, fmt.Errorf("first purchase for account %d: %w", account.ID, err)
	}
	if first == nil {
		return nil, nil
	}

	debt, _, err := b.aggregator.DebtForPeriod(ctx, account, &purchaseStart, &purchaseEnd)
	if err != nil {
		return nil, err
	}
	// A net-refund month would turn every minimum payment negative.
	if debt.IsNegative() {
		debt = decimal.Zero
	}

	statementDate := b.firstStatementDate(*first)
	outstanding := debt
	statements := make([]StatementEntry, 0, b.policy.StatementCount)
	for i := 1; i <= b.policy.StatementCount; i++ {
		minPayment := RoundCents(outstanding.Mul(b.policy.MinPaymentPercent))
		statements = append(statements, StatementEntry{
			Number:         i,
			StatementDate:  statementDate,
			PaymentDueDate: statementDate.AddDate(0, 0, b.policy.DueOffsetDays),
			RemainingDebt:  outstanding,
			MinPayment:     minPayment,
		})
		outstanding = outstanding.Sub(minPayment)
		statementDate = dateutil.AddMonths(statementDate, 1)
	}

	graceEnd := dateutil.EndOfDay(first.AddDate(0, 0, b.policy.GraceDays))
	now := b.now()
	return &CardSchedule{
		FirstPurchaseDate: *first,
		GraceEndDate:      graceEnd,
		TotalInitialDebt:  debt,
		FinalDebt:         outstanding,
		IsOverdue:         now.After(graceEnd) && outstanding.IsPositive(),
		DaysUntilGraceEnd: daysUntil(now, graceEnd),
		Statements:        statements,
	}, nil
}

// firstStatementDate puts the anchor statement day in the month after the
// first purchase, advancing another month if that would not land strictly
// after the purchase itself.
func (b *CardScheduleBuilder) firstStatementDate(firstPurchase time.Time) time.Time {
	next := dateutil.AddMonths(dateutil.StartOfMonth(firstPurchase), 1)
	day := b.policy.StatementDay
	if max := dateutil.DaysInMonth(next); day > max {
		day = max
	}
	candidate := time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, firstPurchase.Location())
	if !candidate.After(firstPurchase) {
		candidate = dateutil.AddMonths(candidate, 1)
	}
	return candidate
}
