package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mvoronin/finbudget/internal/dateutil"
	"github.com/mvoronin/finbudget/internal/models"
)

// Bank codes with a dedicated grace-period rule. Any other code, including
// an unset one, falls back to the default rule.
const (
	BankSberbank       = "sberbank"
	BankRaiffeisenbank = "raiffeisenbank"
)

// GracePeriod is the window a bank strategy computes for a purchase period:
// when the interest-free window closes and which range repayments are
// counted over.
type GracePeriod struct {
	GraceEnd      time.Time
	PaymentsStart time.Time
	PaymentsEnd   time.Time
}

// BankStrategy computes the grace period a bank grants for purchases made
// within [purchaseStart, purchaseEnd].
type BankStrategy interface {
	GracePeriod(ctx context.Context, account *models.Account, purchaseStart, purchaseEnd time.Time) (GracePeriod, error)
	// Supported reports whether this is a real bank rule rather than the
	// no-grace fallback. Payment-period debt is only counted for supported
	// strategies.
	Supported() bool
}

// StrategyFor resolves the strategy for a bank code. Unknown codes resolve
// to the default no-grace strategy, never an error.
func StrategyFor(bank string, ledger LedgerReader, policy Policy) BankStrategy {
	switch bank {
	case BankSberbank:
		return sberbankStrategy{policy: policy}
	case BankRaiffeisenbank:
		return raiffeisenbankStrategy{ledger: ledger, policy: policy}
	default:
		return defaultStrategy{}
	}
}

// defaultStrategy grants no extension: the grace window closes with the
// purchase period itself.
type defaultStrategy struct{}

func (defaultStrategy) Supported() bool { return false }

func (defaultStrategy) GracePeriod(_ context.Context, _ *models.Account, _ time.Time, purchaseEnd time.Time) (GracePeriod, error) {
	return GracePeriod{
		GraceEnd:      purchaseEnd,
		PaymentsStart: purchaseEnd.Add(time.Second),
		PaymentsEnd:   purchaseEnd,
	}, nil
}

// sberbankStrategy models the "one month to buy plus N months to repay"
// rule: the grace window closes at the end of the last day of the month N
// calendar months after the purchase month.
type sberbankStrategy struct {
	policy Policy
}

func (sberbankStrategy) Supported() bool { return true }

func (s sberbankStrategy) GracePeriod(_ context.Context, _ *models.Account, purchaseStart, purchaseEnd time.Time) (GracePeriod, error) {
	graceEnd := dateutil.EndOfMonth(dateutil.AddMonths(purchaseStart, s.policy.SberbankRepayMonths))
	return GracePeriod{
		GraceEnd:      graceEnd,
		PaymentsStart: purchaseEnd.Add(time.Second),
		PaymentsEnd:   graceEnd,
	}, nil
}

// raiffeisenbankStrategy anchors the grace window on the first purchase of
// the month: grace runs a fixed number of days from that purchase. A month
// with no purchases degrades to the default result instead of failing.
type raiffeisenbankStrategy struct {
	ledger LedgerReader
	policy Policy
}

func (raiffeisenbankStrategy) Supported() bool { return true }

func (s raiffeisenbankStrategy) GracePeriod(ctx context.Context, account *models.Account, purchaseStart, purchaseEnd time.Time) (GracePeriod, error) {
	first, err := s.ledger.FirstTransactionInRange(ctx, account.ID, purchaseStart, purchaseEnd)
	if err != nil {
		return GracePeriod{}, fmt.Errorf("first transaction for account %d: %w", account.ID, err)
	}
	if first == nil {
		return defaultStrategy{}.GracePeriod(ctx, account, purchaseStart, purchaseEnd)
	}

	graceEnd := dateutil.EndOfDay(first.AddDate(0, 0, s.policy.GraceDays))
	return GracePeriod{
		GraceEnd:      graceEnd,
		PaymentsStart: purchaseEnd.Add(time.Second),
		PaymentsEnd:   graceEnd,
	}, nil
}
