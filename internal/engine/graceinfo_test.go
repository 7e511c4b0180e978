package engine

import (
	"context"
	"testing"
	"time"

	"github.com/mvoronin/finbudget/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGraceInfoNotApplicable(t *testing.T) {
	builder := NewGraceInfoBuilder(&mockLedger{}, DefaultPolicy())

	info, err := builder.Build(context.Background(), &models.Account{ID: 1, Kind: models.AccountKindCash}, juneStart)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil info for a cash account, got %+v", info)
	}
}

func TestGraceInfoSberbank(t *testing.T) {
	ledger := &mockLedger{entries: []ledgerEntry{
		// Purchase period: June.
		{amount: dec("1000"), at: at(10, 12), dir: models.DirectionDebit},
		{amount: dec("200"), at: at(20, 12), dir: models.DirectionCredit},
		// Payment period: July-September.
		{amount: dec("300"), at: time.Date(2025, time.August, 5, 12, 0, 0, 0, time.UTC), dir: models.DirectionDebit},
	}}
	builder := NewGraceInfoBuilder(ledger, DefaultPolicy()).
		WithClock(fixedClock(time.Date(2025, time.September, 20, 12, 0, 0, 0, time.UTC)))

	info, err := builder.Build(context.Background(), creditCard(BankSberbank), juneStart)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if info == nil {
		t.Fatal("expected info for a sberbank credit card")
	}

	if !info.PurchasePeriodStart.Equal(juneStart) || !info.PurchasePeriodEnd.Equal(juneEnd) {
		t.Errorf("purchase period = [%s, %s]", info.PurchasePeriodStart, info.PurchasePeriodEnd)
	}
	if !info.DebtForPurchasePeriod.Equal(dec("800")) {
		t.Errorf("purchase period debt = %s, want 800", info.DebtForPurchasePeriod)
	}
	if !info.DebtForPaymentPeriod.Equal(dec("300")) {
		t.Errorf("payment period debt = %s, want 300", info.DebtForPaymentPeriod)
	}
	if !info.FinalDebt.Equal(dec("1100")) {
		t.Errorf("final debt = %s, want 1100", info.FinalDebt)
	}
	if info.IsOverdue {
		t.Error("not overdue before grace end")
	}
	// Sep 20 -> Sep 30 is 10 days.
	if info.DaysUntilDue != 10 {
		t.Errorf("days until due = %d, want 10", info.DaysUntilDue)
	}
}

func TestGraceInfoUnknownBankSkipsPaymentPeriod(t *testing.T) {
	ledger := &mockLedger{entries: []ledgerEntry{
		{amount: dec("1000"), at: at(10, 12), dir: models.DirectionDebit},
		// Would land in a payment period if one were counted.
		{amount: dec("300"), at: time.Date(2025, time.July, 5, 12, 0, 0, 0, time.UTC), dir: models.DirectionDebit},
	}}
	builder := NewGraceInfoBuilder(ledger, DefaultPolicy()).
		WithClock(fixedClock(at(15, 12)))

	info, err := builder.Build(context.Background(), creditCard("some-unknown-bank"), juneStart)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !info.DebtForPaymentPeriod.IsZero() {
		t.Errorf("payment period debt = %s, want 0 for an unsupported bank", info.DebtForPaymentPeriod)
	}
	if !info.FinalDebt.Equal(dec("1000")) {
		t.Errorf("final debt = %s, want 1000", info.FinalDebt)
	}
	if !info.GraceEnd.Equal(juneEnd) {
		t.Errorf("grace end = %s, want purchase end for the default strategy", info.GraceEnd)
	}
}

func TestGraceInfoOverdue(t *testing.T) {
	ledger := &mockLedger{entries: []ledgerEntry{
		{amount: dec("1000"), at: at(10, 12), dir: models.DirectionDebit},
	}}
	builder := NewGraceInfoBuilder(ledger, DefaultPolicy()).
		WithClock(fixedClock(time.Date(2025, time.October, 2, 0, 0, 0, 0, time.UTC)))

	info, err := builder.Build(context.Background(), creditCard(BankSberbank), juneStart)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !info.IsOverdue {
		t.Error("expected overdue past grace end with outstanding debt")
	}
	if info.DaysUntilDue != 0 {
		t.Errorf("days until due = %d, want 0 once overdue", info.DaysUntilDue)
	}
}

func TestGraceInfoRefundClampsFinalDebt(t *testing.T) {
	// Returns exceed purchases; the final debt clamps to zero and the
	// account is not overdue even past grace end.
	ledger := &mockLedger{entries: []ledgerEntry{
		{amount: dec("100"), at: at(10, 12), dir: models.DirectionDebit},
		{amount: dec("400"), at: at(11, 12), dir: models.DirectionCredit},
	}}
	builder := NewGraceInfoBuilder(ledger, DefaultPolicy()).
		WithClock(fixedClock(time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))

	info, err := builder.Build(context.Background(), creditCard(BankSberbank), juneStart)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !info.DebtForPurchasePeriod.Equal(dec("-300")) {
		t.Errorf("purchase period debt = %s, want -300 (raw, unclamped)", info.DebtForPurchasePeriod)
	}
	if !info.FinalDebt.IsZero() {
		t.Errorf("final debt = %s, want 0 after clamping", info.FinalDebt)
	}
	if info.IsOverdue {
		t.Error("no positive debt, must not be overdue")
	}
}
