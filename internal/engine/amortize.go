package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/dateutil"
	"github.com/mvoronin/finbudget/internal/models"
)

// ErrInvalidScheduleParameters is returned for a non-positive principal or
// term, or a negative rate. Nothing is computed in that case.
var ErrInvalidScheduleParameters = errors.New("invalid schedule parameters")

// ScheduleEntry is one computed period of an amortization schedule.
// Payment = Interest + PrincipalPortion on the recorded (rounded) values.
type ScheduleEntry struct {
	MonthIndex       int             `json:"month_index"`
	DueDate          time.Time       `json:"due_date"`
	Payment          decimal.Decimal `json:"payment"`
	Interest         decimal.Decimal `json:"interest"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// AmortizationResult is a full schedule plus its totals. Totals are summed
// from the already-rounded per-period values, so TotalPayment always equals
// the sum of the entry payments exactly. LevelPayment is set for annuity
// schedules only.
type AmortizationResult struct {
	Entries      []ScheduleEntry  `json:"entries"`
	TotalPayment decimal.Decimal  `json:"total_payment"`
	Overpayment  decimal.Decimal  `json:"overpayment"`
	LevelPayment *decimal.Decimal `json:"level_payment,omitempty"`
}

// ComputeSchedule produces the payment schedule for a loan. Due dates are
// startDate plus the month index, day of month clamped to the target month.
// The computation is pure and deterministic.
func ComputeSchedule(principal, annualRatePercent decimal.Decimal, termMonths int, kind models.AmortizationType, startDate time.Time) (*AmortizationResult, error) {
	if termMonths <= 0 {
		return nil, fmt.Errorf("%w: term_months must be positive, got %d", ErrInvalidScheduleParameters, termMonths)
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidScheduleParameters, principal)
	}
	if annualRatePercent.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate must not be negative, got %s", ErrInvalidScheduleParameters, annualRatePercent)
	}

	monthlyRate := annualRatePercent.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(12))

	switch kind {
	case models.AmortizationAnnuity:
		return annuitySchedule(principal, monthlyRate, termMonths, startDate), nil
	case models.AmortizationDifferentiated:
		return differentiatedSchedule(principal, monthlyRate, termMonths, startDate), nil
	default:
		return nil, fmt.Errorf("%w: unknown amortization type %q", ErrInvalidScheduleParameters, kind)
	}
}

// annuitySchedule pays a level amount every month. The level payment is
// rounded to cents once and reused for months 1..n-1; the final month is
// finalized separately so the balance lands on exactly zero.
func annuitySchedule(principal, monthlyRate decimal.Decimal, termMonths int, startDate time.Time) *AmortizationResult {
	n := decimal.NewFromInt(int64(termMonths))

	var level decimal.Decimal
	if monthlyRate.IsZero() {
		level = RoundCents(principal.Div(n))
	} else {
		// A = P * r * (1+r)^n / ((1+r)^n - 1)
		one := decimal.NewFromInt(1)
		growth := one.Add(monthlyRate).Pow(n)
		level = RoundCents(principal.Mul(monthlyRate).Mul(growth).Div(growth.Sub(one)))
	}

	entries := make([]ScheduleEntry, 0, termMonths)
	remaining := principal
	totalPayment := decimal.Zero

	for m := 1; m < termMonths; m++ {
		interest := RoundCents(remaining.Mul(monthlyRate))
		principalPortion := level.Sub(interest)
		remaining = remaining.Sub(principalPortion)
		totalPayment = totalPayment.Add(level)
		entries = append(entries, ScheduleEntry{
			MonthIndex:       m,
			DueDate:          dateutil.AddMonths(startDate, m),
			Payment:          level,
			Interest:         interest,
			PrincipalPortion: principalPortion,
			RemainingBalance: remaining,
		})
	}

	// Final month absorbs the rounding drift of the previous n-1 periods:
	// the whole remaining balance is repaid, whatever the level payment says.
	interest := RoundCents(remaining.Mul(monthlyRate))
	finalPayment := remaining.Add(interest)
	totalPayment = totalPayment.Add(finalPayment)
	entries = append(entries, ScheduleEntry{
		MonthIndex:       termMonths,
		DueDate:          dateutil.AddMonths(startDate, termMonths),
		Payment:          finalPayment,
		Interest:         interest,
		PrincipalPortion: remaining,
		RemainingBalance: decimal.Zero,
	})

	return &AmortizationResult{
		Entries:      entries,
		TotalPayment: totalPayment,
		Overpayment:  totalPayment.Sub(principal),
		LevelPayment: &level,
	}
}

// differentiatedSchedule repays a fixed share of principal every month. The
// share P/n is carried unrounded through the loop; only the recorded entry
// values are rounded. Payments strictly decrease while the rate is positive.
func differentiatedSchedule(principal, monthlyRate decimal.Decimal, termMonths int, startDate time.Time) *AmortizationResult {
	share := principal.Div(decimal.NewFromInt(int64(termMonths)))

	entries := make([]ScheduleEntry, 0, termMonths)
	remaining := principal
	totalPayment := decimal.Zero
	repaid := decimal.Zero

	for m := 1; m <= termMonths; m++ {
		interest := RoundCents(remaining.Mul(monthlyRate))

		recorded := RoundCents(share)
		if m == termMonths {
			// Close out exactly against what the rounded portions have
			// repaid so far, as the annuity final month does.
			recorded = principal.Sub(repaid)
		}
		payment := recorded.Add(interest)
		repaid = repaid.Add(recorded)

		remaining = remaining.Sub(share)
		if m == termMonths || remaining.IsNegative() {
			remaining = decimal.Zero
		}

		totalPayment = totalPayment.Add(payment)
		entries = append(entries, ScheduleEntry{
			MonthIndex:       m,
			DueDate:          dateutil.AddMonths(startDate, m),
			Payment:          payment,
			Interest:         interest,
			PrincipalPortion: recorded,
			RemainingBalance: RoundCents(remaining),
		})
	}

	return &AmortizationResult{
		Entries:      entries,
		TotalPayment: totalPayment,
		Overpayment:  totalPayment.Sub(principal),
	}
}
