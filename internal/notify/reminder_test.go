package notify

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mvoronin/finbudget/internal/models"
)

type mockReminderStore struct {
	entries []models.PaymentScheduleEntry
	loans   map[int64]*models.Loan
	emails  map[int64]string
	err     error
}

func (m *mockReminderStore) EntriesDueBetween(_ context.Context, _, _ time.Time) ([]models.PaymentScheduleEntry, error) {
	return m.entries, m.err
}

func (m *mockReminderStore) FindLoan(_ context.Context, id int64) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, errors.New("loan not found")
	}
	return loan, nil
}

func (m *mockReminderStore) FindAccountOwnerEmail(_ context.Context, accountID int64) (string, string, error) {
	email, ok := m.emails[accountID]
	if !ok {
		return "", "", errors.New("account not found")
	}
	return email, "tester", nil
}

type recordingSender struct {
	sent []string
	fail map[string]bool
}

func (r *recordingSender) SendPaymentReminder(to, _ string, _ time.Time, _ decimal.Decimal, _ bool) error {
	if r.fail[to] {
		return errors.New("smtp refused")
	}
	r.sent = append(r.sent, to)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestReminderRunSendsForDueEntries(t *testing.T) {
	due := time.Now().AddDate(0, 0, 1)
	store := &mockReminderStore{
		entries: []models.PaymentScheduleEntry{
			{LoanID: 1, MonthIndex: 3, DueDate: due, Payment: decimal.RequireFromString("8884.88")},
			{LoanID: 2, MonthIndex: 1, DueDate: due, Payment: decimal.RequireFromString("100")},
		},
		loans: map[int64]*models.Loan{
			1: {ID: 1, AccountID: 10},
			2: {ID: 2, AccountID: 20},
		},
		emails: map[int64]string{
			10: "a@example.com",
			20: "b@example.com",
		},
	}
	sender := &recordingSender{}

	NewReminder(store, sender, quietLogger(), 3).Run(context.Background())

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d reminders, want 2", len(sender.sent))
	}
}

func TestReminderRunSkipsFailures(t *testing.T) {
	due := time.Now().AddDate(0, 0, 1)
	store := &mockReminderStore{
		entries: []models.PaymentScheduleEntry{
			{LoanID: 1, DueDate: due, Payment: decimal.RequireFromString("10")},
			{LoanID: 99, DueDate: due, Payment: decimal.RequireFromString("10")}, // unknown loan
			{LoanID: 2, DueDate: due, Payment: decimal.RequireFromString("10")},
		},
		loans: map[int64]*models.Loan{
			1: {ID: 1, AccountID: 10},
			2: {ID: 2, AccountID: 20},
		},
		emails: map[int64]string{
			10: "bad@example.com",
			20: "good@example.com",
		},
	}
	sender := &recordingSender{fail: map[string]bool{"bad@example.com": true}}

	NewReminder(store, sender, quietLogger(), 3).Run(context.Background())

	if len(sender.sent) != 1 || sender.sent[0] != "good@example.com" {
		t.Fatalf("sent = %v, want only good@example.com", sender.sent)
	}
}
