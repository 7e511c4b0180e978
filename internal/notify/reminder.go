// Package notify sends payment reminder emails for upcoming schedule
// entries. The job is driven by cron from the API entrypoint.
package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mvoronin/finbudget/internal/models"
)

// ReminderStore is the persistence surface the reminder job reads.
type ReminderStore interface {
	EntriesDueBetween(ctx context.Context, from, to time.Time) ([]models.PaymentScheduleEntry, error)
	FindLoan(ctx context.Context, id int64) (*models.Loan, error)
	FindAccountOwnerEmail(ctx context.Context, accountID int64) (email, username string, err error)
}

// ReminderSender abstracts the outgoing mail channel.
type ReminderSender interface {
	SendPaymentReminder(to, username string, dueDate time.Time, amount decimal.Decimal, isOverdue bool) error
}

// Reminder finds schedule entries coming due and mails the owners.
type Reminder struct {
	store  ReminderStore
	sender ReminderSender
	log    *logrus.Logger
	days   int
}

// NewReminder creates a reminder job looking days ahead.
func NewReminder(store ReminderStore, sender ReminderSender, log *logrus.Logger, days int) *Reminder {
	return &Reminder{store: store, sender: sender, log: log, days: days}
}

// Run sends reminders for every entry due within the lookahead window. Send
// failures are logged and skipped so one bad address does not starve the
// rest of the batch.
func (r *Reminder) Run(ctx context.Context) {
	now := time.Now()
	entries, err := r.store.EntriesDueBetween(ctx, now, now.AddDate(0, 0, r.days))
	if err != nil {
		r.log.Errorf("Reminder job failed to list due entries: %v", err)
		return
	}

	sent := 0
	for _, entry := range entries {
		loan, err := r.store.FindLoan(ctx, entry.LoanID)
		if err != nil {
			r.log.Errorf("Reminder job failed to load loan %d: %v", entry.LoanID, err)
			continue
		}
		email, username, err := r.store.FindAccountOwnerEmail(ctx, loan.AccountID)
		if err != nil {
			r.log.Errorf("Reminder job failed to find owner of account %d: %v", loan.AccountID, err)
			continue
		}
		if err := r.sender.SendPaymentReminder(email, username, entry.DueDate, entry.Payment, entry.DueDate.Before(now)); err != nil {
			continue
		}
		sent++
	}

	r.log.Infof("Reminder job done: %d entries, %d reminders sent", len(entries), sent)
}
