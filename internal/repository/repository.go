package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/models"
)

// ErrAccountNotFound is returned when a lookup matches no account.
var ErrAccountNotFound = fmt.Errorf("account not found")

// ErrLoanNotFound is returned when a lookup matches no loan.
var ErrLoanNotFound = fmt.Errorf("loan not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO finance.accounts (user_id, kind, balance, currency, bank, credit_limit, payment_due_date, grace_period_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.Kind, account.Balance, account.Currency, account.Bank,
		account.CreditLimit, account.PaymentDueDate, account.GracePeriodDays).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccount retrieves an account by ID
func (r *Repository) FindAccount(ctx context.Context, id int64) (*models.Account, error) {
	account := &models.Account{}
	var (
		limit    decimal.NullDecimal
		dueDate  sql.NullTime
		graceDay sql.NullInt64
	)
	query := `
		SELECT id, user_id, kind, balance, currency, bank, credit_limit, payment_due_date, grace_period_days, created_at, updated_at
		FROM finance.accounts
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.UserID, &account.Kind, &account.Balance, &account.Currency,
		&account.Bank, &limit, &dueDate, &graceDay,
		&account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if limit.Valid {
		account.CreditLimit = &limit.Decimal
	}
	if dueDate.Valid {
		account.PaymentDueDate = &dueDate.Time
	}
	if graceDay.Valid {
		days := int(graceDay.Int64)
		account.GracePeriodDays = &days
	}
	return account, nil
}

// FindAccountOwnerEmail returns the email and username of the account owner.
func (r *Repository) FindAccountOwnerEmail(ctx context.Context, accountID int64) (email, username string, err error) {
	query := `
		SELECT u.email, u.username
		FROM finance.users u
		JOIN finance.accounts a ON a.user_id = u.id
		WHERE a.id = $1`
	err = r.db.QueryRowContext(ctx, query, accountID).Scan(&email, &username)
	if err == sql.ErrNoRows {
		return "", "", ErrAccountNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to find account owner: %w", err)
	}
	return email, username, nil
}

// CreateLoan creates a new loan in the database
func (r *Repository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO finance.loans (user_id, account_id, principal, annual_rate_percent, term_months, amortization_type, start_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		loan.UserID, loan.AccountID, loan.Principal, loan.AnnualRatePercent,
		loan.TermMonths, loan.AmortizationType, loan.StartDate).
		Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoan retrieves a loan by ID
func (r *Repository) FindLoan(ctx context.Context, id int64) (*models.Loan, error) {
	loan := &models.Loan{}
	query := `
		SELECT id, user_id, account_id, principal, annual_rate_percent, term_months, amortization_type, start_date, created_at, updated_at
		FROM finance.loans
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&loan.ID, &loan.UserID, &loan.AccountID, &loan.Principal, &loan.AnnualRatePercent,
		&loan.TermMonths, &loan.AmortizationType, &loan.StartDate, &loan.CreatedAt, &loan.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// ReplaceSchedule atomically replaces the payment schedule of a loan: the
// loan row is locked, existing entries are deleted and the new ones are bulk
// inserted in one transaction. Readers either see the old schedule or the
// complete new one, and concurrent recalculations of the same loan serialize
// on the row lock.
func (r *Repository) ReplaceSchedule(ctx context.Context, loanID int64, batchID uuid.UUID, entries []models.PaymentScheduleEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM finance.loans WHERE id = $1 FOR UPDATE`, loanID).Scan(&locked)
	if err == sql.ErrNoRows {
		return ErrLoanNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock loan %d: %w", loanID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM finance.payment_schedule WHERE loan_id = $1`, loanID); err != nil {
		return fmt.Errorf("failed to delete old schedule: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema("finance", "payment_schedule",
		"loan_id", "month_index", "due_date", "payment", "interest", "principal_portion", "remaining_balance", "batch_id"))
	if err != nil {
		return fmt.Errorf("failed to prepare bulk insert: %w", err)
	}
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, loanID, e.MonthIndex, e.DueDate,
			e.Payment, e.Interest, e.PrincipalPortion, e.RemainingBalance, batchID.String()); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to insert schedule entry %d: %w", e.MonthIndex, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush bulk insert: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close bulk insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule replacement: %w", err)
	}
	return nil
}

// ScheduleForLoan retrieves the payment schedule of a loan ordered by month
func (r *Repository) ScheduleForLoan(ctx context.Context, loanID int64) ([]models.PaymentScheduleEntry, error) {
	query := `
		SELECT id, loan_id, month_index, due_date, payment, interest, principal_portion, remaining_balance, batch_id, created_at
		FROM finance.payment_schedule
		WHERE loan_id = $1
		ORDER BY month_index`
	rows, err := r.db.QueryContext(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule for loan %d: %w", loanID, err)
	}
	defer rows.Close()

	var entries []models.PaymentScheduleEntry
	for rows.Next() {
		var e models.PaymentScheduleEntry
		var batch string
		if err := rows.Scan(&e.ID, &e.LoanID, &e.MonthIndex, &e.DueDate,
			&e.Payment, &e.Interest, &e.PrincipalPortion, &e.RemainingBalance, &batch, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.BatchID, err = uuid.Parse(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to parse batch id: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during schedule iteration: %w", err)
	}
	return entries, nil
}

// EntriesDueBetween returns schedule entries whose due date falls in
// [from, to], together with the owning loan's account. Used by the payment
// reminder job.
func (r *Repository) EntriesDueBetween(ctx context.Context, from, to time.Time) ([]models.PaymentScheduleEntry, error) {
	query := `
		SELECT id, loan_id, month_index, due_date, payment, interest, principal_portion, remaining_balance, batch_id, created_at
		FROM finance.payment_schedule
		WHERE due_date BETWEEN $1 AND $2
		ORDER BY due_date`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get due entries: %w", err)
	}
	defer rows.Close()

	var entries []models.PaymentScheduleEntry
	for rows.Next() {
		var e models.PaymentScheduleEntry
		var batch string
		if err := rows.Scan(&e.ID, &e.LoanID, &e.MonthIndex, &e.DueDate,
			&e.Payment, &e.Interest, &e.PrincipalPortion, &e.RemainingBalance, &batch, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.BatchID, err = uuid.Parse(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to parse batch id: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during due-entry iteration: %w", err)
	}
	return entries, nil
}

// SumTransactions sums transaction and receipt amounts on one ledger side
// within the optional [start, end] range. Purchase receipts count as debits
// and return receipts as credits. Implements engine.LedgerReader.
func (r *Repository) SumTransactions(ctx context.Context, accountID int64, start, end *time.Time, dir models.Direction) (decimal.Decimal, error) {
	receiptKind := models.ReceiptKindPurchase
	if dir == models.DirectionCredit {
		receiptKind = models.ReceiptKindReturn
	}

	query := `
		SELECT COALESCE(SUM(amount), 0) FROM (
			SELECT amount FROM finance.transactions
			WHERE account_id = $1 AND direction = $2
			  AND ($4::timestamptz IS NULL OR occurred_at >= $4)
			  AND ($5::timestamptz IS NULL OR occurred_at <= $5)
			UNION ALL
			SELECT amount FROM finance.receipts
			WHERE account_id = $1 AND kind = $3
			  AND ($4::timestamptz IS NULL OR occurred_at >= $4)
			  AND ($5::timestamptz IS NULL OR occurred_at <= $5)
		) ledger`

	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, accountID, dir, receiptKind, start, end).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s transactions: %w", dir, err)
	}
	return sum, nil
}

// FirstTransactionInRange returns the earliest debit transaction or purchase
// receipt timestamp within [start, end], or nil when the range holds none.
// Implements engine.LedgerReader.
func (r *Repository) FirstTransactionInRange(ctx context.Context, accountID int64, start, end time.Time) (*time.Time, error) {
	query := `
		SELECT MIN(occurred_at) FROM (
			SELECT occurred_at FROM finance.transactions
			WHERE account_id = $1 AND direction = 'debit' AND occurred_at BETWEEN $2 AND $3
			UNION ALL
			SELECT occurred_at FROM finance.receipts
			WHERE account_id = $1 AND kind = 'purchase' AND occurred_at BETWEEN $2 AND $3
		) ledger`

	var first sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, accountID, start, end).Scan(&first); err != nil {
		return nil, fmt.Errorf("failed to find first transaction: %w", err)
	}
	if !first.Valid {
		return nil, nil
	}
	return &first.Time, nil
}
