package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mvoronin/finbudget/internal/config"
	"github.com/mvoronin/finbudget/internal/engine"
	"github.com/mvoronin/finbudget/internal/models"
)

// ScheduleStore is the persistence surface the service needs for loans and
// their schedules.
type ScheduleStore interface {
	engine.LedgerReader
	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccount(ctx context.Context, id int64) (*models.Account, error)
	CreateLoan(ctx context.Context, loan *models.Loan) error
	FindLoan(ctx context.Context, id int64) (*models.Loan, error)
	ReplaceSchedule(ctx context.Context, loanID int64, batchID uuid.UUID, entries []models.PaymentScheduleEntry) error
	ScheduleForLoan(ctx context.Context, loanID int64) ([]models.PaymentScheduleEntry, error)
}

// RateSource supplies a suggested annual rate for loans created without an
// explicit one.
type RateSource interface {
	SuggestedRate(ctx context.Context) (decimal.Decimal, error)
}

// Service handles business logic
type Service struct {
	repo        ScheduleStore
	log         *logrus.Logger
	config      *config.Config
	rates       RateSource
	policy      engine.Policy
	graceInfo   *engine.GraceInfoBuilder
	cardBuilder *engine.CardScheduleBuilder
}

// NewService initializes a new service
func NewService(repo ScheduleStore, log *logrus.Logger, cfg *config.Config, rates RateSource) *Service {
	policy := cfg.Policy()
	return &Service{
		repo:        repo,
		log:         log,
		config:      cfg,
		rates:       rates,
		policy:      policy,
		graceInfo:   engine.NewGraceInfoBuilder(repo, policy),
		cardBuilder: engine.NewCardScheduleBuilder(repo, policy),
	}
}

// ErrInvalidAccount wraps account validation failures.
var ErrInvalidAccount = errors.New("invalid account")

// CreateAccount validates and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	s.log.Infof("Account %d created for user %d (%s, %s)", account.ID, account.UserID, account.Kind, account.Currency)
	return account, nil
}

// CreateLoanRequest carries the parameters of a new loan. A nil
// AnnualRatePercent asks for the suggested rate from the rate source.
type CreateLoanRequest struct {
	UserID            int64
	AccountID         int64
	Principal         decimal.Decimal
	AnnualRatePercent *decimal.Decimal
	TermMonths        int
	AmortizationType  models.AmortizationType
	StartDate         time.Time
}

// CreateLoan stores a loan and generates its full payment schedule in one
// go. The schedule rows are written atomically; a failure leaves no loan
// behind a partial schedule.
func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (*models.Loan, *engine.AmortizationResult, error) {
	rate, err := s.resolveRate(ctx, req.AnnualRatePercent)
	if err != nil {
		return nil, nil, err
	}

	result, err := engine.ComputeSchedule(req.Principal, rate, req.TermMonths, req.AmortizationType, req.StartDate)
	if err != nil {
		return nil, nil, err
	}

	loan := &models.Loan{
		UserID:            req.UserID,
		AccountID:         req.AccountID,
		Principal:         req.Principal,
		AnnualRatePercent: rate,
		TermMonths:        req.TermMonths,
		AmortizationType:  req.AmortizationType,
		StartDate:         req.StartDate,
	}
	if err := s.repo.CreateLoan(ctx, loan); err != nil {
		return nil, nil, err
	}

	if err := s.storeSchedule(ctx, loan.ID, result); err != nil {
		return nil, nil, err
	}

	s.log.Infof("Loan %d created: %s at %s%% over %d months (%s), total payment %s",
		loan.ID, loan.Principal, loan.AnnualRatePercent, loan.TermMonths, loan.AmortizationType, result.TotalPayment)
	return loan, result, nil
}

// RecalculateSchedule recomputes a loan's schedule and replaces the stored
// one wholesale.
func (s *Service) RecalculateSchedule(ctx context.Context, loanID int64) (*engine.AmortizationResult, error) {
	loan, err := s.repo.FindLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	result, err := engine.ComputeSchedule(loan.Principal, loan.AnnualRatePercent, loan.TermMonths, loan.AmortizationType, loan.StartDate)
	if err != nil {
		return nil, err
	}

	if err := s.storeSchedule(ctx, loan.ID, result); err != nil {
		return nil, err
	}

	s.log.Infof("Schedule for loan %d regenerated (%d entries)", loan.ID, len(result.Entries))
	return result, nil
}

// storeSchedule converts engine entries to rows and replaces the stored
// schedule under a fresh batch id.
func (s *Service) storeSchedule(ctx context.Context, loanID int64, result *engine.AmortizationResult) error {
	batchID := uuid.New()
	rows := make([]models.PaymentScheduleEntry, 0, len(result.Entries))
	for _, e := range result.Entries {
		rows = append(rows, models.PaymentScheduleEntry{
			LoanID:           loanID,
			MonthIndex:       e.MonthIndex,
			DueDate:          e.DueDate,
			Payment:          e.Payment,
			Interest:         e.Interest,
			PrincipalPortion: e.PrincipalPortion,
			RemainingBalance: e.RemainingBalance,
			BatchID:          batchID,
		})
	}
	if err := s.repo.ReplaceSchedule(ctx, loanID, batchID, rows); err != nil {
		return fmt.Errorf("failed to store schedule for loan %d: %w", loanID, err)
	}
	return nil
}

// LoanSchedule returns the stored schedule of a loan.
func (s *Service) LoanSchedule(ctx context.Context, loanID int64) ([]models.PaymentScheduleEntry, error) {
	return s.repo.ScheduleForLoan(ctx, loanID)
}

// GracePeriodInfo computes the grace-period state of an account for the
// given purchase month. Returns nil for accounts without a credit line.
func (s *Service) GracePeriodInfo(ctx context.Context, accountID int64, month time.Time) (*engine.GracePeriodInfo, error) {
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.graceInfo.Build(ctx, account, month)
}

// CardSchedule generates the Raiffeisenbank minimum-payment schedule of an
// account for the given purchase month. Returns nil when not applicable.
func (s *Service) CardSchedule(ctx context.Context, accountID int64, month time.Time) (*engine.CardSchedule, error) {
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.cardBuilder.Build(ctx, account, month)
}

// resolveRate picks the explicit rate when given, otherwise asks the rate
// source for the current suggested rate.
func (s *Service) resolveRate(ctx context.Context, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if s.rates == nil {
		return decimal.Zero, fmt.Errorf("no rate given and no rate source configured")
	}
	rate, err := s.rates.SuggestedRate(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get suggested rate: %w", err)
	}
	s.log.Infof("Using suggested annual rate %s%%", rate)
	return rate, nil
}
