package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mvoronin/finbudget/internal/config"
	"github.com/mvoronin/finbudget/internal/models"
	"github.com/mvoronin/finbudget/internal/repository"
	"github.com/mvoronin/finbudget/internal/service"
)

// stubStore backs the handler tests with fixed data.
type stubStore struct {
	accounts  map[int64]*models.Account
	loans     map[int64]*models.Loan
	schedules map[int64][]models.PaymentScheduleEntry
	nextID    int64
}

func (s *stubStore) CreateAccount(_ context.Context, account *models.Account) error {
	s.nextID++
	account.ID = s.nextID
	s.accounts[account.ID] = account
	return nil
}

func (s *stubStore) FindAccount(_ context.Context, id int64) (*models.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return account, nil
}

func (s *stubStore) CreateLoan(_ context.Context, loan *models.Loan) error {
	s.nextID++
	loan.ID = s.nextID
	s.loans[loan.ID] = loan
	return nil
}

func (s *stubStore) FindLoan(_ context.Context, id int64) (*models.Loan, error) {
	loan, ok := s.loans[id]
	if !ok {
		return nil, repository.ErrLoanNotFound
	}
	return loan, nil
}

func (s *stubStore) ReplaceSchedule(_ context.Context, loanID int64, _ uuid.UUID, entries []models.PaymentScheduleEntry) error {
	s.schedules[loanID] = entries
	return nil
}

func (s *stubStore) ScheduleForLoan(_ context.Context, loanID int64) ([]models.PaymentScheduleEntry, error) {
	return s.schedules[loanID], nil
}

func (s *stubStore) SumTransactions(_ context.Context, _ int64, _, _ *time.Time, dir models.Direction) (decimal.Decimal, error) {
	if dir == models.DirectionDebit {
		return decimal.RequireFromString("500"), nil
	}
	return decimal.Zero, nil
}

func (s *stubStore) FirstTransactionInRange(_ context.Context, _ int64, start, _ time.Time) (*time.Time, error) {
	first := start.AddDate(0, 0, 4)
	return &first, nil
}

func newTestRouter(store *stubStore) *mux.Router {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{StatementDay: 5, MinPaymentPercent: "0.05"}
	h := NewHandler(service.NewService(store, log, cfg, nil), nil)
	r := mux.NewRouter()
	h.Register(r)
	return r
}

func newStubStore() *stubStore {
	return &stubStore{
		accounts:  make(map[int64]*models.Account),
		loans:     make(map[int64]*models.Loan),
		schedules: make(map[int64][]models.PaymentScheduleEntry),
	}
}

func TestCreateLoanEndpoint(t *testing.T) {
	router := newTestRouter(newStubStore())

	body := `{
		"user_id": 1,
		"account_id": 2,
		"principal": "100000",
		"annual_rate_percent": "12",
		"term_months": 12,
		"amortization_type": "annuity",
		"start_date": "2025-01-15T00:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Loan     models.Loan `json:"loan"`
		Schedule struct {
			Entries      []json.RawMessage `json:"entries"`
			TotalPayment decimal.Decimal   `json:"total_payment"`
		} `json:"schedule"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Schedule.Entries) != 12 {
		t.Errorf("schedule has %d entries, want 12", len(resp.Schedule.Entries))
	}
	if resp.Loan.ID == 0 {
		t.Error("loan id missing from response")
	}
}

func TestCreateLoanEndpointRejectsBadParameters(t *testing.T) {
	router := newTestRouter(newStubStore())

	body := `{"principal": "-5", "annual_rate_percent": "12", "term_months": 12, "amortization_type": "annuity", "start_date": "2025-01-15T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/loans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGracePeriodEndpoint(t *testing.T) {
	store := newStubStore()
	limit := decimal.RequireFromString("100000")
	due := time.Date(2025, time.July, 25, 0, 0, 0, 0, time.UTC)
	days := 110
	store.accounts[1] = &models.Account{
		ID: 1, Kind: models.AccountKindCreditCard, Bank: "sberbank",
		CreditLimit: &limit, PaymentDueDate: &due, GracePeriodDays: &days,
	}
	store.accounts[2] = &models.Account{ID: 2, Kind: models.AccountKindCash}
	store.nextID = 2
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/accounts/1/grace-period?month=2025-06", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Applicable bool `json:"applicable"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Applicable {
		t.Error("grace period should apply to a credit card")
	}

	// Cash account: applicable=false, still 200.
	req = httptest.NewRequest(http.MethodGet, "/accounts/2/grace-period?month=2025-06", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d for cash account, want 200", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Applicable {
		t.Error("grace period must not apply to a cash account")
	}

	// Missing account: 404.
	req = httptest.NewRequest(http.MethodGet, "/accounts/99/grace-period?month=2025-06", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d for missing account, want 404", rec.Code)
	}
}
