package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mvoronin/finbudget/internal/engine"
	"github.com/mvoronin/finbudget/internal/models"
	"github.com/mvoronin/finbudget/internal/repository"
	"github.com/mvoronin/finbudget/internal/service"
)

// monthQueryLayout is the wire format of the ?month= query parameter.
const monthQueryLayout = "2006-01"

type Handler struct {
	svc   *service.Service
	rates service.RateSource
}

func NewHandler(svc *service.Service, rates service.RateSource) *Handler {
	return &Handler{svc: svc, rates: rates}
}

// Register wires all routes onto the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id}/grace-period", h.GracePeriodInfo).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id}/card-schedule", h.CardSchedule).Methods(http.MethodGet)
	r.HandleFunc("/loans", h.CreateLoan).Methods(http.MethodPost)
	r.HandleFunc("/loans/{id}/schedule", h.LoanSchedule).Methods(http.MethodGet)
	r.HandleFunc("/loans/{id}/recalculate", h.RecalculateSchedule).Methods(http.MethodPost)
	r.HandleFunc("/key-rate", h.KeyRate).Methods(http.MethodGet)
}

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var account models.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.svc.CreateAccount(r.Context(), &account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// CreateLoan handles loan creation together with its payment schedule
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID            int64                   `json:"user_id"`
		AccountID         int64                   `json:"account_id"`
		Principal         decimal.Decimal         `json:"principal"`
		AnnualRatePercent *decimal.Decimal        `json:"annual_rate_percent"`
		TermMonths        int                     `json:"term_months"`
		AmortizationType  models.AmortizationType `json:"amortization_type"`
		StartDate         time.Time               `json:"start_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loan, result, err := h.svc.CreateLoan(r.Context(), service.CreateLoanRequest{
		UserID:            req.UserID,
		AccountID:         req.AccountID,
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TermMonths:        req.TermMonths,
		AmortizationType:  req.AmortizationType,
		StartDate:         req.StartDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"loan":     loan,
		"schedule": result,
	})
}

// LoanSchedule returns the stored payment schedule of a loan
func (h *Handler) LoanSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	entries, err := h.svc.LoanSchedule(r.Context(), loanID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// RecalculateSchedule regenerates the payment schedule of a loan
func (h *Handler) RecalculateSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	result, err := h.svc.RecalculateSchedule(r.Context(), loanID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GracePeriodInfo returns the grace-period state of an account for a month
func (h *Handler) GracePeriodInfo(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}
	month, err := monthQuery(r)
	if err != nil {
		http.Error(w, "Invalid month, expected YYYY-MM", http.StatusBadRequest)
		return
	}

	info, err := h.svc.GracePeriodInfo(r.Context(), accountID, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applicable": info != nil,
		"info":       info,
	})
}

// CardSchedule returns the Raiffeisenbank minimum-payment schedule of an
// account for a month
func (h *Handler) CardSchedule(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}
	month, err := monthQuery(r)
	if err != nil {
		http.Error(w, "Invalid month, expected YYYY-MM", http.StatusBadRequest)
		return
	}

	schedule, err := h.svc.CardSchedule(r.Context(), accountID, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applicable": schedule != nil,
		"schedule":   schedule,
	})
}

// KeyRate returns the current suggested annual rate
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.SuggestedRate(r.Context())
	if err != nil {
		http.Error(w, "Failed to get key rate: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"suggested_rate": rate})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func monthQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(monthQueryLayout, raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidScheduleParameters), errors.Is(err, service.ErrInvalidAccount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrLoanNotFound), errors.Is(err, repository.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
