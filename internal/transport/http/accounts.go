package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opentix/ledger/internal/app"
	"github.com/opentix/ledger/internal/domain"
)

// AccountService is the minimal interface needed by the account endpoints.
type AccountService interface {
	CreateAccount(ctx context.Context, callerID string, in app.CreateAccountInput) (domain.Account, error)
	TopUpBalance(ctx context.Context, callerID string, amount decimal.Decimal) (domain.Account, error)
	MigrateAccount(ctx context.Context, callerID, sourceID, password string) (string, error)
	AccountDetails(ctx context.Context, callerID string) (domain.Account, error)
}

// HandleAccounts returns an HTTP handler for account creation.
func HandleAccounts(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createAccountRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		account, err := svc.CreateAccount(r.Context(), callerID(r), app.CreateAccountInput{
			Username: req.Username,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toAccountResponse(account))
	}
}

// HandleMyAccount returns an HTTP handler for the caller's own account
// details.
func HandleMyAccount(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		account, err := svc.AccountDetails(r.Context(), callerID(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toAccountResponse(account))
	}
}

// HandleTopUpBalance returns an HTTP handler for balance top-ups.
func HandleTopUpBalance(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req topUpBalanceRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		account, err := svc.TopUpBalance(r.Context(), callerID(r), req.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toAccountResponse(account))
	}
}

// HandleMigrateAccount returns an HTTP handler for reclaiming an account
// under a new caller identity by proving its password.
func HandleMigrateAccount(svc AccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req migrateAccountRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		message, err := svc.MigrateAccount(r.Context(), callerID(r), req.AccountID, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(migrateAccountResponse{Message: message})
	}
}

type createAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type topUpBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type migrateAccountRequest struct {
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
}

type migrateAccountResponse struct {
	Message string `json:"message"`
}

type accountResponse struct {
	ID               string          `json:"id"`
	Username         string          `json:"username"`
	Role             string          `json:"role"`
	Balance          decimal.Decimal `json:"balance"`
	TicketsPurchased int             `json:"tickets_purchased"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        *time.Time      `json:"updated_at,omitempty"`
}

func toAccountResponse(account domain.Account) accountResponse {
	return accountResponse{
		ID:               account.ID,
		Username:         account.Username,
		Role:             string(account.Role),
		Balance:          account.Balance,
		TicketsPurchased: account.TicketsPurchased,
		CreatedAt:        account.CreatedAt,
		UpdatedAt:        account.UpdatedAt,
	}
}
