package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opentix/ledger/internal/app"
	"github.com/opentix/ledger/internal/domain"
)

type fakeAccountService struct {
	createFn  func(ctx context.Context, callerID string, in app.CreateAccountInput) (domain.Account, error)
	topUpFn   func(ctx context.Context, callerID string, amount decimal.Decimal) (domain.Account, error)
	migrateFn func(ctx context.Context, callerID, sourceID, password string) (string, error)
	detailsFn func(ctx context.Context, callerID string) (domain.Account, error)
}

func (f *fakeAccountService) CreateAccount(ctx context.Context, callerID string, in app.CreateAccountInput) (domain.Account, error) {
	return f.createFn(ctx, callerID, in)
}

func (f *fakeAccountService) TopUpBalance(ctx context.Context, callerID string, amount decimal.Decimal) (domain.Account, error) {
	return f.topUpFn(ctx, callerID, amount)
}

func (f *fakeAccountService) MigrateAccount(ctx context.Context, callerID, sourceID, password string) (string, error) {
	return f.migrateFn(ctx, callerID, sourceID, password)
}

func (f *fakeAccountService) AccountDetails(ctx context.Context, callerID string) (domain.Account, error) {
	return f.detailsFn(ctx, callerID)
}

func TestHandleAccounts(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates account for the caller identity", func(t *testing.T) {
		var gotCaller string
		svc := &fakeAccountService{
			createFn: func(_ context.Context, callerID string, in app.CreateAccountInput) (domain.Account, error) {
				gotCaller = callerID
				return domain.Account{
					ID:        callerID,
					Username:  in.Username,
					Password:  "secret",
					Role:      domain.RoleAttendee,
					Balance:   decimal.Zero,
					CreatedAt: now,
				}, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/accounts",
			strings.NewReader(`{"username":"alice","password":"Secret","role":"attendee"}`))
		req.Header.Set(callerIDHeader, "caller-1")
		rec := httptest.NewRecorder()
		HandleAccounts(svc)(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotCaller != "caller-1" {
			t.Fatalf("expected caller from header, got %q", gotCaller)
		}

		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["id"] != "caller-1" || resp["username"] != "alice" {
			t.Fatalf("unexpected response: %v", resp)
		}
		if _, leaked := resp["password"]; leaked {
			t.Fatalf("password must not be serialized: %v", resp)
		}
	})

	t.Run("missing header falls back to anonymous and is rejected", func(t *testing.T) {
		svc := &fakeAccountService{
			createFn: func(_ context.Context, callerID string, _ app.CreateAccountInput) (domain.Account, error) {
				if callerID != domain.AnonymousCaller {
					t.Fatalf("expected anonymous caller, got %q", callerID)
				}
				return domain.Account{}, domain.ErrAnonymousCaller
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/accounts",
			strings.NewReader(`{"username":"alice","password":"pw","role":"attendee"}`))
		rec := httptest.NewRecorder()
		HandleAccounts(svc)(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeAnonymousCaller)
	})

	t.Run("domain validation errors map to 400", func(t *testing.T) {
		svc := &fakeAccountService{
			createFn: func(context.Context, string, app.CreateAccountInput) (domain.Account, error) {
				return domain.Account{}, domain.ErrUsernameRequired
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/accounts",
			strings.NewReader(`{"username":"","password":"pw","role":"attendee"}`))
		req.Header.Set(callerIDHeader, "caller-1")
		rec := httptest.NewRecorder()
		HandleAccounts(svc)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeUsernameRequired)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		svc := &fakeAccountService{}

		req := httptest.NewRequest(http.MethodPost, "/accounts",
			strings.NewReader(`{"username":"alice","password":"pw","role":"attendee","admin":true}`))
		req.Header.Set(callerIDHeader, "caller-1")
		rec := httptest.NewRecorder()
		HandleAccounts(svc)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleAccounts(&fakeAccountService{})(rec, httptest.NewRequest(http.MethodGet, "/accounts", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestHandleMyAccount(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns caller account", func(t *testing.T) {
		svc := &fakeAccountService{
			detailsFn: func(_ context.Context, callerID string) (domain.Account, error) {
				return domain.Account{ID: callerID, Username: "alice", Balance: decimal.NewFromInt(5), CreatedAt: now}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
		req.Header.Set(callerIDHeader, "caller-1")
		rec := httptest.NewRecorder()
		HandleMyAccount(svc)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unknown caller maps to 404", func(t *testing.T) {
		svc := &fakeAccountService{
			detailsFn: func(context.Context, string) (domain.Account, error) {
				return domain.Account{}, domain.ErrAccountNotFound
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
		req.Header.Set(callerIDHeader, "caller-1")
		rec := httptest.NewRecorder()
		HandleMyAccount(svc)(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeAccountNotFound)
	})
}

func TestHandleTopUpBalance(t *testing.T) {
	t.Run("passes the amount through untouched", func(t *testing.T) {
		var gotAmount decimal.Decimal
		svc := &fakeAccountService{
			topUpFn: func(_ context.Context, callerID string, amount decimal.Decimal) (domain.Account, error) {
				gotAmount = amount
				return domain.Account{ID: callerID, Balance: decimal.NewFromInt(25)}, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/accounts/topup", strings.NewReader(`{"amount":-15.5}`))
		req.Header.Set(callerIDHeader, "caller-1")
		rec := httptest.NewRecorder()
		HandleTopUpBalance(svc)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotAmount.Equal(decimal.RequireFromString("-15.5")) {
			t.Fatalf("expected amount -15.5, got %s", gotAmount)
		}
	})

	t.Run("zero amount maps to 400", func(t *testing.T) {
		svc := &fakeAccountService{
			topUpFn: func(context.Context, string, decimal.Decimal) (domain.Account, error) {
				return domain.Account{}, domain.ErrAmountRequired
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/accounts/topup", strings.NewReader(`{"amount":0}`))
		req.Header.Set(callerIDHeader, "caller-1")
		rec := httptest.NewRecorder()
		HandleTopUpBalance(svc)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeAmountRequired)
	})
}

func TestHandleMigrateAccount(t *testing.T) {
	t.Run("returns the confirmation message", func(t *testing.T) {
		svc := &fakeAccountService{
			migrateFn: func(_ context.Context, callerID, sourceID, password string) (string, error) {
				if callerID != "new-caller" || sourceID != "old-caller" || password != "secret" {
					t.Fatalf("unexpected args: %q %q %q", callerID, sourceID, password)
				}
				return "account restored, you can now use your current caller identity", nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/accounts/migrate",
			strings.NewReader(`{"account_id":"old-caller","password":"secret"}`))
		req.Header.Set(callerIDHeader, "new-caller")
		rec := httptest.NewRecorder()
		HandleMigrateAccount(svc)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp migrateAccountResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Message == "" {
			t.Fatalf("expected confirmation message")
		}
	})

	t.Run("wrong password maps to 401", func(t *testing.T) {
		svc := &fakeAccountService{
			migrateFn: func(context.Context, string, string, string) (string, error) {
				return "", domain.ErrPasswordMismatch
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/accounts/migrate",
			strings.NewReader(`{"account_id":"old-caller","password":"wrong"}`))
		req.Header.Set(callerIDHeader, "new-caller")
		rec := httptest.NewRecorder()
		HandleMigrateAccount(svc)(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codePasswordMismatch)
	})
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != want {
		t.Fatalf("expected code %q, got %q (%s)", want, resp.Code, resp.Error)
	}
	if resp.Error == "" {
		t.Fatalf("expected error message")
	}
}
