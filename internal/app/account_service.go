package app

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/opentix/ledger/internal/auth"
	"github.com/opentix/ledger/internal/clock"
	"github.com/opentix/ledger/internal/domain"
	"github.com/opentix/ledger/internal/metrics"
)

type AccountRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	GetAccountForUpdate(ctx context.Context, id string) (domain.Account, error)
	PutAccount(ctx context.Context, account domain.Account) error
}

type AccountService struct {
	repo  AccountRepository
	clock clock.Clock
}

func NewAccountService(repo AccountRepository, clk clock.Clock) *AccountService {
	return &AccountService{
		repo:  repo,
		clock: clk,
	}
}

type CreateAccountInput struct {
	Username string
	Password string
	Role     string
}

// CreateAccount registers a ledger account under the caller's identity.
// An existing account under the same identity is silently overwritten;
// whether creation should instead reject duplicates is an open product
// decision.
func (s *AccountService) CreateAccount(ctx context.Context, callerID string, in CreateAccountInput) (domain.Account, error) {
	if strings.TrimSpace(in.Username) == "" {
		return domain.Account{}, domain.ErrUsernameRequired
	}
	if strings.TrimSpace(in.Password) == "" {
		return domain.Account{}, domain.ErrPasswordRequired
	}
	if callerID == domain.AnonymousCaller {
		return domain.Account{}, domain.ErrAnonymousCaller
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:               callerID,
		Username:         in.Username,
		Password:         auth.NormalizePassword(in.Password),
		Role:             role,
		Balance:          decimal.Zero,
		TicketsPurchased: 0,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.repo.PutAccount(ctx, account); err != nil {
		return domain.Account{}, err
	}
	metrics.AccountsCreated.Inc()
	return account, nil
}

// TopUpBalance adds |amount| to the caller's balance. Negative amounts are
// sign-flipped, not rejected, so a top-up can never decrease a balance.
func (s *AccountService) TopUpBalance(ctx context.Context, callerID string, amount decimal.Decimal) (domain.Account, error) {
	if amount.IsZero() {
		return domain.Account{}, domain.ErrAmountRequired
	}

	var result domain.Account
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		account, err := s.repo.GetAccountForUpdate(txCtx, callerID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		account.Balance = account.Balance.Add(amount.Abs())
		account.UpdatedAt = &now

		if err := s.repo.PutAccount(txCtx, account); err != nil {
			return err
		}
		result = account
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return result, nil
}

// MigrateAccount copies the source account's full state under the caller's
// identity after password proof. The source key is intentionally left in
// place; both identities resolve to equivalent state afterwards.
func (s *AccountService) MigrateAccount(ctx context.Context, callerID, sourceID, password string) (string, error) {
	source, err := s.repo.GetAccount(ctx, sourceID)
	if err != nil {
		return "", err
	}
	if err := auth.VerifyPassword(source, password); err != nil {
		return "", err
	}

	migrated := source
	migrated.ID = callerID
	if err := s.repo.PutAccount(ctx, migrated); err != nil {
		return "", err
	}
	return "account restored, you can now use your current caller identity", nil
}

func (s *AccountService) AccountDetails(ctx context.Context, callerID string) (domain.Account, error) {
	return s.repo.GetAccount(ctx, callerID)
}
