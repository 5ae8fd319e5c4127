package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnonymousCaller is the sentinel identity the auth proxy assigns to
// unauthenticated requests. Anonymous callers cannot create accounts.
const AnonymousCaller = "anonymous"

// Account is a ledger participant keyed by its externally authenticated
// caller identity.
type Account struct {
	ID               string
	Username         string
	Password         string
	Role             Role
	Balance          decimal.Decimal
	TicketsPurchased int
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
