package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is proof of purchase against one event. Price and the display
// names are snapshots taken at purchase time. Tickets are never deleted,
// only marked invalid when their event is removed.
type Ticket struct {
	ID        string
	Price     decimal.Decimal
	Valid     bool
	Holder    string
	HolderID  string
	EventID   string
	EventName string
	Organizer string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
