package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a ticketed offering with a price and finite inventory.
// OrganizerID is immutable after creation; TicketsAvailable never goes
// below zero and TicketsSold only increases.
type Event struct {
	ID               string
	Name             string
	Description      string
	Organizer        string
	OrganizerID      string
	TicketPrice      decimal.Decimal
	TicketsSold      int
	TicketsAvailable int
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}
