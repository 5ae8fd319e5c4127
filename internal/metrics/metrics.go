package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AccountsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_accounts_created_total",
			Help: "number of accounts created",
		},
	)
	EventsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_events_created_total",
			Help: "number of events created",
		},
	)
	TicketsPurchased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_tickets_purchased_total",
			Help: "number of tickets purchased",
		},
	)
	TicketsInvalidated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_tickets_invalidated_total",
			Help: "number of tickets invalidated by event deletion",
		},
	)
)

func Init() {
	prometheus.MustRegister(AccountsCreated, EventsCreated, TicketsPurchased, TicketsInvalidated)
}
