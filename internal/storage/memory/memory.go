// Package memory provides a mutex-guarded in-memory implementation of the
// ledger stores. It backs unit tests and the STORAGE=memory dev mode; state
// does not survive a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/opentix/ledger/internal/domain"
)

type Store struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	events   map[string]domain.Event
	tickets  map[string]domain.Ticket
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		events:   make(map[string]domain.Event),
		tickets:  make(map[string]domain.Ticket),
	}
}

// WithTx serializes the whole mutation against all three stores and restores
// the previous state if fn fails, matching the all-or-nothing guarantee of
// the Postgres implementation.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := cloneMap(s.accounts)
	events := cloneMap(s.events)
	tickets := cloneMap(s.tickets)

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.accounts = accounts
		s.events = events
		s.tickets = tickets
		return err
	}
	return nil
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	defer s.lock(ctx)()
	account, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *Store) GetAccountForUpdate(ctx context.Context, id string) (domain.Account, error) {
	return s.GetAccount(ctx, id)
}

func (s *Store) PutAccount(ctx context.Context, account domain.Account) error {
	defer s.lock(ctx)()
	s.accounts[account.ID] = account
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	defer s.lock(ctx)()
	event, ok := s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return event, nil
}

func (s *Store) GetEventForUpdate(ctx context.Context, id string) (domain.Event, error) {
	return s.GetEvent(ctx, id)
}

func (s *Store) PutEvent(ctx context.Context, event domain.Event) error {
	defer s.lock(ctx)()
	s.events[event.ID] = event
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	delete(s.events, id)
	return nil
}

func (s *Store) ListEvents(ctx context.Context) ([]domain.Event, error) {
	defer s.lock(ctx)()
	events := make([]domain.Event, 0, len(s.events))
	for _, event := range s.events {
		events = append(events, event)
	}
	return events, nil
}

func (s *Store) PutTicket(ctx context.Context, ticket domain.Ticket) error {
	defer s.lock(ctx)()
	s.tickets[ticket.ID] = ticket
	return nil
}

func (s *Store) ListEventTickets(ctx context.Context, eventID string) ([]domain.Ticket, error) {
	defer s.lock(ctx)()
	var tickets []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.EventID == eventID {
			tickets = append(tickets, ticket)
		}
	}
	return tickets, nil
}

func (s *Store) ListHolderTickets(ctx context.Context, holderID string) ([]domain.Ticket, error) {
	defer s.lock(ctx)()
	var tickets []domain.Ticket
	for _, ticket := range s.tickets {
		if ticket.HolderID == holderID {
			tickets = append(tickets, ticket)
		}
	}
	return tickets, nil
}

// InvalidateEventTickets marks every ticket issued against the event as
// invalid and stamps the update time. Tickets themselves are never removed.
func (s *Store) InvalidateEventTickets(ctx context.Context, eventID string, now time.Time) (int, error) {
	defer s.lock(ctx)()
	count := 0
	for id, ticket := range s.tickets {
		if ticket.EventID != eventID {
			continue
		}
		ticket.Valid = false
		ts := now
		ticket.UpdatedAt = &ts
		s.tickets[id] = ticket
		count++
	}
	return count, nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
