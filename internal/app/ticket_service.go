package app

import (
	"context"

	"github.com/opentix/ledger/internal/auth"
	"github.com/opentix/ledger/internal/clock"
	"github.com/opentix/ledger/internal/domain"
	"github.com/opentix/ledger/internal/metrics"
)

type TicketRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	GetAccountForUpdate(ctx context.Context, id string) (domain.Account, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, id string) (domain.Event, error)
	PutAccount(ctx context.Context, account domain.Account) error
	PutEvent(ctx context.Context, event domain.Event) error
	PutTicket(ctx context.Context, ticket domain.Ticket) error
	ListEventTickets(ctx context.Context, eventID string) ([]domain.Ticket, error)
	ListHolderTickets(ctx context.Context, holderID string) ([]domain.Ticket, error)
}

type TicketService struct {
	repo  TicketRepository
	clock clock.Clock
	cache EventCache
}

func NewTicketService(repo TicketRepository, clk clock.Clock, opts ...TicketServiceOption) *TicketService {
	svc := &TicketService{
		repo:  repo,
		clock: clk,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type TicketServiceOption func(*TicketService)

// WithPurchaseEventCache lets purchases evict stale event entries.
func WithPurchaseEventCache(cache EventCache) TicketServiceOption {
	return func(s *TicketService) {
		s.cache = cache
	}
}

// Purchase issues a ticket against an event. The ticket creation, the
// holder's balance/counter update, and the event's inventory update are
// applied as one transaction; a failed precondition writes nothing.
//
// The balance check is strictly greater-than: a holder whose balance
// exactly equals the price cannot purchase.
func (s *TicketService) Purchase(ctx context.Context, callerID, eventID string) (domain.Ticket, error) {
	var result domain.Ticket
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		account, err := s.repo.GetAccountForUpdate(txCtx, callerID)
		if err != nil {
			return err
		}
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}

		if !account.Balance.GreaterThan(event.TicketPrice) {
			return domain.ErrBalanceTooLow
		}
		if event.TicketsAvailable <= 0 {
			return domain.ErrSoldOut
		}

		now := s.clock.Now()
		ticket := domain.Ticket{
			ID:        newID(),
			Price:     event.TicketPrice,
			Valid:     true,
			Holder:    account.Username,
			HolderID:  callerID,
			EventID:   eventID,
			EventName: event.Name,
			Organizer: event.Organizer,
			CreatedAt: now,
		}
		if err := s.repo.PutTicket(txCtx, ticket); err != nil {
			return err
		}

		account.TicketsPurchased++
		account.Balance = account.Balance.Sub(ticket.Price)
		account.UpdatedAt = &now
		if err := s.repo.PutAccount(txCtx, account); err != nil {
			return err
		}

		// Availability never drops below zero.
		available := event.TicketsAvailable - 1
		if available < 0 {
			available = 0
		}
		event.TicketsSold++
		event.TicketsAvailable = available
		event.UpdatedAt = &now
		if err := s.repo.PutEvent(txCtx, event); err != nil {
			return err
		}

		result = ticket
		return nil
	})
	if err != nil {
		return domain.Ticket{}, err
	}

	metrics.TicketsPurchased.Inc()
	if s.cache != nil {
		_ = s.cache.Delete(ctx, eventID)
	}
	return result, nil
}

// ListEventTickets returns every ticket issued against an event, for the
// event's organizer only.
func (s *TicketService) ListEventTickets(ctx context.Context, callerID, eventID string) ([]domain.Ticket, error) {
	if _, err := s.repo.GetAccount(ctx, callerID); err != nil {
		return nil, err
	}
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireEventOwner(callerID, event); err != nil {
		return nil, err
	}
	return s.repo.ListEventTickets(ctx, eventID)
}

// ListHolderTickets returns the caller's own tickets. Holding none is not
// an error; the list is just empty.
func (s *TicketService) ListHolderTickets(ctx context.Context, callerID string) ([]domain.Ticket, error) {
	if _, err := s.repo.GetAccount(ctx, callerID); err != nil {
		return nil, err
	}
	return s.repo.ListHolderTickets(ctx, callerID)
}
