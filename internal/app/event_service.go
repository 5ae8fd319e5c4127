package app

import (
	"context"
	"strings"
	"time"

	"github.com/opentix/ledger/internal/auth"
	"github.com/opentix/ledger/internal/clock"
	"github.com/opentix/ledger/internal/domain"
	"github.com/opentix/ledger/internal/metrics"

	"github.com/shopspring/decimal"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	GetEventForUpdate(ctx context.Context, id string) (domain.Event, error)
	PutEvent(ctx context.Context, event domain.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context) ([]domain.Event, error)
	InvalidateEventTickets(ctx context.Context, eventID string, now time.Time) (int, error)
}

// EventCache is an optional read-through cache for single-event lookups.
// Implementations must treat a miss as (nil, nil).
type EventCache interface {
	Get(ctx context.Context, eventID string) (*domain.Event, error)
	Set(ctx context.Context, event domain.Event) error
	Delete(ctx context.Context, eventID string) error
}

type EventService struct {
	repo  EventRepository
	clock clock.Clock
	cache EventCache
}

func NewEventService(repo EventRepository, clk clock.Clock, opts ...EventServiceOption) *EventService {
	svc := &EventService{
		repo:  repo,
		clock: clk,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type EventServiceOption func(*EventService)

// WithEventCache enables the read-through cache for GetEvent.
func WithEventCache(cache EventCache) EventServiceOption {
	return func(s *EventService) {
		s.cache = cache
	}
}

type CreateEventInput struct {
	Name             string
	Description      string
	TicketPrice      decimal.Decimal
	TicketsAvailable int
}

// CreateEvent creates an event owned by the calling organizer. Price and
// availability are normalized to their non-negative magnitude rather than
// rejected.
func (s *EventService) CreateEvent(ctx context.Context, callerID string, in CreateEventInput) (domain.Event, error) {
	account, err := s.repo.GetAccount(ctx, callerID)
	if err != nil {
		return domain.Event{}, err
	}
	if err := auth.RequireOrganizer(account); err != nil {
		return domain.Event{}, err
	}

	available := in.TicketsAvailable
	if available < 0 {
		available = -available
	}

	event := domain.Event{
		ID:               newID(),
		Name:             in.Name,
		Description:      in.Description,
		Organizer:        account.Username,
		OrganizerID:      callerID,
		TicketPrice:      in.TicketPrice.Abs(),
		TicketsSold:      0,
		TicketsAvailable: available,
		CreatedAt:        s.clock.Now(),
	}

	if err := s.repo.PutEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	metrics.EventsCreated.Inc()
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, eventID); err == nil && cached != nil {
			return *cached, nil
		}
	}

	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, event)
	}
	return event, nil
}

// DeleteEvent removes an event after invalidating every ticket issued
// against it, as one transaction. Tickets stay on record as proof of
// historical purchase; only their validity flag changes.
func (s *EventService) DeleteEvent(ctx context.Context, callerID, eventID string) (domain.Event, error) {
	eventID = strings.TrimSpace(eventID)

	if _, err := s.repo.GetAccount(ctx, callerID); err != nil {
		return domain.Event{}, err
	}

	var deleted domain.Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := auth.RequireEventOwner(callerID, event); err != nil {
			return err
		}

		invalidated, err := s.repo.InvalidateEventTickets(txCtx, eventID, s.clock.Now())
		if err != nil {
			return err
		}
		if err := s.repo.DeleteEvent(txCtx, eventID); err != nil {
			return err
		}

		metrics.TicketsInvalidated.Add(float64(invalidated))
		deleted = event
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, eventID)
	}
	return deleted, nil
}

// TopUpTickets raises the event's available ticket count by |amount|.
func (s *EventService) TopUpTickets(ctx context.Context, callerID, eventID string, amount int) (domain.Event, error) {
	if amount == 0 {
		return domain.Event{}, domain.ErrAmountRequired
	}
	if amount < 0 {
		amount = -amount
	}

	account, err := s.repo.GetAccount(ctx, callerID)
	if err != nil {
		return domain.Event{}, err
	}
	if err := auth.RequireOrganizer(account); err != nil {
		return domain.Event{}, err
	}

	var result domain.Event
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if err := auth.RequireEventOwner(callerID, event); err != nil {
			return err
		}

		now := s.clock.Now()
		event.TicketsAvailable += amount
		event.UpdatedAt = &now

		if err := s.repo.PutEvent(txCtx, event); err != nil {
			return err
		}
		result = event
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, eventID)
	}
	return result, nil
}
