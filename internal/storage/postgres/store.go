// Package postgres implements the ledger stores on a durable Postgres
// database. Multi-store mutations run inside a single transaction with row
// locks on the records they rewrite.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opentix/ledger/internal/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}

const accountColumns = `id, username, password, role, balance, tickets_purchased, created_at, updated_at`

func (s *Store) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanAccount(s.queryRow(ctx, query, id))
}

func (s *Store) GetAccountForUpdate(ctx context.Context, id string) (domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return s.scanAccount(s.queryRow(ctx, query, id))
}

func (s *Store) scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Username, &a.Password, &a.Role, &a.Balance, &a.TicketsPurchased, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// PutAccount inserts or overwrites; account creation deliberately does not
// reject an existing key.
func (s *Store) PutAccount(ctx context.Context, account domain.Account) error {
	const stmt = `
INSERT INTO accounts (id, username, password, role, balance, tickets_purchased, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	username = EXCLUDED.username,
	password = EXCLUDED.password,
	role = EXCLUDED.role,
	balance = EXCLUDED.balance,
	tickets_purchased = EXCLUDED.tickets_purchased,
	created_at = EXCLUDED.created_at,
	updated_at = EXCLUDED.updated_at`

	_, err := s.exec(ctx, stmt,
		account.ID,
		account.Username,
		account.Password,
		account.Role,
		account.Balance,
		account.TicketsPurchased,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

const eventColumns = `id, name, description, organizer, organizer_id, ticket_price, tickets_sold, tickets_available, created_at, updated_at`

func (s *Store) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return s.scanEvent(s.queryRow(ctx, query, id))
}

func (s *Store) GetEventForUpdate(ctx context.Context, id string) (domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return s.scanEvent(s.queryRow(ctx, query, id))
}

func (s *Store) scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Organizer, &e.OrganizerID, &e.TicketPrice, &e.TicketsSold, &e.TicketsAvailable, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *Store) PutEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, name, description, organizer, organizer_id, ticket_price, tickets_sold, tickets_available, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	organizer = EXCLUDED.organizer,
	organizer_id = EXCLUDED.organizer_id,
	ticket_price = EXCLUDED.ticket_price,
	tickets_sold = EXCLUDED.tickets_sold,
	tickets_available = EXCLUDED.tickets_available,
	created_at = EXCLUDED.created_at,
	updated_at = EXCLUDED.updated_at`

	_, err := s.exec(ctx, stmt,
		event.ID,
		event.Name,
		event.Description,
		event.Organizer,
		event.OrganizerID,
		event.TicketPrice,
		event.TicketsSold,
		event.TicketsAvailable,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	_, err := s.exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at ASC`
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Organizer, &e.OrganizerID, &e.TicketPrice, &e.TicketsSold, &e.TicketsAvailable, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

const ticketColumns = `id, price, valid, holder, holder_id, event_id, event_name, organizer, created_at, updated_at`

func (s *Store) PutTicket(ctx context.Context, ticket domain.Ticket) error {
	const stmt = `
INSERT INTO tickets (id, price, valid, holder, holder_id, event_id, event_name, organizer, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	valid = EXCLUDED.valid,
	updated_at = EXCLUDED.updated_at`

	_, err := s.exec(ctx, stmt,
		ticket.ID,
		ticket.Price,
		ticket.Valid,
		ticket.Holder,
		ticket.HolderID,
		ticket.EventID,
		ticket.EventName,
		ticket.Organizer,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("put ticket: %w", err)
	}
	return nil
}

func (s *Store) ListEventTickets(ctx context.Context, eventID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE event_id = $1 ORDER BY created_at ASC`
	return s.listTickets(ctx, query, eventID)
}

func (s *Store) ListHolderTickets(ctx context.Context, holderID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE holder_id = $1 ORDER BY created_at ASC`
	return s.listTickets(ctx, query, holderID)
}

func (s *Store) listTickets(ctx context.Context, query string, arg any) ([]domain.Ticket, error) {
	rows, err := s.query(ctx, query, arg)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Price, &t.Valid, &t.Holder, &t.HolderID, &t.EventID, &t.EventName, &t.Organizer, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tickets: %w", rows.Err())
	}
	return tickets, nil
}

// InvalidateEventTickets voids every ticket issued against the event and
// reports how many rows it touched. Tickets are never deleted.
func (s *Store) InvalidateEventTickets(ctx context.Context, eventID string, now time.Time) (int, error) {
	tag, err := s.exec(ctx, `UPDATE tickets SET valid = FALSE, updated_at = $2 WHERE event_id = $1`, eventID, now)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("invalidate tickets: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return s.pool.Exec(ctx, sql, args...)
}

func (s *Store) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return s.pool.QueryRow(ctx, sql, args...)
}

func (s *Store) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return s.pool.Query(ctx, sql, args...)
}
