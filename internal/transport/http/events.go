package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opentix/ledger/internal/app"
	"github.com/opentix/ledger/internal/domain"
)

// EventService is the minimal interface needed by the event endpoints.
type EventService interface {
	CreateEvent(ctx context.Context, callerID string, in app.CreateEventInput) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	DeleteEvent(ctx context.Context, callerID, eventID string) (domain.Event, error)
	TopUpTickets(ctx context.Context, callerID, eventID string, amount int) (domain.Event, error)
}

// EventTicketLister is the minimal interface for the organizer's per-event
// ticket listing.
type EventTicketLister interface {
	ListEventTickets(ctx context.Context, callerID, eventID string) ([]domain.Ticket, error)
}

// HandleEvents returns an HTTP handler for event listing and creation.
func HandleEvents(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			events, err := svc.ListEvents(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]eventResponse, 0, len(events))
			for _, event := range events {
				resp = append(resp, toEventResponse(event))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		case http.MethodPost:
			var req createEventRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			event, err := svc.CreateEvent(r.Context(), callerID(r), app.CreateEventInput{
				Name:             req.Name,
				Description:      req.Description,
				TicketPrice:      req.TicketPrice,
				TicketsAvailable: req.TicketsAvailable,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toEventResponse(event))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

// HandleEventByID returns an HTTP handler for single-event operations:
// GET/DELETE /events/{id}, POST /events/{id}/topup and
// GET /events/{id}/tickets.
func HandleEventByID(svc EventService, tickets EventTicketLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, sub, ok := parseEventPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch sub {
		case "":
			switch r.Method {
			case http.MethodGet:
				event, err := svc.GetEvent(r.Context(), eventID)
				if err != nil {
					writeDomainError(w, err)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(toEventResponse(event))
			case http.MethodDelete:
				event, err := svc.DeleteEvent(r.Context(), callerID(r), eventID)
				if err != nil {
					writeDomainError(w, err)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(toEventResponse(event))
			default:
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			}
			return
		case "topup":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req topUpTicketsRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			event, err := svc.TopUpTickets(r.Context(), callerID(r), eventID, req.Amount)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toEventResponse(event))
			return
		case "tickets":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			list, err := tickets.ListEventTickets(r.Context(), callerID(r), eventID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]ticketResponse, 0, len(list))
			for _, ticket := range list {
				resp = append(resp, toTicketResponse(ticket))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
	}
}

type createEventRequest struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	TicketPrice      decimal.Decimal `json:"ticket_price"`
	TicketsAvailable int             `json:"tickets_available"`
}

type topUpTicketsRequest struct {
	Amount int `json:"amount"`
}

type eventResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Organizer        string          `json:"organizer"`
	OrganizerID      string          `json:"organizer_id"`
	TicketPrice      decimal.Decimal `json:"ticket_price"`
	TicketsSold      int             `json:"tickets_sold"`
	TicketsAvailable int             `json:"tickets_available"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        *time.Time      `json:"updated_at,omitempty"`
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:               event.ID,
		Name:             event.Name,
		Description:      event.Description,
		Organizer:        event.Organizer,
		OrganizerID:      event.OrganizerID,
		TicketPrice:      event.TicketPrice,
		TicketsSold:      event.TicketsSold,
		TicketsAvailable: event.TicketsAvailable,
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
	}
}

// parseEventPath splits /events/{id}[/topup|/tickets] into the event id and
// the trailing segment.
func parseEventPath(path string) (eventID, sub string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "events" || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		if parts[2] != "topup" && parts[2] != "tickets" {
			return "", "", false
		}
		return parts[1], parts[2], true
	}
	return parts[1], "", true
}
