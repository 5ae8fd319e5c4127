package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opentix/ledger/internal/domain"
)

// TicketService is the minimal interface needed by the ticket endpoints.
type TicketService interface {
	Purchase(ctx context.Context, callerID, eventID string) (domain.Ticket, error)
	ListHolderTickets(ctx context.Context, callerID string) ([]domain.Ticket, error)
}

// HandleTickets returns an HTTP handler for purchasing tickets and listing
// the caller's own tickets.
func HandleTickets(svc TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			tickets, err := svc.ListHolderTickets(r.Context(), callerID(r))
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]ticketResponse, 0, len(tickets))
			for _, ticket := range tickets {
				resp = append(resp, toTicketResponse(ticket))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
			return
		case http.MethodPost:
			var req purchaseTicketRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if err := req.validate(); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
				return
			}

			ticket, err := svc.Purchase(r.Context(), callerID(r), req.EventID)
			if err != nil {
				writeDomainError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toTicketResponse(ticket))
			return
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
	}
}

type purchaseTicketRequest struct {
	EventID string `json:"event_id"`
}

func (r purchaseTicketRequest) validate() error {
	if r.EventID == "" {
		return errors.New("event_id is required")
	}
	return nil
}

type ticketResponse struct {
	ID        string          `json:"id"`
	Price     decimal.Decimal `json:"price"`
	Valid     bool            `json:"valid"`
	Holder    string          `json:"holder"`
	HolderID  string          `json:"holder_id"`
	EventID   string          `json:"event_id"`
	EventName string          `json:"event_name"`
	Organizer string          `json:"organizer"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func toTicketResponse(ticket domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:        ticket.ID,
		Price:     ticket.Price,
		Valid:     ticket.Valid,
		Holder:    ticket.Holder,
		HolderID:  ticket.HolderID,
		EventID:   ticket.EventID,
		EventName: ticket.EventName,
		Organizer: ticket.Organizer,
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
	}
}
