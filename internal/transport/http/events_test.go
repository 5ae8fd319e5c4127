package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opentix/ledger/internal/app"
	"github.com/opentix/ledger/internal/domain"
)

type fakeEventService struct {
	createFn func(ctx context.Context, callerID string, in app.CreateEventInput) (domain.Event, error)
	listFn   func(ctx context.Context) ([]domain.Event, error)
	getFn    func(ctx context.Context, eventID string) (domain.Event, error)
	deleteFn func(ctx context.Context, callerID, eventID string) (domain.Event, error)
	topUpFn  func(ctx context.Context, callerID, eventID string, amount int) (domain.Event, error)
}

func (f *fakeEventService) CreateEvent(ctx context.Context, callerID string, in app.CreateEventInput) (domain.Event, error) {
	return f.createFn(ctx, callerID, in)
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return f.listFn(ctx)
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return f.getFn(ctx, eventID)
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, callerID, eventID string) (domain.Event, error) {
	return f.deleteFn(ctx, callerID, eventID)
}

func (f *fakeEventService) TopUpTickets(ctx context.Context, callerID, eventID string, amount int) (domain.Event, error) {
	return f.topUpFn(ctx, callerID, eventID, amount)
}

type fakeEventTicketLister struct {
	listFn func(ctx context.Context, callerID, eventID string) ([]domain.Ticket, error)
}

func (f *fakeEventTicketLister) ListEventTickets(ctx context.Context, callerID, eventID string) ([]domain.Ticket, error) {
	return f.listFn(ctx, callerID, eventID)
}

func TestHandleEvents(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("lists events without authentication", func(t *testing.T) {
		svc := &fakeEventService{
			listFn: func(context.Context) ([]domain.Event, error) {
				return []domain.Event{
					{ID: "evt-1", Name: "Expo", CreatedAt: now},
					{ID: "evt-2", Name: "Gala", CreatedAt: now},
				}, nil
			},
		}

		rec := httptest.NewRecorder()
		HandleEvents(svc)(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp []eventResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 2 {
			t.Fatalf("expected 2 events, got %d", len(resp))
		}
	})

	t.Run("empty catalog serializes as an empty array", func(t *testing.T) {
		svc := &fakeEventService{
			listFn: func(context.Context) ([]domain.Event, error) { return nil, nil },
		}

		rec := httptest.NewRecorder()
		HandleEvents(svc)(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Fatalf("expected [], got %s", body)
		}
	})

	t.Run("creates an event for an organizer", func(t *testing.T) {
		svc := &fakeEventService{
			createFn: func(_ context.Context, callerID string, in app.CreateEventInput) (domain.Event, error) {
				return domain.Event{
					ID:               "evt-1",
					Name:             in.Name,
					Description:      in.Description,
					OrganizerID:      callerID,
					TicketPrice:      in.TicketPrice,
					TicketsAvailable: in.TicketsAvailable,
					CreatedAt:        now,
				}, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/events",
			strings.NewReader(`{"name":"Expo","description":"annual expo","ticket_price":10,"tickets_available":5}`))
		req.Header.Set(callerIDHeader, "org-1")
		rec := httptest.NewRecorder()
		HandleEvents(svc)(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp eventResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.OrganizerID != "org-1" || resp.Name != "Expo" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("attendee creation maps to 403", func(t *testing.T) {
		svc := &fakeEventService{
			createFn: func(context.Context, string, app.CreateEventInput) (domain.Event, error) {
				return domain.Event{}, domain.ErrNotOrganizer
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"name":"Expo"}`))
		req.Header.Set(callerIDHeader, "att-1")
		rec := httptest.NewRecorder()
		HandleEvents(svc)(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeNotOrganizer)
	})
}

func TestHandleEventByID(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("gets a single event", func(t *testing.T) {
		svc := &fakeEventService{
			getFn: func(_ context.Context, eventID string) (domain.Event, error) {
				return domain.Event{ID: eventID, Name: "Expo", CreatedAt: now}, nil
			},
		}

		rec := httptest.NewRecorder()
		HandleEventByID(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/events/evt-1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unknown event maps to 404", func(t *testing.T) {
		svc := &fakeEventService{
			getFn: func(context.Context, string) (domain.Event, error) {
				return domain.Event{}, domain.ErrEventNotFound
			},
		}

		rec := httptest.NewRecorder()
		HandleEventByID(svc, nil)(rec, httptest.NewRequest(http.MethodGet, "/events/missing", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeEventNotFound)
	})

	t.Run("delete returns the removed event", func(t *testing.T) {
		var gotCaller, gotEvent string
		svc := &fakeEventService{
			deleteFn: func(_ context.Context, callerID, eventID string) (domain.Event, error) {
				gotCaller, gotEvent = callerID, eventID
				return domain.Event{ID: eventID, Name: "Expo", CreatedAt: now}, nil
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/events/evt-1", nil)
		req.Header.Set(callerIDHeader, "org-1")
		rec := httptest.NewRecorder()
		HandleEventByID(svc, nil)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotCaller != "org-1" || gotEvent != "evt-1" {
			t.Fatalf("unexpected args: %q %q", gotCaller, gotEvent)
		}
	})

	t.Run("non-owner delete maps to 403", func(t *testing.T) {
		svc := &fakeEventService{
			deleteFn: func(context.Context, string, string) (domain.Event, error) {
				return domain.Event{}, domain.ErrNotEventOwner
			},
		}

		req := httptest.NewRequest(http.MethodDelete, "/events/evt-1", nil)
		req.Header.Set(callerIDHeader, "other")
		rec := httptest.NewRecorder()
		HandleEventByID(svc, nil)(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeNotEventOwner)
	})

	t.Run("tops up ticket availability", func(t *testing.T) {
		var gotAmount int
		svc := &fakeEventService{
			topUpFn: func(_ context.Context, callerID, eventID string, amount int) (domain.Event, error) {
				gotAmount = amount
				return domain.Event{ID: eventID, TicketsAvailable: 8, CreatedAt: now}, nil
			},
		}

		req := httptest.NewRequest(http.MethodPost, "/events/evt-1/topup", strings.NewReader(`{"amount":3}`))
		req.Header.Set(callerIDHeader, "org-1")
		rec := httptest.NewRecorder()
		HandleEventByID(svc, nil)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAmount != 3 {
			t.Fatalf("expected amount 3, got %d", gotAmount)
		}
	})

	t.Run("lists event tickets for the owner", func(t *testing.T) {
		lister := &fakeEventTicketLister{
			listFn: func(_ context.Context, callerID, eventID string) ([]domain.Ticket, error) {
				return []domain.Ticket{
					{ID: "tkt-1", EventID: eventID, Price: decimal.NewFromInt(10), Valid: true, CreatedAt: now},
				}, nil
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/events/evt-1/tickets", nil)
		req.Header.Set(callerIDHeader, "org-1")
		rec := httptest.NewRecorder()
		HandleEventByID(&fakeEventService{}, lister)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp []ticketResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 1 || resp[0].ID != "tkt-1" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("unknown subresource is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleEventByID(&fakeEventService{}, nil)(rec, httptest.NewRequest(http.MethodGet, "/events/evt-1/holds", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("rejects wrong methods per subresource", func(t *testing.T) {
		cases := []struct {
			method string
			path   string
		}{
			{http.MethodPost, "/events/evt-1"},
			{http.MethodGet, "/events/evt-1/topup"},
			{http.MethodPost, "/events/evt-1/tickets"},
		}
		for _, tc := range cases {
			rec := httptest.NewRecorder()
			HandleEventByID(&fakeEventService{}, nil)(rec, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, rec.Code)
			}
		}
	})
}

func TestParseEventPath(t *testing.T) {
	cases := []struct {
		path    string
		eventID string
		sub     string
		ok      bool
	}{
		{"/events/evt-1", "evt-1", "", true},
		{"/events/evt-1/", "evt-1", "", true},
		{"/events/evt-1/topup", "evt-1", "topup", true},
		{"/events/evt-1/tickets", "evt-1", "tickets", true},
		{"/events/", "", "", false},
		{"/events/evt-1/unknown", "", "", false},
		{"/events/evt-1/tickets/extra", "", "", false},
	}

	for _, tc := range cases {
		eventID, sub, ok := parseEventPath(tc.path)
		if eventID != tc.eventID || sub != tc.sub || ok != tc.ok {
			t.Fatalf("%s: got (%q, %q, %v), want (%q, %q, %v)", tc.path, eventID, sub, ok, tc.eventID, tc.sub, tc.ok)
		}
	}
}
