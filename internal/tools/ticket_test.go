package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/store"
)

func newTestRegistry(t *testing.T) (*Registry, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewTicketRegistry(st), st
}

func TestRegistryListOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	caps := r.List()
	want := []string{"ticket_create", "ticket_read", "ticket_update", "need_more_info"}
	if len(caps) != len(want) {
		t.Fatalf("expected %d capabilities, got %d", len(want), len(caps))
	}
	for i, name := range want {
		if caps[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, caps[i].Name)
		}
	}
}

func TestTicketCreateAndRead(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Execute(ctx, "ticket_create", json.RawMessage(`{"user_id":7,"subject":"no invoice","content":"missing invoice for order 123","category":"billing"}`))
	if err != nil {
		t.Fatalf("ticket_create failed: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok result, got %+v", res)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(res.Data, &created); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned ticket id")
	}

	ticket, err := st.GetTicket(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTicket failed: %v", err)
	}
	if ticket == nil || ticket.Status != domain.TicketStatusOpen || ticket.UserID != 7 {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}

	res, err = r.Execute(ctx, "ticket_read", json.RawMessage(`{"id":"`+created.ID+`"}`))
	if err != nil {
		t.Fatalf("ticket_read failed: %v", err)
	}
	var got domain.Ticket
	if err := json.Unmarshal(res.Data, &got); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if got.Subject != "no invoice" {
		t.Fatalf("unexpected ticket: %+v", got)
	}
}

func TestTicketCreateMissingFields(t *testing.T) {
	r, _ := newTestRegistry(t)

	res, err := r.Execute(context.Background(), "ticket_create", json.RawMessage(`{"subject":"x"}`))
	if err != nil {
		t.Fatalf("ticket_create failed: %v", err)
	}
	if res.OK {
		t.Fatalf("expected ok=false, got %+v", res)
	}
}

func TestTicketReadByFilter(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()

	for _, tk := range []*domain.Ticket{
		{ID: "tk-1", UserID: 1, Subject: "broken login", Content: "c", Category: "technical"},
		{ID: "tk-2", UserID: 2, Subject: "wrong charge", Content: "c", Category: "billing"},
	} {
		if err := st.CreateTicket(ctx, tk); err != nil {
			t.Fatalf("CreateTicket failed: %v", err)
		}
	}

	res, err := r.Execute(ctx, "ticket_read", json.RawMessage(`{"user_id":2,"status":"open"}`))
	if err != nil {
		t.Fatalf("ticket_read failed: %v", err)
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(res.Data, &tickets); err != nil {
		t.Fatalf("decode tickets: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ID != "tk-2" {
		t.Fatalf("unexpected tickets: %+v", tickets)
	}
}

func TestTicketUpdate(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()

	if err := st.CreateTicket(ctx, &domain.Ticket{ID: "tk-1", UserID: 1, Subject: "s", Content: "c", Category: "general"}); err != nil {
		t.Fatalf("CreateTicket failed: %v", err)
	}

	res, err := r.Execute(ctx, "ticket_update", json.RawMessage(`{"id":"tk-1","status":"closed"}`))
	if err != nil {
		t.Fatalf("ticket_update failed: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok result, got %+v", res)
	}

	ticket, _ := st.GetTicket(ctx, "tk-1")
	if ticket.Status != domain.TicketStatusClosed {
		t.Fatalf("status not updated: %+v", ticket)
	}

	// Unknown id reports a miss, not an error.
	res, err = r.Execute(ctx, "ticket_update", json.RawMessage(`{"id":"missing","status":"closed"}`))
	if err != nil {
		t.Fatalf("ticket_update failed: %v", err)
	}
	if res.OK {
		t.Fatalf("expected ok=false for unknown id, got %+v", res)
	}

	// No fields to change.
	res, err = r.Execute(ctx, "ticket_update", json.RawMessage(`{"id":"tk-1"}`))
	if err != nil {
		t.Fatalf("ticket_update failed: %v", err)
	}
	if res.OK {
		t.Fatalf("expected ok=false for empty patch, got %+v", res)
	}
}

func TestNeedMoreInfo(t *testing.T) {
	r, _ := newTestRegistry(t)

	res, err := r.Execute(context.Background(), "need_more_info", json.RawMessage(`{"missing":["user_id"],"reason":"no account given"}`))
	if err != nil {
		t.Fatalf("need_more_info failed: %v", err)
	}
	if res.OK {
		t.Fatalf("expected ok=false, got %+v", res)
	}
	if res.Message != "reflect_required" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestExecuteUnknownCapability(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.Execute(context.Background(), "ticket_delete", nil); err == nil {
		t.Fatal("expected error for unknown capability")
	}
}
