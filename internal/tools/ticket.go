package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/store"
)

type createTicketArgs struct {
	ID       string `json:"id,omitempty"`
	UserID   int64  `json:"user_id"`
	Status   string `json:"status,omitempty"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

type readTicketArgs struct {
	ID          string `json:"id,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	Status      string `json:"status,omitempty"`
	Category    string `json:"category,omitempty"`
	SubjectLike string `json:"subject_like,omitempty"`
	ContentLike string `json:"content_like,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}

type updateTicketArgs struct {
	ID       string `json:"id"`
	Status   string `json:"status,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Content  string `json:"content,omitempty"`
	Category string `json:"category,omitempty"`
}

type needMoreInfoArgs struct {
	Missing []string `json:"missing,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// NewTicketRegistry builds the fixed capability set offered by the action
// node: create/read/update a support ticket plus the need_more_info no-op.
func NewTicketRegistry(st store.Store) *Registry {
	r := NewRegistry()

	r.MustRegister(&Capability{
		Name:        "ticket_create",
		Description: "create a new support ticket. required fields: user_id, subject, content, category; status defaults to open",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id":  map[string]interface{}{"type": "integer", "description": "owner user id"},
				"subject":  map[string]interface{}{"type": "string"},
				"content":  map[string]interface{}{"type": "string"},
				"category": map[string]interface{}{"type": "string", "enum": []string{"technical", "billing", "general"}},
				"status":   map[string]interface{}{"type": "string", "enum": []string{"open", "in_progress", "closed"}},
			},
			"required": []string{"user_id", "subject", "content", "category"},
		},
		Execute: func(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
			var args createTicketArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("ticket_create: bad args: %w", err)
			}
			if args.UserID == 0 || args.Subject == "" || args.Content == "" || args.Category == "" {
				return &domain.ToolResult{OK: false, Message: "missing required fields: user_id, subject, content, category"}, nil
			}
			id := args.ID
			if id == "" {
				id = uuid.New().String()
			}
			t := &domain.Ticket{
				ID:       id,
				UserID:   args.UserID,
				Status:   domain.TicketStatus(args.Status),
				Subject:  args.Subject,
				Content:  args.Content,
				Category: args.Category,
			}
			if err := st.CreateTicket(ctx, t); err != nil {
				return nil, err
			}
			data, _ := json.Marshal(map[string]string{"id": id})
			return &domain.ToolResult{OK: true, Data: data, Message: "ticket created"}, nil
		},
	})

	r.MustRegister(&Capability{
		Name:        "ticket_read",
		Description: "read a ticket. if id is provided, query exactly; otherwise query by conditions (user_id/status/category/subject_like/content_like) with pagination",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id":           map[string]interface{}{"type": "string"},
				"user_id":      map[string]interface{}{"type": "integer"},
				"status":       map[string]interface{}{"type": "string", "enum": []string{"open", "in_progress", "closed"}},
				"category":     map[string]interface{}{"type": "string"},
				"subject_like": map[string]interface{}{"type": "string"},
				"content_like": map[string]interface{}{"type": "string"},
				"limit":        map[string]interface{}{"type": "integer"},
				"offset":       map[string]interface{}{"type": "integer"},
			},
		},
		Execute: func(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
			var args readTicketArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("ticket_read: bad args: %w", err)
			}
			if args.ID != "" {
				t, err := st.GetTicket(ctx, args.ID)
				if err != nil {
					return nil, err
				}
				data, _ := json.Marshal(t)
				return &domain.ToolResult{OK: true, Data: data}, nil
			}
			tickets, err := st.ListTickets(ctx, store.TicketFilter{
				UserID:      args.UserID,
				Status:      domain.TicketStatus(args.Status),
				Category:    args.Category,
				SubjectLike: args.SubjectLike,
				ContentLike: args.ContentLike,
				Limit:       args.Limit,
				Offset:      args.Offset,
			})
			if err != nil {
				return nil, err
			}
			data, _ := json.Marshal(tickets)
			return &domain.ToolResult{OK: true, Data: data}, nil
		},
	})

	r.MustRegister(&Capability{
		Name:        "ticket_update",
		Description: "update some fields of a ticket (status/subject/content/category). delete is not supported",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id":       map[string]interface{}{"type": "string"},
				"status":   map[string]interface{}{"type": "string", "enum": []string{"open", "in_progress", "closed"}},
				"subject":  map[string]interface{}{"type": "string"},
				"content":  map[string]interface{}{"type": "string"},
				"category": map[string]interface{}{"type": "string"},
			},
			"required": []string{"id"},
		},
		Execute: func(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
			var args updateTicketArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("ticket_update: bad args: %w", err)
			}
			if args.ID == "" {
				return &domain.ToolResult{OK: false, Message: "id is required"}, nil
			}
			var patch store.TicketPatch
			if args.Status != "" {
				st := domain.TicketStatus(args.Status)
				patch.Status = &st
			}
			if args.Subject != "" {
				patch.Subject = &args.Subject
			}
			if args.Content != "" {
				patch.Content = &args.Content
			}
			if args.Category != "" {
				patch.Category = &args.Category
			}
			if patch.Empty() {
				return &domain.ToolResult{OK: false, Message: "no fields to update"}, nil
			}
			updated, err := st.UpdateTicket(ctx, args.ID, patch)
			if err != nil {
				return nil, err
			}
			if !updated {
				return &domain.ToolResult{OK: false, Message: "ticket not found"}, nil
			}
			data, _ := json.Marshal(map[string]string{"id": args.ID})
			return &domain.ToolResult{OK: true, Data: data, Message: "ticket updated"}, nil
		},
	})

	r.MustRegister(&Capability{
		Name:        "need_more_info",
		Description: "no-op capability: report that the request is unclear or required parameters are missing",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"missing": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "list of missing fields"},
				"reason":  map[string]interface{}{"type": "string"},
			},
		},
		Execute: func(ctx context.Context, raw json.RawMessage) (*domain.ToolResult, error) {
			var args needMoreInfoArgs
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("need_more_info: bad args: %w", err)
			}
			if args.Reason == "" {
				args.Reason = "unclear request or missing required parameters"
			}
			data, _ := json.Marshal(map[string]interface{}{
				"missing": args.Missing,
				"reason":  args.Reason,
			})
			return &domain.ToolResult{OK: false, Data: data, Message: "reflect_required"}, nil
		},
	})

	return r
}
