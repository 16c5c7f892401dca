package domain

import "encoding/json"

// Session groups the turns of one conversation. Sessions are created on the
// first turn that arrives without an id and are never mutated afterwards.
type Session struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
}

// Message is one side of a turn. The user message and its paired assistant
// message share a TurnID. The assistant row is inserted empty and incomplete
// at turn start and rewritten exactly once when the streamed answer finishes.
type Message struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	TurnID        string          `json:"turn_id"`
	Role          Role            `json:"role"`
	Content       string          `json:"content"`
	IsCompleted   bool            `json:"is_completed"`
	KnowledgeRefs json.RawMessage `json:"knowledge_references,omitempty"`
	CreatedAt     int64           `json:"created_at"` // Unix milliseconds
	UpdatedAt     int64           `json:"updated_at"` // Unix milliseconds
}

// Round is a complete turn reconstructed from storage: both messages exist
// and the assistant message is finalized.
type Round struct {
	User      Message
	Assistant Message
}

// Ts is the later of the two message timestamps, used to order rounds.
func (r Round) Ts() int64 {
	if r.Assistant.CreatedAt > r.User.CreatedAt {
		return r.Assistant.CreatedAt
	}
	return r.User.CreatedAt
}

// FAQ is a stored question/answer snippet with an optional embedding blob
// (little-endian float32, 4 bytes per dimension).
type FAQ struct {
	ID        int64  `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Tags      string `json:"tags,omitempty"`
	Embedding []byte `json:"-"`
	Embedded  bool   `json:"-"`
}

// RetrievedFAQ is a FAQ copy augmented with a per-query similarity score.
// The stored row is never mutated by retrieval.
type RetrievedFAQ struct {
	ID       int64   `json:"id"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Tags     string  `json:"tags,omitempty"`
	Score    float64 `json:"score"`
}

// Ticket is a support ticket managed by the action node's capabilities.
type Ticket struct {
	ID        string       `json:"id"`
	UserID    int64        `json:"user_id"`
	Status    TicketStatus `json:"status"`
	Subject   string       `json:"subject"`
	Content   string       `json:"content"`
	Category  string       `json:"category"`
	CreatedAt int64        `json:"created_at"`
	UpdatedAt int64        `json:"updated_at"`
}

// User is an auxiliary entity consumed by ticket capabilities.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Order is an auxiliary entity consumed by ticket capabilities.
type Order struct {
	ID        string  `json:"id"`
	UserID    int64   `json:"user_id"`
	Status    string  `json:"status"`
	Item      string  `json:"item"`
	Total     float64 `json:"total"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
}
