// Package graph implements the supervisor-routed orchestration loop for one
// chat turn. The supervisor decides, worker nodes gather, and the answer node
// streams the reply; all shared data flows through State under fixed merge
// rules so node order never changes what a field means.
package graph

import (
	"fmt"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/llm"
)

// TraceEvent records one node visit. Events are append-only and deduplicated
// by fingerprint, so replaying an update is harmless.
type TraceEvent struct {
	Node string `json:"node"`
	Note string `json:"note,omitempty"`
	Ts   int64  `json:"ts"` // Unix milliseconds
}

func (e TraceEvent) fingerprint() string {
	return fmt.Sprintf("%s|%s|%d", e.Node, e.Note, e.Ts)
}

// State is the shared turn state. Nodes never mutate it directly; they return
// an Update and the runner applies it.
type State struct {
	SessionID string
	TurnID    string
	UserQuery string

	// History is the reconstructed prior context, fixed for the turn.
	History []llm.ChatMessage

	// Messages is the transcript grown during the turn: the tool-call and
	// tool-result records the worker nodes exchange with the gateway. Later
	// node prompts are built over it, so a second supervisor pass sees what
	// retrieval and the capabilities actually returned.
	Messages []llm.ChatMessage

	// Knowledge accumulates retrieved snippets across knowledge visits.
	Knowledge []domain.RetrievedFAQ

	// Decision is the supervisor's latest routing output, shallow-merged.
	Decision *domain.Decision

	// ToolCall and ToolResult hold only the most recent capability exchange.
	ToolCall   *domain.ToolCall
	ToolResult *domain.ToolResult

	Trace []TraceEvent

	// Answer is the final streamed reply.
	Answer string

	seenTrace map[string]struct{}
}

// Update is a node's contribution to the state. Slice fields append, pointer
// fields replace (Decision shallow-merges), Answer replaces when non-empty.
type Update struct {
	Messages   []llm.ChatMessage
	Knowledge  []domain.RetrievedFAQ
	Decision   *domain.Decision
	ToolCall   *domain.ToolCall
	ToolResult *domain.ToolResult
	Trace      []TraceEvent
	Answer     string
}

// Apply merges an update into the state under the field rules above.
func (s *State) Apply(u *Update) {
	if u == nil {
		return
	}

	s.Messages = append(s.Messages, u.Messages...)
	s.Knowledge = append(s.Knowledge, u.Knowledge...)

	if u.Decision != nil {
		s.Decision = mergeDecision(s.Decision, u.Decision)
	}
	if u.ToolCall != nil {
		s.ToolCall = u.ToolCall
	}
	if u.ToolResult != nil {
		s.ToolResult = u.ToolResult
	}

	if s.seenTrace == nil {
		s.seenTrace = make(map[string]struct{}, len(s.Trace)+len(u.Trace))
		for _, e := range s.Trace {
			s.seenTrace[e.fingerprint()] = struct{}{}
		}
	}
	for _, e := range u.Trace {
		fp := e.fingerprint()
		if _, dup := s.seenTrace[fp]; dup {
			continue
		}
		s.seenTrace[fp] = struct{}{}
		s.Trace = append(s.Trace, e)
	}

	if u.Answer != "" {
		s.Answer = u.Answer
	}
}

// mergeDecision overlays the non-zero fields of next onto prev. Phase, route
// and reason are mandatory on every decision, so they always come from next.
func mergeDecision(prev, next *domain.Decision) *domain.Decision {
	if prev == nil {
		out := *next
		return &out
	}
	out := *prev
	out.Phase = next.Phase
	out.Route = next.Route
	out.Reason = next.Reason
	if next.Intent != "" {
		out.Intent = next.Intent
	}
	if next.RequeryText != "" {
		out.RequeryText = next.RequeryText
	}
	if len(next.Keywords) > 0 {
		out.Keywords = next.Keywords
	}
	if next.Notes != "" {
		out.Notes = next.Notes
	}
	return &out
}
