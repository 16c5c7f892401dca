// Package domain defines the core domain models for the helpdesk orchestrator.
package domain

import "fmt"

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Phase represents the reasoning phase the supervisor reports with a decision.
type Phase string

const (
	PhaseIntent    Phase = "INTENT"
	PhaseKnowledge Phase = "KNOWLEDGE"
	PhaseTool      Phase = "TOOL"
	PhaseReflect   Phase = "REFLECT"
	PhaseAnswer    Phase = "ANSWER"
)

// Route represents the transition target chosen by the supervisor.
type Route string

const (
	RouteToKnowledge Route = "to_knowledge"
	RouteToTool      Route = "to_tool"
	RouteToReflect   Route = "to_reflect"
	RouteToAnswer    Route = "to_answer"
	RouteFinish      Route = "finish"
)

// Intent classifies a user turn.
type Intent string

const (
	IntentTechnical Intent = "technical"
	IntentBilling   Intent = "billing"
	IntentGeneral   Intent = "general"
)

// TicketStatus represents the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// RetrievalMode selects the retrieval strategy for the test boundary.
// Only vector mode is functional; bm25 and hybrid are accepted but return
// empty results.
type RetrievalMode string

const (
	RetrievalModeVector RetrievalMode = "vector"
	RetrievalModeBM25   RetrievalMode = "bm25"
	RetrievalModeHybrid RetrievalMode = "hybrid"
)

// ValidPhase reports whether p is a known phase.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseIntent, PhaseKnowledge, PhaseTool, PhaseReflect, PhaseAnswer:
		return true
	}
	return false
}

// ValidRoute reports whether r is a known route.
func ValidRoute(r Route) bool {
	switch r {
	case RouteToKnowledge, RouteToTool, RouteToReflect, RouteToAnswer, RouteFinish:
		return true
	}
	return false
}

// ValidIntent reports whether i is a known intent.
func ValidIntent(i Intent) bool {
	switch i {
	case IntentTechnical, IntentBilling, IntentGeneral:
		return true
	}
	return false
}

// ParseRetrievalMode validates a retrieval mode string, defaulting to vector
// when empty.
func ParseRetrievalMode(s string) (RetrievalMode, error) {
	if s == "" {
		return RetrievalModeVector, nil
	}
	switch m := RetrievalMode(s); m {
	case RetrievalModeVector, RetrievalModeBM25, RetrievalModeHybrid:
		return m, nil
	}
	return "", fmt.Errorf("unknown retrieval mode %q", s)
}
