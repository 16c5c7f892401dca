package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decision is the structured routing output the supervisor must produce on
// every loop iteration. It is pure data: validation happens wherever a
// decision is produced or consumed, and a value that fails validation is a
// hard error for the turn, never silently coerced.
type Decision struct {
	Phase       Phase    `json:"phase"`
	Route       Route    `json:"route"`
	Reason      string   `json:"reason"`
	Intent      Intent   `json:"intent,omitempty"`
	RequeryText string   `json:"requery_text,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Validate checks the closed enums and mandatory fields of the decision
// protocol.
func (d *Decision) Validate() error {
	if !ValidPhase(d.Phase) {
		return fmt.Errorf("decision: invalid phase %q", d.Phase)
	}
	if !ValidRoute(d.Route) {
		return fmt.Errorf("decision: invalid route %q", d.Route)
	}
	if strings.TrimSpace(d.Reason) == "" {
		return fmt.Errorf("decision: missing reason")
	}
	if d.Intent != "" && !ValidIntent(d.Intent) {
		return fmt.Errorf("decision: invalid intent %q", d.Intent)
	}
	return nil
}

// ParseDecision decodes and validates a decision payload from the gateway.
func ParseDecision(raw []byte) (*Decision, error) {
	var d Decision
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decision: malformed payload: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ToolCall records the capability the gateway chose and its arguments.
type ToolCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolResult is the outcome of executing a capability, fed back into the
// transcript as a plain data record.
type ToolResult struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}
