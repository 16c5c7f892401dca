// Package policy gates action capabilities with an OPA/rego policy before
// execution. Blocked calls never reach the executor; they surface as
// ok=false tool results with the policy reason.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.capability_policy.decision"),
		rego.Module("capability_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the capability policy. Input keys: tool, args.
// Returns the decision ("allow" or "block") and an optional reason.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "allow", "default", nil
	}

	val := results[0].Expressions[0].Value
	switch v := val.(type) {
	case string:
		return v, "", nil
	case map[string]interface{}:
		decision, _ := v["decision"].(string)
		reason, _ := v["reason"].(string)
		if decision == "" {
			decision = "allow"
		}
		return decision, reason, nil
	}
	return "allow", "unexpected return type", nil
}

// DefaultPolicy is the default capability policy content.
const DefaultPolicy = `
package capability_policy

default decision := "allow"

# Ticket updates must target a concrete ticket
decision := "block" if {
	input.tool == "ticket_update"
	not input.args.id
}

# Tickets cannot be created without an owner
decision := "block" if {
	input.tool == "ticket_create"
	not input.args.user_id
}

# Closed tickets are reopened by support staff, not the assistant
decision := "block" if {
	input.tool == "ticket_update"
	input.args.status == "open"
	input.args.reopen_requested
}
`
