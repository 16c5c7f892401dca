// Package tools implements the action capabilities offered to the completion
// gateway: ticket create/read/update and the need_more_info no-op. Each
// capability is a named, schema-described executor; the gateway only picks
// and parameterizes one, execution is ordinary code.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// ExecutorFunc executes a capability with raw JSON arguments.
type ExecutorFunc func(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error)

// Capability bundles the schema offered to the gateway with its executor.
type Capability struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Execute     ExecutorFunc
}

// Registry stores capabilities keyed by name.
type Registry struct {
	mu    sync.RWMutex
	caps  map[string]*Capability
	order []string
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		caps: make(map[string]*Capability),
	}
}

// Register adds a capability.
func (r *Registry) Register(c *Capability) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("capability name is required")
	}
	if c.Execute == nil {
		return fmt.Errorf("executor is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caps[c.Name]; exists {
		return fmt.Errorf("capability already registered for %s", c.Name)
	}
	r.caps[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// MustRegister adds a capability or panics.
func (r *Registry) MustRegister(c *Capability) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the capability by name, or nil.
func (r *Registry) Get(name string) *Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.caps[name]
}

// List returns all capabilities in registration order.
func (r *Registry) List() []*Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Capability, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.caps[name])
	}
	return out
}

// Execute runs the named capability. Executor errors are returned as-is;
// the caller decides whether to degrade them into error-shaped results.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (*domain.ToolResult, error) {
	c := r.Get(name)
	if c == nil {
		return nil, fmt.Errorf("no capability registered for %s", name)
	}
	return c.Execute(ctx, args)
}
