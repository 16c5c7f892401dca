package graph

import (
	"context"
	"fmt"

	"github.com/yxzhu16/helpdesk/internal/domain"
)

// Node names. The route table below is the only place transitions are
// defined; nodes never pick their own successor.
const (
	NodeSupervisor = "supervisor"
	NodeKnowledge  = "knowledge"
	NodeAction     = "action"
	NodeAnswer     = "answer"
	NodeEnd        = "end"
)

// maxSteps bounds a single turn. The supervisor prompt keeps loops short;
// this guard keeps a misbehaving gateway from spinning forever.
const maxSteps = 16

// NodeFunc runs one node against the current state and returns its update.
type NodeFunc func(ctx context.Context, s *State) (*Update, error)

// Graph is the fixed supervisor-routed turn loop.
type Graph struct {
	nodes map[string]NodeFunc
}

// New assembles the graph from its node implementations.
func New(supervisor, knowledge, action, answer NodeFunc) *Graph {
	return &Graph{
		nodes: map[string]NodeFunc{
			NodeSupervisor: supervisor,
			NodeKnowledge:  knowledge,
			NodeAction:     action,
			NodeAnswer:     answer,
		},
	}
}

// Run executes the turn loop: supervisor first, worker nodes return to the
// supervisor, answer terminates. The loop ends when routing reaches end or
// the step bound trips.
func (g *Graph) Run(ctx context.Context, s *State) error {
	current := NodeSupervisor

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn := g.nodes[current]
		if fn == nil {
			return fmt.Errorf("graph: no node registered for %q", current)
		}

		upd, err := fn(ctx, s)
		if err != nil {
			return fmt.Errorf("graph: node %s: %w", current, err)
		}
		s.Apply(upd)

		next := g.next(current, s)
		if next == NodeEnd {
			return nil
		}
		current = next
	}

	return fmt.Errorf("graph: step bound exceeded after %d steps", maxSteps)
}

// next resolves the successor of the node that just ran. Unknown routes fail
// closed to end rather than looping.
func (g *Graph) next(current string, s *State) string {
	switch current {
	case NodeSupervisor:
		return routeTarget(s)
	case NodeKnowledge, NodeAction:
		return NodeSupervisor
	case NodeAnswer:
		return NodeEnd
	}
	return NodeEnd
}

func routeTarget(s *State) string {
	if s.Decision == nil {
		return NodeEnd
	}
	switch s.Decision.Route {
	case domain.RouteToKnowledge:
		return NodeKnowledge
	case domain.RouteToTool:
		return NodeAction
	case domain.RouteToReflect:
		return NodeSupervisor
	case domain.RouteToAnswer:
		return NodeAnswer
	case domain.RouteFinish:
		return NodeEnd
	}
	return NodeEnd
}
