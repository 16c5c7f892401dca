package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/llm"
	"github.com/yxzhu16/helpdesk/internal/policy"
	"github.com/yxzhu16/helpdesk/internal/prompts"
	"github.com/yxzhu16/helpdesk/internal/retrieval"
	"github.com/yxzhu16/helpdesk/internal/tools"
)

// DecisionTool is the name of the routing tool forced on the supervisor.
const DecisionTool = "route_decision"

// EmitFunc receives answer text deltas as they stream in.
type EmitFunc func(delta string) error

// Nodes bundles the dependencies of the four node implementations for one
// turn. emit may be nil for non-streaming callers.
type Nodes struct {
	gateway   llm.Gateway
	model     string
	prompts   *prompts.Prompts
	engine    *retrieval.Engine
	registry  *tools.Registry
	policy    *policy.Engine
	topK      int
	threshold float64
	emit      EmitFunc
}

// NewNodes wires the node dependencies.
func NewNodes(gateway llm.Gateway, model string, p *prompts.Prompts, engine *retrieval.Engine, registry *tools.Registry, pol *policy.Engine, topK int, threshold float64, emit EmitFunc) *Nodes {
	return &Nodes{
		gateway:   gateway,
		model:     model,
		prompts:   p,
		engine:    engine,
		registry:  registry,
		policy:    pol,
		topK:      topK,
		threshold: threshold,
		emit:      emit,
	}
}

// Graph builds the turn graph over these nodes.
func (n *Nodes) Graph() *Graph {
	return New(n.Supervisor, n.Knowledge, n.Action, n.Answer)
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}

var decisionToolDef = llm.Tool{
	Type: "function",
	Function: llm.ToolFunction{
		Name:        DecisionTool,
		Description: "Decide the next step for this customer-support turn.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"phase":        map[string]interface{}{"type": "string", "enum": []string{"INTENT", "KNOWLEDGE", "TOOL", "REFLECT", "ANSWER"}},
				"route":        map[string]interface{}{"type": "string", "enum": []string{"to_knowledge", "to_tool", "to_reflect", "to_answer", "finish"}},
				"reason":       map[string]interface{}{"type": "string", "description": "short justification for the route"},
				"intent":       map[string]interface{}{"type": "string", "enum": []string{"technical", "billing", "general"}},
				"requery_text": map[string]interface{}{"type": "string", "description": "rewritten retrieval query when routing to_knowledge"},
				"keywords":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				"notes":        map[string]interface{}{"type": "string"},
			},
			"required": []string{"phase", "route", "reason"},
		},
	},
}

// turnMessages assembles a node prompt: the system prompt, the prior
// conversation, the user's question, then the transcript this turn has
// accumulated so far (search and capability exchanges).
func turnMessages(system string, s *State) []llm.ChatMessage {
	msgs := make([]llm.ChatMessage, 0, len(s.History)+len(s.Messages)+2)
	msgs = append(msgs, llm.ChatMessage{Role: string(domain.RoleSystem), Content: system})
	msgs = append(msgs, s.History...)
	msgs = append(msgs, llm.ChatMessage{Role: string(domain.RoleUser), Content: s.UserQuery})
	msgs = append(msgs, s.Messages...)
	return msgs
}

// toolExchange renders one tool call and its result as the assistant/tool
// message pair the transcript carries.
func toolExchange(callID, name, args, result string) []llm.ChatMessage {
	return []llm.ChatMessage{
		{
			Role: string(domain.RoleAssistant),
			ToolCalls: []llm.ToolCall{{
				ID:       callID,
				Type:     "function",
				Function: llm.ToolCallFunction{Name: name, Arguments: args},
			}},
		},
		{Role: string(domain.RoleTool), ToolCallID: callID, Content: result},
	}
}

// Supervisor asks the gateway for a routing decision via a forced tool call.
// The prompt carries the full turn transcript, so a post-retrieval decision
// is made over what retrieval actually returned. A missing or invalid
// decision is a hard error for the turn.
func (n *Nodes) Supervisor(ctx context.Context, s *State) (*Update, error) {
	resp, err := n.gateway.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:      n.model,
		Messages:   turnMessages(n.prompts.SupervisorSystem, s),
		Tools:      []llm.Tool{decisionToolDef},
		ToolChoice: map[string]interface{}{"type": "function", "function": map[string]string{"name": DecisionTool}},
	})
	if err != nil {
		return nil, fmt.Errorf("supervisor completion: %w", err)
	}

	call, err := firstToolCall(resp)
	if err != nil {
		return nil, fmt.Errorf("supervisor: %w", err)
	}
	if call.Function.Name != DecisionTool {
		return nil, fmt.Errorf("supervisor: unexpected tool %q", call.Function.Name)
	}

	decision, err := domain.ParseDecision([]byte(call.Function.Arguments))
	if err != nil {
		return nil, err
	}

	return &Update{
		Decision: decision,
		Trace: []TraceEvent{{
			Node: NodeSupervisor,
			Note: fmt.Sprintf("%s -> %s: %s", decision.Phase, decision.Route, decision.Reason),
			Ts:   nowMs(),
		}},
	}, nil
}

// SearchTool is the capability the knowledge node forces on the gateway.
const SearchTool = "search_knowledge"

var searchToolDef = llm.Tool{
	Type: "function",
	Function: llm.ToolFunction{
		Name:        SearchTool,
		Description: "Search the FAQ knowledge base for snippets relevant to the user's question.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query":           map[string]interface{}{"type": "string", "description": "retrieval query"},
				"top_k":           map[string]interface{}{"type": "integer", "description": "number of snippets to return"},
				"score_threshold": map[string]interface{}{"type": "number", "description": "minimum similarity score"},
			},
			"required": []string{"query"},
		},
	},
}

// Knowledge lets the gateway parameterize a search_knowledge call, runs the
// retrieval engine and appends the snippets. The call and its outcome are
// recorded as a transcript exchange either way. A failing gateway or
// retrieval degrades to an error-shaped result with a trace note so the turn
// can still answer from the conversation alone.
func (n *Nodes) Knowledge(ctx context.Context, s *State) (*Update, error) {
	callID, query, k, threshold := n.searchParams(ctx, s)
	callArgs, _ := json.Marshal(map[string]interface{}{
		"query":           query,
		"top_k":           k,
		"score_threshold": threshold,
	})

	results, err := n.engine.Retrieve(ctx, query, k, threshold)
	if err != nil {
		log.Printf("WARN: knowledge retrieval failed for turn %s: %v", s.TurnID, err)
		outcome, _ := json.Marshal(domain.ToolResult{OK: false, Error: err.Error()})
		return &Update{
			Messages: toolExchange(callID, SearchTool, string(callArgs), string(outcome)),
			Trace: []TraceEvent{{
				Node: NodeKnowledge,
				Note: "retrieval failed: " + err.Error(),
				Ts:   nowMs(),
			}},
		}, nil
	}

	data, _ := json.Marshal(results)
	outcome, _ := json.Marshal(domain.ToolResult{OK: true, Data: data})
	return &Update{
		Messages:  toolExchange(callID, SearchTool, string(callArgs), string(outcome)),
		Knowledge: results,
		Trace: []TraceEvent{{
			Node: NodeKnowledge,
			Note: fmt.Sprintf("query %q: %d hits", query, len(results)),
			Ts:   nowMs(),
		}},
	}, nil
}

// searchParams asks the gateway to fill in the search_knowledge arguments.
// Any failure falls back to the supervisor's rewritten query (or the raw user
// question) with the configured defaults.
func (n *Nodes) searchParams(ctx context.Context, s *State) (callID, query string, k int, threshold float64) {
	callID = "call_" + uuid.NewString()
	if s.Decision != nil {
		query = s.Decision.RequeryText
	}
	if strings.TrimSpace(query) == "" {
		query = s.UserQuery
	}
	k = n.topK
	threshold = n.threshold

	msgs := make([]llm.ChatMessage, 0, len(s.History)+2)
	msgs = append(msgs, llm.ChatMessage{Role: string(domain.RoleSystem), Content: "Call search_knowledge with a retrieval query rewritten from the user's question."})
	msgs = append(msgs, s.History...)
	msgs = append(msgs, llm.ChatMessage{Role: string(domain.RoleUser), Content: s.UserQuery})

	resp, err := n.gateway.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:      n.model,
		Messages:   msgs,
		Tools:      []llm.Tool{searchToolDef},
		ToolChoice: map[string]interface{}{"type": "function", "function": map[string]string{"name": SearchTool}},
	})
	if err != nil {
		log.Printf("WARN: search_knowledge parameterization failed for turn %s: %v", s.TurnID, err)
		return callID, query, k, threshold
	}
	call, err := firstToolCall(resp)
	if err != nil || call.Function.Name != SearchTool {
		return callID, query, k, threshold
	}
	if call.ID != "" {
		callID = call.ID
	}

	var args struct {
		Query          string  `json:"query"`
		TopK           int     `json:"top_k"`
		ScoreThreshold float64 `json:"score_threshold"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return callID, query, k, threshold
	}
	if strings.TrimSpace(args.Query) != "" {
		query = args.Query
	}
	if args.TopK > 0 {
		k = args.TopK
	}
	// Scores are cosine similarities; a threshold outside [0,1] is capped.
	if t := args.ScoreThreshold; t > 0 {
		if t > 1 {
			t = 1
		}
		threshold = t
	}
	return callID, query, k, threshold
}

// Action lets the gateway pick one ticket capability, gates it through the
// policy engine and executes it. Failures become ok=false results rather
// than turn errors so the supervisor can reflect on them.
func (n *Nodes) Action(ctx context.Context, s *State) (*Update, error) {
	defs := make([]llm.Tool, 0, len(n.registry.List()))
	for _, c := range n.registry.List() {
		defs = append(defs, llm.Tool{
			Type: "function",
			Function: llm.ToolFunction{
				Name:        c.Name,
				Description: c.Description,
				Parameters:  c.Parameters,
			},
		})
	}

	resp, err := n.gateway.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Model:      n.model,
		Messages:   turnMessages(n.prompts.ActionSystem, s),
		Tools:      defs,
		ToolChoice: "required",
	})
	if err != nil {
		return nil, fmt.Errorf("action completion: %w", err)
	}

	call, err := firstToolCall(resp)
	if err != nil {
		return &Update{
			ToolResult: &domain.ToolResult{OK: false, Message: "no capability selected", Error: err.Error()},
			Trace:      []TraceEvent{{Node: NodeAction, Note: "no capability selected", Ts: nowMs()}},
		}, nil
	}

	name := call.Function.Name
	rawArgs := json.RawMessage(call.Function.Arguments)
	toolCall := &domain.ToolCall{Tool: name, Args: rawArgs}

	result := n.executeGated(ctx, name, rawArgs)

	callID := call.ID
	if callID == "" {
		callID = "call_" + uuid.NewString()
	}
	outcome, _ := json.Marshal(result)

	return &Update{
		Messages:   toolExchange(callID, name, call.Function.Arguments, string(outcome)),
		ToolCall:   toolCall,
		ToolResult: result,
		Trace: []TraceEvent{{
			Node: NodeAction,
			Note: fmt.Sprintf("%s ok=%t %s", name, result.OK, result.Message),
			Ts:   nowMs(),
		}},
	}, nil
}

// executeGated evaluates the capability policy and runs the executor only on
// an allow decision.
func (n *Nodes) executeGated(ctx context.Context, name string, rawArgs json.RawMessage) *domain.ToolResult {
	var args map[string]interface{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return &domain.ToolResult{OK: false, Message: "malformed capability arguments", Error: err.Error()}
		}
	}

	if n.policy != nil {
		decision, reason, err := n.policy.Evaluate(ctx, map[string]interface{}{
			"tool": name,
			"args": args,
		})
		if err != nil {
			return &domain.ToolResult{OK: false, Message: "policy evaluation failed", Error: err.Error()}
		}
		if decision == "block" {
			if reason == "" {
				reason = "blocked by capability policy"
			}
			return &domain.ToolResult{OK: false, Message: reason, Error: "policy_blocked"}
		}
	}

	result, err := n.registry.Execute(ctx, name, rawArgs)
	if err != nil {
		return &domain.ToolResult{OK: false, Message: "capability execution failed", Error: err.Error()}
	}
	return result
}

// Answer streams the final reply over the turn transcript, which carries the
// retrieved snippets and capability results as tool exchanges.
func (n *Nodes) Answer(ctx context.Context, s *State) (*Update, error) {
	var answer strings.Builder
	_, err := n.gateway.CreateChatCompletionStream(ctx, &llm.ChatCompletionRequest{
		Model:    n.model,
		Messages: turnMessages(n.prompts.AnswerSystem, s),
	}, func(chunk *llm.StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Delta == nil || choice.Delta.Content == "" {
				continue
			}
			answer.WriteString(choice.Delta.Content)
			if n.emit != nil {
				if err := n.emit(choice.Delta.Content); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("answer stream: %w", err)
	}

	return &Update{
		Answer: answer.String(),
		Trace: []TraceEvent{{
			Node: NodeAnswer,
			Note: fmt.Sprintf("%d chars", answer.Len()),
			Ts:   nowMs(),
		}},
	}, nil
}

func firstToolCall(resp *llm.ChatCompletionResponse) (*llm.ToolCall, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return nil, fmt.Errorf("empty completion response")
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, fmt.Errorf("completion contains no tool call")
	}
	return &calls[0], nil
}
