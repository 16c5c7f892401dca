package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/llm"
	"github.com/yxzhu16/helpdesk/internal/policy"
	"github.com/yxzhu16/helpdesk/internal/prompts"
	"github.com/yxzhu16/helpdesk/internal/retrieval"
	"github.com/yxzhu16/helpdesk/internal/store"
	"github.com/yxzhu16/helpdesk/internal/tools"
)

// scriptedGateway answers every completion with a fixed tool call and keeps
// the last request for inspection.
type scriptedGateway struct {
	call llm.ToolCall
	last *llm.ChatCompletionRequest
}

func (g *scriptedGateway) CreateChatCompletion(_ context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	g.last = req
	return &llm.ChatCompletionResponse{Choices: []llm.Choice{{
		Message: &llm.ChatMessage{Role: "assistant", ToolCalls: []llm.ToolCall{g.call}},
	}}}, nil
}

func (g *scriptedGateway) CreateChatCompletionStream(_ context.Context, req *llm.ChatCompletionRequest, _ llm.StreamCallback) (*llm.Usage, error) {
	g.last = req
	return &llm.Usage{}, nil
}

func (g *scriptedGateway) CreateEmbeddings(context.Context, *llm.EmbeddingRequest) ([][]float32, error) {
	return nil, nil
}

type failingGateway struct{}

func (failingGateway) CreateChatCompletion(context.Context, *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	return nil, errors.New("gateway unavailable")
}

func (failingGateway) CreateChatCompletionStream(context.Context, *llm.ChatCompletionRequest, llm.StreamCallback) (*llm.Usage, error) {
	return nil, errors.New("gateway unavailable")
}

func (failingGateway) CreateEmbeddings(context.Context, *llm.EmbeddingRequest) ([][]float32, error) {
	return nil, errors.New("gateway unavailable")
}

func newTestNodes(t *testing.T, emit EmitFunc) (*Nodes, *store.SQLiteStore) {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gateway := llm.NewMockClient()
	engine := retrieval.NewEngine(db, gateway, "test-embedding", 8)
	registry := tools.NewTicketRegistry(db)

	pol, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	return NewNodes(gateway, "test-model", prompts.Defaults(), engine, registry, pol, 5, 0.6, emit), db
}

func TestSupervisorNodeProducesDecision(t *testing.T) {
	n, _ := newTestNodes(t, nil)
	s := &State{UserQuery: "hello"}

	upd, err := n.Supervisor(context.Background(), s)
	if err != nil {
		t.Fatalf("Supervisor failed: %v", err)
	}
	if upd.Decision == nil {
		t.Fatal("expected a decision")
	}
	// The mock gateway always routes straight to the answer.
	if upd.Decision.Route != domain.RouteToAnswer {
		t.Fatalf("unexpected route: %+v", upd.Decision)
	}
	if len(upd.Trace) != 1 || upd.Trace[0].Node != NodeSupervisor {
		t.Fatalf("unexpected trace: %+v", upd.Trace)
	}
}

func TestSupervisorPromptCarriesTurnTranscript(t *testing.T) {
	gw := &scriptedGateway{call: llm.ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: llm.ToolCallFunction{
			Name:      DecisionTool,
			Arguments: `{"phase":"ANSWER","route":"to_answer","reason":"snippets gathered"}`,
		},
	}}
	n := NewNodes(gw, "test-model", prompts.Defaults(), nil, nil, nil, 5, 0.6, nil)

	// State after a knowledge hop: the search exchange is in the transcript.
	s := &State{UserQuery: "I forgot my password"}
	s.Apply(&Update{Messages: toolExchange("call_0", SearchTool,
		`{"query":"password reset"}`,
		`{"ok":true,"data":[{"question":"How do I reset my password?","answer":"Use the reset link."}]}`)})

	upd, err := n.Supervisor(context.Background(), s)
	if err != nil {
		t.Fatalf("Supervisor failed: %v", err)
	}
	if upd.Decision == nil || upd.Decision.Route != domain.RouteToAnswer {
		t.Fatalf("unexpected decision: %+v", upd.Decision)
	}

	found := false
	for _, m := range gw.last.Messages {
		if m.ToolCallID == "call_0" && strings.Contains(m.Content, "Use the reset link") {
			found = true
		}
	}
	if !found {
		t.Fatalf("retrieval outcome missing from supervisor prompt: %+v", gw.last.Messages)
	}
}

func TestKnowledgeNodeRetrieves(t *testing.T) {
	n, db := newTestNodes(t, nil)
	ctx := context.Background()

	corpusText := "Q: How do I reset my password?\n\nA: Use the reset link."
	faq := &domain.FAQ{Question: "How do I reset my password?", Answer: "Use the reset link."}
	if err := db.CreateFAQ(ctx, faq); err != nil {
		t.Fatalf("CreateFAQ failed: %v", err)
	}
	vectors, err := llm.NewMockClient().CreateEmbeddings(ctx, &llm.EmbeddingRequest{Input: []string{corpusText}, Dimensions: 8})
	if err != nil {
		t.Fatalf("mock embeddings failed: %v", err)
	}
	if err := db.SetFAQEmbedding(ctx, faq.ID, retrieval.EncodeVector(vectors[0])); err != nil {
		t.Fatalf("SetFAQEmbedding failed: %v", err)
	}

	s := &State{
		UserQuery: "I forgot my password",
		Decision:  &domain.Decision{Phase: domain.PhaseKnowledge, Route: domain.RouteToKnowledge, Reason: "r", RequeryText: corpusText},
	}
	upd, err := n.Knowledge(ctx, s)
	if err != nil {
		t.Fatalf("Knowledge failed: %v", err)
	}
	if len(upd.Knowledge) != 1 {
		t.Fatalf("expected 1 snippet, got %d", len(upd.Knowledge))
	}
	if upd.Knowledge[0].Score < 0.99 {
		t.Fatalf("expected near-perfect score, got %f", upd.Knowledge[0].Score)
	}
	// The exchange lands in the transcript for later nodes.
	if len(upd.Messages) != 2 {
		t.Fatalf("expected a 2-message exchange, got %+v", upd.Messages)
	}
	if upd.Messages[0].ToolCalls[0].Function.Name != SearchTool {
		t.Fatalf("unexpected transcript call: %+v", upd.Messages[0])
	}
	if upd.Messages[1].Role != string(domain.RoleTool) || !strings.Contains(upd.Messages[1].Content, "reset link") {
		t.Fatalf("unexpected transcript result: %+v", upd.Messages[1])
	}
}

func TestKnowledgeNodeDegradesOnRetrievalFailure(t *testing.T) {
	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	engine := retrieval.NewEngine(db, failingGateway{}, "test-embedding", 8)
	n := NewNodes(failingGateway{}, "test-model", prompts.Defaults(), engine, nil, nil, 5, 0.6, nil)

	s := &State{TurnID: "t1", UserQuery: "how do I reset my password"}
	upd, err := n.Knowledge(context.Background(), s)
	if err != nil {
		t.Fatalf("expected degraded update, got error: %v", err)
	}
	if len(upd.Knowledge) != 0 {
		t.Fatalf("expected no snippets, got %+v", upd.Knowledge)
	}
	if len(upd.Trace) != 1 || !strings.HasPrefix(upd.Trace[0].Note, "retrieval failed") {
		t.Fatalf("unexpected trace: %+v", upd.Trace)
	}
	if len(upd.Messages) != 2 || !strings.Contains(upd.Messages[1].Content, `"ok":false`) {
		t.Fatalf("expected an error-shaped transcript result, got %+v", upd.Messages)
	}
}

func TestSearchParamsClampThreshold(t *testing.T) {
	gw := &scriptedGateway{call: llm.ToolCall{
		ID:   "call_2",
		Type: "function",
		Function: llm.ToolCallFunction{
			Name:      SearchTool,
			Arguments: `{"query":"reset password","top_k":3,"score_threshold":5}`,
		},
	}}
	n := NewNodes(gw, "test-model", prompts.Defaults(), nil, nil, nil, 5, 0.6, nil)

	_, query, k, threshold := n.searchParams(context.Background(), &State{UserQuery: "I forgot my password"})
	if query != "reset password" || k != 3 {
		t.Fatalf("unexpected params: %q k=%d", query, k)
	}
	if threshold != 1 {
		t.Fatalf("threshold not capped: %f", threshold)
	}

	// Non-positive values keep the configured default.
	gw.call.Function.Arguments = `{"query":"reset password","score_threshold":-0.5}`
	_, _, _, threshold = n.searchParams(context.Background(), &State{UserQuery: "I forgot my password"})
	if threshold != 0.6 {
		t.Fatalf("expected default threshold, got %f", threshold)
	}
}

func TestActionNodePolicyBlocksFirstTool(t *testing.T) {
	n, _ := newTestNodes(t, nil)

	// The mock gateway picks the first offered capability (ticket_create)
	// with empty arguments, which the policy blocks for lacking an owner.
	s := &State{UserQuery: "open a ticket"}
	upd, err := n.Action(context.Background(), s)
	if err != nil {
		t.Fatalf("Action failed: %v", err)
	}
	if upd.ToolCall == nil || upd.ToolCall.Tool != "ticket_create" {
		t.Fatalf("unexpected tool call: %+v", upd.ToolCall)
	}
	if upd.ToolResult == nil || upd.ToolResult.OK {
		t.Fatalf("expected blocked result, got %+v", upd.ToolResult)
	}
	if upd.ToolResult.Error != "policy_blocked" {
		t.Fatalf("expected policy_blocked, got %+v", upd.ToolResult)
	}
	if len(upd.Messages) != 2 || upd.Messages[0].ToolCalls[0].Function.Name != "ticket_create" {
		t.Fatalf("capability exchange missing from transcript: %+v", upd.Messages)
	}
}

func TestAnswerNodeStreams(t *testing.T) {
	var streamed strings.Builder
	n, _ := newTestNodes(t, func(delta string) error {
		streamed.WriteString(delta)
		return nil
	})

	s := &State{UserQuery: "hello"}
	upd, err := n.Answer(context.Background(), s)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if upd.Answer == "" {
		t.Fatal("expected non-empty answer")
	}
	if streamed.String() != upd.Answer {
		t.Fatalf("streamed %q but accumulated %q", streamed.String(), upd.Answer)
	}
}

func TestFullTurnWithMockGateway(t *testing.T) {
	n, _ := newTestNodes(t, nil)

	s := &State{UserQuery: "hello"}
	if err := n.Graph().Run(context.Background(), s); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if s.Answer == "" {
		t.Fatal("expected an answer")
	}
	seq := nodeSequence(s)
	if len(seq) != 2 || seq[0] != NodeSupervisor || seq[1] != NodeAnswer {
		t.Fatalf("unexpected node sequence: %v", seq)
	}
}
