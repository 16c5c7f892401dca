package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yxzhu16/helpdesk/internal/conversation"
	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/graph"
	"github.com/yxzhu16/helpdesk/internal/llm"
)

// ChatResult is the outcome of a completed turn.
type ChatResult struct {
	SessionID          string
	TurnID             string
	AssistantMessageID string
	Answer             string
	Knowledge          []domain.RetrievedFAQ
	Trace              []graph.TraceEvent
}

// Chat runs one orchestrated turn: ensure the session, open the turn, rebuild
// bounded history, drive the graph and finalize the assistant message. emit
// receives answer deltas as they stream; it may be nil.
//
// The assistant row is finalized only on success. A failed turn leaves it
// incomplete, which keeps it out of every future context window.
func (s *Service) Chat(ctx context.Context, sessionID, turnID, message string, emit graph.EmitFunc) (*ChatResult, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	sessionID, err := s.store.EnsureSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	assistantID, err := s.store.BeginTurn(ctx, sessionID, turnID, message)
	if err != nil {
		return nil, err
	}

	// The in-flight turn is excluded automatically: its assistant row is
	// still incomplete, so the assembler drops the whole round.
	history, err := conversation.BuildHistory(ctx, s.store, sessionID, s.cfg.HistoryMaxMessages, s.cfg.HistoryMaxRounds, "")
	if err != nil {
		return nil, err
	}

	state := &graph.State{
		SessionID: sessionID,
		TurnID:    turnID,
		UserQuery: message,
		History:   history,
	}

	nodes := graph.NewNodes(s.gateway, s.cfg.LLMModel, s.prompts, s.engine, s.registry, s.policy, s.cfg.RetrievalTopK, s.cfg.RetrievalThreshold, emit)
	if err := nodes.Graph().Run(ctx, state); err != nil {
		return nil, err
	}

	refs := knowledgeRefs(state.Knowledge)
	if err := s.store.FinishTurn(ctx, assistantID, state.Answer, refs); err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID:          sessionID,
		TurnID:             turnID,
		AssistantMessageID: assistantID,
		Answer:             state.Answer,
		Knowledge:          state.Knowledge,
		Trace:              state.Trace,
	}, nil
}

// PlainChat runs one turn without the orchestration graph: history plus the
// user message straight into a streamed completion. Same persistence contract
// as Chat.
func (s *Service) PlainChat(ctx context.Context, sessionID, turnID, message string, emit graph.EmitFunc) (*ChatResult, error) {
	if err := validateMessage(message); err != nil {
		return nil, err
	}

	sessionID, err := s.store.EnsureSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	assistantID, err := s.store.BeginTurn(ctx, sessionID, turnID, message)
	if err != nil {
		return nil, err
	}

	history, err := conversation.BuildHistory(ctx, s.store, sessionID, s.cfg.HistoryMaxMessages, s.cfg.HistoryMaxRounds, s.prompts.ChatSystem)
	if err != nil {
		return nil, err
	}
	msgs := append(history, llm.ChatMessage{Role: string(domain.RoleUser), Content: message})

	var answer strings.Builder
	_, err = s.gateway.CreateChatCompletionStream(ctx, &llm.ChatCompletionRequest{
		Model:    s.cfg.LLMModel,
		Messages: msgs,
	}, func(chunk *llm.StreamChunk) error {
		for _, choice := range chunk.Choices {
			if choice.Delta == nil || choice.Delta.Content == "" {
				continue
			}
			answer.WriteString(choice.Delta.Content)
			if emit != nil {
				if err := emit(choice.Delta.Content); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.FinishTurn(ctx, assistantID, answer.String(), nil); err != nil {
		return nil, err
	}

	return &ChatResult{
		SessionID:          sessionID,
		TurnID:             turnID,
		AssistantMessageID: assistantID,
		Answer:             answer.String(),
	}, nil
}

func validateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}
	if len(message) > domain.MaxChatMessageLen {
		return fmt.Errorf("message exceeds %d characters", domain.MaxChatMessageLen)
	}
	return nil
}

// knowledgeRefs serializes the snippets cited by a turn for persistence
// alongside the assistant message.
func knowledgeRefs(snippets []domain.RetrievedFAQ) []byte {
	if len(snippets) == 0 {
		return nil
	}
	type ref struct {
		ID    int64   `json:"id"`
		Score float64 `json:"score"`
	}
	refs := make([]ref, 0, len(snippets))
	for _, sn := range snippets {
		refs = append(refs, ref{ID: sn.ID, Score: sn.Score})
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return nil
	}
	return data
}
