// Package conversation reconstructs bounded prompt context from persisted
// turns. Only complete rounds (both messages present and finalized) are
// eligible, so an in-flight turn can never leak placeholder content into
// another turn's prompt.
package conversation

import (
	"context"
	"sort"

	"github.com/yxzhu16/helpdesk/internal/domain"
	"github.com/yxzhu16/helpdesk/internal/llm"
)

// MessageLoader is the slice of the store the assembler needs.
type MessageLoader interface {
	GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
}

// BuildHistory produces a deterministic, bounded, causally-ordered context
// window: optional system prompt, then the last maxRounds complete rounds in
// ascending order of each round's later timestamp, each round emitted as the
// user message followed by the assistant message.
func BuildHistory(ctx context.Context, loader MessageLoader, sessionID string, maxMessages, maxRounds int, systemPrompt string) ([]llm.ChatMessage, error) {
	msgs, err := loader.GetRecentMessages(ctx, sessionID, maxMessages)
	if err != nil {
		return nil, err
	}

	rounds := assembleRounds(msgs)

	if len(rounds) > maxRounds {
		rounds = rounds[len(rounds)-maxRounds:]
	}

	out := make([]llm.ChatMessage, 0, 2*len(rounds)+1)
	if systemPrompt != "" {
		out = append(out, llm.ChatMessage{Role: string(domain.RoleSystem), Content: systemPrompt})
	}
	for _, r := range rounds {
		out = append(out, llm.ChatMessage{Role: string(domain.RoleUser), Content: r.User.Content})
		out = append(out, llm.ChatMessage{Role: string(domain.RoleAssistant), Content: r.Assistant.Content})
	}
	return out, nil
}

// assembleRounds groups messages by turn id and keeps only groups with both
// a complete user and a complete assistant message, ordered by the later of
// the two timestamps, ascending.
func assembleRounds(msgs []domain.Message) []domain.Round {
	byTurn := make(map[string]*domain.Round)
	order := make([]string, 0, len(msgs))

	for _, m := range msgs {
		if !m.IsCompleted {
			continue
		}
		r, ok := byTurn[m.TurnID]
		if !ok {
			r = &domain.Round{}
			byTurn[m.TurnID] = r
			order = append(order, m.TurnID)
		}
		switch m.Role {
		case domain.RoleUser:
			r.User = m
		case domain.RoleAssistant:
			r.Assistant = m
		}
	}

	var rounds []domain.Round
	for _, turnID := range order {
		r := byTurn[turnID]
		if r.User.ID == "" || r.Assistant.ID == "" {
			continue
		}
		rounds = append(rounds, *r)
	}

	sort.SliceStable(rounds, func(i, j int) bool {
		return rounds[i].Ts() < rounds[j].Ts()
	})
	return rounds
}
