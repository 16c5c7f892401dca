// Package prompts holds the system prompts used by the orchestration nodes.
// Defaults are compiled in; a YAML file can override any of them. Prompts are
// loaded once at startup and treated as read-only afterwards.
package prompts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts is the full prompt set.
type Prompts struct {
	SupervisorSystem string `yaml:"supervisor_system"`
	ActionSystem     string `yaml:"action_system"`
	AnswerSystem     string `yaml:"answer_system"`
	ChatSystem       string `yaml:"chat_system"`
}

const defaultSupervisorSystem = `You are the supervisor of a customer-support assistant. On every step you
must call the route_decision tool exactly once to decide what happens next.

Routes:
- to_knowledge: the answer likely exists in the FAQ knowledge base and it has
  not been searched yet for this question. Set requery_text to a retrieval
  query rewritten from the user's message, and keywords to the key terms.
- to_tool: the user asks to create, look up or update a support ticket.
- to_reflect: the last tool call failed or needs more information; reconsider.
- to_answer: enough context has been gathered (or none is needed) to answer.
- finish: only after an answer has been produced.

Rules:
- Classify intent as technical, billing or general on the first step.
- Never route to_knowledge twice for the same question.
- Always give a short reason for the chosen route.`

const defaultActionSystem = `You operate the support-ticket capabilities. Pick exactly one tool that
fulfils the user's request and fill in its arguments from the conversation.
If required information is missing or the request is ambiguous, call
need_more_info and list what is missing. Never invent ids or user ids.`

const defaultAnswerSystem = `You are a helpful customer-support assistant. Answer the user's question
using the conversation and the provided knowledge snippets. If the snippets
do not cover the question, say so honestly instead of guessing. Keep answers
concise and in the user's language.`

const defaultChatSystem = `You are a helpful customer-support assistant. Answer concisely and in the
user's language.`

// Defaults returns the compiled-in prompt set.
func Defaults() *Prompts {
	return &Prompts{
		SupervisorSystem: defaultSupervisorSystem,
		ActionSystem:     defaultActionSystem,
		AnswerSystem:     defaultAnswerSystem,
		ChatSystem:       defaultChatSystem,
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults unchanged; a missing file is an error so a typo
// in the configured path does not silently fall back.
func Load(path string) (*Prompts, error) {
	p := Defaults()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var file Prompts
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	if file.SupervisorSystem != "" {
		p.SupervisorSystem = file.SupervisorSystem
	}
	if file.ActionSystem != "" {
		p.ActionSystem = file.ActionSystem
	}
	if file.AnswerSystem != "" {
		p.AnswerSystem = file.AnswerSystem
	}
	if file.ChatSystem != "" {
		p.ChatSystem = file.ChatSystem
	}
	return p, nil
}
