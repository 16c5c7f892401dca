package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// MockClient is a deterministic Gateway implementation for local runs and
// tests. When a tool set is offered it picks the first tool; for the
// supervisor's decision tool it always routes straight to the answer so a
// mock run terminates.
type MockClient struct{}

// NewMockClient creates a new mock gateway.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements Gateway interface.
var _ Gateway = (*MockClient)(nil)

const mockDecisionArgs = `{"phase":"ANSWER","route":"to_answer","reason":"mock gateway always answers directly"}`

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	msg := &ChatMessage{Role: "assistant"}

	if len(req.Tools) > 0 {
		fn := req.Tools[0].Function
		args := "{}"
		if fn.Name == "route_decision" {
			args = mockDecisionArgs
		}
		msg.ToolCalls = []ToolCall{
			{
				ID:   fmt.Sprintf("mock-call-%d", time.Now().UnixNano()),
				Type: "function",
				Function: ToolCallFunction{
					Name:      fn.Name,
					Arguments: args,
				},
			},
		}
	} else {
		msg.Content = m.generateMockResponse(req)
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      msg,
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(msg.Content) / 4,
			TotalTokens:      m.estimateTokens(req) + len(msg.Content)/4,
		},
	}, nil
}

// CreateChatCompletionStream simulates a streaming response.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	responseContent := m.generateMockResponse(req)
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	chunks := splitIntoChunks(responseContent, 10)

	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		finishReason := ""
		if i == len(chunks)-1 {
			finishReason = "stop"
		}

		streamChunk := &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{
				{
					Index: 0,
					Delta: &ChatMessage{
						Role:    "assistant",
						Content: chunk,
					},
					FinishReason: finishReason,
				},
			},
		}

		if err := callback(streamChunk); err != nil {
			return nil, err
		}
	}

	usage := &Usage{
		PromptTokens:     m.estimateTokens(req),
		CompletionTokens: len(responseContent) / 4,
		TotalTokens:      m.estimateTokens(req) + len(responseContent)/4,
	}

	return usage, nil
}

// CreateEmbeddings returns deterministic unit vectors derived from the text
// so that equal texts embed identically across calls.
func (m *MockClient) CreateEmbeddings(ctx context.Context, req *EmbeddingRequest) ([][]float32, error) {
	dim := req.Dimensions
	if dim <= 0 {
		dim = 8
	}

	vectors := make([][]float32, len(req.Input))
	for i, text := range req.Input {
		h := fnv.New64a()
		h.Write([]byte(text))
		seed := h.Sum64()

		vec := make([]float32, dim)
		var norm float64
		for j := range vec {
			seed = seed*6364136223846793005 + 1442695040888963407
			v := float64(int64(seed>>11)) / float64(1<<52)
			vec[j] = float32(v)
			norm += v * v
		}
		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
			for j := range vec {
				vec[j] *= scale
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// generateMockResponse generates a mock response based on the request.
func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	if lastUserMessage == "" {
		return "[MOCK] This is a mock response from the gateway."
	}

	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

// splitIntoChunks splits a string into chunks of approximately the given size.
func splitIntoChunks(s string, chunkSize int) []string {
	if len(s) == 0 {
		return []string{""}
	}

	var chunks []string
	for i := 0; i < len(s); i += chunkSize {
		end := i + chunkSize
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
