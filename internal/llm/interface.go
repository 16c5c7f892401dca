package llm

import "context"

// Gateway defines the completion/embedding operations the core depends on.
// The concrete endpoint, auth and model selection stay behind this boundary.
type Gateway interface {
	// CreateChatCompletion sends a chat completion request (non-streaming).
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each chunk received.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error)

	// CreateEmbeddings returns one vector per input text, in input order.
	CreateEmbeddings(ctx context.Context, req *EmbeddingRequest) ([][]float32, error)
}

// Ensure Client implements Gateway interface.
var _ Gateway = (*Client)(nil)
