package domain

// ChatRequest is the turn intake boundary.
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

// MaxChatMessageLen bounds the inbound message size.
const MaxChatMessageLen = 8000

// NewChatRequest opens a fresh session.
type NewChatRequest struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewChatResponse carries the allocated session id.
type NewChatResponse struct {
	SessionID string `json:"sessionId"`
}

// RetrievalRequest is the retrieval test boundary.
type RetrievalRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// RetrievalResponse echoes the query with the ranked results.
type RetrievalResponse struct {
	Query   string         `json:"query"`
	Mode    RetrievalMode  `json:"mode"`
	Count   int            `json:"count"`
	Results []RetrievedFAQ `json:"results"`
}

// EmbedCorpusResponse reports a corpus ingestion pass.
type EmbedCorpusResponse struct {
	Embedded int `json:"embedded"`
	Pending  int `json:"pending"`
}
