package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvHelpdeskMode is the environment variable name for mode selection.
	EnvHelpdeskMode = "HELPDESK_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewGateway creates a gateway based on the HELPDESK_MODE environment
// variable. If HELPDESK_MODE=MOCK, returns a MockClient; otherwise returns a
// real Client.
func NewGateway(baseURL, apiKey string, timeout time.Duration) Gateway {
	mode := os.Getenv(EnvHelpdeskMode)

	if mode == ModeMock {
		log.Println("HELPDESK_MODE=MOCK detected, using mock gateway")
		return NewMockClient()
	}

	return NewClient(baseURL, apiKey, timeout)
}
