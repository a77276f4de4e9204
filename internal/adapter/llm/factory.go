package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "MATCHPARTY_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewChatClient creates a generation client. MATCHPARTY_MODE=MOCK or a
// missing API key selects the canned responder so the server runs without a
// backend.
func NewChatClient(baseURL, apiKey, model string, timeout time.Duration) ChatClient {
	if os.Getenv(EnvMode) == ModeMock {
		log.Println("MATCHPARTY_MODE=MOCK detected, using mock generation client")
		return NewMockClient()
	}
	if apiKey == "" {
		log.Println("WARN: no API key configured, using mock generation client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, model, timeout)
}
